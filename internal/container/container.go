package container

import (
	"log/slog"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/joshua-takyi/eventhub/internal/config"
	"github.com/joshua-takyi/eventhub/internal/live"
	"github.com/joshua-takyi/eventhub/internal/models"
	"github.com/joshua-takyi/eventhub/internal/queue"
	"github.com/joshua-takyi/eventhub/internal/services"
	"github.com/redis/go-redis/v9"
	"github.com/supabase-community/supabase-go"
	"go.mongodb.org/mongo-driver/mongo"
)

// Clients are the external connections the container is built from.
// Cloudinary, Redis and Publisher may be nil.
type Clients struct {
	Supabase   *supabase.Client
	MongoDB    *mongo.Client
	Cloudinary *cloudinary.Cloudinary
	Redis      *redis.Client
	Publisher  *queue.Publisher
}

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *slog.Logger
	// Redis is nil when rate limiting has no backing store.
	Redis redis.Cmdable

	Mongo             *models.MongodbRepo
	UserService       *services.UserService
	EventService      *services.EventService
	BookingService    *services.BookingService
	SavedEventService *services.SavedEventService
	StatsService      *services.StatsService
	MediaService      *services.MediaService
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config, logger *slog.Logger, clients Clients) *Container {
	supa := models.SupabaseNewRepo(clients.Supabase, cfg.SupabaseURL, cfg.SupabaseAnonKey)
	mdb := models.MongodbNewRepo(clients.MongoDB, cfg.MongoDBDatabase)

	rt := services.Runtime{
		Logger: logger,
		Live: live.Options{
			MinBackoff: cfg.LiveMinBackoff,
			MaxBackoff: cfg.LiveMaxBackoff,
		},
	}
	// Typed nils must not leak into the interfaces below.
	if clients.Publisher != nil {
		rt.Publisher = clients.Publisher
	}
	var media services.MediaResolver
	if clients.Cloudinary != nil {
		media = services.NewCloudinaryResolver(clients.Cloudinary)
	}

	c := &Container{
		Config:            cfg,
		Logger:            logger,
		Mongo:             mdb,
		UserService:       services.NewUserService(supa, supa, media, rt),
		EventService:      services.NewEventService(mdb, media, rt),
		BookingService:    services.NewBookingService(mdb, mdb, rt),
		SavedEventService: services.NewSavedEventService(mdb, mdb, rt),
		StatsService:      services.NewStatsService(mdb),
		MediaService:      services.NewMediaService(media),
	}
	if clients.Redis != nil {
		c.Redis = clients.Redis
	}
	return c
}
