package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joshua-takyi/eventhub/internal/live"
	"github.com/joshua-takyi/eventhub/internal/models"
	"github.com/joshua-takyi/eventhub/internal/monitoring"
)

// Publisher emits domain events after a write commits.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// Runtime carries the collaborators shared by every service.
type Runtime struct {
	Logger    *slog.Logger
	Publisher Publisher // nil disables publishing
	Live      live.Options
	Now       func() time.Time
}

func (rt Runtime) withDefaults() Runtime {
	if rt.Logger == nil {
		rt.Logger = slog.Default()
	}
	if rt.Now == nil {
		rt.Now = func() time.Time { return time.Now().UTC() }
	}
	return rt
}

// publish is best effort: the write it reports has already committed.
func (rt Runtime) publish(ctx context.Context, routingKey string, payload any) {
	if rt.Publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := rt.Publisher.Publish(ctx, routingKey, payload); err != nil {
		rt.Logger.Warn("failed to publish domain event", "routing_key", routingKey, "error", err)
	}
}

func (rt Runtime) liveOptions(collection string) live.Options {
	opts := rt.Live
	opts.Name = collection
	opts.Logger = rt.Logger
	opts.Hooks = monitoring.LiveHooks(collection)
	return opts
}

func authorize(p models.Principal, c models.Capability) error {
	if p.IsAnonymous() {
		return &models.AuthorizationError{Action: c.String(), Reason: "sign in required"}
	}
	if !p.Role.Can(c) {
		return &models.AuthorizationError{Action: c.String(), Reason: fmt.Sprintf("%s accounts cannot", p.Role)}
	}
	return nil
}

func requireSignedIn(p models.Principal) error {
	if p.IsAnonymous() {
		return models.NewValidationError("consumer", "a signed-in user is required")
	}
	return nil
}

// hotelScope resolves which hotel's records p may read. Admins may name any
// hotel; a hotel operator is held to their own id.
func hotelScope(p models.Principal, hotelId string, own models.Capability) (string, error) {
	if !p.IsAnonymous() && p.Role.Can(models.CapViewAnyHotel) {
		if hotelId == "" {
			return "", models.NewValidationError("hotel_id", "is required")
		}
		return hotelId, nil
	}
	if err := authorize(p, own); err != nil {
		return "", err
	}
	if hotelId != "" && hotelId != p.ID.String() {
		return "", &models.AuthorizationError{Action: own.String(), Reason: "not your hotel"}
	}
	return p.ID.String(), nil
}
