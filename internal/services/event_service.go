package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/joshua-takyi/eventhub/internal/helpers"
	"github.com/joshua-takyi/eventhub/internal/live"
	"github.com/joshua-takyi/eventhub/internal/models"
	"github.com/joshua-takyi/eventhub/internal/queue"
)

type EventService struct {
	eventRepo models.EventRepo
	media     MediaResolver
	rt        Runtime
}

func NewEventService(eventRepo models.EventRepo, media MediaResolver, rt Runtime) *EventService {
	return &EventService{
		eventRepo: eventRepo,
		media:     media,
		rt:        rt.withDefaults(),
	}
}

func eventMessage(e *models.Event) queue.EventMessage {
	return queue.EventMessage{
		EventID:   e.ID,
		HotelID:   e.HotelID,
		Title:     e.Title,
		Status:    string(e.Status),
		Timestamp: e.UpdatedAt,
	}
}

func (es *EventService) CreateEvent(ctx context.Context, p models.Principal, fields models.EventFields) (*models.Event, error) {
	if err := authorize(p, models.CapManageEvents); err != nil {
		return nil, err
	}

	helpers.StringTrim(&fields.Title, &fields.Location, &fields.Description, &fields.ImageURL, &fields.Categories)
	if err := models.ValidateStruct(fields); err != nil {
		return nil, err
	}

	imageURL, err := resolveImage(ctx, es.media, "image_url", fields.ImageURL, helpers.EventsFolder)
	if err != nil {
		return nil, err
	}

	now := es.rt.Now()
	event := &models.Event{
		ID:          uuid.NewString(),
		HotelID:     p.ID.String(),
		Title:       fields.Title,
		Location:    fields.Location,
		Description: fields.Description,
		ImageURL:    imageURL,
		Categories:  fields.Categories,
		Status:      models.EventActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := es.eventRepo.CreateEvent(ctx, event); err != nil {
		return nil, err
	}

	es.rt.publish(ctx, queue.EventCreated, eventMessage(event))
	return event, nil
}

// ownedEvent loads id and checks that p is the hotel that owns it.
func (es *EventService) ownedEvent(ctx context.Context, p models.Principal, id, action string) (*models.Event, error) {
	if err := authorize(p, models.CapManageEvents); err != nil {
		return nil, err
	}
	if strings.TrimSpace(id) == "" {
		return nil, models.NewValidationError("id", "is required")
	}

	event, err := es.eventRepo.GetEventByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.HotelID != p.ID.String() {
		return nil, &models.AuthorizationError{Action: action, Reason: "event belongs to another hotel"}
	}
	return event, nil
}

func validateEventPatch(patch *models.EventPatch) error {
	if patch.IsEmpty() {
		return models.NewValidationError("patch", "no fields to update")
	}
	helpers.StringTrim(patch.Title, patch.Location, patch.Description, patch.ImageURL, patch.Categories)

	required := []struct {
		name  string
		value *string
	}{
		{"title", patch.Title},
		{"location", patch.Location},
		{"description", patch.Description},
		{"image_url", patch.ImageURL},
	}
	for _, f := range required {
		if f.value != nil && *f.value == "" {
			return models.NewValidationError(f.name, "cannot be blank")
		}
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return models.NewValidationError("status", "must be %s or %s", models.EventActive, models.EventInactive)
	}
	return nil
}

// UpdateEvent applies a partial update. Bookings keep the event snapshot
// they were created with.
func (es *EventService) UpdateEvent(ctx context.Context, p models.Principal, id string, patch models.EventPatch) (*models.Event, error) {
	if _, err := es.ownedEvent(ctx, p, id, "update event"); err != nil {
		return nil, err
	}
	if err := validateEventPatch(&patch); err != nil {
		return nil, err
	}

	if patch.ImageURL != nil {
		url, err := resolveImage(ctx, es.media, "image_url", *patch.ImageURL, helpers.EventsFolder)
		if err != nil {
			return nil, err
		}
		patch.ImageURL = &url
	}

	updated, err := es.eventRepo.UpdateEvent(ctx, id, patch, es.rt.Now())
	if err != nil {
		return nil, err
	}

	es.rt.publish(ctx, queue.EventUpdated, eventMessage(updated))
	return updated, nil
}

func (es *EventService) DeleteEvent(ctx context.Context, p models.Principal, id string) error {
	event, err := es.ownedEvent(ctx, p, id, "delete event")
	if err != nil {
		return err
	}
	if err := es.eventRepo.DeleteEvent(ctx, id); err != nil {
		return err
	}

	event.UpdatedAt = es.rt.Now()
	es.rt.publish(ctx, queue.EventDeleted, eventMessage(event))
	return nil
}

func (es *EventService) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	if strings.TrimSpace(id) == "" {
		return nil, models.NewValidationError("id", "is required")
	}
	return es.eventRepo.GetEventByID(ctx, id)
}

// matchesSearch is a case-insensitive substring match over the fields shown
// on the explore screen.
func matchesSearch(e *models.Event, q string) bool {
	if q == "" {
		return true
	}
	for _, field := range []string{e.Title, e.Location, e.Categories} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

func filterEvents(events []*models.Event, q string) []*models.Event {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return events
	}
	out := make([]*models.Event, 0, len(events))
	for _, e := range events {
		if matchesSearch(e, q) {
			out = append(out, e)
		}
	}
	return out
}

func (es *EventService) activeSource(q string) live.Source[*models.Event] {
	query := models.EventQuery{Status: models.EventActive}
	return live.SourceFuncs[*models.Event]{
		FetchFunc: func(ctx context.Context) ([]*models.Event, error) {
			events, err := es.eventRepo.ListEvents(ctx, query)
			if err != nil {
				return nil, err
			}
			return filterEvents(events, q), nil
		},
		ChangesFunc: func(ctx context.Context) (live.ChangeStream, error) {
			return es.eventRepo.WatchEvents(ctx, query)
		},
	}
}

// ListActiveEvents returns the bookable catalog, newest first, optionally
// narrowed by a search term.
func (es *EventService) ListActiveEvents(ctx context.Context, q string) ([]*models.Event, error) {
	return es.activeSource(q).Fetch(ctx)
}

func (es *EventService) WatchActiveEvents(ctx context.Context, q string) *live.Subscription[*models.Event] {
	return live.Subscribe(ctx, es.activeSource(q), es.rt.liveOptions(models.EventsColName))
}

func (es *EventService) hotelSource(p models.Principal, hotelId string) (live.Source[*models.Event], error) {
	scoped, err := hotelScope(p, hotelId, models.CapManageEvents)
	if err != nil {
		return nil, err
	}
	query := models.EventQuery{HotelID: scoped}
	return live.SourceFuncs[*models.Event]{
		FetchFunc: func(ctx context.Context) ([]*models.Event, error) {
			return es.eventRepo.ListEvents(ctx, query)
		},
		ChangesFunc: func(ctx context.Context) (live.ChangeStream, error) {
			return es.eventRepo.WatchEvents(ctx, query)
		},
	}, nil
}

// ListEventsByHotel returns every event of one hotel in any status. An empty
// hotelId means the caller's own hotel.
func (es *EventService) ListEventsByHotel(ctx context.Context, p models.Principal, hotelId string) ([]*models.Event, error) {
	src, err := es.hotelSource(p, hotelId)
	if err != nil {
		return nil, err
	}
	return src.Fetch(ctx)
}

func (es *EventService) WatchEventsByHotel(ctx context.Context, p models.Principal, hotelId string) (*live.Subscription[*models.Event], error) {
	src, err := es.hotelSource(p, hotelId)
	if err != nil {
		return nil, err
	}
	return live.Subscribe(ctx, src, es.rt.liveOptions(models.EventsColName)), nil
}
