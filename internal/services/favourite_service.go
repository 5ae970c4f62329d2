package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/joshua-takyi/eventhub/internal/models"
)

// SavedEventService manages a consumer's bookmarked events.
type SavedEventService struct {
	savedRepo models.SavedEventsRepo
	eventRepo models.EventRepo
	rt        Runtime
}

func NewSavedEventService(savedRepo models.SavedEventsRepo, eventRepo models.EventRepo, rt Runtime) *SavedEventService {
	return &SavedEventService{
		savedRepo: savedRepo,
		eventRepo: eventRepo,
		rt:        rt.withDefaults(),
	}
}

func savedEventArgs(p models.Principal, eventId string) (string, error) {
	if err := requireSignedIn(p); err != nil {
		return "", err
	}
	eventId = strings.TrimSpace(eventId)
	if eventId == "" {
		return "", models.NewValidationError("event_id", "is required")
	}
	// The id becomes part of a document field path, so only canonical UUIDs pass.
	id, err := uuid.Parse(eventId)
	if err != nil {
		return "", models.NewValidationError("event_id", "must be a valid event id")
	}
	return id.String(), nil
}

// Save bookmarks the event. Saving an already saved event is a no-op.
func (ss *SavedEventService) Save(ctx context.Context, p models.Principal, eventId string) error {
	eventId, err := savedEventArgs(p, eventId)
	if err != nil {
		return err
	}

	event, err := ss.eventRepo.GetEventByID(ctx, eventId)
	if err != nil {
		return err
	}

	return ss.savedRepo.SaveEvent(ctx, p.ID.String(), models.SavedEvent{
		EventID:  event.ID,
		Title:    event.Title,
		Location: event.Location,
		ImageURL: event.ImageURL,
		SavedAt:  ss.rt.Now(),
	})
}

// Remove deletes the bookmark if present.
func (ss *SavedEventService) Remove(ctx context.Context, p models.Principal, eventId string) error {
	eventId, err := savedEventArgs(p, eventId)
	if err != nil {
		return err
	}
	return ss.savedRepo.RemoveSavedEvent(ctx, p.ID.String(), eventId)
}

func (ss *SavedEventService) IsSaved(ctx context.Context, p models.Principal, eventId string) (bool, error) {
	eventId, err := savedEventArgs(p, eventId)
	if err != nil {
		return false, err
	}
	return ss.savedRepo.IsEventSaved(ctx, p.ID.String(), eventId)
}

func (ss *SavedEventService) List(ctx context.Context, p models.Principal) ([]*models.SavedEvent, error) {
	if err := requireSignedIn(p); err != nil {
		return nil, err
	}
	return ss.savedRepo.ListSavedEvents(ctx, p.ID.String())
}
