package models

import (
	"context"
	"time"

	"github.com/joshua-takyi/eventhub/internal/live"
)

type EventStatus string

const (
	EventActive   EventStatus = "active"
	EventInactive EventStatus = "inactive"
)

func (s EventStatus) Valid() bool {
	return s == EventActive || s == EventInactive
}

type Event struct {
	ID          string      `bson:"_id" json:"id"`
	HotelID     string      `bson:"hotel_id" json:"hotel_id"`
	Title       string      `bson:"title" json:"title"`
	Location    string      `bson:"location" json:"location"`
	Description string      `bson:"description" json:"description"`
	ImageURL    string      `bson:"image_url" json:"image_url"`
	Categories  string      `bson:"categories" json:"categories"` // opaque free text, e.g. "Music, Festival"
	Status      EventStatus `bson:"status" json:"status"`
	CreatedAt   time.Time   `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `bson:"updated_at" json:"updated_at"`
}

// EventFields is the hotel-supplied content of a new event.
type EventFields struct {
	Title       string `json:"title" validate:"required"`
	Location    string `json:"location" validate:"required"`
	Description string `json:"description" validate:"required"`
	ImageURL    string `json:"image_url" validate:"required"`
	Categories  string `json:"categories"`
}

// EventPatch is a partial update; nil fields are left unchanged.
type EventPatch struct {
	Title       *string      `json:"title,omitempty"`
	Location    *string      `json:"location,omitempty"`
	Description *string      `json:"description,omitempty"`
	ImageURL    *string      `json:"image_url,omitempty"`
	Categories  *string      `json:"categories,omitempty"`
	Status      *EventStatus `json:"status,omitempty"`
}

func (p EventPatch) IsEmpty() bool {
	return p.Title == nil && p.Location == nil && p.Description == nil &&
		p.ImageURL == nil && p.Categories == nil && p.Status == nil
}

// EventQuery is an equality filter over events. Zero fields match anything.
type EventQuery struct {
	HotelID string
	Status  EventStatus
}

type EventRepo interface {
	CreateEvent(ctx context.Context, event *Event) error
	GetEventByID(ctx context.Context, id string) (*Event, error)
	UpdateEvent(ctx context.Context, id string, patch EventPatch, updatedAt time.Time) (*Event, error)
	DeleteEvent(ctx context.Context, id string) error
	ListEvents(ctx context.Context, q EventQuery) ([]*Event, error)
	CountEvents(ctx context.Context, q EventQuery) (int64, error)
	WatchEvents(ctx context.Context, q EventQuery) (live.ChangeStream, error)
}
