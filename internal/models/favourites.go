package models

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const SavedEventsColName = "saved_events"

// SavedEvent is one bookmark with a display snapshot of the event.
type SavedEvent struct {
	EventID  string    `bson:"event_id" json:"event_id"`
	Title    string    `bson:"title" json:"title"`
	Location string    `bson:"location" json:"location"`
	ImageURL string    `bson:"image_url" json:"image_url"`
	SavedAt  time.Time `bson:"saved_at" json:"saved_at"`
}

// savedEvents is the per-consumer document. Items is keyed by event id so a
// pair can only be present once.
type savedEvents struct {
	UserID    string                `bson:"user_id"`
	Items     map[string]SavedEvent `bson:"items"`
	CreatedAt time.Time             `bson:"created_at,omitempty"`
	UpdatedAt time.Time             `bson:"updated_at,omitempty"`
}

type SavedEventsRepo interface {
	SaveEvent(ctx context.Context, userId string, item SavedEvent) error
	RemoveSavedEvent(ctx context.Context, userId string, eventId string) error
	IsEventSaved(ctx context.Context, userId string, eventId string) (bool, error)
	ListSavedEvents(ctx context.Context, userId string) ([]*SavedEvent, error)
}

func itemKey(eventId string) string {
	return fmt.Sprintf("items.%s", eventId)
}

func (mdb *MongodbRepo) SaveEvent(ctx context.Context, userId string, item SavedEvent) error {
	col, err := mdb.GetCollection(ctx, SavedEventsColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}
	now := time.Now()
	if item.SavedAt.IsZero() {
		item.SavedAt = now
	}

	// An existing item is left untouched so a repeat save keeps the first saved_at.
	filter := bson.M{"user_id": userId, itemKey(item.EventID): bson.M{"$exists": true}}
	n, err := col.CountDocuments(ctx, filter)
	if err != nil {
		return fmt.Errorf("error checking saved event: %w", err)
	}
	if n > 0 {
		return nil
	}

	update := bson.M{
		"$set": bson.M{
			"updated_at":          now,
			itemKey(item.EventID): item,
		},
		"$setOnInsert": bson.M{
			"user_id":    userId,
			"created_at": now,
		},
	}
	_, err = col.UpdateOne(ctx, bson.M{"user_id": userId}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("error upserting saved event: %w", err)
	}
	return nil
}

func (mdb *MongodbRepo) RemoveSavedEvent(ctx context.Context, userId string, eventId string) error {
	col, err := mdb.GetCollection(ctx, SavedEventsColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}

	update := bson.M{
		"$unset": bson.M{itemKey(eventId): ""},
		"$set":   bson.M{"updated_at": time.Now()},
	}
	if _, err := col.UpdateOne(ctx, bson.M{"user_id": userId}, update); err != nil {
		return fmt.Errorf("error removing saved event: %w", err)
	}
	return nil
}

func (mdb *MongodbRepo) IsEventSaved(ctx context.Context, userId string, eventId string) (bool, error) {
	col, err := mdb.GetCollection(ctx, SavedEventsColName)
	if err != nil {
		return false, fmt.Errorf("error getting collection: %w", err)
	}

	n, err := col.CountDocuments(ctx, bson.M{"user_id": userId, itemKey(eventId): bson.M{"$exists": true}})
	if err != nil {
		return false, fmt.Errorf("error checking saved event: %w", err)
	}
	return n > 0, nil
}

func (mdb *MongodbRepo) ListSavedEvents(ctx context.Context, userId string) ([]*SavedEvent, error) {
	col, err := mdb.GetCollection(ctx, SavedEventsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	var doc savedEvents
	err = col.FindOne(ctx, bson.M{"user_id": userId}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return []*SavedEvent{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error finding saved events: %w", err)
	}

	items := make([]*SavedEvent, 0, len(doc.Items))
	for _, item := range doc.Items {
		item := item
		items = append(items, &item)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].SavedAt.After(items[j].SavedAt)
	})
	return items, nil
}
