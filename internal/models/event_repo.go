package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joshua-takyi/eventhub/internal/live"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const EventsColName = "events"

func (q EventQuery) filter() bson.M {
	f := bson.M{}
	if q.HotelID != "" {
		f["hotel_id"] = q.HotelID
	}
	if q.Status != "" {
		f["status"] = q.Status
	}
	return f
}

// scope keeps only the fields that are fixed at insert.
func (q EventQuery) scope() bson.M {
	s := bson.M{}
	if q.HotelID != "" {
		s["hotel_id"] = q.HotelID
	}
	return s
}

func (mdb *MongodbRepo) CreateEvent(ctx context.Context, event *Event) error {
	col, err := mdb.GetCollection(ctx, EventsColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}
	if _, err := col.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

func (mdb *MongodbRepo) GetEventByID(ctx context.Context, id string) (*Event, error) {
	col, err := mdb.GetCollection(ctx, EventsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	var event Event
	err = col.FindOne(ctx, bson.M{"_id": id}).Decode(&event)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &NotFoundError{Resource: "event", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("error finding event: %w", err)
	}
	return &event, nil
}

func (mdb *MongodbRepo) UpdateEvent(ctx context.Context, id string, patch EventPatch, updatedAt time.Time) (*Event, error) {
	col, err := mdb.GetCollection(ctx, EventsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	set := bson.M{"updated_at": updatedAt}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Location != nil {
		set["location"] = *patch.Location
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.ImageURL != nil {
		set["image_url"] = *patch.ImageURL
	}
	if patch.Categories != nil {
		set["categories"] = *patch.Categories
	}
	if patch.Status != nil {
		set["status"] = *patch.Status
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated Event
	err = col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &NotFoundError{Resource: "event", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	return &updated, nil
}

func (mdb *MongodbRepo) DeleteEvent(ctx context.Context, id string) error {
	col, err := mdb.GetCollection(ctx, EventsColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}

	res, err := col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if res.DeletedCount == 0 {
		return &NotFoundError{Resource: "event", ID: id}
	}
	return nil
}

func (mdb *MongodbRepo) ListEvents(ctx context.Context, q EventQuery) ([]*Event, error) {
	col, err := mdb.GetCollection(ctx, EventsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := col.Find(ctx, q.filter(), opts)
	if err != nil {
		return nil, fmt.Errorf("error finding events: %w", err)
	}
	defer cursor.Close(ctx)

	events := []*Event{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("error decoding events: %w", err)
	}
	return events, nil
}

func (mdb *MongodbRepo) CountEvents(ctx context.Context, q EventQuery) (int64, error) {
	col, err := mdb.GetCollection(ctx, EventsColName)
	if err != nil {
		return 0, fmt.Errorf("error getting collection: %w", err)
	}

	n, err := col.CountDocuments(ctx, q.filter())
	if err != nil {
		return 0, fmt.Errorf("error counting events: %w", err)
	}
	return n, nil
}

func (mdb *MongodbRepo) WatchEvents(ctx context.Context, q EventQuery) (live.ChangeStream, error) {
	stream, err := mdb.watchCollection(ctx, EventsColName, q.scope())
	if err != nil {
		return nil, err
	}
	return stream, nil
}
