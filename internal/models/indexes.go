package models

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes backing every list and count query.
func (mdb *MongodbRepo) EnsureIndexes(ctx context.Context) error {
	plan := map[string][]mongo.IndexModel{
		EventsColName: {
			{
				Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("status_created_at_idx"),
			},
			{
				Keys:    bson.D{{Key: "hotel_id", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("hotel_created_at_idx"),
			},
		},
		BookingsColName: {
			{
				Keys: bson.D{
					{Key: "hotel_id", Value: 1},
					{Key: "status", Value: 1},
					{Key: "created_at", Value: -1},
				},
				Options: options.Index().SetName("hotel_status_created_at_idx"),
			},
			{
				Keys:    bson.D{{Key: "consumer_id", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("consumer_created_at_idx"),
			},
			{
				Keys:    bson.D{{Key: "event_id", Value: 1}},
				Options: options.Index().SetName("event_id_idx"),
			},
		},
		SavedEventsColName: {
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("user_id_unique"),
			},
		},
	}

	for colName, indexes := range plan {
		col, err := mdb.GetCollection(ctx, colName)
		if err != nil {
			return fmt.Errorf("error getting collection: %w", err)
		}
		if _, err := col.Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("error creating %s indexes: %w", colName, err)
		}
	}
	return nil
}
