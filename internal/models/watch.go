package models

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// watchCollection opens a change stream on colName. scope holds equality
// filters on fields that never change after insert; documents outside the
// scope are skipped, deletes always pass because they carry no document.
func (mdb *MongodbRepo) watchCollection(ctx context.Context, colName string, scope bson.M) (*mongo.ChangeStream, error) {
	col, err := mdb.GetCollection(ctx, colName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	pipeline := mongo.Pipeline{}
	if len(scope) > 0 {
		doc := bson.M{}
		for k, v := range scope {
			doc["fullDocument."+k] = v
		}
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.M{
			"$or": bson.A{
				bson.M{"operationType": "delete"},
				doc,
			},
		}}})
	}

	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	stream, err := col.Watch(ctx, pipeline, opts)
	if err != nil {
		return nil, fmt.Errorf("error watching %s: %w", colName, err)
	}
	return stream, nil
}
