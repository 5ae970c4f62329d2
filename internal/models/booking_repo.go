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

const BookingsColName = "bookings"

func (q BookingQuery) filter() bson.M {
	f := q.scope()
	if q.Status != "" {
		f["status"] = q.Status
	}
	return f
}

func (q BookingQuery) scope() bson.M {
	s := bson.M{}
	if q.HotelID != "" {
		s["hotel_id"] = q.HotelID
	}
	if q.ConsumerID != "" {
		s["consumer_id"] = q.ConsumerID
	}
	if q.EventID != "" {
		s["event_id"] = q.EventID
	}
	return s
}

func (mdb *MongodbRepo) CreateBooking(ctx context.Context, booking *Booking) error {
	col, err := mdb.GetCollection(ctx, BookingsColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}
	if _, err := col.InsertOne(ctx, booking); err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	return nil
}

func (mdb *MongodbRepo) GetBookingByID(ctx context.Context, id string) (*Booking, error) {
	col, err := mdb.GetCollection(ctx, BookingsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	var booking Booking
	err = col.FindOne(ctx, bson.M{"_id": id}).Decode(&booking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &NotFoundError{Resource: "booking", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("error finding booking: %w", err)
	}
	return &booking, nil
}

func (mdb *MongodbRepo) UpdateBookingStatus(ctx context.Context, id string, from, to BookingStatus, updatedAt time.Time) (*Booking, error) {
	col, err := mdb.GetCollection(ctx, BookingsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	filter := bson.M{"_id": id, "status": from}
	update := bson.M{"$set": bson.M{"status": to, "updated_at": updatedAt}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated Booking
	err = col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err == nil {
		return &updated, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}

	// Either the booking is gone or another writer moved it first.
	current, getErr := mdb.GetBookingByID(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	return nil, &InvalidTransitionError{From: current.Status, To: to}
}

func (mdb *MongodbRepo) ListBookings(ctx context.Context, q BookingQuery) ([]*Booking, error) {
	col, err := mdb.GetCollection(ctx, BookingsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := col.Find(ctx, q.filter(), opts)
	if err != nil {
		return nil, fmt.Errorf("error finding bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []*Booking{}
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding bookings: %w", err)
	}
	return bookings, nil
}

func (mdb *MongodbRepo) CountBookings(ctx context.Context, q BookingQuery) (int64, error) {
	col, err := mdb.GetCollection(ctx, BookingsColName)
	if err != nil {
		return 0, fmt.Errorf("error getting collection: %w", err)
	}

	n, err := col.CountDocuments(ctx, q.filter())
	if err != nil {
		return 0, fmt.Errorf("error counting bookings: %w", err)
	}
	return n, nil
}

func (mdb *MongodbRepo) WatchBookings(ctx context.Context, q BookingQuery) (live.ChangeStream, error) {
	stream, err := mdb.watchCollection(ctx, BookingsColName, q.scope())
	if err != nil {
		return nil, err
	}
	return stream, nil
}
