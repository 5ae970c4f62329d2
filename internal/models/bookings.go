package models

import (
	"context"
	"fmt"
	"time"

	"github.com/joshua-takyi/eventhub/internal/live"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingRejected  BookingStatus = "rejected"
)

func ParseBookingStatus(s string) (BookingStatus, error) {
	switch BookingStatus(s) {
	case BookingPending, BookingConfirmed, BookingRejected:
		return BookingStatus(s), nil
	default:
		return "", fmt.Errorf("unknown booking status %q", s)
	}
}

// IsTerminal reports whether no edge leaves s.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingConfirmed || s == BookingRejected
}

// CanTransition reports whether from -> to is an edge of the booking state
// machine. Only pending -> confirmed and pending -> rejected exist.
func CanTransition(from, to BookingStatus) bool {
	if from != BookingPending {
		return false
	}
	return to == BookingConfirmed || to == BookingRejected
}

// EventTypes is the fixed set offered on the checkout form.
var EventTypes = []string{"general", "wedding", "birthday", "corporate", "conference", "concert", "other"}

func IsEventType(s string) bool {
	for _, t := range EventTypes {
		if t == s {
			return true
		}
	}
	return false
}

// Booking embeds a snapshot of the event taken at creation time; later edits
// to the event do not reach it.
type Booking struct {
	ID            string        `bson:"_id" json:"id"`
	EventID       string        `bson:"event_id" json:"event_id"`
	EventTitle    string        `bson:"event_title" json:"event_title"`
	EventDate     string        `bson:"event_date" json:"event_date"`
	EventLocation string        `bson:"event_location" json:"event_location"`
	EventImage    string        `bson:"event_image" json:"event_image"`
	FullName      string        `bson:"full_name" json:"full_name"`
	Email         string        `bson:"email" json:"email"`
	Phone         string        `bson:"phone" json:"phone"`
	EventType     string        `bson:"event_type" json:"event_type"`
	HotelID       string        `bson:"hotel_id" json:"hotel_id"`
	ConsumerID    string        `bson:"consumer_id" json:"consumer_id"`
	Status        BookingStatus `bson:"status" json:"status"`
	CreatedAt     time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `bson:"updated_at" json:"updated_at"`
}

// BookingRequest is what a consumer submits from the checkout form.
type BookingRequest struct {
	FullName  string `json:"full_name" validate:"required"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone" validate:"required"`
	Date      string `json:"date" validate:"required"`
	EventType string `json:"event_type"`
}

// BookingQuery is an equality filter over bookings. Zero fields match anything.
type BookingQuery struct {
	HotelID    string
	ConsumerID string
	EventID    string
	Status     BookingStatus
}

type BookingRepo interface {
	CreateBooking(ctx context.Context, booking *Booking) error
	GetBookingByID(ctx context.Context, id string) (*Booking, error)
	// UpdateBookingStatus moves the booking to `to` only if it is still in
	// `from`. It returns InvalidTransitionError carrying the current status
	// when the booking has already moved.
	UpdateBookingStatus(ctx context.Context, id string, from, to BookingStatus, updatedAt time.Time) (*Booking, error)
	ListBookings(ctx context.Context, q BookingQuery) ([]*Booking, error)
	CountBookings(ctx context.Context, q BookingQuery) (int64, error)
	WatchBookings(ctx context.Context, q BookingQuery) (live.ChangeStream, error)
}
