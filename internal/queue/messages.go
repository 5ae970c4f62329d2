package queue

import (
	"fmt"
	"time"
)

const (
	ExchangeName = "eventhub"
	ExchangeKind = "topic"

	EventCreated = "event.created"
	EventUpdated = "event.updated"
	EventDeleted = "event.deleted"

	BookingCreated   = "booking.created"
	BookingConfirmed = "booking.confirmed"
	BookingRejected  = "booking.rejected"
)

// EventMessage is published on event.* routing keys.
type EventMessage struct {
	EventID   string    `json:"event_id"`
	HotelID   string    `json:"hotel_id"`
	Title     string    `json:"title,omitempty"`
	Status    string    `json:"status,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// BookingMessage is published on booking.* routing keys.
type BookingMessage struct {
	BookingID  string    `json:"booking_id"`
	EventID    string    `json:"event_id"`
	EventTitle string    `json:"event_title"`
	EventDate  string    `json:"event_date"`
	HotelID    string    `json:"hotel_id"`
	ConsumerID string    `json:"consumer_id"`
	FullName   string    `json:"full_name"`
	Email      string    `json:"email,omitempty"`
	Phone      string    `json:"phone"`
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
}

// Notification renders the single line a recipient would be shown for m.
func (m BookingMessage) Notification(routingKey string) string {
	switch routingKey {
	case BookingCreated:
		return fmt.Sprintf("New booking request from %s for %q on %s", m.FullName, m.EventTitle, m.EventDate)
	case BookingConfirmed:
		return fmt.Sprintf("Your booking for %q on %s was approved", m.EventTitle, m.EventDate)
	case BookingRejected:
		return fmt.Sprintf("Your booking for %q on %s was declined", m.EventTitle, m.EventDate)
	default:
		return fmt.Sprintf("Booking %s is now %s", m.BookingID, m.Status)
	}
}

// Recipient names who the notification for routingKey is addressed to.
func (m BookingMessage) Recipient(routingKey string) string {
	if routingKey == BookingCreated {
		return "hotel:" + m.HotelID
	}
	return "consumer:" + m.ConsumerID
}
