package models

import (
	"context"
	"fmt"
)

// HotelStats is the dashboard summary for one hotel, computed on read.
type HotelStats struct {
	HotelID          string `json:"hotel_id"`
	TotalEvents      int64  `json:"total_events"`
	TotalBookings    int64  `json:"total_bookings"`
	ApprovedBookings int64  `json:"approved_bookings"`
}

type StatsRepo interface {
	GetHotelStats(ctx context.Context, hotelId string) (*HotelStats, error)
}

func (mdb *MongodbRepo) GetHotelStats(ctx context.Context, hotelId string) (*HotelStats, error) {
	events, err := mdb.CountEvents(ctx, EventQuery{HotelID: hotelId})
	if err != nil {
		return nil, fmt.Errorf("error counting hotel events: %w", err)
	}
	bookings, err := mdb.CountBookings(ctx, BookingQuery{HotelID: hotelId})
	if err != nil {
		return nil, fmt.Errorf("error counting hotel bookings: %w", err)
	}
	approved, err := mdb.CountBookings(ctx, BookingQuery{HotelID: hotelId, Status: BookingConfirmed})
	if err != nil {
		return nil, fmt.Errorf("error counting approved bookings: %w", err)
	}

	return &HotelStats{
		HotelID:          hotelId,
		TotalEvents:      events,
		TotalBookings:    bookings,
		ApprovedBookings: approved,
	}, nil
}
