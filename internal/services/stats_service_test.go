package services

import (
	"context"
	"errors"
	"testing"

	"github.com/joshua-takyi/eventhub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHotelStats(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	hotel := principal(models.RoleHotel)
	e1 := seedEvent(t, f, hotel)
	seedEvent(t, f, hotel)
	seedEvent(t, f, principal(models.RoleHotel))

	consumer := principal(models.RoleConsumer)
	b1, err := f.bookingSvc.CreateBooking(ctx, consumer, e1.ID, checkout())
	require.NoError(t, err)
	b2, err := f.bookingSvc.CreateBooking(ctx, consumer, e1.ID, checkout())
	require.NoError(t, err)
	_, err = f.bookingSvc.CreateBooking(ctx, consumer, e1.ID, checkout())
	require.NoError(t, err)
	_, err = f.bookingSvc.TransitionStatus(ctx, hotel, b1.ID, models.BookingConfirmed)
	require.NoError(t, err)
	_, err = f.bookingSvc.TransitionStatus(ctx, hotel, b2.ID, models.BookingRejected)
	require.NoError(t, err)

	stats, err := f.statsSvc.HotelStats(ctx, hotel, "")
	require.NoError(t, err)
	assert.Equal(t, &models.HotelStats{
		HotelID:          hotel.ID.String(),
		TotalEvents:      2,
		TotalBookings:    3,
		ApprovedBookings: 1,
	}, stats)

	byAdmin, err := f.statsSvc.HotelStats(ctx, principal(models.RoleAdmin), hotel.ID.String())
	require.NoError(t, err)
	assert.Equal(t, stats, byAdmin)
}

func TestHotelStats_Access(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	hotel := principal(models.RoleHotel)

	var aerr *models.AuthorizationError
	_, err := f.statsSvc.HotelStats(ctx, principal(models.RoleHotel), hotel.ID.String())
	assert.True(t, errors.As(err, &aerr), "another hotel's stats")

	_, err = f.statsSvc.HotelStats(ctx, principal(models.RoleConsumer), hotel.ID.String())
	assert.True(t, errors.As(err, &aerr))

	var verr *models.ValidationError
	_, err = f.statsSvc.HotelStats(ctx, principal(models.RoleAdmin), "")
	assert.True(t, errors.As(err, &verr))
}

func TestMediaService_Upload(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	url, err := f.mediaSvc.Upload(ctx, principal(models.RoleConsumer), "data:image/png;base64,AAAA", "avatar")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/avatars/uploaded.jpg", url)

	var aerr *models.AuthorizationError
	_, err = f.mediaSvc.Upload(ctx, principal(models.RoleConsumer), "x", "event")
	assert.True(t, errors.As(err, &aerr))

	_, err = f.mediaSvc.Upload(ctx, models.Principal{}, "x", "avatar")
	assert.True(t, errors.As(err, &aerr))

	url, err = f.mediaSvc.Upload(ctx, principal(models.RoleHotel), "x", "event")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/events/uploaded.jpg", url)
}
