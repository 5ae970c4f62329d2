package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/joshua-takyi/eventhub/internal/models"
	"github.com/joshua-takyi/eventhub/internal/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedEvent(t *testing.T, f *fixture, hotel models.Principal) *models.Event {
	t.Helper()
	event, err := f.eventSvc.CreateEvent(context.Background(), hotel, jazzNight())
	require.NoError(t, err)
	return event
}

func TestBookingLifecycle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	hotelA := principal(models.RoleHotel)
	consumerB := principal(models.RoleConsumer)
	event := seedEvent(t, f, hotelA)

	booking, err := f.bookingSvc.CreateBooking(ctx, consumerB, event.ID, checkout())
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, booking.Status)
	assert.Equal(t, "Jazz Night", booking.EventTitle)
	assert.Equal(t, "Main Hall", booking.EventLocation)
	assert.Equal(t, hotelA.ID.String(), booking.HotelID)
	assert.Equal(t, consumerB.ID.String(), booking.ConsumerID)
	assert.Equal(t, "12/01/2024", booking.EventDate)

	confirmed, err := f.bookingSvc.TransitionStatus(ctx, hotelA, booking.ID, models.BookingConfirmed)
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, confirmed.Status)
	assert.True(t, confirmed.UpdatedAt.After(booking.UpdatedAt))

	_, err = f.bookingSvc.TransitionStatus(ctx, hotelA, booking.ID, models.BookingRejected)
	var terr *models.InvalidTransitionError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, models.BookingConfirmed, terr.From)

	assert.Equal(t, []string{queue.EventCreated, queue.BookingCreated, queue.BookingConfirmed}, f.publisher.keys())
}

func TestTransitionStatus_Monotonic(t *testing.T) {
	targets := []models.BookingStatus{models.BookingConfirmed, models.BookingRejected}

	for _, first := range targets {
		for _, second := range targets {
			t.Run(string(first)+" then "+string(second), func(t *testing.T) {
				f := newFixture()
				ctx := context.Background()
				hotel := principal(models.RoleHotel)
				event := seedEvent(t, f, hotel)
				booking, err := f.bookingSvc.CreateBooking(ctx, principal(models.RoleConsumer), event.ID, checkout())
				require.NoError(t, err)

				_, err = f.bookingSvc.TransitionStatus(ctx, hotel, booking.ID, first)
				require.NoError(t, err)

				_, err = f.bookingSvc.TransitionStatus(ctx, hotel, booking.ID, second)
				var terr *models.InvalidTransitionError
				assert.True(t, errors.As(err, &terr))
			})
		}
	}
}

func TestTransitionStatus_ConcurrentReviewersOneWins(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	hotel := principal(models.RoleHotel)
	event := seedEvent(t, f, hotel)
	booking, err := f.bookingSvc.CreateBooking(ctx, principal(models.RoleConsumer), event.ID, checkout())
	require.NoError(t, err)

	const reviewers = 8
	var wg sync.WaitGroup
	errs := make([]error, reviewers)
	for i := 0; i < reviewers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			to := models.BookingConfirmed
			if i%2 == 1 {
				to = models.BookingRejected
			}
			_, errs[i] = f.bookingSvc.TransitionStatus(ctx, hotel, booking.ID, to)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		var terr *models.InvalidTransitionError
		assert.True(t, errors.As(err, &terr), "losers see InvalidTransitionError, got %v", err)
	}
	assert.Equal(t, 1, wins)
}

func TestTransitionStatus_Checks(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	hotel := principal(models.RoleHotel)
	event := seedEvent(t, f, hotel)
	booking, err := f.bookingSvc.CreateBooking(ctx, principal(models.RoleConsumer), event.ID, checkout())
	require.NoError(t, err)

	var aerr *models.AuthorizationError
	_, err = f.bookingSvc.TransitionStatus(ctx, principal(models.RoleHotel), booking.ID, models.BookingConfirmed)
	assert.True(t, errors.As(err, &aerr), "another hotel")

	_, err = f.bookingSvc.TransitionStatus(ctx, principal(models.RoleConsumer), booking.ID, models.BookingConfirmed)
	assert.True(t, errors.As(err, &aerr), "consumer")

	_, err = f.bookingSvc.TransitionStatus(ctx, principal(models.RoleAdmin), booking.ID, models.BookingConfirmed)
	assert.True(t, errors.As(err, &aerr), "admin")

	var verr *models.ValidationError
	_, err = f.bookingSvc.TransitionStatus(ctx, hotel, booking.ID, models.BookingPending)
	assert.True(t, errors.As(err, &verr))

	var nf *models.NotFoundError
	_, err = f.bookingSvc.TransitionStatus(ctx, hotel, "missing", models.BookingConfirmed)
	assert.True(t, errors.As(err, &nf))

	current, err := f.bookings.GetBookingByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, current.Status)
}

func TestCreateBooking_Validation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	event := seedEvent(t, f, principal(models.RoleHotel))
	consumer := principal(models.RoleConsumer)

	cases := map[string]func(*models.BookingRequest){
		"full_name":  func(r *models.BookingRequest) { r.FullName = " " },
		"phone":      func(r *models.BookingRequest) { r.Phone = "" },
		"date":       func(r *models.BookingRequest) { r.Date = "" },
		"email":      func(r *models.BookingRequest) { r.Email = "not-an-email" },
		"event_type": func(r *models.BookingRequest) { r.EventType = "rave" },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			req := checkout()
			mutate(&req)

			_, err := f.bookingSvc.CreateBooking(ctx, consumer, event.ID, req)
			var verr *models.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, field, verr.Field)
		})
	}
}

func TestCreateBooking_Principal(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	event := seedEvent(t, f, principal(models.RoleHotel))

	_, err := f.bookingSvc.CreateBooking(ctx, models.Principal{}, event.ID, checkout())
	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "consumer", verr.Field)

	_, err = f.bookingSvc.CreateBooking(ctx, principal(models.RoleHotel), event.ID, checkout())
	var aerr *models.AuthorizationError
	assert.True(t, errors.As(err, &aerr))
}

func TestCreateBooking_EventState(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	hotel := principal(models.RoleHotel)
	event := seedEvent(t, f, hotel)
	consumer := principal(models.RoleConsumer)

	_, err := f.bookingSvc.CreateBooking(ctx, consumer, "missing", checkout())
	var nf *models.NotFoundError
	assert.True(t, errors.As(err, &nf))

	inactive := models.EventInactive
	_, err = f.eventSvc.UpdateEvent(ctx, hotel, event.ID, models.EventPatch{Status: &inactive})
	require.NoError(t, err)

	_, err = f.bookingSvc.CreateBooking(ctx, consumer, event.ID, checkout())
	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "event_id", verr.Field)
}

func TestCreateBooking_DefaultsEmailAndEventType(t *testing.T) {
	f := newFixture()
	consumer := principal(models.RoleConsumer)
	event := seedEvent(t, f, principal(models.RoleHotel))

	req := checkout()
	req.EventType = "wedding"
	booking, err := f.bookingSvc.CreateBooking(context.Background(), consumer, event.ID, req)
	require.NoError(t, err)

	assert.Equal(t, consumer.Email, booking.Email)
	assert.Equal(t, "wedding", booking.EventType)
}

func TestBookingSnapshotSurvivesEventEdit(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	hotel := principal(models.RoleHotel)
	event := seedEvent(t, f, hotel)

	booking, err := f.bookingSvc.CreateBooking(ctx, principal(models.RoleConsumer), event.ID, checkout())
	require.NoError(t, err)

	_, err = f.eventSvc.UpdateEvent(ctx, hotel, event.ID, models.EventPatch{Title: strPtr("Blues Night")})
	require.NoError(t, err)

	stored, err := f.bookings.GetBookingByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jazz Night", stored.EventTitle)

	require.NoError(t, f.eventSvc.DeleteEvent(ctx, hotel, event.ID))
	_, err = f.bookings.GetBookingByID(ctx, booking.ID)
	assert.NoError(t, err, "deleting an event keeps its bookings")
}

func TestListBookingsForHotel_ScopedUnderConcurrentWrites(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	h1, h2 := principal(models.RoleHotel), principal(models.RoleHotel)
	e1, e2 := seedEvent(t, f, h1), seedEvent(t, f, h2)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			consumer := principal(models.RoleConsumer)
			for {
				select {
				case <-stop:
					return
				default:
				}
				_, _ = f.bookingSvc.CreateBooking(ctx, consumer, e2.ID, checkout())
				_, _ = f.bookingSvc.CreateBooking(ctx, consumer, e1.ID, checkout())
			}
		}()
	}

	for i := 0; i < 50; i++ {
		list, err := f.bookingSvc.ListBookingsForHotel(ctx, h1, "")
		require.NoError(t, err)
		for _, b := range list {
			require.Equal(t, h1.ID.String(), b.HotelID)
		}
	}
	close(stop)
	wg.Wait()
}

func TestListBookingsForHotel_StatusFilter(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	hotel := principal(models.RoleHotel)
	event := seedEvent(t, f, hotel)
	consumer := principal(models.RoleConsumer)

	b1, err := f.bookingSvc.CreateBooking(ctx, consumer, event.ID, checkout())
	require.NoError(t, err)
	b2, err := f.bookingSvc.CreateBooking(ctx, consumer, event.ID, checkout())
	require.NoError(t, err)
	_, err = f.bookingSvc.TransitionStatus(ctx, hotel, b1.ID, models.BookingConfirmed)
	require.NoError(t, err)

	pending, err := f.bookingSvc.ListBookingsForHotel(ctx, hotel, "pending")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, b2.ID, pending[0].ID)

	all, err := f.bookingSvc.ListBookingsForHotel(ctx, hotel, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, b2.ID, all[0].ID, "newest first")

	_, err = f.bookingSvc.ListBookingsForHotel(ctx, hotel, "approved")
	var verr *models.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestListBookingsForConsumer(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	event := seedEvent(t, f, principal(models.RoleHotel))
	c1, c2 := principal(models.RoleConsumer), principal(models.RoleConsumer)

	mine, err := f.bookingSvc.CreateBooking(ctx, c1, event.ID, checkout())
	require.NoError(t, err)
	_, err = f.bookingSvc.CreateBooking(ctx, c2, event.ID, checkout())
	require.NoError(t, err)

	list, err := f.bookingSvc.ListBookingsForConsumer(ctx, c1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)

	_, err = f.bookingSvc.ListBookingsForConsumer(ctx, models.Principal{})
	var verr *models.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestGetBooking_Parties(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	hotel := principal(models.RoleHotel)
	consumer := principal(models.RoleConsumer)
	event := seedEvent(t, f, hotel)
	booking, err := f.bookingSvc.CreateBooking(ctx, consumer, event.ID, checkout())
	require.NoError(t, err)

	for _, p := range []models.Principal{hotel, consumer, principal(models.RoleAdmin)} {
		got, err := f.bookingSvc.GetBooking(ctx, p, booking.ID)
		require.NoError(t, err, p.Role)
		assert.Equal(t, booking.ID, got.ID)
	}

	var aerr *models.AuthorizationError
	_, err = f.bookingSvc.GetBooking(ctx, principal(models.RoleConsumer), booking.ID)
	assert.True(t, errors.As(err, &aerr))
	_, err = f.bookingSvc.GetBooking(ctx, principal(models.RoleHotel), booking.ID)
	assert.True(t, errors.As(err, &aerr))
}

func TestWatchBookingsForHotel(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hotel := principal(models.RoleHotel)
	event := seedEvent(t, f, hotel)

	sub, err := f.bookingSvc.WatchBookingsForHotel(ctx, hotel, "pending")
	require.NoError(t, err)
	defer sub.Close()
	<-sub.Updates()

	booking, err := f.bookingSvc.CreateBooking(ctx, principal(models.RoleConsumer), event.ID, checkout())
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		snap, ok := sub.Latest()
		return ok && len(snap.Items) == 1
	}, 2*time.Second, 10*time.Millisecond)

	_, err = f.bookingSvc.TransitionStatus(ctx, hotel, booking.ID, models.BookingConfirmed)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		snap, ok := sub.Latest()
		return ok && len(snap.Items) == 0
	}, 2*time.Second, 10*time.Millisecond, "confirmed booking leaves the pending inbox")

	_, err = f.bookingSvc.WatchBookingsForHotel(ctx, principal(models.RoleConsumer), "")
	var aerr *models.AuthorizationError
	assert.True(t, errors.As(err, &aerr))
}
