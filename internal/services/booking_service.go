package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/joshua-takyi/eventhub/internal/helpers"
	"github.com/joshua-takyi/eventhub/internal/live"
	"github.com/joshua-takyi/eventhub/internal/models"
	"github.com/joshua-takyi/eventhub/internal/monitoring"
	"github.com/joshua-takyi/eventhub/internal/queue"
)

type BookingService struct {
	bookingRepo models.BookingRepo
	eventRepo   models.EventRepo
	rt          Runtime
}

func NewBookingService(bookingRepo models.BookingRepo, eventRepo models.EventRepo, rt Runtime) *BookingService {
	return &BookingService{
		bookingRepo: bookingRepo,
		eventRepo:   eventRepo,
		rt:          rt.withDefaults(),
	}
}

func bookingMessage(b *models.Booking) queue.BookingMessage {
	return queue.BookingMessage{
		BookingID:  b.ID,
		EventID:    b.EventID,
		EventTitle: b.EventTitle,
		EventDate:  b.EventDate,
		HotelID:    b.HotelID,
		ConsumerID: b.ConsumerID,
		FullName:   b.FullName,
		Email:      b.Email,
		Phone:      b.Phone,
		Status:     string(b.Status),
		Timestamp:  b.UpdatedAt,
	}
}

// CreateBooking records a pending request against an active event. The
// event's title, location, image and hotel are copied onto the booking.
func (bs *BookingService) CreateBooking(ctx context.Context, p models.Principal, eventId string, req models.BookingRequest) (*models.Booking, error) {
	if err := requireSignedIn(p); err != nil {
		return nil, err
	}
	if err := authorize(p, models.CapCreateBooking); err != nil {
		return nil, err
	}

	helpers.StringTrim(&eventId, &req.FullName, &req.Email, &req.Phone, &req.Date, &req.EventType)
	if eventId == "" {
		return nil, models.NewValidationError("event_id", "is required")
	}
	if req.Email == "" {
		req.Email = p.Email
	}
	if err := models.ValidateStruct(req); err != nil {
		return nil, err
	}
	if req.EventType != "" && !models.IsEventType(req.EventType) {
		return nil, models.NewValidationError("event_type", "must be one of %s", strings.Join(models.EventTypes, ", "))
	}

	event, err := bs.eventRepo.GetEventByID(ctx, eventId)
	if err != nil {
		return nil, err
	}
	if event.Status != models.EventActive {
		return nil, models.NewValidationError("event_id", "event is not accepting bookings")
	}

	now := bs.rt.Now()
	booking := &models.Booking{
		ID:            uuid.NewString(),
		EventID:       event.ID,
		EventTitle:    event.Title,
		EventDate:     req.Date,
		EventLocation: event.Location,
		EventImage:    event.ImageURL,
		FullName:      req.FullName,
		Email:         req.Email,
		Phone:         req.Phone,
		EventType:     req.EventType,
		HotelID:       event.HotelID,
		ConsumerID:    p.ID.String(),
		Status:        models.BookingPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := bs.bookingRepo.CreateBooking(ctx, booking); err != nil {
		return nil, err
	}

	monitoring.TrackBookingCreated()
	bs.rt.publish(ctx, queue.BookingCreated, bookingMessage(booking))
	return booking, nil
}

// TransitionStatus confirms or rejects a pending booking owned by p's hotel.
func (bs *BookingService) TransitionStatus(ctx context.Context, p models.Principal, bookingId string, to models.BookingStatus) (*models.Booking, error) {
	if err := authorize(p, models.CapReviewBookings); err != nil {
		return nil, err
	}
	if to != models.BookingConfirmed && to != models.BookingRejected {
		return nil, models.NewValidationError("status", "must be %s or %s", models.BookingConfirmed, models.BookingRejected)
	}
	if strings.TrimSpace(bookingId) == "" {
		return nil, models.NewValidationError("id", "is required")
	}

	booking, err := bs.bookingRepo.GetBookingByID(ctx, bookingId)
	if err != nil {
		return nil, err
	}
	if booking.HotelID != p.ID.String() {
		return nil, &models.AuthorizationError{Action: "review booking", Reason: "booking belongs to another hotel"}
	}
	if !models.CanTransition(booking.Status, to) {
		return nil, &models.InvalidTransitionError{From: booking.Status, To: to}
	}

	// Conditional on pending, so a concurrent reviewer that got there first
	// surfaces as InvalidTransitionError here.
	updated, err := bs.bookingRepo.UpdateBookingStatus(ctx, bookingId, models.BookingPending, to, bs.rt.Now())
	if err != nil {
		return nil, err
	}

	monitoring.TrackBookingTransition(string(to))
	key := queue.BookingConfirmed
	if to == models.BookingRejected {
		key = queue.BookingRejected
	}
	bs.rt.publish(ctx, key, bookingMessage(updated))
	return updated, nil
}

// GetBooking is readable by the booking's hotel, its consumer, or an admin.
func (bs *BookingService) GetBooking(ctx context.Context, p models.Principal, id string) (*models.Booking, error) {
	if p.IsAnonymous() {
		return nil, &models.AuthorizationError{Action: "view booking", Reason: "sign in required"}
	}
	booking, err := bs.bookingRepo.GetBookingByID(ctx, id)
	if err != nil {
		return nil, err
	}

	self := p.ID.String()
	if booking.HotelID == self || booking.ConsumerID == self || p.Role.Can(models.CapViewAnyHotel) {
		return booking, nil
	}
	return nil, &models.AuthorizationError{Action: "view booking", Reason: "not a party to this booking"}
}

func (bs *BookingService) source(query models.BookingQuery) live.Source[*models.Booking] {
	return live.SourceFuncs[*models.Booking]{
		FetchFunc: func(ctx context.Context) ([]*models.Booking, error) {
			return bs.bookingRepo.ListBookings(ctx, query)
		},
		ChangesFunc: func(ctx context.Context) (live.ChangeStream, error) {
			return bs.bookingRepo.WatchBookings(ctx, query)
		},
	}
}

func hotelBookingQuery(p models.Principal, status string) (models.BookingQuery, error) {
	if err := authorize(p, models.CapReviewBookings); err != nil {
		return models.BookingQuery{}, err
	}
	q := models.BookingQuery{HotelID: p.ID.String()}
	if status = strings.TrimSpace(status); status != "" {
		s, err := models.ParseBookingStatus(status)
		if err != nil {
			return models.BookingQuery{}, models.NewValidationError("status", "must be pending, confirmed or rejected")
		}
		q.Status = s
	}
	return q, nil
}

// ListBookingsForHotel returns the caller's hotel bookings, newest first,
// optionally restricted to one status.
func (bs *BookingService) ListBookingsForHotel(ctx context.Context, p models.Principal, status string) ([]*models.Booking, error) {
	q, err := hotelBookingQuery(p, status)
	if err != nil {
		return nil, err
	}
	return bs.source(q).Fetch(ctx)
}

func (bs *BookingService) WatchBookingsForHotel(ctx context.Context, p models.Principal, status string) (*live.Subscription[*models.Booking], error) {
	q, err := hotelBookingQuery(p, status)
	if err != nil {
		return nil, err
	}
	return live.Subscribe(ctx, bs.source(q), bs.rt.liveOptions(models.BookingsColName)), nil
}

func consumerBookingQuery(p models.Principal) (models.BookingQuery, error) {
	if err := requireSignedIn(p); err != nil {
		return models.BookingQuery{}, err
	}
	if err := authorize(p, models.CapCreateBooking); err != nil {
		return models.BookingQuery{}, err
	}
	return models.BookingQuery{ConsumerID: p.ID.String()}, nil
}

func (bs *BookingService) ListBookingsForConsumer(ctx context.Context, p models.Principal) ([]*models.Booking, error) {
	q, err := consumerBookingQuery(p)
	if err != nil {
		return nil, err
	}
	return bs.source(q).Fetch(ctx)
}

func (bs *BookingService) WatchBookingsForConsumer(ctx context.Context, p models.Principal) (*live.Subscription[*models.Booking], error) {
	q, err := consumerBookingQuery(p)
	if err != nil {
		return nil, err
	}
	return live.Subscribe(ctx, bs.source(q), bs.rt.liveOptions(models.BookingsColName)), nil
}
