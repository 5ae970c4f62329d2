package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/eventhub/internal/live"
	"github.com/joshua-takyi/eventhub/internal/models"
)

// feed fans a change notification out to every open fake change stream.
type feed struct {
	mu   sync.Mutex
	subs []chan struct{}
}

func (f *feed) open() *fakeStream {
	ch := make(chan struct{}, 16)
	f.mu.Lock()
	f.subs = append(f.subs, ch)
	f.mu.Unlock()
	return &fakeStream{events: ch}
}

func (f *feed) notify() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

type fakeStream struct {
	events chan struct{}
	err    error
}

func (s *fakeStream) Next(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		s.err = ctx.Err()
		return false
	case <-s.events:
		return true
	}
}

func (s *fakeStream) Err() error { return s.err }
func (s *fakeStream) Close(ctx context.Context) error { return nil }

type memEvents struct {
	mu     sync.Mutex
	events map[string]models.Event
	feed   feed
}

func newMemEvents() *memEvents {
	return &memEvents{events: map[string]models.Event{}}
}

func (m *memEvents) CreateEvent(ctx context.Context, event *models.Event) error {
	m.mu.Lock()
	m.events[event.ID] = *event
	m.mu.Unlock()
	m.feed.notify()
	return nil
}

func (m *memEvents) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil, &models.NotFoundError{Resource: "event", ID: id}
	}
	return &e, nil
}

func (m *memEvents) UpdateEvent(ctx context.Context, id string, patch models.EventPatch, updatedAt time.Time) (*models.Event, error) {
	m.mu.Lock()
	e, ok := m.events[id]
	if !ok {
		m.mu.Unlock()
		return nil, &models.NotFoundError{Resource: "event", ID: id}
	}
	if patch.Title != nil {
		e.Title = *patch.Title
	}
	if patch.Location != nil {
		e.Location = *patch.Location
	}
	if patch.Description != nil {
		e.Description = *patch.Description
	}
	if patch.ImageURL != nil {
		e.ImageURL = *patch.ImageURL
	}
	if patch.Categories != nil {
		e.Categories = *patch.Categories
	}
	if patch.Status != nil {
		e.Status = *patch.Status
	}
	e.UpdatedAt = updatedAt
	m.events[id] = e
	m.mu.Unlock()
	m.feed.notify()
	return &e, nil
}

func (m *memEvents) DeleteEvent(ctx context.Context, id string) error {
	m.mu.Lock()
	if _, ok := m.events[id]; !ok {
		m.mu.Unlock()
		return &models.NotFoundError{Resource: "event", ID: id}
	}
	delete(m.events, id)
	m.mu.Unlock()
	m.feed.notify()
	return nil
}

func (m *memEvents) match(q models.EventQuery) []*models.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.Event{}
	for _, e := range m.events {
		if q.HotelID != "" && e.HotelID != q.HotelID {
			continue
		}
		if q.Status != "" && e.Status != q.Status {
			continue
		}
		e := e
		out = append(out, &e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *memEvents) ListEvents(ctx context.Context, q models.EventQuery) ([]*models.Event, error) {
	return m.match(q), nil
}

func (m *memEvents) CountEvents(ctx context.Context, q models.EventQuery) (int64, error) {
	return int64(len(m.match(q))), nil
}

func (m *memEvents) WatchEvents(ctx context.Context, q models.EventQuery) (live.ChangeStream, error) {
	return m.feed.open(), nil
}

type memBookings struct {
	mu       sync.Mutex
	bookings map[string]models.Booking
	feed     feed
}

func newMemBookings() *memBookings {
	return &memBookings{bookings: map[string]models.Booking{}}
}

func (m *memBookings) CreateBooking(ctx context.Context, b *models.Booking) error {
	m.mu.Lock()
	m.bookings[b.ID] = *b
	m.mu.Unlock()
	m.feed.notify()
	return nil
}

func (m *memBookings) GetBookingByID(ctx context.Context, id string) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, &models.NotFoundError{Resource: "booking", ID: id}
	}
	return &b, nil
}

func (m *memBookings) UpdateBookingStatus(ctx context.Context, id string, from, to models.BookingStatus, updatedAt time.Time) (*models.Booking, error) {
	m.mu.Lock()
	b, ok := m.bookings[id]
	if !ok {
		m.mu.Unlock()
		return nil, &models.NotFoundError{Resource: "booking", ID: id}
	}
	if b.Status != from {
		m.mu.Unlock()
		return nil, &models.InvalidTransitionError{From: b.Status, To: to}
	}
	b.Status = to
	b.UpdatedAt = updatedAt
	m.bookings[id] = b
	m.mu.Unlock()
	m.feed.notify()
	return &b, nil
}

func (m *memBookings) match(q models.BookingQuery) []*models.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.Booking{}
	for _, b := range m.bookings {
		if q.HotelID != "" && b.HotelID != q.HotelID {
			continue
		}
		if q.ConsumerID != "" && b.ConsumerID != q.ConsumerID {
			continue
		}
		if q.EventID != "" && b.EventID != q.EventID {
			continue
		}
		if q.Status != "" && b.Status != q.Status {
			continue
		}
		b := b
		out = append(out, &b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *memBookings) ListBookings(ctx context.Context, q models.BookingQuery) ([]*models.Booking, error) {
	return m.match(q), nil
}

func (m *memBookings) CountBookings(ctx context.Context, q models.BookingQuery) (int64, error) {
	return int64(len(m.match(q))), nil
}

func (m *memBookings) WatchBookings(ctx context.Context, q models.BookingQuery) (live.ChangeStream, error) {
	return m.feed.open(), nil
}

// memStats computes stats from the in-memory stores the same way the Mongo
// repository does.
type memStats struct {
	events   *memEvents
	bookings *memBookings
}

func (m memStats) GetHotelStats(ctx context.Context, hotelId string) (*models.HotelStats, error) {
	events, _ := m.events.CountEvents(ctx, models.EventQuery{HotelID: hotelId})
	bookings, _ := m.bookings.CountBookings(ctx, models.BookingQuery{HotelID: hotelId})
	approved, _ := m.bookings.CountBookings(ctx, models.BookingQuery{HotelID: hotelId, Status: models.BookingConfirmed})
	return &models.HotelStats{HotelID: hotelId, TotalEvents: events, TotalBookings: bookings, ApprovedBookings: approved}, nil
}

type memSaved struct {
	mu    sync.Mutex
	items map[string]map[string]models.SavedEvent
}

func newMemSaved() *memSaved {
	return &memSaved{items: map[string]map[string]models.SavedEvent{}}
}

func (m *memSaved) SaveEvent(ctx context.Context, userId string, item models.SavedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.items[userId] == nil {
		m.items[userId] = map[string]models.SavedEvent{}
	}
	if _, ok := m.items[userId][item.EventID]; !ok {
		m.items[userId][item.EventID] = item
	}
	return nil
}

func (m *memSaved) RemoveSavedEvent(ctx context.Context, userId, eventId string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items[userId], eventId)
	return nil
}

func (m *memSaved) IsEventSaved(ctx context.Context, userId, eventId string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.items[userId][eventId]
	return ok, nil
}

func (m *memSaved) ListSavedEvents(ctx context.Context, userId string) ([]*models.SavedEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.SavedEvent{}
	for _, item := range m.items[userId] {
		item := item
		out = append(out, &item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SavedAt.After(out[j].SavedAt) })
	return out, nil
}

type memProfiles struct {
	mu        sync.Mutex
	profiles  map[uuid.UUID]models.UserProfile
	createErr error
}

func newMemProfiles() *memProfiles {
	return &memProfiles{profiles: map[uuid.UUID]models.UserProfile{}}
}

func (m *memProfiles) put(p models.UserProfile) {
	m.mu.Lock()
	m.profiles[p.ID] = p
	m.mu.Unlock()
}

func (m *memProfiles) CreateProfile(ctx context.Context, p *models.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.profiles {
		if existing.Email == p.Email {
			return &models.ConflictError{Field: "email", Value: p.Email}
		}
	}
	m.profiles[p.ID] = *p
	return nil
}

func (m *memProfiles) GetProfile(ctx context.Context, id uuid.UUID) (*models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, &models.NotFoundError{Resource: "user", ID: id.String()}
	}
	return &p, nil
}

func (m *memProfiles) GetProfileByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.Email == email {
			p := p
			return &p, nil
		}
	}
	return nil, &models.NotFoundError{Resource: "user", ID: email}
}

func (m *memProfiles) UpdateProfile(ctx context.Context, id uuid.UUID, patch models.ProfilePatch, updatedAt time.Time) (*models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, &models.NotFoundError{Resource: "user", ID: id.String()}
	}
	if patch.FullName != nil {
		p.FullName = *patch.FullName
	}
	if patch.Email != nil {
		p.Email = *patch.Email
	}
	if patch.PhoneNumber != nil {
		p.PhoneNumber = *patch.PhoneNumber
	}
	if patch.ProfileImageURL != nil {
		p.ProfileImageURL = *patch.ProfileImageURL
	}
	p.UpdatedAt = updatedAt
	m.profiles[id] = p
	return &p, nil
}

func (m *memProfiles) ListProfilesByRole(ctx context.Context, role models.Role) ([]*models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.UserProfile{}
	for _, p := range m.profiles {
		if p.Role == role {
			p := p
			out = append(out, &p)
		}
	}
	return out, nil
}

// memAuth is a credential store keyed by email.
type memAuth struct {
	mu       sync.Mutex
	accounts map[string]authAccount
	signOuts []string
}

type authAccount struct {
	id       uuid.UUID
	password string
}

func newMemAuth() *memAuth {
	return &memAuth{accounts: map[string]authAccount{}}
}

func (m *memAuth) CreateAccount(ctx context.Context, email, password string) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[email]; ok {
		return uuid.Nil, &models.ConflictError{Field: "email", Value: email}
	}
	id := uuid.New()
	m.accounts[email] = authAccount{id: id, password: password}
	return id, nil
}

func (m *memAuth) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[email]
	if !ok || acc.password != password {
		return nil, errors.New("invalid login credentials")
	}
	return &models.Session{AccessToken: "access-" + acc.id.String(), RefreshToken: "refresh-" + acc.id.String(), ExpiresIn: 3600, UserID: acc.id, Email: email}, nil
}

func (m *memAuth) RefreshSession(ctx context.Context, refreshToken string) (*models.Session, error) {
	if !strings.HasPrefix(refreshToken, "refresh-") {
		return nil, errors.New("invalid refresh token")
	}
	id := uuid.MustParse(strings.TrimPrefix(refreshToken, "refresh-"))
	return &models.Session{AccessToken: "access-" + id.String(), RefreshToken: refreshToken, UserID: id}, nil
}

func (m *memAuth) SignOut(ctx context.Context, accessToken string) error {
	m.mu.Lock()
	m.signOuts = append(m.signOuts, accessToken)
	m.mu.Unlock()
	return nil
}

type published struct {
	key     string
	payload any
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (f *fakePublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, published{key: routingKey, payload: payload})
	return nil
}

func (f *fakePublisher) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.msgs))
	for _, m := range f.msgs {
		out = append(out, m.key)
	}
	return out
}

type fakeMedia struct {
	calls  []string
	folder string
	err    error
}

func (f *fakeMedia) Resolve(ctx context.Context, handle any, folder string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	ref, _ := handle.(string)
	f.calls = append(f.calls, ref)
	f.folder = folder
	return "https://cdn.test/" + folder + "/uploaded.jpg", nil
}

// testClock hands out strictly increasing instants.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2024, 12, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type fixture struct {
	events    *memEvents
	bookings  *memBookings
	saved     *memSaved
	profiles  *memProfiles
	auth      *memAuth
	publisher *fakePublisher
	media     *fakeMedia

	eventSvc   *EventService
	bookingSvc *BookingService
	savedSvc   *SavedEventService
	userSvc    *UserService
	statsSvc   *StatsService
	mediaSvc   *MediaService
}

func newFixture() *fixture {
	f := &fixture{
		events:    newMemEvents(),
		bookings:  newMemBookings(),
		saved:     newMemSaved(),
		profiles:  newMemProfiles(),
		auth:      newMemAuth(),
		publisher: &fakePublisher{},
		media:     &fakeMedia{},
	}
	rt := Runtime{
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Publisher: f.publisher,
		Live:      live.Options{MinBackoff: 5 * time.Millisecond, MaxBackoff: 20 * time.Millisecond},
		Now:       newTestClock().Now,
	}
	f.eventSvc = NewEventService(f.events, f.media, rt)
	f.bookingSvc = NewBookingService(f.bookings, f.events, rt)
	f.savedSvc = NewSavedEventService(f.saved, f.events, rt)
	f.userSvc = NewUserService(f.profiles, f.auth, f.media, rt)
	f.statsSvc = NewStatsService(memStats{events: f.events, bookings: f.bookings})
	f.mediaSvc = NewMediaService(f.media)
	return f
}

func principal(role models.Role) models.Principal {
	id := uuid.New()
	return models.Principal{ID: id, Email: id.String()[:8] + "@example.com", Role: role}
}

func jazzNight() models.EventFields {
	return models.EventFields{
		Title:       "Jazz Night",
		Location:    "Main Hall",
		Description: "Live quartet",
		ImageURL:    "https://cdn.test/jazz.jpg",
		Categories:  "Music, Nightlife",
	}
}

func checkout() models.BookingRequest {
	return models.BookingRequest{FullName: "B", Phone: "555", Date: "12/01/2024"}
}
