package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Eursukkul/consultation-booking/internal/models"
	"github.com/Eursukkul/consultation-booking/internal/ratelimit"
	"github.com/Eursukkul/consultation-booking/internal/repository"
	"github.com/Eursukkul/consultation-booking/internal/schedule"
	"github.com/Eursukkul/consultation-booking/internal/validate"
	"github.com/Eursukkul/consultation-booking/pkg/logging"
	"github.com/stretchr/testify/require"
)

// --- Clock ---

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// --- Mock BookingRepository ---

type mockBookingRepo struct {
	createFn       func(ctx context.Context, b *models.Booking) error
	bookedTimesFn  func(ctx context.Context, date string) ([]string, error)
	isSlotTakenFn  func(ctx context.Context, date, clock string) (bool, error)
	findByIDFn     func(ctx context.Context, id string) (*models.Booking, error)
	listFn         func(ctx context.Context, filter repository.BookingFilter) ([]models.Booking, error)
	updateStatusFn func(ctx context.Context, id string, status models.BookingStatus) error

	created []*models.Booking
}

func (m *mockBookingRepo) Create(ctx context.Context, b *models.Booking) error {
	if m.createFn != nil {
		if err := m.createFn(ctx, b); err != nil {
			return err
		}
	}
	m.created = append(m.created, b)
	return nil
}
func (m *mockBookingRepo) BookedTimes(ctx context.Context, date string) ([]string, error) {
	if m.bookedTimesFn != nil {
		return m.bookedTimesFn(ctx, date)
	}
	return nil, nil
}
func (m *mockBookingRepo) IsSlotTaken(ctx context.Context, date, clock string) (bool, error) {
	if m.isSlotTakenFn != nil {
		return m.isSlotTakenFn(ctx, date, clock)
	}
	return false, nil
}
func (m *mockBookingRepo) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockBookingRepo) List(ctx context.Context, filter repository.BookingFilter) ([]models.Booking, error) {
	return m.listFn(ctx, filter)
}
func (m *mockBookingRepo) UpdateStatus(ctx context.Context, id string, status models.BookingStatus) error {
	return m.updateStatusFn(ctx, id, status)
}

// memBookingRepo enforces the one-active-booking-per-slot rule the way the
// partial unique index does.
type memBookingRepo struct {
	mu    sync.Mutex
	slots map[string]*models.Booking
}

func newMemBookingRepo() *memBookingRepo {
	return &memBookingRepo{slots: map[string]*models.Booking{}}
}

func (r *memBookingRepo) Create(_ context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := b.OriginDate + " " + b.OriginTime
	if _, ok := r.slots[key]; ok {
		return repository.ErrDuplicateSlot
	}
	r.slots[key] = b
	return nil
}
func (r *memBookingRepo) BookedTimes(_ context.Context, date string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, b := range r.slots {
		if b.OriginDate == date {
			out = append(out, b.OriginTime)
		}
	}
	return out, nil
}
func (r *memBookingRepo) IsSlotTaken(_ context.Context, date, clock string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.slots[date+" "+clock]
	return ok, nil
}
func (r *memBookingRepo) FindByID(context.Context, string) (*models.Booking, error) {
	return nil, repository.ErrNotFound
}
func (r *memBookingRepo) List(context.Context, repository.BookingFilter) ([]models.Booking, error) {
	return nil, nil
}
func (r *memBookingRepo) UpdateStatus(context.Context, string, models.BookingStatus) error {
	return repository.ErrNotFound
}

// --- Mock ContactRepository ---

type mockContactRepo struct {
	createFn func(ctx context.Context, c *models.Contact) error
	listFn   func(ctx context.Context, status *models.ContactStatus) ([]models.Contact, error)

	created []*models.Contact
}

func (m *mockContactRepo) Create(ctx context.Context, c *models.Contact) error {
	if m.createFn != nil {
		if err := m.createFn(ctx, c); err != nil {
			return err
		}
	}
	m.created = append(m.created, c)
	return nil
}
func (m *mockContactRepo) List(ctx context.Context, status *models.ContactStatus) ([]models.Contact, error) {
	return m.listFn(ctx, status)
}

// --- Collaborators ---

type published struct {
	key     string
	payload any
}

type mockPublisher struct {
	mu     sync.Mutex
	err    error
	events []published
}

func (m *mockPublisher) Publish(_ context.Context, key string, payload any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, published{key: key, payload: payload})
	return m.err
}

type mockFallback struct {
	submitFn func(ctx context.Context, form string, fields map[string]string) error
	form     string
	fields   map[string]string
}

func (m *mockFallback) Submit(ctx context.Context, form string, fields map[string]string) error {
	m.form, m.fields = form, fields
	if m.submitFn != nil {
		return m.submitFn(ctx, form, fields)
	}
	return nil
}

type mockNotifier struct {
	mu       sync.Mutex
	err      error
	bookings []*models.Booking
	contacts []*models.Contact
}

func (m *mockNotifier) BookingCreated(_ context.Context, b *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings = append(m.bookings, b)
	return m.err
}

func (m *mockNotifier) ContactCreated(_ context.Context, c *models.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contacts = append(m.contacts, c)
	return m.err
}

// --- Fixtures ---

// testNow is Monday 2026-10-19 10:00 in London.
func testNow(t *testing.T) time.Time {
	t.Helper()
	return time.Date(2026, 10, 19, 10, 0, 0, 0, london(t))
}

func london(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)
	return loc
}

func testCatalog(t *testing.T) (*schedule.Catalog, *validate.Validator) {
	t.Helper()
	hours, err := schedule.NewHours("09:00", "21:00", 20*time.Minute)
	require.NoError(t, err)
	catalog := schedule.NewCatalog(london(t), hours, 30)
	return catalog, validate.New(catalog, 90)
}

// openSession returns a session opened long enough ago to pass the fill-time guard.
func openSession(clock *fakeClock, form ratelimit.Form) *ratelimit.Session {
	return &ratelimit.Session{ID: "sess-" + string(form), Form: form, OpenedAt: clock.Now().Add(-2 * time.Minute)}
}

type bookingFixture struct {
	svc       BookingService
	clock     *fakeClock
	repo      *mockBookingRepo
	publisher *mockPublisher
	notifier  *mockNotifier
	fallback  *mockFallback
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	clock := &fakeClock{t: testNow(t)}
	catalog, validator := testCatalog(t)
	f := &bookingFixture{
		clock:     clock,
		repo:      &mockBookingRepo{},
		publisher: &mockPublisher{},
		notifier:  &mockNotifier{},
		fallback:  &mockFallback{},
	}
	f.svc = NewBookingService(BookingDeps{
		Repo:      f.repo,
		Catalog:   catalog,
		Validator: validator,
		Limiter:   ratelimit.NewLimiter(ratelimit.DefaultPolicy(), clock.Now),
		Fallback:  f.fallback,
		Publisher: f.publisher,
		Notifier:  f.notifier,
		Logger:    logging.Discard(),
		Now:       clock.Now,
	})
	return f
}

func validBookingInput() SubmitBookingInput {
	return SubmitBookingInput{
		Name:         "Dr. John Smith",
		Email:        "john@dentalclinic.com",
		Phone:        "+44 20 1234 5678",
		BusinessName: "Test Clinic",
		Date:         "2026-11-02", // ten business days after testNow
		Time:         "10:00",
		Timezone:     "Europe/London",
	}
}
