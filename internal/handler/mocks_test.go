package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Eursukkul/consultation-booking/internal/models"
	"github.com/Eursukkul/consultation-booking/internal/ratelimit"
	"github.com/Eursukkul/consultation-booking/internal/repository"
	"github.com/Eursukkul/consultation-booking/internal/schedule"
	"github.com/Eursukkul/consultation-booking/internal/service"
	"github.com/Eursukkul/consultation-booking/pkg/logging"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

// --- Mock BookingService ---

type mockBookingService struct {
	submitFn func(ctx context.Context, in service.SubmitBookingInput, sess *ratelimit.Session) (*service.BookingResult, error)
	getFn    func(ctx context.Context, id string) (*models.Booking, error)
	listFn   func(ctx context.Context, filter repository.BookingFilter) ([]models.Booking, error)
}

func (m *mockBookingService) Submit(ctx context.Context, in service.SubmitBookingInput, sess *ratelimit.Session) (*service.BookingResult, error) {
	return m.submitFn(ctx, in, sess)
}
func (m *mockBookingService) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	return m.getFn(ctx, id)
}
func (m *mockBookingService) ListBookings(ctx context.Context, filter repository.BookingFilter) ([]models.Booking, error) {
	return m.listFn(ctx, filter)
}
func (m *mockBookingService) UpdateStatus(ctx context.Context, id string, status models.BookingStatus) error {
	return nil
}

// --- Mock ContactService ---

type mockContactService struct {
	submitFn func(ctx context.Context, in service.SubmitContactInput, sess *ratelimit.Session) (*service.ContactResult, error)
	listFn   func(ctx context.Context, status *models.ContactStatus) ([]models.Contact, error)
}

func (m *mockContactService) Submit(ctx context.Context, in service.SubmitContactInput, sess *ratelimit.Session) (*service.ContactResult, error) {
	return m.submitFn(ctx, in, sess)
}
func (m *mockContactService) ListContacts(ctx context.Context, status *models.ContactStatus) ([]models.Contact, error) {
	return m.listFn(ctx, status)
}

// --- Mock AvailabilityService ---

type mockAvailabilityService struct {
	datesFn func(ctx context.Context) []schedule.DateOption
	timesFn func(ctx context.Context, date, tz string) ([]schedule.TimeOption, error)
}

func (m *mockAvailabilityService) Dates(ctx context.Context) []schedule.DateOption {
	return m.datesFn(ctx)
}
func (m *mockAvailabilityService) BookedTimes(ctx context.Context, date string) map[string]struct{} {
	return nil
}
func (m *mockAvailabilityService) AvailableTimes(ctx context.Context, date, tz string) ([]schedule.TimeOption, error) {
	return m.timesFn(ctx, date, tz)
}

// --- Helpers ---

func newGate(t *testing.T) (*SessionGate, ratelimit.Store) {
	t.Helper()
	store := ratelimit.NewMemoryStore(16, time.Hour, nil)
	return NewSessionGate(store, logging.Discard()), store
}

func openFormSession(t *testing.T, store ratelimit.Store, form ratelimit.Form) *ratelimit.Session {
	t.Helper()
	sess, err := store.Open(context.Background(), form)
	require.NoError(t, err)
	return sess
}

func jsonContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func httpCode(t *testing.T, err error) int {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected *echo.HTTPError, got %v", err)
	return he.Code
}
