package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Eursukkul/consultation-booking/internal/dto"
	"github.com/Eursukkul/consultation-booking/internal/middleware"
	"github.com/Eursukkul/consultation-booking/internal/models"
	"github.com/Eursukkul/consultation-booking/internal/ratelimit"
	"github.com/Eursukkul/consultation-booking/internal/repository"
	"github.com/Eursukkul/consultation-booking/internal/schedule"
	"github.com/Eursukkul/consultation-booking/internal/service"
	"github.com/Eursukkul/consultation-booking/internal/validate"
	"github.com/Eursukkul/consultation-booking/pkg/logging"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memBookings enforces one active booking per slot like the database index.
type memBookings struct {
	mu   sync.Mutex
	byID map[string]models.Booking
}

func (r *memBookings) Create(_ context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, other := range r.byID {
		if other.OriginDate == b.OriginDate && other.OriginTime == b.OriginTime {
			return repository.ErrDuplicateSlot
		}
	}
	r.byID[b.ID] = *b
	return nil
}
func (r *memBookings) BookedTimes(_ context.Context, date string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, b := range r.byID {
		if b.OriginDate == date {
			out = append(out, b.OriginTime)
		}
	}
	return out, nil
}
func (r *memBookings) IsSlotTaken(ctx context.Context, date, clock string) (bool, error) {
	times, _ := r.BookedTimes(ctx, date)
	for _, t := range times {
		if t == clock {
			return true, nil
		}
	}
	return false, nil
}
func (r *memBookings) FindByID(_ context.Context, id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &b, nil
}
func (r *memBookings) List(_ context.Context, _ repository.BookingFilter) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Booking, 0, len(r.byID))
	for _, b := range r.byID {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OriginTime < out[j].OriginTime })
	return out, nil
}
func (r *memBookings) UpdateStatus(context.Context, string, models.BookingStatus) error {
	return repository.ErrNotFound
}

type flowClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *flowClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *flowClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

const flowAdminKey = "s3cret"

func newFlowServer(t *testing.T) (*echo.Echo, *flowClock) {
	t.Helper()
	london, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)
	clock := &flowClock{t: time.Date(2026, 10, 19, 10, 0, 0, 0, london)}

	hours, err := schedule.NewHours("09:00", "21:00", 20*time.Minute)
	require.NoError(t, err)
	catalog := schedule.NewCatalog(london, hours, 30)
	validator := validate.New(catalog, 90)
	limiter := ratelimit.NewLimiter(ratelimit.DefaultPolicy(), clock.Now)
	repo := &memBookings{byID: map[string]models.Booking{}}
	logger := logging.Discard()

	bookingSvc := service.NewBookingService(service.BookingDeps{
		Repo:      repo,
		Catalog:   catalog,
		Validator: validator,
		Limiter:   limiter,
		Logger:    logger,
		Now:       clock.Now,
	})
	availabilitySvc := service.NewAvailabilityService(repo, catalog, validator, nil, logger, clock.Now)

	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler(logger)
	gate := NewSessionGate(ratelimit.NewMemoryStore(64, time.Hour, clock.Now), logger)
	bookings := NewBookingHandler(bookingSvc, gate)
	gate.RegisterRoutes(e)
	NewSlotHandler(availabilitySvc).RegisterRoutes(e)
	bookings.RegisterRoutes(e)
	bookings.RegisterAdminRoutes(e.Group("/api/v1/admin", middleware.AdminKeyAuth(flowAdminKey)))
	return e, clock
}

func do(e *echo.Echo, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func openSessionID(t *testing.T, e *echo.Echo) string {
	t.Helper()
	rec := do(e, http.MethodPost, "/api/v1/sessions", `{"form":"booking"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var sess dto.SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	return sess.ID
}

func flowBooking(name string) string {
	return `{"name":"` + name + `","email":"visitor@example.com","phone":"+1 212 555 0100",` +
		`"business_name":"Smile Dental","date":"2026-11-02","time":"10:00","timezone":"America/New_York"}`
}

func TestFlow_BookConsultation(t *testing.T) {
	e, clock := newFlowServer(t)

	var first string
	t.Run("Step1_OpenSession", func(t *testing.T) {
		first = openSessionID(t, e)
	})

	t.Run("Step2_Dates", func(t *testing.T) {
		rec := do(e, http.MethodGet, "/api/v1/slots/dates", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp dto.DatesResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotEmpty(t, resp.Dates)
		assert.Equal(t, "2026-10-19", resp.Dates[0].Value)
	})

	t.Run("Step3_TimesInViewerZone", func(t *testing.T) {
		rec := do(e, http.MethodGet, "/api/v1/slots/times?date=2026-11-02&tz=America/New_York", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp dto.TimesResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "2026-11-02", resp.Date)
		require.NotEmpty(t, resp.Times)
		assert.Equal(t, "09:00", resp.Times[0].Value)
		assert.Equal(t, "04:00", resp.Times[0].ViewerTime)
	})

	t.Run("Step4_SubmitTooFast", func(t *testing.T) {
		rec := do(e, http.MethodPost, "/api/v1/bookings", flowBooking("Dr. Ada Jones"), map[string]string{SessionHeader: first})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), msgTooFast)
	})

	clock.Advance(2 * time.Minute)

	t.Run("Step5_SubmitBooked", func(t *testing.T) {
		rec := do(e, http.MethodPost, "/api/v1/bookings", flowBooking("Dr. Ada Jones"), map[string]string{SessionHeader: first})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var resp dto.SubmitResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotNil(t, resp.Booking)
		assert.Equal(t, "Monday, November 2, 2026 at 05:00 AM (EST)", resp.Booking.Display)
		assert.True(t, resp.ResetForm)
	})

	t.Run("Step6_SecondVisitorSameSlot", func(t *testing.T) {
		second := openSessionID(t, e)
		clock.Advance(2 * time.Minute)
		rec := do(e, http.MethodPost, "/api/v1/bookings", flowBooking("Dr. Bo Lee"), map[string]string{SessionHeader: second})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), msgSlotTaken)
	})

	t.Run("Step7_SlotNoLongerOffered", func(t *testing.T) {
		rec := do(e, http.MethodGet, "/api/v1/slots/times?date=2026-11-02", "", nil)
		var resp dto.TimesResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		for _, opt := range resp.Times {
			assert.NotEqual(t, "10:00", opt.Value)
		}
	})

	t.Run("Step8_FirstSessionIsRateLimited", func(t *testing.T) {
		rec := do(e, http.MethodPost, "/api/v1/bookings", flowBooking("Dr. Ada Jones"), map[string]string{SessionHeader: first})
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	})

	t.Run("Step9_AdminList", func(t *testing.T) {
		rec := do(e, http.MethodGet, "/api/v1/admin/bookings", "", map[string]string{"Authorization": "Bearer wrong"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = do(e, http.MethodGet, "/api/v1/admin/bookings", "", map[string]string{"Authorization": "Bearer " + flowAdminKey})
		require.Equal(t, http.StatusOK, rec.Code)
		var resp []dto.BookingResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp, 1)
		assert.Equal(t, "10:00", resp[0].Time)
		assert.Equal(t, "America/New_York", resp[0].ViewerTimezone)
	})
}
