package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Eursukkul/consultation-booking/internal/fallback"
	"github.com/Eursukkul/consultation-booking/internal/metrics"
	"github.com/Eursukkul/consultation-booking/internal/models"
	"github.com/Eursukkul/consultation-booking/internal/ratelimit"
	"github.com/Eursukkul/consultation-booking/internal/repository"
	"github.com/Eursukkul/consultation-booking/internal/schedule"
	"github.com/Eursukkul/consultation-booking/internal/validate"
	"github.com/Eursukkul/consultation-booking/pkg/logging"
	"github.com/Eursukkul/consultation-booking/pkg/rabbitmq"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type SubmitBookingInput struct {
	Name         string
	Email        string
	Phone        string
	BusinessName string
	Date         string // origin YYYY-MM-DD
	Time         string // origin HH:MM
	Timezone     string // viewer IANA id, captured at submit
	BotField     string
}

type BookingResult struct {
	Outcome      Outcome
	Booking      *models.Booking
	Message      string
	ResetForm    bool
	DismissAfter time.Duration
}

type BookingService interface {
	Submit(ctx context.Context, in SubmitBookingInput, sess *ratelimit.Session) (*BookingResult, error)
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	ListBookings(ctx context.Context, filter repository.BookingFilter) ([]models.Booking, error)
	UpdateStatus(ctx context.Context, id string, status models.BookingStatus) error
}

type BookingDeps struct {
	Repo         repository.BookingRepository
	Catalog      *schedule.Catalog
	Validator    *validate.Validator
	Limiter      *ratelimit.Limiter
	Fallback     FallbackSubmitter
	Publisher    EventPublisher // optional
	Notifier     Notifier       // optional
	Metrics      *metrics.FormMetrics
	Logger       *logging.Logger
	Now          func() time.Time
	DismissAfter time.Duration
}

type bookingService struct {
	BookingDeps
}

func NewBookingService(deps BookingDeps) BookingService {
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.DismissAfter <= 0 {
		deps.DismissAfter = 60 * time.Second
	}
	return &bookingService{BookingDeps: deps}
}

func (s *bookingService) Submit(ctx context.Context, in SubmitBookingInput, sess *ratelimit.Session) (*BookingResult, error) {
	ctx, span := tracer.Start(ctx, "booking.submit", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	res, err := s.submit(ctx, in, sess)

	var outcome Outcome
	if res != nil {
		outcome = res.Outcome
	}
	label := outcomeLabel(outcome, err)
	span.SetAttributes(attribute.String("booking.outcome", label))
	if err != nil {
		span.SetStatus(codes.Error, label)
	}
	s.Metrics.ObserveSubmission(string(ratelimit.FormBooking), label)
	return res, err
}

func (s *bookingService) submit(ctx context.Context, in SubmitBookingInput, sess *ratelimit.Session) (*BookingResult, error) {
	if sess == nil {
		return nil, ratelimit.ErrSessionNotFound
	}
	now := s.Now()

	b, err := s.validate(in, now)
	if err != nil {
		return nil, err
	}

	if ok, wait := s.Limiter.Allow(sess); !ok {
		return nil, &CooldownError{Wait: wait}
	}
	s.Limiter.Record(sess)

	if ratelimit.Honeypot(in.BotField) {
		s.Logger.Warn("booking honeypot triggered", "session", sess.ID)
		return &BookingResult{Outcome: OutcomeDropped, Message: msgThanks, ResetForm: true}, nil
	}
	if s.Limiter.TooFast(sess) {
		return nil, ErrTooFast
	}

	taken, err := s.Repo.IsSlotTaken(ctx, b.OriginDate, b.OriginTime)
	if err != nil {
		s.Logger.Warn("availability re-check failed", "date", b.OriginDate, "time", b.OriginTime, "error", err)
	} else if taken {
		return nil, ErrSlotTaken
	}

	viewer, err := s.Catalog.ToViewer(b.OriginDate, b.OriginTime, in.Timezone)
	if err != nil {
		return nil, invalid("Unknown timezone %q.", in.Timezone)
	}
	b.ViewerDate = viewer.Date
	b.ViewerTime = viewer.Time
	b.ViewerTimezone = strings.TrimSpace(in.Timezone)
	if b.ViewerTimezone == "" {
		b.ViewerTimezone = s.Catalog.Origin.String()
	}
	b.ViewerDisplay = viewer.Display

	b.ID = uuid.NewString()
	b.Status = models.StatusPending
	err = s.Repo.Create(ctx, b)
	switch {
	case errors.Is(err, repository.ErrDuplicateSlot):
		return nil, ErrSlotTaken
	case err != nil:
		s.Logger.Error("booking insert failed, using fallback", "booking_id", b.ID, "error", err)
		return s.fallback(ctx, b, sess)
	}

	s.Limiter.Reset(sess)
	s.announce(ctx, b)
	s.Logger.Info("booking created", "booking_id", b.ID, "date", b.OriginDate, "time", b.OriginTime, "viewer_timezone", b.ViewerTimezone)

	return &BookingResult{
		Outcome:      OutcomeCreated,
		Booking:      b,
		Message:      fmt.Sprintf("Thank you! Your consultation is booked for %s. We'll be in touch to confirm.", b.ViewerDisplay),
		ResetForm:    true,
		DismissAfter: s.DismissAfter,
	}, nil
}

// validate re-checks every field against the server clock and returns the
// sanitized booking skeleton.
func (s *bookingService) validate(in SubmitBookingInput, now time.Time) (*models.Booking, error) {
	fields := []struct {
		kind validate.Kind
		raw  string
		msg  string
	}{
		{validate.KindName, in.Name, "Please enter your name."},
		{validate.KindEmail, in.Email, "Please enter a valid email address."},
		{validate.KindPhone, in.Phone, "Please enter a valid phone number."},
		{validate.KindBusiness, in.BusinessName, "Please enter your business name."},
		{validate.KindDate, in.Date, "Please choose a valid date within the next 90 days."},
		{validate.KindTime, in.Time, "Please choose a valid time slot."},
	}
	out := make([]string, len(fields))
	for i, f := range fields {
		v, err := s.Validator.Field(f.kind, f.raw, now)
		if err != nil {
			return nil, invalid("%s", f.msg)
		}
		out[i] = v
	}

	clock, _ := schedule.ParseClock(out[5])
	instant, err := s.Catalog.Instant(out[4], clock)
	if err != nil || !instant.After(now) {
		return nil, invalid("That time has already passed. Please choose another slot.")
	}

	return &models.Booking{
		Name:         out[0],
		Email:        out[1],
		Phone:        out[2],
		BusinessName: out[3],
		OriginDate:   out[4],
		OriginTime:   out[5],
	}, nil
}

func (s *bookingService) fallback(ctx context.Context, b *models.Booking, sess *ratelimit.Session) (*BookingResult, error) {
	err := submitFallback(ctx, s.Fallback, fallback.FormBooking, map[string]string{
		"name":          b.Name,
		"email":         b.Email,
		"phone":         b.Phone,
		"businessName":  b.BusinessName,
		"preferredDate": b.OriginDate,
		"preferredTime": b.OriginTime,
		"timezone":      b.ViewerTimezone,
		"displayTime":   b.ViewerDisplay,
	})
	s.Metrics.ObserveFallback(string(ratelimit.FormBooking), err == nil)
	if err != nil {
		s.Logger.Error("booking fallback failed", "booking_id", b.ID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
	}

	s.Limiter.Reset(sess)
	return &BookingResult{
		Outcome:      OutcomeReceived,
		Message:      msgReceived,
		ResetForm:    true,
		DismissAfter: s.DismissAfter,
	}, nil
}

// announce publishes the event and emails the owner. Failures are logged only.
func (s *bookingService) announce(ctx context.Context, b *models.Booking) {
	if s.Publisher != nil {
		evt := BookingCreatedEvent{
			ID:             b.ID,
			OriginDate:     b.OriginDate,
			OriginTime:     b.OriginTime,
			ViewerTimezone: b.ViewerTimezone,
			Status:         b.Status,
			CreatedAt:      b.CreatedAt,
		}
		if err := s.Publisher.Publish(ctx, rabbitmq.RoutingBookingCreated, evt); err != nil {
			s.Logger.Warn("publish booking.created failed", "booking_id", b.ID, "error", err)
		}
	}
	if s.Notifier != nil {
		if err := s.Notifier.BookingCreated(ctx, b); err != nil {
			s.Logger.Warn("owner notification failed", "booking_id", b.ID, "error", err)
		}
	}
}

func (s *bookingService) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrBookingNotFound
	}
	b, err := s.Repo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrBookingNotFound
	}
	return b, err
}

func (s *bookingService) ListBookings(ctx context.Context, filter repository.BookingFilter) ([]models.Booking, error) {
	for _, d := range []string{filter.From, filter.To} {
		if d == "" {
			continue
		}
		if _, err := s.Catalog.ParseDate(d); err != nil {
			return nil, invalid("Invalid date %q, expected YYYY-MM-DD.", d)
		}
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, invalid("Unknown status %q.", *filter.Status)
	}
	return s.Repo.List(ctx, filter)
}

// UpdateStatus applies a status change requested by the administrative
// tooling. Moving a booking back to an active status fails with
// ErrSlotTaken when someone else holds the slot by then.
func (s *bookingService) UpdateStatus(ctx context.Context, id string, status models.BookingStatus) error {
	if !status.Valid() {
		return invalid("Unknown status %q.", status)
	}
	if _, err := uuid.Parse(id); err != nil {
		return ErrBookingNotFound
	}

	err := s.Repo.UpdateStatus(ctx, id, status)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrBookingNotFound
	case errors.Is(err, repository.ErrDuplicateSlot):
		return ErrSlotTaken
	case err != nil:
		return fmt.Errorf("update booking %s: %w", id, err)
	}
	s.Logger.Info("booking status updated", "booking_id", id, "status", status)
	return nil
}
