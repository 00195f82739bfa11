package service

import (
	"context"
	"time"

	"github.com/Eursukkul/consultation-booking/internal/metrics"
	"github.com/Eursukkul/consultation-booking/internal/repository"
	"github.com/Eursukkul/consultation-booking/internal/schedule"
	"github.com/Eursukkul/consultation-booking/internal/validate"
	"github.com/Eursukkul/consultation-booking/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("consultation.internal.service")

type AvailabilityService interface {
	Dates(ctx context.Context) []schedule.DateOption
	BookedTimes(ctx context.Context, date string) map[string]struct{}
	AvailableTimes(ctx context.Context, date, tz string) ([]schedule.TimeOption, error)
}

type availabilityService struct {
	repo      repository.BookingRepository
	catalog   *schedule.Catalog
	validator *validate.Validator
	metrics   *metrics.FormMetrics
	logger    *logging.Logger
	now       func() time.Time
}

func NewAvailabilityService(
	repo repository.BookingRepository,
	catalog *schedule.Catalog,
	validator *validate.Validator,
	m *metrics.FormMetrics,
	logger *logging.Logger,
	now func() time.Time,
) AvailabilityService {
	if logger == nil {
		logger = logging.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &availabilityService{
		repo:      repo,
		catalog:   catalog,
		validator: validator,
		metrics:   m,
		logger:    logger,
		now:       now,
	}
}

func (s *availabilityService) Dates(_ context.Context) []schedule.DateOption {
	return s.catalog.Dates(s.now())
}

// BookedTimes returns the active booked times for date. A malformed or
// out-of-horizon date yields an empty set, and so does a storage failure:
// the slot picker keeps working and the insert-time check stays authoritative.
func (s *availabilityService) BookedTimes(ctx context.Context, date string) map[string]struct{} {
	booked := map[string]struct{}{}
	if _, err := s.validator.Field(validate.KindDate, date, s.now()); err != nil {
		return booked
	}

	times, err := s.repo.BookedTimes(ctx, date)
	if err != nil {
		s.logger.Error("booked times lookup failed", "date", date, "error", err)
		s.metrics.ObserveLookupFailure()
		return booked
	}
	for _, t := range times {
		booked[t] = struct{}{}
	}
	return booked
}

// AvailableTimes lists the open slots for date in the viewer's timezone.
func (s *availabilityService) AvailableTimes(ctx context.Context, date, tz string) ([]schedule.TimeOption, error) {
	ctx, span := tracer.Start(ctx, "availability.available_times")
	defer span.End()
	span.SetAttributes(attribute.String("slot.date", date), attribute.String("viewer.timezone", tz))

	viewer, err := schedule.LoadViewer(tz, s.catalog.Origin)
	if err != nil {
		span.RecordError(err)
		return nil, invalid("Unknown timezone %q.", tz)
	}

	options := []schedule.TimeOption{}
	now := s.now()
	if _, err := s.validator.Field(validate.KindDate, date, now); err != nil {
		return options, nil
	}

	booked := s.BookedTimes(ctx, date)
	for opt := range s.catalog.Times(date, booked, viewer, now) {
		options = append(options, opt)
	}
	span.SetAttributes(attribute.Int("slot.available", len(options)))
	return options, nil
}
