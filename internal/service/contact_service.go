package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Eursukkul/consultation-booking/internal/fallback"
	"github.com/Eursukkul/consultation-booking/internal/metrics"
	"github.com/Eursukkul/consultation-booking/internal/models"
	"github.com/Eursukkul/consultation-booking/internal/ratelimit"
	"github.com/Eursukkul/consultation-booking/internal/repository"
	"github.com/Eursukkul/consultation-booking/internal/validate"
	"github.com/Eursukkul/consultation-booking/pkg/logging"
	"github.com/Eursukkul/consultation-booking/pkg/rabbitmq"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	minContactName    = 2
	minContactMessage = 10
	maxContactMessage = 2000
)

type SubmitContactInput struct {
	Name      string
	Email     string
	Message   string
	BotField  string
	UserAgent string
	IPAddress string
}

type ContactResult struct {
	Outcome   Outcome
	Contact   *models.Contact
	Message   string
	ResetForm bool
}

type ContactService interface {
	Submit(ctx context.Context, in SubmitContactInput, sess *ratelimit.Session) (*ContactResult, error)
	ListContacts(ctx context.Context, status *models.ContactStatus) ([]models.Contact, error)
}

type ContactDeps struct {
	Repo      repository.ContactRepository
	Validator *validate.Validator
	Limiter   *ratelimit.Limiter
	Fallback  FallbackSubmitter
	Publisher EventPublisher // optional
	Notifier  Notifier       // optional
	Metrics   *metrics.FormMetrics
	Logger    *logging.Logger
	Now       func() time.Time
}

type contactService struct {
	ContactDeps
}

func NewContactService(deps ContactDeps) ContactService {
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &contactService{ContactDeps: deps}
}

func (s *contactService) Submit(ctx context.Context, in SubmitContactInput, sess *ratelimit.Session) (*ContactResult, error) {
	ctx, span := tracer.Start(ctx, "contact.submit", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	res, err := s.submit(ctx, in, sess)

	var outcome Outcome
	if res != nil {
		outcome = res.Outcome
	}
	label := outcomeLabel(outcome, err)
	span.SetAttributes(attribute.String("contact.outcome", label))
	if err != nil {
		span.SetStatus(codes.Error, label)
	}
	s.Metrics.ObserveSubmission(string(ratelimit.FormContact), label)
	return res, err
}

func (s *contactService) submit(ctx context.Context, in SubmitContactInput, sess *ratelimit.Session) (*ContactResult, error) {
	if sess == nil {
		return nil, ratelimit.ErrSessionNotFound
	}

	c, err := s.validate(in)
	if err != nil {
		return nil, err
	}

	if ok, wait := s.Limiter.Allow(sess); !ok {
		return nil, &CooldownError{Wait: wait}
	}
	s.Limiter.Record(sess)

	if ratelimit.Honeypot(in.BotField) {
		s.Logger.Warn("contact honeypot triggered", "session", sess.ID)
		return &ContactResult{Outcome: OutcomeDropped, Message: msgThanks, ResetForm: true}, nil
	}
	if s.Limiter.TooFast(sess) {
		return nil, ErrTooFast
	}

	c.ID = uuid.NewString()
	c.Status = models.ContactNew
	c.UserAgent = truncateRunes(in.UserAgent, 512)
	c.IPAddress = truncateRunes(in.IPAddress, 45)

	if err := s.Repo.Create(ctx, c); err != nil {
		s.Logger.Error("contact insert failed, using fallback", "contact_id", c.ID, "error", err)
		return s.fallback(ctx, c, sess)
	}

	s.Limiter.Reset(sess)
	s.announce(ctx, c)
	s.Logger.Info("contact inquiry stored", "contact_id", c.ID)

	return &ContactResult{
		Outcome:   OutcomeCreated,
		Contact:   c,
		Message:   "Thank you for your message! We'll get back to you within 24 hours.",
		ResetForm: true,
	}, nil
}

func (s *contactService) validate(in SubmitContactInput) (*models.Contact, error) {
	now := s.Now()

	name, err := s.Validator.Field(validate.KindName, in.Name, now)
	if err != nil || utf8.RuneCountInString(name) < minContactName {
		return nil, invalid("Name must be between 2 and 100 characters.")
	}
	email, err := s.Validator.Field(validate.KindEmail, in.Email, now)
	if err != nil {
		return nil, invalid("Please enter a valid email address.")
	}

	// Overlong messages are rejected rather than silently cut.
	if utf8.RuneCountInString(validate.Sanitize(in.Message)) > maxContactMessage {
		return nil, invalid("Message must be between 10 and 2000 characters.")
	}
	message, err := s.Validator.Field(validate.KindMessage, in.Message, now)
	if err != nil || utf8.RuneCountInString(message) < minContactMessage {
		return nil, invalid("Message must be between 10 and 2000 characters.")
	}

	return &models.Contact{Name: name, Email: email, Message: message}, nil
}

func (s *contactService) fallback(ctx context.Context, c *models.Contact, sess *ratelimit.Session) (*ContactResult, error) {
	err := submitFallback(ctx, s.Fallback, fallback.FormContact, map[string]string{
		"name":    c.Name,
		"email":   c.Email,
		"message": c.Message,
	})
	s.Metrics.ObserveFallback(string(ratelimit.FormContact), err == nil)
	if err != nil {
		s.Logger.Error("contact fallback failed", "contact_id", c.ID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
	}

	s.Limiter.Reset(sess)
	return &ContactResult{Outcome: OutcomeReceived, Message: msgThanks, ResetForm: true}, nil
}

func (s *contactService) announce(ctx context.Context, c *models.Contact) {
	if s.Publisher != nil {
		evt := ContactCreatedEvent{ID: c.ID, Email: c.Email, CreatedAt: c.CreatedAt}
		if err := s.Publisher.Publish(ctx, rabbitmq.RoutingContactCreated, evt); err != nil {
			s.Logger.Warn("publish contact.created failed", "contact_id", c.ID, "error", err)
		}
	}
	if s.Notifier != nil {
		if err := s.Notifier.ContactCreated(ctx, c); err != nil {
			s.Logger.Warn("owner notification failed", "contact_id", c.ID, "error", err)
		}
	}
}

func (s *contactService) ListContacts(ctx context.Context, status *models.ContactStatus) ([]models.Contact, error) {
	if status != nil && !status.Valid() {
		return nil, invalid("Unknown status %q.", *status)
	}
	return s.Repo.List(ctx, status)
}

func truncateRunes(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
