package ratelimit

import "time"

// Form identifies which public form a session belongs to.
type Form string

const (
	FormBooking Form = "booking"
	FormContact Form = "contact"
)

func (f Form) Valid() bool {
	return f == FormBooking || f == FormContact
}

// Session is the per-visitor form state. It lives until it expires in the
// store; reopening the form starts a new one.
type Session struct {
	ID          string    `json:"id"`
	Form        Form      `json:"form"`
	OpenedAt    time.Time `json:"opened_at"`
	Attempts    int       `json:"attempts"`
	LastAttempt time.Time `json:"last_attempt"`
}

type Policy struct {
	MaxAttempts int
	Window      time.Duration
	MinFillTime time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 2,
		Window:      10 * time.Minute,
		MinFillTime: 60 * time.Second,
	}
}

type Limiter struct {
	policy Policy
	now    func() time.Time
}

// NewLimiter builds a limiter. A nil clock means time.Now.
func NewLimiter(policy Policy, now func() time.Time) *Limiter {
	if now == nil {
		now = time.Now
	}
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultPolicy().MaxAttempts
	}
	return &Limiter{policy: policy, now: now}
}

func (l *Limiter) Policy() Policy { return l.policy }

// Allow reports whether another attempt is permitted and, when it is not,
// how long the caller must wait. A session whose last attempt is older than
// the window has its counter reset.
func (l *Limiter) Allow(s *Session) (bool, time.Duration) {
	now := l.now()
	if s.LastAttempt.IsZero() {
		return true, 0
	}

	elapsed := now.Sub(s.LastAttempt)
	if elapsed >= l.policy.Window {
		s.Attempts = 0
		return true, 0
	}
	if s.Attempts >= l.policy.MaxAttempts {
		return false, l.policy.Window - elapsed
	}
	return true, 0
}

// Record counts an admitted attempt.
func (l *Limiter) Record(s *Session) {
	s.Attempts++
	s.LastAttempt = l.now()
}

// TooFast reports a submission that arrived sooner after the form opened
// than a person could plausibly fill it in.
func (l *Limiter) TooFast(s *Session) bool {
	return l.now().Sub(s.OpenedAt) < l.policy.MinFillTime
}

// Reset clears the form timer after a successful submission.
func (l *Limiter) Reset(s *Session) {
	s.OpenedAt = l.now()
}

// Honeypot reports whether the hidden trap field was filled in.
func Honeypot(value string) bool {
	return value != ""
}
