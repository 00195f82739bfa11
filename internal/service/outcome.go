package service

import (
	"errors"

	"github.com/Eursukkul/consultation-booking/internal/ratelimit"
)

// Outcome is how an accepted submission ended.
type Outcome int

const (
	// OutcomeCreated means the record was stored.
	OutcomeCreated Outcome = iota
	// OutcomeDropped means the honeypot caught an automated submission.
	// Nothing was stored; the visitor sees the generic thanks.
	OutcomeDropped
	// OutcomeReceived means the store failed and the fallback endpoint
	// accepted the submission instead.
	OutcomeReceived
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeDropped:
		return "dropped"
	case OutcomeReceived:
		return "received"
	default:
		return "unknown"
	}
}

func outcomeLabel(o Outcome, err error) string {
	switch {
	case err == nil:
		return o.String()
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrTooFast):
		return "too_fast"
	case errors.Is(err, ErrSlotTaken):
		return "slot_taken"
	case errors.Is(err, ratelimit.ErrSessionNotFound):
		return "no_session"
	default:
		return "failed"
	}
}

const (
	msgThanks   = "Thank you! We'll be in touch soon."
	msgReceived = "We received your request but could not confirm the exact slot. We'll contact you to arrange a time."
)
