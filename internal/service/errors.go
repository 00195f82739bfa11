package service

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrRateLimited      = errors.New("too many submissions")
	ErrTooFast          = errors.New("form submitted too quickly")
	ErrSlotTaken        = errors.New("slot already booked")
	ErrSubmissionFailed = errors.New("submission failed")
	ErrBookingNotFound  = errors.New("booking not found")
)

// InputError carries the message shown next to the form.
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return e.Message }
func (e *InputError) Unwrap() error { return ErrInvalidInput }

func invalid(format string, args ...any) error {
	return &InputError{Message: fmt.Sprintf(format, args...)}
}

// CooldownError reports how long a rate-limited visitor must wait.
type CooldownError struct {
	Wait time.Duration
}

func (e *CooldownError) Error() string {
	minutes := int(math.Ceil(e.Wait.Minutes()))
	if minutes <= 1 {
		return "Too many attempts. Please wait a minute before trying again."
	}
	return fmt.Sprintf("Too many attempts. Please wait %d minutes before trying again.", minutes)
}

func (e *CooldownError) Unwrap() error { return ErrRateLimited }
