package handler

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/Eursukkul/consultation-booking/internal/ratelimit"
	"github.com/Eursukkul/consultation-booking/internal/service"
	"github.com/labstack/echo/v4"
)

const (
	msgSlotTaken        = "This time slot is already booked. Please select another time."
	msgTooFast          = "Please take a moment to review your details before submitting."
	msgSubmissionFailed = "We couldn't submit your request right now. Please try again in a few minutes or email us directly."
	msgSessionExpired   = "Your form session has expired. Please reload the page and try again."
	msgInFlight         = "submission already in progress"
)

// submitError maps a form submission error to the response the visitor sees.
func submitError(c echo.Context, err error) error {
	var (
		inputErr    *service.InputError
		cooldownErr *service.CooldownError
	)
	switch {
	case errors.As(err, &inputErr):
		return echo.NewHTTPError(http.StatusBadRequest, inputErr.Message)
	case errors.As(err, &cooldownErr):
		secs := int(math.Ceil(cooldownErr.Wait.Seconds()))
		c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
		return echo.NewHTTPError(http.StatusTooManyRequests, cooldownErr.Error())
	case errors.Is(err, service.ErrTooFast):
		return echo.NewHTTPError(http.StatusBadRequest, msgTooFast)
	case errors.Is(err, service.ErrSlotTaken):
		return echo.NewHTTPError(http.StatusConflict, msgSlotTaken)
	case errors.Is(err, service.ErrSubmissionFailed):
		return echo.NewHTTPError(http.StatusServiceUnavailable, msgSubmissionFailed).SetInternal(err)
	case errors.Is(err, ratelimit.ErrSessionNotFound):
		return echo.NewHTTPError(http.StatusBadRequest, msgSessionExpired)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, msgSubmissionFailed).SetInternal(err)
	}
}

// readError maps errors from the read-only endpoints.
func readError(err error) error {
	var inputErr *service.InputError
	switch {
	case errors.As(err, &inputErr):
		return echo.NewHTTPError(http.StatusBadRequest, inputErr.Message)
	case errors.Is(err, service.ErrBookingNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "booking not found")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error").SetInternal(err)
	}
}

func submitStatus(o service.Outcome) int {
	if o == service.OutcomeCreated {
		return http.StatusCreated
	}
	return http.StatusAccepted
}
