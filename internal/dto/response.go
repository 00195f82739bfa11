package dto

import (
	"time"

	"github.com/Eursukkul/consultation-booking/internal/models"
	"github.com/Eursukkul/consultation-booking/internal/ratelimit"
	"github.com/Eursukkul/consultation-booking/internal/schedule"
)

type BookingResponse struct {
	ID             string               `json:"id"`
	Name           string               `json:"name"`
	Email          string               `json:"email"`
	Phone          string               `json:"phone"`
	BusinessName   string               `json:"business_name"`
	Date           string               `json:"date"`
	Time           string               `json:"time"`
	ViewerDate     string               `json:"viewer_date"`
	ViewerTime     string               `json:"viewer_time"`
	ViewerTimezone string               `json:"viewer_timezone"`
	Display        string               `json:"display"`
	Status         models.BookingStatus `json:"status"`
	CreatedAt      time.Time            `json:"created_at"`
}

// SubmitResponse is returned for every accepted form submission. Booking and
// Contact are only set when the record was stored.
type SubmitResponse struct {
	Outcome             string           `json:"outcome"`
	Message             string           `json:"message"`
	ResetForm           bool             `json:"reset_form"`
	DismissAfterSeconds int              `json:"dismiss_after_seconds,omitempty"`
	Booking             *BookingResponse `json:"booking,omitempty"`
	Contact             *ContactResponse `json:"contact,omitempty"`
}

type ContactResponse struct {
	ID        string               `json:"id"`
	Name      string               `json:"name"`
	Email     string               `json:"email"`
	Message   string               `json:"message"`
	Status    models.ContactStatus `json:"status"`
	CreatedAt time.Time            `json:"created_at"`
}

type DatesResponse struct {
	Dates []schedule.DateOption `json:"dates"`
}

// TimesResponse echoes the requested date so the client can drop a stale
// response after the visitor picked another day.
type TimesResponse struct {
	Date     string                `json:"date"`
	Timezone string                `json:"timezone"`
	Times    []schedule.TimeOption `json:"times"`
}

type SessionResponse struct {
	ID       string    `json:"id"`
	Form     string    `json:"form"`
	OpenedAt time.Time `json:"opened_at"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}

func ToBookingResponse(b *models.Booking) BookingResponse {
	return BookingResponse{
		ID:             b.ID,
		Name:           b.Name,
		Email:          b.Email,
		Phone:          b.Phone,
		BusinessName:   b.BusinessName,
		Date:           b.OriginDate,
		Time:           b.OriginTime,
		ViewerDate:     b.ViewerDate,
		ViewerTime:     b.ViewerTime,
		ViewerTimezone: b.ViewerTimezone,
		Display:        b.ViewerDisplay,
		Status:         b.Status,
		CreatedAt:      b.CreatedAt,
	}
}

func ToContactResponse(c *models.Contact) ContactResponse {
	return ContactResponse{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Message:   c.Message,
		Status:    c.Status,
		CreatedAt: c.CreatedAt,
	}
}

func ToSessionResponse(s *ratelimit.Session) SessionResponse {
	return SessionResponse{ID: s.ID, Form: string(s.Form), OpenedAt: s.OpenedAt}
}
