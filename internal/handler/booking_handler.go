package handler

import (
	"net/http"

	"github.com/Eursukkul/consultation-booking/internal/dto"
	"github.com/Eursukkul/consultation-booking/internal/models"
	"github.com/Eursukkul/consultation-booking/internal/ratelimit"
	"github.com/Eursukkul/consultation-booking/internal/repository"
	"github.com/Eursukkul/consultation-booking/internal/service"
	"github.com/labstack/echo/v4"
)

type BookingHandler struct {
	svc  service.BookingService
	gate *SessionGate
}

func NewBookingHandler(svc service.BookingService, gate *SessionGate) *BookingHandler {
	return &BookingHandler{svc: svc, gate: gate}
}

func (h *BookingHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/v1/bookings", h.CreateBooking)
}

// RegisterAdminRoutes mounts the read-only booking endpoints on an
// authenticated group.
func (h *BookingHandler) RegisterAdminRoutes(g *echo.Group) {
	g.GET("/bookings", h.ListBookings)
	g.GET("/bookings/:id", h.GetBooking)
}

func (h *BookingHandler) CreateBooking(c echo.Context) error {
	var req dto.CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	sess, release, err := h.gate.acquire(c, ratelimit.FormBooking)
	if err != nil {
		return err
	}
	defer release()

	res, err := h.svc.Submit(c.Request().Context(), service.SubmitBookingInput{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		BusinessName: req.BusinessName,
		Date:         req.Date,
		Time:         req.Time,
		Timezone:     req.Timezone,
		BotField:     req.BotField,
	}, sess)
	if err != nil {
		return submitError(c, err)
	}

	resp := dto.SubmitResponse{
		Outcome:             res.Outcome.String(),
		Message:             res.Message,
		ResetForm:           res.ResetForm,
		DismissAfterSeconds: int(res.DismissAfter.Seconds()),
	}
	if res.Booking != nil {
		b := dto.ToBookingResponse(res.Booking)
		resp.Booking = &b
	}
	return c.JSON(submitStatus(res.Outcome), resp)
}

func (h *BookingHandler) GetBooking(c echo.Context) error {
	b, err := h.svc.GetBooking(c.Request().Context(), c.Param("id"))
	if err != nil {
		return readError(err)
	}
	return c.JSON(http.StatusOK, dto.ToBookingResponse(b))
}

func (h *BookingHandler) ListBookings(c echo.Context) error {
	filter := repository.BookingFilter{
		From: c.QueryParam("from"),
		To:   c.QueryParam("to"),
	}
	if s := c.QueryParam("status"); s != "" {
		bs := models.BookingStatus(s)
		filter.Status = &bs
	}

	bookings, err := h.svc.ListBookings(c.Request().Context(), filter)
	if err != nil {
		return readError(err)
	}

	resp := make([]dto.BookingResponse, len(bookings))
	for i := range bookings {
		resp[i] = dto.ToBookingResponse(&bookings[i])
	}
	return c.JSON(http.StatusOK, resp)
}
