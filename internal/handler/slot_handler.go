package handler

import (
	"net/http"
	"strings"

	"github.com/Eursukkul/consultation-booking/internal/dto"
	"github.com/Eursukkul/consultation-booking/internal/service"
	"github.com/labstack/echo/v4"
)

type SlotHandler struct {
	svc service.AvailabilityService
}

func NewSlotHandler(svc service.AvailabilityService) *SlotHandler {
	return &SlotHandler{svc: svc}
}

func (h *SlotHandler) RegisterRoutes(e *echo.Echo) {
	slots := e.Group("/api/v1/slots")
	slots.GET("/dates", h.ListDates)
	slots.GET("/times", h.ListTimes)
}

func (h *SlotHandler) ListDates(c echo.Context) error {
	return c.JSON(http.StatusOK, dto.DatesResponse{Dates: h.svc.Dates(c.Request().Context())})
}

func (h *SlotHandler) ListTimes(c echo.Context) error {
	date := strings.TrimSpace(c.QueryParam("date"))
	if date == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "date is required")
	}
	tz := strings.TrimSpace(c.QueryParam("tz"))

	times, err := h.svc.AvailableTimes(c.Request().Context(), date, tz)
	if err != nil {
		return readError(err)
	}
	return c.JSON(http.StatusOK, dto.TimesResponse{Date: date, Timezone: tz, Times: times})
}
