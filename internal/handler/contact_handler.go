package handler

import (
	"net/http"

	"github.com/Eursukkul/consultation-booking/internal/dto"
	"github.com/Eursukkul/consultation-booking/internal/models"
	"github.com/Eursukkul/consultation-booking/internal/ratelimit"
	"github.com/Eursukkul/consultation-booking/internal/service"
	"github.com/labstack/echo/v4"
)

type ContactHandler struct {
	svc  service.ContactService
	gate *SessionGate
}

func NewContactHandler(svc service.ContactService, gate *SessionGate) *ContactHandler {
	return &ContactHandler{svc: svc, gate: gate}
}

func (h *ContactHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/v1/contacts", h.CreateContact)
}

func (h *ContactHandler) RegisterAdminRoutes(g *echo.Group) {
	g.GET("/contacts", h.ListContacts)
}

func (h *ContactHandler) CreateContact(c echo.Context) error {
	var req dto.CreateContactRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	sess, release, err := h.gate.acquire(c, ratelimit.FormContact)
	if err != nil {
		return err
	}
	defer release()

	res, err := h.svc.Submit(c.Request().Context(), service.SubmitContactInput{
		Name:      req.Name,
		Email:     req.Email,
		Message:   req.Message,
		BotField:  req.BotField,
		UserAgent: c.Request().UserAgent(),
		IPAddress: c.RealIP(),
	}, sess)
	if err != nil {
		return submitError(c, err)
	}

	resp := dto.SubmitResponse{
		Outcome:   res.Outcome.String(),
		Message:   res.Message,
		ResetForm: res.ResetForm,
	}
	if res.Contact != nil {
		ct := dto.ToContactResponse(res.Contact)
		resp.Contact = &ct
	}
	return c.JSON(submitStatus(res.Outcome), resp)
}

func (h *ContactHandler) ListContacts(c echo.Context) error {
	var status *models.ContactStatus
	if s := c.QueryParam("status"); s != "" {
		cs := models.ContactStatus(s)
		status = &cs
	}

	contacts, err := h.svc.ListContacts(c.Request().Context(), status)
	if err != nil {
		return readError(err)
	}

	resp := make([]dto.ContactResponse, len(contacts))
	for i := range contacts {
		resp[i] = dto.ToContactResponse(&contacts[i])
	}
	return c.JSON(http.StatusOK, resp)
}
