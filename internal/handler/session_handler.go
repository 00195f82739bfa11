package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/Eursukkul/consultation-booking/internal/dto"
	"github.com/Eursukkul/consultation-booking/internal/ratelimit"
	"github.com/Eursukkul/consultation-booking/pkg/logging"
	"github.com/labstack/echo/v4"
)

// SessionHeader carries the form session id on submissions.
const SessionHeader = "X-Form-Session"

// SessionGate opens form sessions and serializes submissions per session.
type SessionGate struct {
	store    ratelimit.Store
	logger   *logging.Logger
	inflight sync.Map
}

func NewSessionGate(store ratelimit.Store, logger *logging.Logger) *SessionGate {
	if logger == nil {
		logger = logging.Default()
	}
	return &SessionGate{store: store, logger: logger}
}

func (g *SessionGate) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/v1/sessions", g.OpenSession)
}

func (g *SessionGate) OpenSession(c echo.Context) error {
	var req dto.OpenSessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	form := ratelimit.Form(strings.TrimSpace(req.Form))
	if !form.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "form must be one of: booking, contact")
	}

	sess, err := g.store.Open(c.Request().Context(), form)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "could not open form session").SetInternal(err)
	}
	return c.JSON(http.StatusCreated, dto.ToSessionResponse(sess))
}

// acquire loads the session named by the request header and marks it busy.
// The returned release func saves the session and clears the mark.
func (g *SessionGate) acquire(c echo.Context, form ratelimit.Form) (*ratelimit.Session, func(), error) {
	id := strings.TrimSpace(c.Request().Header.Get(SessionHeader))
	if id == "" {
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, msgSessionExpired)
	}
	if _, busy := g.inflight.LoadOrStore(id, struct{}{}); busy {
		return nil, nil, echo.NewHTTPError(http.StatusTooManyRequests, msgInFlight)
	}

	ctx := c.Request().Context()
	sess, err := g.store.Get(ctx, id)
	if err != nil || sess.Form != form {
		g.inflight.Delete(id)
		if err != nil && !errors.Is(err, ratelimit.ErrSessionNotFound) {
			g.logger.Error("form session lookup failed", "session", id, "error", err)
		}
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, msgSessionExpired)
	}

	release := func() {
		defer g.inflight.Delete(id)
		// The request context may already be cancelled once the client is gone.
		if err := g.store.Save(context.WithoutCancel(ctx), sess); err != nil {
			g.logger.Error("form session save failed", "session", id, "error", err)
		}
	}
	return sess, release, nil
}
