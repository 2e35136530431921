package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/aquacenter/session-admission/internal/admission"
	"github.com/aquacenter/session-admission/internal/lease"
	"github.com/aquacenter/session-admission/internal/model"
	"github.com/aquacenter/session-admission/internal/repository"
)

// WaitlistHandler exposes the per-occurrence waiting queue: members
// turned away by capacity join it, leave it, and see their position.
type WaitlistHandler struct {
	Waitlist *admission.Waitlist
	Sessions *repository.SessionRepo
}

// NewWaitlistHandler constructs a WaitlistHandler.
func NewWaitlistHandler(w *admission.Waitlist, s *repository.SessionRepo) *WaitlistHandler {
	if w == nil || s == nil {
		panic("nil dependency passed to NewWaitlistHandler")
	}
	return &WaitlistHandler{Waitlist: w, Sessions: s}
}

type waitlistReq struct {
	SessionID uint64 `json:"session_id"`
	Date      string `json:"date"` // optional; defaults to today
}

// occurrenceDate validates the request date, defaulting to today.
func occurrenceDate(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return model.DateOf(time.Now()), true
	}
	if _, err := time.Parse(model.DateLayout, raw); err != nil {
		return "", false
	}
	return raw, true
}

// Join handles POST /v1/waitlist. The member is appended at the back
// of the queue for the given occurrence and receives the new entry
// with its 1-based position.
func (h *WaitlistHandler) Join(c echo.Context) error {
	memberID, err := getMemberID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req waitlistReq
	if err := c.Bind(&req); err != nil || req.SessionID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "session_id is required"})
	}
	date, ok := occurrenceDate(req.Date)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
	}
	ctx := c.Request().Context()
	if _, err := h.Sessions.GetByID(ctx, req.SessionID); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	entry, err := h.Waitlist.Join(ctx, req.SessionID, date, memberID)
	if err != nil {
		switch {
		case errors.Is(err, admission.ErrAlreadyWaiting):
			return c.JSON(http.StatusConflict, echo.Map{"error": "already on the waitlist"})
		case errors.Is(err, lease.ErrNotAcquired):
			c.Response().Header().Set("Retry-After", "1")
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "waitlist is busy; please retry"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to join waitlist"})
	}
	return c.JSON(http.StatusCreated, entry)
}

// Leave handles DELETE /v1/waitlist. Leaving a queue the member is
// not in succeeds quietly; the queue behind the departed entry is
// renumbered so positions stay dense.
func (h *WaitlistHandler) Leave(c echo.Context) error {
	memberID, err := getMemberID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req waitlistReq
	if err := c.Bind(&req); err != nil || req.SessionID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "session_id is required"})
	}
	date, ok := occurrenceDate(req.Date)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
	}

	if err := h.Waitlist.Leave(c.Request().Context(), req.SessionID, date, memberID); err != nil {
		if errors.Is(err, lease.ErrNotAcquired) {
			c.Response().Header().Set("Retry-After", "1")
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "waitlist is busy; please retry"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to leave waitlist"})
	}
	return c.NoContent(http.StatusNoContent)
}

// List handles GET /v1/sessions/:id/waitlist?date=YYYY-MM-DD and
// returns the live queue for the occurrence in position order.
func (h *WaitlistHandler) List(c echo.Context) error {
	sessionID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || sessionID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	date, ok := occurrenceDate(c.QueryParam("date"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
	}
	ctx := c.Request().Context()
	if _, err := h.Sessions.GetByID(ctx, sessionID); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	entries, err := h.Waitlist.Entries(ctx, sessionID, date)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load waitlist"})
	}
	if entries == nil {
		entries = []model.WaitlistEntry{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": entries})
}
