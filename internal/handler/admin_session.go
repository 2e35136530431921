package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/aquacenter/session-admission/internal/model"
	"github.com/aquacenter/session-admission/internal/repository"
)

// AdminSessionHandler is the catalog administration surface: staff
// define, adjust and retire the daily time slots members check into,
// and read the occupancy report.
type AdminSessionHandler struct {
	Sessions   *repository.SessionRepo
	Admissions *repository.AdmissionRepo
}

// NewAdminSessionHandler constructs an AdminSessionHandler.
func NewAdminSessionHandler(s *repository.SessionRepo, a *repository.AdmissionRepo) *AdminSessionHandler {
	if s == nil || a == nil {
		panic("nil repository passed to NewAdminSessionHandler")
	}
	return &AdminSessionHandler{Sessions: s, Admissions: a}
}

// sessionReq carries a session definition. Times use "HH:MM"; the
// pointer fields let PATCH distinguish "absent" from zero values.
type sessionReq struct {
	Name        *string `json:"name"`
	StartsAt    *string `json:"starts_at"`
	EndsAt      *string `json:"ends_at"`
	Restriction *string `json:"restriction"`
	Capacity    *uint32 `json:"capacity"`
	IsActive    *bool   `json:"is_active"`
}

// apply overlays the request's present fields onto the session and
// reports the first validation problem.
func (req *sessionReq) apply(s *model.Session) string {
	if req.Name != nil {
		s.Name = strings.TrimSpace(*req.Name)
	}
	if req.StartsAt != nil {
		t, err := model.ParseTimeOfDay(*req.StartsAt)
		if err != nil {
			return "invalid starts_at"
		}
		s.StartsAt = t
	}
	if req.EndsAt != nil {
		t, err := model.ParseTimeOfDay(*req.EndsAt)
		if err != nil {
			return "invalid ends_at"
		}
		s.EndsAt = t
	}
	if req.Restriction != nil {
		r := model.Restriction(strings.ToUpper(strings.TrimSpace(*req.Restriction)))
		if !r.Valid() {
			return "invalid restriction"
		}
		s.Restriction = r
	}
	if req.Capacity != nil {
		s.Capacity = *req.Capacity
	}
	if req.IsActive != nil {
		s.IsActive = *req.IsActive
	}
	switch {
	case s.Name == "":
		return "name is required"
	case s.Capacity == 0:
		return "capacity must be at least 1"
	case s.StartsAt >= s.EndsAt:
		return "starts_at must be before ends_at"
	}
	return ""
}

// List handles GET /v1/admin/sessions and returns every session,
// active or not.
func (h *AdminSessionHandler) List(c echo.Context) error {
	sessions, err := h.Sessions.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load sessions"})
	}
	if sessions == nil {
		sessions = []model.Session{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": sessions})
}

// Get handles GET /v1/admin/sessions/:id.
func (h *AdminSessionHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	s, err := h.Sessions.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, s)
}

// Create handles POST /v1/admin/sessions. Active sessions may not
// overlap an existing active slot; the catalog answers 409 when the
// new range collides.
func (h *AdminSessionHandler) Create(c echo.Context) error {
	var req sessionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	s := model.Session{IsActive: true}
	if msg := req.apply(&s); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	if err := h.Sessions.Create(c.Request().Context(), &s); err != nil {
		if errors.Is(err, repository.ErrSessionOverlap) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "session overlaps an active session"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create session failed"})
	}
	return c.JSON(http.StatusCreated, s)
}

// Update handles PATCH /v1/admin/sessions/:id. Absent fields keep
// their stored values.
func (h *AdminSessionHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	var req sessionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx := c.Request().Context()
	s, err := h.Sessions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if msg := req.apply(s); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	if err := h.Sessions.Update(ctx, s); err != nil {
		switch {
		case errors.Is(err, repository.ErrSessionNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		case errors.Is(err, repository.ErrSessionOverlap):
			return c.JSON(http.StatusConflict, echo.Map{"error": "session overlaps an active session"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update session failed"})
	}
	return c.JSON(http.StatusOK, s)
}

// Occupancy handles GET /v1/admin/occupancy?date=YYYY-MM-DD: every
// session, active or not, with the occupancy of the requested date
// (default today). Counts come straight from the ledger.
func (h *AdminSessionHandler) Occupancy(c echo.Context) error {
	date, ok := occurrenceDate(c.QueryParam("date"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
	}
	ctx := c.Request().Context()
	sessions, err := h.Sessions.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load sessions"})
	}
	counts, err := h.Admissions.CountsForDate(ctx, date)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load occupancy"})
	}
	type row struct {
		SessionID uint64 `json:"session_id"`
		Name      string `json:"name"`
		Capacity  uint32 `json:"capacity"`
		Admitted  int    `json:"admitted"`
		IsActive  bool   `json:"is_active"`
	}
	rows := make([]row, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, row{
			SessionID: s.ID,
			Name:      s.Name,
			Capacity:  s.Capacity,
			Admitted:  counts[s.ID],
			IsActive:  s.IsActive,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"date": date, "items": rows})
}

// Delete handles DELETE /v1/admin/sessions/:id. Sessions that already
// recorded admissions cannot be deleted — the ledger is permanent —
// and should be deactivated with PATCH instead.
func (h *AdminSessionHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	if err := h.Sessions.Delete(c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, repository.ErrSessionNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "session has admissions; deactivate it instead"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete session failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
