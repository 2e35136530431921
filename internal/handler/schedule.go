package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/aquacenter/session-admission/internal/model"
	"github.com/aquacenter/session-admission/internal/repository"
)

// ScheduleHandler serves the read-only views members browse before
// showing up: today's session schedule with live occupancy, and a
// member's own admission history.
type ScheduleHandler struct {
	Sessions   *repository.SessionRepo
	Admissions *repository.AdmissionRepo
}

// NewScheduleHandler constructs a ScheduleHandler.
func NewScheduleHandler(s *repository.SessionRepo, a *repository.AdmissionRepo) *ScheduleHandler {
	if s == nil || a == nil {
		panic("nil repository passed to NewScheduleHandler")
	}
	return &ScheduleHandler{Sessions: s, Admissions: a}
}

// scheduleSlot is a session decorated with today's occupancy.
type scheduleSlot struct {
	model.Session
	Admitted  int  `json:"admitted"`
	Remaining int  `json:"remaining"`
	Full      bool `json:"full"`
}

// Schedule handles GET /v1/schedule: the active sessions in start
// order with the occupancy of the requested date (default today).
// Counts are informational; they are read outside the occurrence
// lease and the check-in endpoint re-validates under it.
func (h *ScheduleHandler) Schedule(c echo.Context) error {
	date, ok := occurrenceDate(c.QueryParam("date"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
	}
	ctx := c.Request().Context()

	sessions, err := h.Sessions.ListActive(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load schedule"})
	}
	counts, err := h.Admissions.CountsForDate(ctx, date)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load occupancy"})
	}

	slots := make([]scheduleSlot, 0, len(sessions))
	for _, s := range sessions {
		n := counts[s.ID]
		remaining := int(s.Capacity) - n
		if remaining < 0 {
			remaining = 0
		}
		slots = append(slots, scheduleSlot{
			Session:   s,
			Admitted:  n,
			Remaining: remaining,
			Full:      n >= int(s.Capacity),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"date":  date,
		"now":   time.Now().UTC(),
		"items": slots,
	})
}

// MyAdmissions handles GET /v1/my-admissions and returns the
// authenticated member's admission history, newest first.
func (h *ScheduleHandler) MyAdmissions(c echo.Context) error {
	memberID, err := getMemberID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Admissions.ListByMember(c.Request().Context(), memberID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load admissions"})
	}
	if items == nil {
		items = []repository.MemberAdmission{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
