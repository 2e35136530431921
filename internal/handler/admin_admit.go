package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/aquacenter/session-admission/internal/admission"
	"github.com/aquacenter/session-admission/internal/model"
	"github.com/aquacenter/session-admission/internal/repository"
)

// AdminAdmitHandler lets staff admit members directly: manual
// admission at the front desk when a scanner fails, and promotion off
// a waitlist. Both go through the same controller as self check-in,
// so every invariant (duplicates, capacity, the occurrence lease)
// applies to staff actions too.
type AdminAdmitHandler struct {
	Controller *admission.Controller
	Waitlist   *admission.Waitlist
	Sessions   *repository.SessionRepo
}

// NewAdminAdmitHandler constructs an AdminAdmitHandler.
func NewAdminAdmitHandler(ctrl *admission.Controller, w *admission.Waitlist, s *repository.SessionRepo) *AdminAdmitHandler {
	if ctrl == nil || w == nil || s == nil {
		panic("nil dependency passed to NewAdminAdmitHandler")
	}
	return &AdminAdmitHandler{Controller: ctrl, Waitlist: w, Sessions: s}
}

type manualAdmitReq struct {
	MemberID uint64 `json:"member_id"`
}

type promoteReq struct {
	SessionID uint64 `json:"session_id"`
	Date      string `json:"date"` // optional; defaults to today
	MemberID  uint64 `json:"member_id"`
}

// Admit handles POST /v1/admin/admit: a manual admission of the given
// member into whatever slot the current time resolves to. Same flow
// as check-in with method MANUAL.
func (h *AdminAdmitHandler) Admit(c echo.Context) error {
	var req manualAdmitReq
	if err := c.Bind(&req); err != nil || req.MemberID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "member_id is required"})
	}

	res := h.Controller.Admit(c.Request().Context(), req.MemberID, time.Now(), model.MethodManual)
	if res.Outcome == admission.OutcomeStorageFault {
		log.Printf("admin admit: member %d: %v", req.MemberID, res.Err)
	}
	if res.Outcome == admission.OutcomeLeaseTimeout {
		c.Response().Header().Set("Retry-After", "1")
	}
	return c.JSON(outcomeStatus(res.Outcome), resultBody(res))
}

// Promote handles POST /v1/admin/waitlist/promote: admit a waiting
// member into the named occurrence and take them off the queue. The
// admission commits first; the queue entry is only marked PROMOTED
// after it did, so a capacity refusal leaves the queue untouched.
func (h *AdminAdmitHandler) Promote(c echo.Context) error {
	var req promoteReq
	if err := c.Bind(&req); err != nil || req.SessionID == 0 || req.MemberID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "session_id and member_id are required"})
	}
	date, ok := occurrenceDate(req.Date)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
	}
	ctx := c.Request().Context()

	session, err := h.Sessions.GetByID(ctx, req.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	occ := admission.Occurrence{Session: *session, Date: date}
	res := h.Controller.AdmitTo(ctx, occ, req.MemberID, time.Now(), model.MethodManual)
	if res.Outcome == admission.OutcomeStorageFault {
		log.Printf("promote: member %d session %d: %v", req.MemberID, req.SessionID, res.Err)
	}
	if res.Outcome == admission.OutcomeLeaseTimeout {
		c.Response().Header().Set("Retry-After", "1")
	}
	if res.Committed() {
		if err := h.Waitlist.Promote(ctx, req.SessionID, date, req.MemberID); err != nil && !errors.Is(err, admission.ErrNotWaiting) {
			// The admission stands regardless; the queue cleanup can be
			// retried with another promote or a member leave.
			log.Printf("promote: mark promoted member %d session %d: %v", req.MemberID, req.SessionID, err)
		}
	}
	return c.JSON(outcomeStatus(res.Outcome), resultBody(res))
}
