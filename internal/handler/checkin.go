package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/aquacenter/session-admission/internal/admission"
	"github.com/aquacenter/session-admission/internal/model"
)

// CheckinHandler exposes the admission controller to members at the
// entrance terminal.
type CheckinHandler struct {
	Controller *admission.Controller
}

// NewCheckinHandler constructs a CheckinHandler.
func NewCheckinHandler(ctrl *admission.Controller) *CheckinHandler {
	if ctrl == nil {
		panic("nil controller passed to NewCheckinHandler")
	}
	return &CheckinHandler{Controller: ctrl}
}

// checkinResp is the caller-facing result shape: a machine-readable
// outcome plus a human-readable message, with the admission details
// when committed.
type checkinResp struct {
	Outcome  admission.Outcome      `json:"outcome"`
	Message  string                 `json:"message"`
	Session  *model.Session         `json:"session,omitempty"`
	Date     string                 `json:"date,omitempty"`
	Record   *model.AdmissionRecord `json:"record,omitempty"`
	NewCount int                    `json:"new_count,omitempty"`
}

// CheckIn handles POST /v1/checkin. It runs one admission attempt for
// the authenticated member at the current time with method SCANNED
// and maps the outcome onto an HTTP status. Lease timeouts answer 503
// with a Retry-After header because only they are retryable.
func (h *CheckinHandler) CheckIn(c echo.Context) error {
	memberID, err := getMemberID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	res := h.Controller.Admit(c.Request().Context(), memberID, time.Now(), model.MethodScanned)
	if res.Outcome == admission.OutcomeStorageFault {
		log.Printf("checkin: member %d: %v", memberID, res.Err)
	}
	if res.Outcome == admission.OutcomeLeaseTimeout {
		c.Response().Header().Set("Retry-After", "1")
	}
	return c.JSON(outcomeStatus(res.Outcome), resultBody(res))
}

// resultBody flattens a Result into the response DTO.
func resultBody(res *admission.Result) checkinResp {
	body := checkinResp{
		Outcome:  res.Outcome,
		Message:  res.Message,
		Record:   res.Record,
		NewCount: res.NewCount,
	}
	if res.Occurrence != nil {
		body.Session = &res.Occurrence.Session
		body.Date = res.Occurrence.Date
	}
	return body
}

// outcomeStatus maps each admission outcome onto its HTTP status.
func outcomeStatus(o admission.Outcome) int {
	switch o {
	case admission.OutcomeCommitted:
		return http.StatusOK
	case admission.OutcomeNoSessions, admission.OutcomePastLastSession, admission.OutcomeNoMatchingSession:
		return http.StatusNotFound
	case admission.OutcomeNotEligible:
		return http.StatusForbidden
	case admission.OutcomeMissingProfile:
		return http.StatusUnprocessableEntity
	case admission.OutcomeAlreadyAdmitted, admission.OutcomeCapacityExceeded:
		return http.StatusConflict
	case admission.OutcomeLeaseTimeout:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
