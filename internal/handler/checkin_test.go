package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aquacenter/session-admission/internal/admission"
)

func TestOutcomeStatus(t *testing.T) {
	cases := map[admission.Outcome]int{
		admission.OutcomeCommitted:         http.StatusOK,
		admission.OutcomeNoSessions:        http.StatusNotFound,
		admission.OutcomePastLastSession:   http.StatusNotFound,
		admission.OutcomeNoMatchingSession: http.StatusNotFound,
		admission.OutcomeNotEligible:       http.StatusForbidden,
		admission.OutcomeMissingProfile:    http.StatusUnprocessableEntity,
		admission.OutcomeAlreadyAdmitted:   http.StatusConflict,
		admission.OutcomeCapacityExceeded:  http.StatusConflict,
		admission.OutcomeLeaseTimeout:      http.StatusServiceUnavailable,
		admission.OutcomeStorageFault:      http.StatusInternalServerError,
	}
	for outcome, want := range cases {
		require.Equal(t, want, outcomeStatus(outcome), "outcome %s", outcome)
	}
}

func TestResultBody(t *testing.T) {
	res := &admission.Result{
		Outcome: admission.OutcomeNoMatchingSession,
		Message: "no session matches the current time",
	}
	body := resultBody(res)
	require.Equal(t, admission.OutcomeNoMatchingSession, body.Outcome)
	require.Nil(t, body.Session)
	require.Empty(t, body.Date)
}

func TestOccurrenceDate(t *testing.T) {
	d, ok := occurrenceDate("2026-03-14")
	require.True(t, ok)
	require.Equal(t, "2026-03-14", d)

	d, ok = occurrenceDate("")
	require.True(t, ok)
	require.Len(t, d, 10)

	_, ok = occurrenceDate("14/03/2026")
	require.False(t, ok)
	_, ok = occurrenceDate("2026-13-40")
	require.False(t, ok)
}
