package admission

import (
	"fmt"

	"github.com/aquacenter/session-admission/internal/model"
)

// EligibilityError explains why a member may not enter a restricted
// session. Missing distinguishes a data-quality fault (the profile
// never recorded the attribute the restriction checks) from an
// ordinary category mismatch; the two are surfaced differently
// because the first needs a human at the front desk, not a rule
// explanation.
type EligibilityError struct {
	Restriction model.Restriction
	Missing     bool
	Reason      string
}

func (e *EligibilityError) Error() string { return e.Reason }

// Validate checks a member's profile against the session restriction.
// Unrestricted sessions admit everyone; restricted sessions admit
// only an exact category match. Validate is pure and runs before any
// lease is taken.
func Validate(s model.Session, m model.Member) error {
	switch s.Restriction {
	case model.RestrictionNone:
		return nil
	case model.RestrictionMen, model.RestrictionWomen:
		if m.Gender == model.GenderUnknown {
			return &EligibilityError{
				Restriction: s.Restriction,
				Missing:     true,
				Reason:      "your profile has no gender on record; please contact the front desk",
			}
		}
		want := model.GenderMale
		if s.Restriction == model.RestrictionWomen {
			want = model.GenderFemale
		}
		if m.Gender != want {
			return &EligibilityError{
				Restriction: s.Restriction,
				Reason:      fmt.Sprintf("session %q is a %s-only session", s.Name, restrictionNoun(s.Restriction)),
			}
		}
		return nil
	case model.RestrictionStaff, model.RestrictionGraduate:
		if m.Class == "" {
			return &EligibilityError{
				Restriction: s.Restriction,
				Missing:     true,
				Reason:      "your profile has no member class on record; please contact the front desk",
			}
		}
		if string(m.Class) != string(s.Restriction) {
			return &EligibilityError{
				Restriction: s.Restriction,
				Reason:      fmt.Sprintf("session %q is a %s-only session", s.Name, restrictionNoun(s.Restriction)),
			}
		}
		return nil
	default:
		// An unknown restriction denies closed rather than open.
		return &EligibilityError{
			Restriction: s.Restriction,
			Reason:      fmt.Sprintf("session %q carries an unknown restriction %q", s.Name, s.Restriction),
		}
	}
}

// restrictionNoun renders a restriction for user-facing messages.
func restrictionNoun(r model.Restriction) string {
	switch r {
	case model.RestrictionMen:
		return "men"
	case model.RestrictionWomen:
		return "women"
	case model.RestrictionStaff:
		return "staff"
	case model.RestrictionGraduate:
		return "graduate"
	}
	return string(r)
}
