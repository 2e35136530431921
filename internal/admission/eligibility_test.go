package admission

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aquacenter/session-admission/internal/model"
)

func restricted(r model.Restriction) model.Session {
	return model.Session{ID: 1, Name: "Lane Hour", Restriction: r, Capacity: 10, IsActive: true}
}

func TestValidateUnrestricted(t *testing.T) {
	s := restricted(model.RestrictionNone)
	// Everyone passes, even with an empty profile.
	require.NoError(t, Validate(s, model.Member{}))
	require.NoError(t, Validate(s, model.Member{Gender: model.GenderFemale, Class: model.ClassStaff}))
}

func TestValidateGenderRestrictions(t *testing.T) {
	men := restricted(model.RestrictionMen)
	women := restricted(model.RestrictionWomen)

	require.NoError(t, Validate(men, model.Member{Gender: model.GenderMale}))
	require.NoError(t, Validate(women, model.Member{Gender: model.GenderFemale}))

	err := Validate(men, model.Member{Gender: model.GenderFemale})
	require.Error(t, err)
	var elig *EligibilityError
	require.ErrorAs(t, err, &elig)
	require.False(t, elig.Missing)

	err = Validate(women, model.Member{Gender: model.GenderMale})
	require.Error(t, err)
}

func TestValidateMissingAttribute(t *testing.T) {
	// A profile without the checked attribute is a data-quality fault,
	// not an ordinary rejection.
	err := Validate(restricted(model.RestrictionMen), model.Member{})
	var elig *EligibilityError
	require.ErrorAs(t, err, &elig)
	require.True(t, elig.Missing)

	err = Validate(restricted(model.RestrictionStaff), model.Member{Gender: model.GenderMale})
	require.ErrorAs(t, err, &elig)
	require.True(t, elig.Missing)
}

func TestValidateClassRestrictions(t *testing.T) {
	staff := restricted(model.RestrictionStaff)
	grad := restricted(model.RestrictionGraduate)

	require.NoError(t, Validate(staff, model.Member{Class: model.ClassStaff}))
	require.NoError(t, Validate(grad, model.Member{Class: model.ClassGraduate}))

	err := Validate(staff, model.Member{Class: model.ClassStudent})
	require.Error(t, err)
	var elig *EligibilityError
	require.ErrorAs(t, err, &elig)
	require.False(t, elig.Missing)

	require.Error(t, Validate(grad, model.Member{Class: model.ClassStaff}))
}

func TestValidateUnknownRestrictionDeniesClosed(t *testing.T) {
	s := restricted(model.Restriction("VIP"))
	err := Validate(s, model.Member{Gender: model.GenderMale, Class: model.ClassStaff})
	require.Error(t, err)
	var elig *EligibilityError
	require.ErrorAs(t, err, &elig)
	require.False(t, elig.Missing)
}
