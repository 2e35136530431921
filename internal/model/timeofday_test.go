package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		in   string
		want TimeOfDay
		ok   bool
	}{
		{"09:00", 9 * 60, true},
		{"15:04", 15*60 + 4, true},
		{"15:04:05", 15*60 + 4, true}, // seconds dropped
		{"00:00", 0, true},
		{"23:59", 23*60 + 59, true},
		{" 08:30 ", 8*60 + 30, true},
		{"24:00", 0, false},
		{"12:60", 0, false},
		{"noon", 0, false},
		{"", 0, false},
	}
	for _, c := range cases {
		got, err := ParseTimeOfDay(c.in)
		if !c.ok {
			require.Error(t, err, "input %q", c.in)
			continue
		}
		require.NoError(t, err, "input %q", c.in)
		require.Equal(t, c.want, got, "input %q", c.in)
	}
}

func TestMinutesOfDayTruncates(t *testing.T) {
	// Seconds never matter: 10:00:59 is still minute 600, so an
	// arrival during the end minute of a slot is already outside it.
	at := time.Date(2026, 3, 14, 10, 0, 59, 0, time.UTC)
	require.Equal(t, TimeOfDay(600), MinutesOfDay(at))
}

func TestTimeOfDayRendering(t *testing.T) {
	v := TimeOfDay(9*60 + 5)
	require.Equal(t, "09:05", v.String())
	require.Equal(t, "09:05:00", v.SQL())
	require.Equal(t, 9, v.Hour())
	require.Equal(t, 5, v.Minute())
}

func TestTimeOfDayJSON(t *testing.T) {
	b, err := json.Marshal(TimeOfDay(17 * 60))
	require.NoError(t, err)
	require.Equal(t, `"17:00"`, string(b))

	var v TimeOfDay
	require.NoError(t, json.Unmarshal([]byte(`"07:45"`), &v))
	require.Equal(t, TimeOfDay(7*60+45), v)

	require.Error(t, json.Unmarshal([]byte(`"25:00"`), &v))
}

func TestDateOf(t *testing.T) {
	at := time.Date(2026, 1, 2, 23, 59, 0, 0, time.UTC)
	require.Equal(t, "2026-01-02", DateOf(at))
}
