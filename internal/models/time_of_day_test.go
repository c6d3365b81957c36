package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	cases := map[string]string{
		"08:30":                "08:30",
		"8:05":                 "08:05",
		"13:00:00":             "13:00",
		"0000-01-01T16:00:00Z": "16:00",
	}
	for raw, want := range cases {
		got, err := ParseTimeOfDay(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got.String())
	}

	for _, raw := range []string{"", "25:00", "10:61", "ten"} {
		_, err := ParseTimeOfDay(raw)
		assert.Error(t, err, raw)
	}
}

func TestTimeOfDayArithmetic(t *testing.T) {
	start := NewTimeOfDay(8, 30)
	end := start.Add(90)
	assert.Equal(t, 10, end.Hour())
	assert.Equal(t, 0, end.Minute())
	assert.True(t, start < end)
}

func TestTimeOfDayScanAndValue(t *testing.T) {
	var tod TimeOfDay
	require.NoError(t, tod.Scan([]byte("14:30:00")))
	assert.Equal(t, "14:30", tod.String())

	require.NoError(t, tod.Scan(time.Date(0, 1, 1, 11, 30, 0, 0, time.UTC)))
	assert.Equal(t, NewTimeOfDay(11, 30), tod)

	assert.Error(t, tod.Scan(3.5))

	value, err := NewTimeOfDay(9, 5).Value()
	require.NoError(t, err)
	assert.Equal(t, "09:05:00", value)

	payload, err := json.Marshal(NewTimeOfDay(16, 0))
	require.NoError(t, err)
	assert.Equal(t, `"16:00"`, string(payload))

	var decoded TimeOfDay
	require.NoError(t, json.Unmarshal([]byte(`"10:00"`), &decoded))
	assert.Equal(t, NewTimeOfDay(10, 0), decoded)
}
