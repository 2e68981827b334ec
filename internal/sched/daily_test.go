package sched

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDaily(t *testing.T) {
	d, err := ParseDaily("08:55")
	require.NoError(t, err)
	assert.Equal(t, Daily{Hour: 8, Minute: 55}, d)
	assert.Equal(t, "08:55", d.String())

	for _, bad := range []string{"", "25:00", "12:60", "noon", "-1:30", "12:30xyz", "1:2:3", "12:30 "} {
		_, err := ParseDaily(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestNextBeforeTime(t *testing.T) {
	d := Daily{Hour: 17, Minute: 5}
	now := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)

	next := d.Next(now)
	assert.Equal(t, time.Date(2026, 8, 28, 17, 5, 0, 0, time.UTC), next)
}

func TestNextAfterTimeRollsToTomorrow(t *testing.T) {
	d := Daily{Hour: 17, Minute: 5}
	now := time.Date(2026, 8, 28, 18, 0, 0, 0, time.UTC)

	next := d.Next(now)
	assert.Equal(t, time.Date(2026, 8, 29, 17, 5, 0, 0, time.UTC), next)
}

func TestNextAtExactTimeRollsToTomorrow(t *testing.T) {
	d := Daily{Hour: 17, Minute: 5}
	now := time.Date(2026, 8, 28, 17, 5, 0, 0, time.UTC)

	next := d.Next(now)
	assert.Equal(t, time.Date(2026, 8, 29, 17, 5, 0, 0, time.UTC), next,
		"the exact instant counts as already fired")
}

func TestTriggerFiresOncePerDay(t *testing.T) {
	at := Daily{Hour: 12}
	now := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	tr := NewTrigger(at, now)

	assert.False(t, tr.Fire(now.Add(time.Hour)), "before the scheduled time")
	assert.True(t, tr.Fire(time.Date(2026, 8, 28, 12, 0, 1, 0, time.UTC)))
	assert.False(t, tr.Fire(time.Date(2026, 8, 28, 12, 30, 0, 0, time.UTC)), "already fired today")
	assert.True(t, tr.Fire(time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)), "fires again next day")
}

func TestTriggerMissedWindowFiresOnce(t *testing.T) {
	at := Daily{Hour: 12}
	now := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	tr := NewTrigger(at, now)

	// Checks resume hours late; the trigger fires exactly once.
	late := time.Date(2026, 8, 28, 20, 0, 0, 0, time.UTC)
	assert.True(t, tr.Fire(late))
	assert.False(t, tr.Fire(late.Add(time.Minute)))
	assert.Equal(t, time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC), tr.NextAt())
}
