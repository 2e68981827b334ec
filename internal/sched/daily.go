// Package sched computes fire times for once-a-day jobs: the two
// clock-in/out reminders and the daily report. Triggers are read-only
// consumers of time; they never touch shift state.
package sched

import (
	"fmt"
	"time"
)

// Daily is a fixed local time of day.
type Daily struct {
	Hour   int
	Minute int
}

// ParseDaily parses "HH:MM" in local time. The whole string must be a
// time of day; trailing text is rejected.
func ParseDaily(s string) (Daily, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return Daily{}, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	return Daily{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (d Daily) String() string {
	return fmt.Sprintf("%02d:%02d", d.Hour, d.Minute)
}

// Next returns the first instant at the configured wall time strictly
// after now, in now's location.
func (d Daily) Next(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), d.Hour, d.Minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Trigger fires once per day at a fixed time. It reschedules itself on
// each firing; a missed window fires on the next check, never twice.
type Trigger struct {
	At   Daily
	next time.Time
}

func NewTrigger(at Daily, now time.Time) *Trigger {
	return &Trigger{At: at, next: at.Next(now)}
}

// Fire reports whether the trigger is due and, if so, schedules the
// next day's firing.
func (t *Trigger) Fire(now time.Time) bool {
	if now.Before(t.next) {
		return false
	}
	t.next = t.At.Next(now)
	return true
}

// NextAt exposes the pending fire time, for display.
func (t *Trigger) NextAt() time.Time {
	return t.next
}
