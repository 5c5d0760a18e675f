// Package slotclock quantises wall-clock time into 15-minute UTC slots.
package slotclock

import "time"

// SlotDuration is the width of one billing/confirmation slot.
const SlotDuration = 15 * time.Minute

// Current returns the identifier of the slot containing t, expressed as
// the ISO-8601 UTC timestamp of the slot's start (minute a multiple of 15,
// seconds and nanoseconds zeroed).
func Current(t time.Time) string {
	return Start(t).Format(time.RFC3339)
}

// Start returns the instant at which the slot containing t began.
func Start(t time.Time) time.Time {
	u := t.UTC()
	minute := (u.Minute() / 15) * 15
	return time.Date(u.Year(), u.Month(), u.Day(), u.Hour(), minute, 0, 0, time.UTC)
}

// Parse parses a slot identifier produced by Current/Start back into a time.
func Parse(slot string) (time.Time, error) {
	return time.Parse(time.RFC3339, slot)
}

// Next returns the identifier of the slot immediately following slot.
func Next(slot string) (string, error) {
	t, err := Parse(slot)
	if err != nil {
		return "", err
	}
	return Current(t.Add(SlotDuration)), nil
}

// Age returns how long ago the slot identified by slot began, relative to now.
// Returns an error if slot cannot be parsed.
func Age(slot string, now time.Time) (time.Duration, error) {
	t, err := Parse(slot)
	if err != nil {
		return 0, err
	}
	return now.UTC().Sub(t), nil
}
