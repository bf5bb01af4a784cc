// Package countdown computes days remaining until configured events
package countdown

import (
	"fmt"
	"time"
)

// Kind selects how an event's date is determined.
type Kind int

const (
	KindFixedDate Kind = iota // month/day entered once, recurs yearly
	KindRecurring             // month/day that recurs yearly
	KindEaster                // date computed per year
	KindCustom                // user-defined month/day
)

func (k Kind) String() string {
	switch k {
	case KindFixedDate:
		return "fixed"
	case KindRecurring:
		return "recurring"
	case KindEaster:
		return "easter"
	case KindCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// ParseKind maps a wire name back to its kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "fixed":
		return KindFixedDate, nil
	case "recurring":
		return KindRecurring, nil
	case "easter":
		return KindEaster, nil
	case "custom":
		return KindCustom, nil
	default:
		return 0, fmt.Errorf("unknown countdown kind %q", s)
	}
}

// MaxEvents is the number of countdown events the device can hold.
const MaxEvents = 3

// Event is a single countdown target. Month and Day are ignored for
// KindEaster, which derives them from the year.
type Event struct {
	Title string `json:"title"`
	Kind  Kind   `json:"kind"`
	Month int    `json:"month"`
	Day   int    `json:"day"`
}

// EasterDate returns the month and day of Easter Sunday for the given
// Gregorian year, using the Meeus/Jones/Butcher computus.
func EasterDate(year int) (month, day int) {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month = (h + l - 7*m + 114) / 31
	day = (h+l-7*m+114)%31 + 1
	return month, day
}

// DaysUntil returns the whole days from today until the event's next
// occurrence. The result is never negative; an event falling on today
// returns 0. Occurrences already passed this year roll to next year,
// with Easter recomputed for the rolled year.
func DaysUntil(event Event, today time.Time) int {
	// Midnight UTC on both sides keeps the division exact regardless of
	// the caller's zone or DST transitions.
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	next := occurrence(event, day.Year())
	if next.Before(day) {
		next = occurrence(event, day.Year()+1)
	}

	return int(next.Sub(day).Hours() / 24)
}

// occurrence resolves the event's date within a specific year.
func occurrence(event Event, year int) time.Time {
	month, day := event.Month, event.Day
	if event.Kind == KindEaster {
		month, day = EasterDate(year)
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
