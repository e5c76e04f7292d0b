// Package rrule wraps teambition/rrule-go for the weekday cadences.
package rrule

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

var weekdays = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}

// Weekly builds FREQ=WEEKLY;BYDAY=... anchored at dtstart. Occurrences keep
// dtstart's wall clock and location.
func Weekly(dtstart time.Time, days ...time.Weekday) (*rrule.RRule, error) {
	if len(days) == 0 {
		return nil, fmt.Errorf("weekly rule needs at least one weekday")
	}
	byDay := make([]rrule.Weekday, 0, len(days))
	for _, d := range days {
		byDay = append(byDay, weekdays[d])
	}
	return rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Interval:  1,
		Byweekday: byDay,
		Dtstart:   dtstart,
	})
}

// NextAfter returns the first occurrence strictly after after.
// ok is false when the rule has no further occurrences.
func NextAfter(rule *rrule.RRule, after time.Time) (time.Time, bool) {
	next := rule.After(after, false)
	return next, !next.IsZero()
}
