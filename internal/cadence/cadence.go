// Package cadence computes the next occurrence of a repeating reminder.
package cadence

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Kishanx08/ticket-master/internal/calendar"
	"github.com/Kishanx08/ticket-master/internal/models"
	"github.com/Kishanx08/ticket-master/internal/rrule"
)

var (
	reInterval = regexp.MustCompile(`^every\s+(?:(\d+)\s*)?(minutes?|mins?|hours?|hrs?|days?|weeks?)$`)
	reWeekdays = regexp.MustCompile(`^every\s+(.+)$`)
	reListSep  = regexp.MustCompile(`\s*(?:,|\band\b)\s*`)
)

var intervalUnits = map[string]time.Duration{
	"minute": time.Minute, "minutes": time.Minute, "min": time.Minute, "mins": time.Minute,
	"hour": time.Hour, "hours": time.Hour, "hr": time.Hour, "hrs": time.Hour,
	"day": 24 * time.Hour, "days": 24 * time.Hour,
	"week": 7 * 24 * time.Hour, "weeks": 7 * 24 * time.Hour,
}

// Next returns the occurrence after from. Daily and weekly are fixed
// durations, monthly and yearly step the calendar. ok is false for a custom
// expression that is not understood.
func Next(c models.Cadence, from time.Time) (time.Time, bool) {
	switch c.Kind() {
	case models.CadenceDaily:
		return from.Add(24 * time.Hour), true
	case models.CadenceWeekly:
		return from.Add(7 * 24 * time.Hour), true
	case models.CadenceMonthly:
		return calendar.AddMonths(from, 1), true
	case models.CadenceYearly:
		return calendar.AddYears(from, 1), true
	case models.CadenceCustom:
		return nextCustom(c.Expr(), from)
	default:
		return time.Time{}, false
	}
}

// Valid reports whether Next can ever produce an instant for c.
func Valid(c models.Cadence) bool {
	_, ok := Next(c, time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC))
	return ok
}

// Describe is the label shown next to a reminder.
func Describe(c *models.Cadence) string {
	if c == nil {
		return "Once"
	}
	switch c.Kind() {
	case models.CadenceDaily:
		return "Daily"
	case models.CadenceWeekly:
		return "Weekly"
	case models.CadenceMonthly:
		return "Monthly"
	case models.CadenceYearly:
		return "Yearly"
	default:
		if c.Expr() == "" {
			return string(c.Kind())
		}
		return strings.ToUpper(c.Expr()[:1]) + c.Expr()[1:]
	}
}

func nextCustom(expr string, from time.Time) (time.Time, bool) {
	expr = strings.Join(strings.Fields(strings.ToLower(expr)), " ")
	if m := reInterval.FindStringSubmatch(expr); m != nil {
		n := 1
		if m[1] != "" {
			var err error
			if n, err = strconv.Atoi(m[1]); err != nil || n < 1 {
				return time.Time{}, false
			}
		}
		step := intervalUnits[m[2]]
		if int64(n) > math.MaxInt64/int64(step) {
			return time.Time{}, false
		}
		return from.Add(time.Duration(n) * step), true
	}

	m := reWeekdays.FindStringSubmatch(expr)
	if m == nil {
		return time.Time{}, false
	}
	var days []time.Weekday
	for _, name := range reListSep.Split(m[1], -1) {
		if name == "" {
			continue
		}
		wd, ok := calendar.ParseWeekday(name)
		if !ok {
			return time.Time{}, false
		}
		days = append(days, wd)
	}
	if len(days) == 0 {
		return time.Time{}, false
	}
	rule, err := rrule.Weekly(from, days...)
	if err != nil {
		return time.Time{}, false
	}
	return rrule.NextAfter(rule, from)
}
