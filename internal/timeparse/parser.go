// Package timeparse turns the free-form time expressions users type
// ("in 30m", "tomorrow at 3pm", "next friday", "2024-07-04 09:30") into
// absolute instants in the user's zone.
package timeparse

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Kishanx08/ticket-master/internal/calendar"
	"github.com/Kishanx08/ticket-master/internal/timezone"
)

// Parser resolves expressions relative to Now. Now defaults to time.Now.
type Parser struct {
	Now func() time.Time
}

// New returns a Parser on the wall clock.
func New() *Parser {
	return &Parser{Now: time.Now}
}

type matcher func(expr string, now time.Time) (time.Time, bool)

// chain is evaluated in order; the first matcher that accepts wins.
var chain = []matcher{
	matchIn,
	matchAt,
	matchDay,
	matchNext,
	matchISO,
	matchCommon,
	matchBareOffset,
}

var (
	reIn     = regexp.MustCompile(`^in\s+(.+)$`)
	reAt     = regexp.MustCompile(`^at\s+(.+)$`)
	reDay    = regexp.MustCompile(`^(today|tomorrow)(?:\s+(?:at\s+)?(.+))?$`)
	reNext   = regexp.MustCompile(`^next\s+([a-z]+)(?:\s+(?:at\s+)?(.+))?$`)
	reOffset = regexp.MustCompile(`^([+-]?\d+)\s*([a-z]+)$`)
	reClock  = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(am|pm)?$`)
	reISO    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
)

var isoLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02t15:04:05",
	"2006-01-02 15:04",
	"2006-01-02t15:04",
	"2006-01-02",
}

// month-first wins over day-first when both are valid ("01/02/2024" is Jan 2).
var commonLayouts = []string{
	"1/2/2006 15:04",
	"2/1/2006 15:04",
	"1-2-2006 15:04",
	"2-1-2006 15:04",
	"1/2/2006",
	"2/1/2006",
	"1-2-2006",
	"2-1-2006",
}

// Parse resolves expr in zone. The returned instant carries zone's location.
// Past results are returned as-is; rejecting them is the caller's job.
func (p *Parser) Parse(expr, zone string) (time.Time, bool) {
	expr = strings.Join(strings.Fields(strings.ToLower(expr)), " ")
	if expr == "" {
		return time.Time{}, false
	}
	now := p.now().In(timezone.Location(zone))
	for _, m := range chain {
		if t, ok := m(expr, now); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func (p *Parser) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

func matchIn(expr string, now time.Time) (time.Time, bool) {
	m := reIn.FindStringSubmatch(expr)
	if m == nil {
		return time.Time{}, false
	}
	return Offset(m[1], now)
}

func matchAt(expr string, now time.Time) (time.Time, bool) {
	m := reAt.FindStringSubmatch(expr)
	if m == nil {
		return time.Time{}, false
	}
	return applyClock(m[1], now)
}

func matchDay(expr string, now time.Time) (time.Time, bool) {
	m := reDay.FindStringSubmatch(expr)
	if m == nil {
		return time.Time{}, false
	}
	base := now
	if m[1] == "tomorrow" {
		base = now.AddDate(0, 0, 1)
	}
	if m[2] == "" {
		return calendar.StartOfDay(base), true
	}
	return applyClock(m[2], base)
}

func matchNext(expr string, now time.Time) (time.Time, bool) {
	m := reNext.FindStringSubmatch(expr)
	if m == nil {
		return time.Time{}, false
	}
	wd, ok := calendar.ParseWeekday(m[1])
	if !ok {
		return time.Time{}, false
	}
	day := calendar.StartOfDay(calendar.NextWeekday(now, wd))
	if m[2] == "" {
		return day, true
	}
	return applyClock(m[2], day)
}

func matchISO(expr string, now time.Time) (time.Time, bool) {
	if !reISO.MatchString(expr) {
		return time.Time{}, false
	}
	return parseLayouts(isoLayouts, expr, now.Location())
}

func matchCommon(expr string, now time.Time) (time.Time, bool) {
	return parseLayouts(commonLayouts, expr, now.Location())
}

func matchBareOffset(expr string, now time.Time) (time.Time, bool) {
	return Offset(expr, now)
}

func parseLayouts(layouts []string, expr string, loc *time.Location) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, expr, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

type unit int

const (
	unitMinute unit = iota
	unitHour
	unitDay
	unitWeek
	unitMonth
	unitYear
)

var units = map[string]unit{
	"m": unitMinute, "min": unitMinute, "mins": unitMinute, "minute": unitMinute, "minutes": unitMinute,
	"h": unitHour, "hr": unitHour, "hrs": unitHour, "hour": unitHour, "hours": unitHour,
	"d": unitDay, "day": unitDay, "days": unitDay,
	"w": unitWeek, "wk": unitWeek, "wks": unitWeek, "week": unitWeek, "weeks": unitWeek,
	"mo": unitMonth, "mos": unitMonth, "month": unitMonth, "months": unitMonth,
	"y": unitYear, "yr": unitYear, "yrs": unitYear, "year": unitYear, "years": unitYear,
}

// maxCalendarYears bounds month and year offsets.
const maxCalendarYears = 10000

var fixedUnits = map[unit]time.Duration{
	unitMinute: time.Minute,
	unitHour:   time.Hour,
	unitDay:    24 * time.Hour,
	unitWeek:   7 * 24 * time.Hour,
}

// Offset applies a relative amount such as "30m", "2 hours" or "1 month" to
// from. Minutes through weeks are exact durations; months and years move the
// calendar and clamp the day of month.
func Offset(expr string, from time.Time) (time.Time, bool) {
	m := reOffset.FindStringSubmatch(strings.TrimSpace(strings.ToLower(expr)))
	if m == nil {
		return time.Time{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, false
	}
	u, ok := units[m[2]]
	if !ok {
		return time.Time{}, false
	}
	switch u {
	case unitMonth:
		if abs(n) > maxCalendarYears*12 {
			return time.Time{}, false
		}
		return calendar.AddMonths(from, n), true
	case unitYear:
		if abs(n) > maxCalendarYears {
			return time.Time{}, false
		}
		return calendar.AddYears(from, n), true
	}
	step := fixedUnits[u]
	if int64(abs(n)) > math.MaxInt64/int64(step) {
		return time.Time{}, false
	}
	return from.Add(time.Duration(n) * step), true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Duration is Offset for callers that need a length rather than an instant.
// Month and year units are rejected since their length depends on the anchor.
func Duration(expr string) (time.Duration, bool) {
	m := reOffset.FindStringSubmatch(strings.TrimSpace(strings.ToLower(expr)))
	if m == nil {
		return 0, false
	}
	u, ok := units[m[2]]
	if !ok || u == unitMonth || u == unitYear {
		return 0, false
	}
	var anchor time.Time
	t, ok := Offset(expr, anchor)
	if !ok {
		return 0, false
	}
	return t.Sub(anchor), true
}

// applyClock sets base's wall clock from "3pm", "3:30 pm", "15:30", "15",
// "noon" or "midnight".
func applyClock(s string, base time.Time) (time.Time, bool) {
	h, m, ok := clock(s)
	if !ok {
		return time.Time{}, false
	}
	return calendar.AtClock(base, h, m), true
}

func clock(s string) (hour, minute int, ok bool) {
	switch s {
	case "noon":
		return 12, 0, true
	case "midnight":
		return 0, 0, true
	}
	m := reClock.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	hour, _ = strconv.Atoi(m[1])
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	if minute > 59 {
		return 0, 0, false
	}
	switch m[3] {
	case "am", "pm":
		if hour < 1 || hour > 12 {
			return 0, 0, false
		}
		if hour == 12 {
			hour = 0
		}
		if m[3] == "pm" {
			hour += 12
		}
	default:
		if hour > 23 {
			return 0, 0, false
		}
	}
	return hour, minute, true
}
