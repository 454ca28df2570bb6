package reports

import (
	"strings"
	"time"

	"github.com/JimmysRanch/scruffy-butts-21-sub000/internal/records"
)

// Preset names a reporting date range.
type Preset string

const (
	PresetToday     Preset = "today"
	PresetYesterday Preset = "yesterday"
	PresetLast7     Preset = "last7"
	PresetThisWeek  Preset = "thisWeek"
	PresetLast30    Preset = "last30"
	PresetThisMonth Preset = "thisMonth"
	PresetLastMonth Preset = "lastMonth"
	PresetQuarter   Preset = "quarter"
	PresetYTD       Preset = "ytd"
	PresetCustom    Preset = "custom"
)

// Presets lists every preset in menu order.
var Presets = []Preset{
	PresetToday, PresetYesterday, PresetLast7, PresetThisWeek, PresetLast30,
	PresetThisMonth, PresetLastMonth, PresetQuarter, PresetYTD, PresetCustom,
}

// ParsePreset matches a preset name case-insensitively.
func ParsePreset(raw string) (Preset, bool) {
	raw = strings.TrimSpace(raw)
	for _, p := range Presets {
		if strings.EqualFold(string(p), raw) {
			return p, true
		}
	}
	return "", false
}

// DateRange is the caller's range selector. Start and End are YYYY-MM-DD and
// only read for PresetCustom.
type DateRange struct {
	Preset Preset `json:"preset"`
	Start  string `json:"start,omitempty"`
	End    string `json:"end,omitempty"`
}

// Window is a resolved, inclusive reporting interval.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t lies in [Start, End].
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Days is the number of calendar days the window touches.
func (w Window) Days() int {
	return calendarDaysBetween(w.Start, w.End) + 1
}

// ResolveWindow turns a range selector into concrete bounds in now's location.
// Unknown presets resolve like last30. The result always has Start <= End.
func ResolveWindow(r DateRange, now time.Time, weekStart time.Weekday) Window {
	today := startOfDay(now)

	var w Window
	switch r.Preset {
	case PresetToday:
		w = dayWindow(today)
	case PresetYesterday:
		w = dayWindow(today.AddDate(0, 0, -1))
	case PresetLast7:
		w = Window{Start: today.AddDate(0, 0, -6), End: endOfDay(today)}
	case PresetThisWeek:
		offset := (int(today.Weekday()) - int(weekStart) + 7) % 7
		start := today.AddDate(0, 0, -offset)
		w = Window{Start: start, End: endOfDay(start.AddDate(0, 0, 6))}
	case PresetThisMonth:
		start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		w = Window{Start: start, End: start.AddDate(0, 1, 0).Add(-time.Nanosecond)}
	case PresetLastMonth:
		end := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		w = Window{Start: end.AddDate(0, -1, 0), End: end.Add(-time.Nanosecond)}
	case PresetQuarter:
		firstMonth := time.Month((int(today.Month())-1)/3*3 + 1)
		start := time.Date(today.Year(), firstMonth, 1, 0, 0, 0, 0, today.Location())
		w = Window{Start: start, End: start.AddDate(0, 3, 0).Add(-time.Nanosecond)}
	case PresetYTD:
		w = Window{Start: time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, today.Location()), End: now}
	case PresetCustom:
		w = customWindow(r, today)
	default:
		w = Window{Start: today.AddDate(0, 0, -29), End: endOfDay(today)}
	}

	if w.End.Before(w.Start) {
		w.Start, w.End = w.End, w.Start
	}
	return w
}

func customWindow(r DateRange, today time.Time) Window {
	w := dayWindow(today)
	if start, ok := parseDay(r.Start, today.Location()); ok {
		w.Start = start
	}
	if end, ok := parseDay(r.End, today.Location()); ok {
		w.End = endOfDay(end)
	}
	if w.End.Before(w.Start) {
		// Reversed calendar dates: keep whole days on both ends.
		w = Window{Start: startOfDay(w.End), End: endOfDay(w.Start)}
	}
	return w
}

func dayWindow(day time.Time) Window {
	return Window{Start: startOfDay(day), End: endOfDay(day)}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// calendarDaysBetween counts midnights crossed going from a to b in a's location.
func calendarDaysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	b = b.In(a.Location())
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// parseDay reads a calendar date in loc. RFC3339 instants are accepted and
// reduced to their local date.
func parseDay(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if d, err := time.ParseInLocation(records.DateLayout, raw, loc); err == nil {
		return d, true
	}
	if t, ok := parseInstant(raw, loc); ok {
		return startOfDay(t), true
	}
	return time.Time{}, false
}

var instantLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

// parseInstant reads a timestamp; zone-less values are read in loc and bare
// dates become local midnight.
func parseInstant(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range instantLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t.In(loc), true
		}
	}
	if d, err := time.ParseInLocation(records.DateLayout, raw, loc); err == nil {
		return d, true
	}
	return time.Time{}, false
}

// visitTime is the appointment's scheduled start. A missing or unreadable
// time of day falls back to local midnight; an unreadable date fails.
func visitTime(a records.Appointment, loc *time.Location) (time.Time, bool) {
	day, ok := parseDay(a.Date, loc)
	if !ok {
		return time.Time{}, false
	}
	clock, err := time.Parse(records.TimeLayout, strings.TrimSpace(a.Time))
	if err != nil {
		return day, true
	}
	return time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, loc), true
}
