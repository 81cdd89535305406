package schedule

import (
	"slices"
	"time"
)

const daysPerWeek = 7

// WeekAnchor returns midnight of the Monday of the calendar week containing t.
func WeekAnchor(t time.Time) time.Time {
	return normalizeDate(t).AddDate(0, 0, -weekdayOffset(t.Weekday()))
}

// DateFor returns the date of weekday offset d (0=Monday..6=Sunday) in week w counted from anchor.
//
// Offsets beyond 6 roll over into the following weeks.
func DateFor(anchor time.Time, w, d int) time.Time {
	return anchor.AddDate(0, 0, daysPerWeek*w+d)
}

// weekdayOffset converts a weekday to its Monday-based offset.
func weekdayOffset(d time.Weekday) int {
	return (int(d) + 6) % daysPerWeek //nolint:mnd // shifts Sunday from 0 to 6.
}

// weekdayAt converts a Monday-based offset to a weekday.
func weekdayAt(offset int) time.Weekday {
	return time.Weekday((offset%daysPerWeek + 1) % daysPerWeek)
}

// normalizeDate drops the clock time but keeps the location.
func normalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// dayAbbrev returns the three-letter English abbreviation such as "Wed".
func dayAbbrev(d time.Weekday) string {
	return d.String()[:3]
}

func dayAbbrevs(days []time.Weekday) []string {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = dayAbbrev(d)
	}
	return out
}

// sortMondayFirst sorts days in place by their position in a Monday-aligned week.
func sortMondayFirst(days []time.Weekday) {
	slices.SortFunc(days, func(a, b time.Weekday) int {
		return weekdayOffset(a) - weekdayOffset(b)
	})
}
