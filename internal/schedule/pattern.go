package schedule

import (
	"time"
)

// FirstWeekPolicy names how the first calendar week is filled.
type FirstWeekPolicy string

const (
	// PolicyStandard uses the regular weekly pattern.
	PolicyStandard FirstWeekPolicy = "standard"
	// PolicyShift moves the regular pattern one day later.
	PolicyShift FirstWeekPolicy = "shift"
	// PolicyConsecutive trains Wednesday to Friday back to back with tapered intensity.
	PolicyConsecutive FirstWeekPolicy = "consecutive"
	// PolicyExtend trains the remaining weekdays and appends one week to the plan.
	PolicyExtend FirstWeekPolicy = "extend"
	// PolicyWeekendDeferred starts the regular pattern on the following Monday.
	PolicyWeekendDeferred FirstWeekPolicy = "weekendDeferred"
	// PolicyExplicit follows the user's start configuration.
	PolicyExplicit FirstWeekPolicy = "explicit"
)

// maxConsecutiveRun is the longest back-to-back run that is tapered.
const maxConsecutiveRun = 3

// FirstWeekResolution is the outcome of resolving the first calendar week.
type FirstWeekResolution struct {
	Policy FirstWeekPolicy
	// Days lists the first-week training weekdays. Nil means the regular weekly assignment applies.
	Days []time.Weekday
	// IsConsecutiveDays is set when the first week forces 2-3 back-to-back training days.
	IsConsecutiveDays bool
	// TotalWeeks is the number of calendar weeks carrying plan sessions, including an appended week.
	TotalWeeks int
	// Extended is set when one week was appended to absorb the first-week deficit.
	Extended bool
	// WeekOffset is 1 when plan week 1 is deferred to the Monday after the start date.
	WeekOffset int
	// FillCyclically allows reusing sessions when Days outnumbers the week's sessions.
	FillCyclically bool
	// FullBodyPending marks a weekend start that would call for a single full-body session.
	// Scheduling that session is not implemented; the regular pattern is deferred instead.
	FullBodyPending bool
}

// firstWeekPolicy is the start-day table used when no explicit start configuration exists.
func firstWeekPolicy(start time.Weekday) FirstWeekPolicy {
	switch start {
	case time.Monday:
		return PolicyStandard
	case time.Tuesday:
		return PolicyShift
	case time.Wednesday:
		return PolicyConsecutive
	case time.Thursday, time.Friday:
		return PolicyExtend
	case time.Saturday, time.Sunday:
		return PolicyWeekendDeferred
	default:
		return PolicyStandard
	}
}

// weekdayTemplate returns count weekdays used to place placeholder sessions.
//
// Six or more sessions cycle over Monday to Saturday, or Monday to Friday when Saturdays are excluded, so
// some days receive more than one session.
func weekdayTemplate(count int, includeSaturdays bool) []time.Weekday {
	switch {
	case count <= 0:
		return nil
	case count == 1:
		return []time.Weekday{time.Monday}
	case count == 2: //nolint:mnd // two sessions.
		return []time.Weekday{time.Monday, time.Thursday}
	case count == 3: //nolint:mnd // three sessions.
		return []time.Weekday{time.Monday, time.Wednesday, time.Friday}
	case count == 4: //nolint:mnd // four sessions.
		return []time.Weekday{time.Monday, time.Tuesday, time.Thursday, time.Friday}
	case count == 5: //nolint:mnd // five sessions.
		return []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}
	}
	base := []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}
	if includeSaturdays {
		base = append(base, time.Saturday)
	}
	days := make([]time.Weekday, count)
	for i := range days {
		days[i] = base[i%len(base)]
	}
	return days
}

// resolveFirstWeek decides which weekdays of the first calendar week receive sessions and how many weeks
// the plan spans.
//
// native is the regular weekday pattern of plan week 1 and totalWeeks the authored plan length.
func resolveFirstWeek(
	start time.Weekday, cfg *StartConfig, native []time.Weekday, totalWeeks int,
) FirstWeekResolution {
	if cfg != nil {
		return resolveExplicitFirstWeek(start, *cfg, totalWeeks)
	}

	res := FirstWeekResolution{
		Policy:            firstWeekPolicy(start),
		Days:              nil,
		IsConsecutiveDays: false,
		TotalWeeks:        totalWeeks,
		Extended:          false,
		WeekOffset:        0,
		FillCyclically:    false,
		FullBodyPending:   false,
	}
	switch res.Policy {
	case PolicyStandard, PolicyExplicit:
	case PolicyShift:
		res.Days = make([]time.Weekday, 0, len(native))
		for _, d := range native {
			if shifted := weekdayOffset(d) + 1; shifted < daysPerWeek-1 {
				res.Days = append(res.Days, weekdayAt(shifted))
			}
		}
	case PolicyConsecutive:
		res.Days = []time.Weekday{time.Wednesday, time.Thursday, time.Friday}
		res.IsConsecutiveDays = true
	case PolicyExtend:
		res.Days = remainingDays(start, weekdayOffset(time.Friday), 0)
		res.TotalWeeks++
		res.Extended = true
	case PolicyWeekendDeferred:
		res.WeekOffset = 1
		res.FullBodyPending = true
	}
	return res
}

func resolveExplicitFirstWeek(start time.Weekday, cfg StartConfig, totalWeeks int) FirstWeekResolution {
	last := weekdayOffset(time.Friday)
	if cfg.IncludeSaturdays {
		last = weekdayOffset(time.Saturday)
	}
	days := remainingDays(start, last, cfg.SessionsFirstWeek)
	res := FirstWeekResolution{
		Policy:            PolicyExplicit,
		Days:              days,
		IsConsecutiveDays: len(days) >= 2 && len(days) <= maxConsecutiveRun,
		TotalWeeks:        totalWeeks,
		Extended:          false,
		WeekOffset:        0,
		FillCyclically:    true,
		FullBodyPending:   false,
	}
	if len(days) == 0 {
		// Nothing left this week so plan week 1 starts on the following Monday and nothing is lost.
		res.Days = nil
		res.WeekOffset = 1
		res.FillCyclically = false
		return res
	}
	if cfg.DistributionOption == DistributionExtendWeek {
		res.TotalWeeks++
		res.Extended = true
	}
	return res
}

// remainingDays walks from start through the weekday at offset last, taking at most limit days.
// A limit of zero takes every day.
func remainingDays(start time.Weekday, last, limit int) []time.Weekday {
	var days []time.Weekday
	for offset := weekdayOffset(start); offset <= last; offset++ {
		if limit > 0 && len(days) == limit {
			break
		}
		days = append(days, weekdayAt(offset))
	}
	return days
}
