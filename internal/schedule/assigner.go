package schedule

import (
	"log/slog"
	"slices"
	"time"
)

// slot is a session bound to a weekday.
type slot struct {
	day     time.Weekday
	session Session
}

// WeekAssignment is the placement of one week's sessions onto weekdays. Each weekday holds a FIFO queue of
// sessions. It is built once and never modified.
type WeekAssignment struct {
	planWeek     int
	calendarWeek int
	queues       [daysPerWeek][]Session
}

// newWeekAssignment queues the slots by weekday in slot order.
func newWeekAssignment(planWeek, calendarWeek int, slots []slot) WeekAssignment {
	a := WeekAssignment{planWeek: planWeek, calendarWeek: calendarWeek, queues: [daysPerWeek][]Session{}}
	for _, s := range slots {
		offset := weekdayOffset(s.day)
		a.queues[offset] = append(a.queues[offset], s.session.clone())
	}
	return a
}

// PlanWeek is the 1-based plan week number of the assignment.
func (a WeekAssignment) PlanWeek() int {
	return a.planWeek
}

// CalendarWeek is the 0-based week index counted from the week anchor.
func (a WeekAssignment) CalendarWeek() int {
	return a.calendarWeek
}

// Sessions returns a copy of the queue of sessions for day.
func (a WeekAssignment) Sessions(day time.Weekday) []Session {
	queue := a.queues[weekdayOffset(day)]
	out := make([]Session, len(queue))
	for i, s := range queue {
		out[i] = s.clone()
	}
	return out
}

// Len returns the number of queued sessions.
func (a WeekAssignment) Len() int {
	n := 0
	for _, q := range a.queues {
		n += len(q)
	}
	return n
}

// Days returns the weekdays with at least one session in Monday-first order.
func (a WeekAssignment) Days() []time.Weekday {
	var days []time.Weekday
	for offset, q := range a.queues {
		if len(q) > 0 {
			days = append(days, weekdayAt(offset))
		}
	}
	return days
}

// labelSlots places sessions by their day labels.
//
// When every session carries a placeholder label (or none) they are mapped in order onto
// weekdayTemplate(len(sessions), includeSaturdays). Otherwise sessions with weekday labels keep their day and the
// rest are reported and dropped.
func labelSlots(week Week, weekNumber int, includeSaturdays bool) ([]slot, []Warning) {
	kinds := make([]dayLabelKind, len(week.Sessions))
	days := make([]time.Weekday, len(week.Sessions))
	allPlaceholders := true
	for i, s := range week.Sessions {
		kind, day, _ := parseDayLabel(s.DayLabel)
		if s.DayLabel == "" {
			kind = labelPlaceholder
		}
		kinds[i], days[i] = kind, day
		if kind != labelPlaceholder {
			allPlaceholders = false
		}
	}

	if allPlaceholders {
		template := weekdayTemplate(len(week.Sessions), includeSaturdays)
		slots := make([]slot, len(week.Sessions))
		for i, s := range week.Sessions {
			slots[i] = slot{day: template[i], session: s}
		}
		return slots, nil
	}

	var (
		slots    []slot
		warnings []Warning
	)
	for i, s := range week.Sessions {
		if kinds[i] != labelWeekday {
			warnings = append(warnings, Warning{
				Level:   slog.LevelWarn,
				Code:    WarnUnexpectedDayLabel,
				Message: "session dropped because its day label cannot be placed",
				Attrs: []slog.Attr{
					slog.Int("week", weekNumber),
					slog.String("day_label", s.DayLabel),
					slog.String("title", s.Title),
				},
			})
			continue
		}
		slots = append(slots, slot{day: days[i], session: s})
	}
	return slots, warnings
}

// preferredSlots assigns sessions cyclically onto exactly the preferred days. Sessions are replicated as clones
// when there are more preferred days than sessions and surplus sessions are left out.
func preferredSlots(sessions []Session, preferred []time.Weekday) []slot {
	if len(sessions) == 0 {
		return nil
	}
	slots := make([]slot, len(preferred))
	for i, day := range preferred {
		s := sessions[i%len(sessions)].clone()
		if i >= len(sessions) {
			s.Cloned = true
		}
		slots[i] = slot{day: day, session: s}
	}
	return slots
}

// firstWeekSlots places week 1 sessions onto the resolved first-week days.
//
// Sessions beyond the number of days are trimmed. Days beyond the number of sessions stay empty unless the
// resolution fills cyclically. It returns the number of trimmed sessions.
func firstWeekSlots(sessions []Session, res FirstWeekResolution) ([]slot, int) {
	if len(sessions) == 0 {
		return nil, 0
	}
	n := min(len(res.Days), len(sessions))
	if res.FillCyclically {
		n = len(res.Days)
	}
	slots := make([]slot, n)
	for i := range n {
		s := sessions[i%len(sessions)].clone()
		if i >= len(sessions) {
			s.Cloned = true
		}
		slots[i] = slot{day: res.Days[i], session: s}
	}
	return slots, max(0, len(sessions)-len(res.Days))
}

// compensate adjusts the slots of the final week so that the plan reaches its target.
//
// deficit is the number of sessions still missing. Surplus slots are trimmed in weekday order. Missing sessions
// are cloned cyclically from base and placed round-robin onto fixedDays, continuing from the current slot count.
func compensate(slots []slot, deficit int, base []Session, fixedDays []time.Weekday) ([]slot, int) {
	deficit = max(0, deficit)
	ordered := slices.Clone(slots)
	slices.SortStableFunc(ordered, func(a, b slot) int {
		return weekdayOffset(a.day) - weekdayOffset(b.day)
	})
	if len(ordered) >= deficit {
		return ordered[:deficit], len(ordered) - deficit
	}
	if len(base) == 0 || len(fixedDays) == 0 {
		return ordered, 0
	}
	missing := deficit - len(ordered)
	for i := range missing {
		s := base[i%len(base)].clone()
		s.Compensatory = true
		day := fixedDays[len(ordered)%len(fixedDays)]
		ordered = append(ordered, slot{day: day, session: s})
	}
	return ordered, 0
}

// slotDays returns the distinct days of slots in Monday-first order.
func slotDays(slots []slot) []time.Weekday {
	var days []time.Weekday
	for _, s := range slots {
		if !slices.Contains(days, s.day) {
			days = append(days, s.day)
		}
	}
	sortMondayFirst(days)
	return days
}
