package schedule

import (
	"time"

	"github.com/google/uuid"
)

// Level is the training level of a plan. It selects the exercise-count targets and the fixed weekdays.
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// DistributionOption decides how sessions lost in a partial first week are made up.
type DistributionOption string

const (
	// DistributionCompress absorbs the deficit in the last week of the plan.
	DistributionCompress DistributionOption = "compress"
	// DistributionExtendWeek appends one calendar week that carries the deficit.
	DistributionExtendWeek DistributionOption = "extendWeek"
)

// Plan is an abstract multi-week training plan that is not yet bound to dates.
type Plan struct {
	Level Level `json:"level"`
	// FrequencyPerWeek is the target number of sessions per week. Zero means the largest week.
	FrequencyPerWeek int `json:"frequency_per_week"`
	// TotalWeeks is the authored plan length. Zero means len(Weeks).
	TotalWeeks int    `json:"total_weeks"`
	Weeks      []Week `json:"weeks"`
}

// Week is an ordered sequence of sessions. A week always has at least one session.
type Week struct {
	Sessions []Session `json:"sessions"`
}

// Session is one training session of a week.
type Session struct {
	// DayLabel is either a weekday such as "Mon" or a placeholder ordinal such as "D1".
	DayLabel     string        `json:"day_label"`
	Title        string        `json:"title"`
	MuscleGroups []string      `json:"muscle_groups"`
	Exercises    []ExerciseRef `json:"exercises"`
	// Cloned marks a session replicated from another session to fill the user's preferred days.
	Cloned bool `json:"cloned,omitempty"`
	// Compensatory marks generated filler that makes up for sessions lost earlier in the plan.
	Compensatory bool `json:"compensatory,omitempty"`
}

// clone returns a deep copy of the session so that no exercise list is shared between sessions.
func (s Session) clone() Session {
	c := s
	c.MuscleGroups = append([]string(nil), s.MuscleGroups...)
	c.Exercises = cloneExercises(s.Exercises)
	return c
}

// ExerciseRef is a concrete exercise prescribed in a session.
type ExerciseRef struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	MuscleGroup string `json:"muscle_group"`
	// SetsRepsScheme is the prescription in the form "3x8-12" or "4x10".
	SetsRepsScheme string `json:"sets_reps_scheme"`
	RestSeconds    int    `json:"rest_seconds"`
	// Repeat is set when the exercise was picked again within the same week because the pool ran out.
	Repeat     bool                 `json:"repeat,omitempty"`
	Adjustment *IntensityAdjustment `json:"adjustment,omitempty"`
}

// IntensityAdjustment records what tapering changed on an exercise.
type IntensityAdjustment struct {
	OriginalSetsRepsScheme string `json:"original_sets_reps_scheme"`
	OriginalRestSeconds    int    `json:"original_rest_seconds"`
	DayInRun               int    `json:"day_in_run"`
	Note                   string `json:"note"`
}

func cloneExercises(exercises []ExerciseRef) []ExerciseRef {
	if exercises == nil {
		return nil
	}
	out := make([]ExerciseRef, len(exercises))
	for i, e := range exercises {
		out[i] = e
		if e.Adjustment != nil {
			adj := *e.Adjustment
			out[i].Adjustment = &adj
		}
	}
	return out
}

// StartConfig is the user's explicit configuration of how the plan begins.
type StartConfig struct {
	StartDate time.Time
	// StartDayOfWeek is derived from StartDate when the config is resolved.
	StartDayOfWeek time.Weekday
	// SessionsFirstWeek caps the number of sessions in the first week. Zero means every remaining day.
	SessionsFirstWeek  int
	IncludeSaturdays   bool
	DistributionOption DistributionOption
}

// StartConfigRecord is the persisted form of the start configuration used by a generation run.
type StartConfigRecord struct {
	StartConfig
	PlanID            int
	UserID            int
	FirstWeekDays     []time.Weekday
	IsConsecutiveDays bool
	// Derived is true when no explicit configuration was given and the start-day table was used.
	Derived   bool
	UpdatedAt time.Time
}

// Preferences stores which days of the week a user wants to work out.
type Preferences struct {
	UsePreferences bool
	Monday         bool
	Tuesday        bool
	Wednesday      bool
	Thursday       bool
	Friday         bool
	Saturday       bool
	Sunday         bool
	// ExercisesPerSessionLimit caps the exercises of every session. Zero means no limit.
	ExercisesPerSessionLimit int
}

// PreferredDays returns the preferred weekdays in Monday-first order.
func (p Preferences) PreferredDays() []time.Weekday {
	flags := []struct {
		day time.Weekday
		on  bool
	}{
		{time.Monday, p.Monday},
		{time.Tuesday, p.Tuesday},
		{time.Wednesday, p.Wednesday},
		{time.Thursday, p.Thursday},
		{time.Friday, p.Friday},
		{time.Saturday, p.Saturday},
		{time.Sunday, p.Sunday},
	}
	var days []time.Weekday
	for _, f := range flags {
		if f.on {
			days = append(days, f.day)
		}
	}
	return days
}

// active reports whether the preferences change the weekly assignment.
func (p Preferences) active() bool {
	return p.UsePreferences && len(p.PreferredDays()) > 0
}

// PreferencesFromDays builds preferences that enable exactly the given weekdays.
func PreferencesFromDays(days []time.Weekday) Preferences {
	var p Preferences
	p.UsePreferences = len(days) > 0
	for _, d := range days {
		switch d {
		case time.Monday:
			p.Monday = true
		case time.Tuesday:
			p.Tuesday = true
		case time.Wednesday:
			p.Wednesday = true
		case time.Thursday:
			p.Thursday = true
		case time.Friday:
			p.Friday = true
		case time.Saturday:
			p.Saturday = true
		case time.Sunday:
			p.Sunday = true
		}
	}
	return p
}

// ScheduleEntry is one calendar day of a generated schedule. Entries are the persisted output of generation.
type ScheduleEntry struct {
	ID         uuid.UUID
	PlanID     int
	UserID     int
	Date       time.Time
	WeekNumber int
	DayAbbrev  string
	// SessionOrderGlobal numbers training sessions across the plan starting from 1. Rest days have 0.
	SessionOrderGlobal int
	// SessionOrderInWeek numbers training sessions within WeekNumber starting from 1. Rest days have 0.
	SessionOrderInWeek int
	Title              string
	MuscleGroups       []string
	Exercises          []ExerciseRef
	IsRest             bool
	Cloned             bool
	Compensatory       bool
}
