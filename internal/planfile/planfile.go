// Package planfile reads plan documents written in YAML.
package planfile

import (
	"fmt"
	"os"
	"time"

	"github.com/myrjola/workoutcal/internal/schedule"
	"gopkg.in/yaml.v3"
)

// Document is one plan to generate.
//
// A document either authors its weeks or names a level and focus groups for schedule.BuildPlan.
type Document struct {
	PlanID           int            `yaml:"plan_id"`
	UserID           int            `yaml:"user_id"`
	StartDate        string         `yaml:"start_date"`
	Level            string         `yaml:"level"`
	FrequencyPerWeek int            `yaml:"frequency_per_week"`
	Focus            []string       `yaml:"focus"`
	StartConfig      *StartConfig   `yaml:"start_config"`
	Preferences      *Preferences   `yaml:"preferences"`
	Weeks            []WeekDocument `yaml:"weeks"`
}

// StartConfig is the explicit start configuration of a document.
type StartConfig struct {
	StartDate          string `yaml:"start_date"`
	SessionsFirstWeek  int    `yaml:"sessions_first_week"`
	IncludeSaturdays   bool   `yaml:"include_saturdays"`
	DistributionOption string `yaml:"distribution_option"`
}

// Preferences are stored for the document's user before generating.
type Preferences struct {
	Days                     []string `yaml:"days"`
	ExercisesPerSessionLimit int      `yaml:"exercises_per_session_limit"`
}

type WeekDocument struct {
	Sessions []SessionDocument `yaml:"sessions"`
}

type SessionDocument struct {
	Day          string             `yaml:"day"`
	Title        string             `yaml:"title"`
	MuscleGroups []string           `yaml:"muscle_groups"`
	Exercises    []ExerciseDocument `yaml:"exercises"`
}

type ExerciseDocument struct {
	Name        string `yaml:"name"`
	MuscleGroup string `yaml:"muscle_group"`
	SetsReps    string `yaml:"sets_reps"`
	RestSeconds int    `yaml:"rest_seconds"`
}

// Load reads and validates a plan document.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan file: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("plan file %s: %w", path, err)
	}
	return doc, nil
}

// Parse decodes and validates a plan document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (d *Document) validate() error {
	if d.PlanID <= 0 {
		return fmt.Errorf("%w: plan_id must be positive", schedule.ErrInvalidPlan)
	}
	if d.UserID <= 0 {
		return fmt.Errorf("%w: user_id must be positive", schedule.ErrInvalidPlan)
	}
	if _, err := d.Start(); err != nil {
		return err
	}
	if d.StartConfig != nil && d.StartConfig.StartDate != "" {
		if _, err := parseDate(d.StartConfig.StartDate); err != nil {
			return err
		}
	}
	if d.Preferences != nil {
		for _, day := range d.Preferences.Days {
			if _, ok := schedule.ParseWeekday(day); !ok {
				return fmt.Errorf("%w: unknown preferred day %q", schedule.ErrInvalidPlan, day)
			}
		}
	}
	return nil
}

// Start returns the plan start date.
func (d *Document) Start() (time.Time, error) {
	return parseDate(d.StartDate)
}

// Plan returns the authored plan or, without authored weeks, builds one from the level, the focus groups and the
// muscle groups that have exercises.
func (d *Document) Plan(availableGroups []string) (schedule.Plan, error) {
	if len(d.Weeks) == 0 {
		plan, err := schedule.BuildPlan(schedule.Level(d.Level), availableGroups, d.Focus)
		if err != nil {
			return schedule.Plan{}, fmt.Errorf("build plan: %w", err)
		}
		return plan, nil
	}

	level, ok := schedule.ParseLevel(d.Level)
	if !ok {
		return schedule.Plan{}, fmt.Errorf("%w: unknown level %q", schedule.ErrInvalidPlan, d.Level)
	}
	plan := schedule.Plan{
		Level:            level,
		FrequencyPerWeek: d.FrequencyPerWeek,
		TotalWeeks:       len(d.Weeks),
		Weeks:            make([]schedule.Week, len(d.Weeks)),
	}
	for i, w := range d.Weeks {
		sessions := make([]schedule.Session, len(w.Sessions))
		for j, s := range w.Sessions {
			sessions[j] = schedule.Session{
				DayLabel:     s.Day,
				Title:        s.Title,
				MuscleGroups: s.MuscleGroups,
				Exercises:    exercises(s.Exercises),
				Cloned:       false,
				Compensatory: false,
			}
		}
		plan.Weeks[i] = schedule.Week{Sessions: sessions}
	}
	return plan, nil
}

func exercises(docs []ExerciseDocument) []schedule.ExerciseRef {
	if len(docs) == 0 {
		return nil
	}
	out := make([]schedule.ExerciseRef, len(docs))
	for i, e := range docs {
		out[i] = schedule.ExerciseRef{ //nolint:exhaustruct // catalog id, repeat flag and adjustment are set later.
			Name:           e.Name,
			MuscleGroup:    e.MuscleGroup,
			SetsRepsScheme: e.SetsReps,
			RestSeconds:    e.RestSeconds,
		}
	}
	return out
}

// ScheduleStartConfig converts the explicit start configuration. It returns nil when the document has none.
func (d *Document) ScheduleStartConfig() (*schedule.StartConfig, error) {
	if d.StartConfig == nil {
		return nil, nil //nolint:nilnil // no explicit configuration.
	}
	cfg := &schedule.StartConfig{
		StartDate:          time.Time{},
		StartDayOfWeek:     time.Sunday,
		SessionsFirstWeek:  d.StartConfig.SessionsFirstWeek,
		IncludeSaturdays:   d.StartConfig.IncludeSaturdays,
		DistributionOption: schedule.DistributionOption(d.StartConfig.DistributionOption),
	}
	if d.StartConfig.StartDate != "" {
		start, err := parseDate(d.StartConfig.StartDate)
		if err != nil {
			return nil, err
		}
		cfg.StartDate = start
	}
	if !cfg.StartDate.IsZero() {
		cfg.StartDayOfWeek = cfg.StartDate.Weekday()
	} else if start, err := d.Start(); err == nil {
		cfg.StartDayOfWeek = start.Weekday()
	}
	return cfg, nil
}

// SchedulePreferences converts the preferences. It returns nil when the document has none.
func (d *Document) SchedulePreferences() *schedule.Preferences {
	if d.Preferences == nil {
		return nil
	}
	var days []time.Weekday
	for _, name := range d.Preferences.Days {
		if day, ok := schedule.ParseWeekday(name); ok {
			days = append(days, day)
		}
	}
	prefs := schedule.PreferencesFromDays(days)
	prefs.ExercisesPerSessionLimit = d.Preferences.ExercisesPerSessionLimit
	return &prefs
}

func parseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(time.DateOnly, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", schedule.ErrInvalidPlan, s)
	}
	return t, nil
}
