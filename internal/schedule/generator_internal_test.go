package schedule

import (
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// testCatalog returns perGroup exercises for every default muscle group.
func testCatalog(perGroup int) []ExerciseRef {
	var catalog []ExerciseRef
	for _, g := range defaultGroupSequence {
		for i := range perGroup {
			catalog = append(catalog, ExerciseRef{Name: fmt.Sprintf("%s %d", g, i+1), MuscleGroup: g})
		}
	}
	return catalog
}

func beginnerPlan(t *testing.T) Plan {
	t.Helper()
	plan, err := BuildPlan(LevelBeginner, defaultGroupSequence, nil)
	if err != nil {
		t.Fatalf("BuildPlan() error = %v", err)
	}
	return plan
}

func hasWarning(warnings []Warning, code string) bool {
	return slices.ContainsFunc(warnings, func(w Warning) bool { return w.Code == code })
}

type trainingDay struct {
	Date         string
	Week         int
	Compensatory bool
}

func trainingDays(r Result) []trainingDay {
	var out []trainingDay
	for _, e := range r.TrainingEntries() {
		out = append(out, trainingDay{Date: e.Date.Format(time.DateOnly), Week: e.WeekNumber, Compensatory: e.Compensatory})
	}
	return out
}

// checkInvariants verifies the properties every generated schedule has.
func checkInvariants(t *testing.T, r Result) {
	t.Helper()
	if got := len(r.TrainingEntries()); got != r.Target || r.Scheduled != r.Target {
		t.Errorf("training entries = %d, scheduled = %d, want target %d", got, r.Scheduled, r.Target)
	}
	if hasWarning(r.Warnings, WarnTargetMismatch) {
		t.Errorf("unexpected %s warning", WarnTargetMismatch)
	}
	seen := make(map[string]bool)
	usedInWeek := make(map[int]map[string]bool)
	for i, e := range r.Entries {
		key := e.Date.Format(time.DateOnly)
		if seen[key] {
			t.Errorf("date %s scheduled twice", key)
		}
		seen[key] = true
		if i > 0 && !e.Date.After(r.Entries[i-1].Date) {
			t.Errorf("entry %d on %s is not after %s", i, key, r.Entries[i-1].Date.Format(time.DateOnly))
		}
		if e.IsRest {
			continue
		}
		if len(e.Exercises) == 0 {
			t.Errorf("session on %s has no exercises", key)
		}
		if usedInWeek[e.WeekNumber] == nil {
			usedInWeek[e.WeekNumber] = make(map[string]bool)
		}
		for _, ex := range e.Exercises {
			if usedInWeek[e.WeekNumber][ex.Name] || ex.Repeat {
				t.Errorf("exercise %q repeated in week %d", ex.Name, e.WeekNumber)
			}
			usedInWeek[e.WeekNumber][ex.Name] = true
		}
	}
}

func TestGenerate_startDayTable(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		start      time.Time
		wantPolicy FirstWeekPolicy
		wantFirst  []trainingDay
		wantLast   []trainingDay
	}{
		{
			name:       "monday",
			start:      date(2025, time.January, 13),
			wantPolicy: PolicyStandard,
			wantFirst: []trainingDay{
				{Date: "2025-01-13", Week: 1}, {Date: "2025-01-15", Week: 1}, {Date: "2025-01-17", Week: 1},
			},
			wantLast: []trainingDay{{Date: "2025-02-07", Week: 4}},
		},
		{
			name:       "tuesday",
			start:      date(2025, time.January, 14),
			wantPolicy: PolicyShift,
			wantFirst: []trainingDay{
				{Date: "2025-01-14", Week: 1}, {Date: "2025-01-16", Week: 1}, {Date: "2025-01-18", Week: 1},
			},
			wantLast: []trainingDay{{Date: "2025-02-07", Week: 4}},
		},
		{
			name:       "wednesday",
			start:      date(2025, time.January, 15),
			wantPolicy: PolicyConsecutive,
			wantFirst: []trainingDay{
				{Date: "2025-01-15", Week: 1}, {Date: "2025-01-16", Week: 1}, {Date: "2025-01-17", Week: 1},
			},
			wantLast: []trainingDay{{Date: "2025-02-07", Week: 4}},
		},
		{
			name:       "thursday",
			start:      date(2025, time.January, 16),
			wantPolicy: PolicyExtend,
			wantFirst: []trainingDay{
				{Date: "2025-01-16", Week: 1}, {Date: "2025-01-17", Week: 1}, {Date: "2025-01-20", Week: 2},
			},
			wantLast: []trainingDay{{Date: "2025-02-10", Week: 5, Compensatory: true}},
		},
		{
			name:       "friday",
			start:      date(2025, time.January, 17),
			wantPolicy: PolicyExtend,
			wantFirst: []trainingDay{
				{Date: "2025-01-17", Week: 1}, {Date: "2025-01-20", Week: 2}, {Date: "2025-01-22", Week: 2},
			},
			wantLast: []trainingDay{{Date: "2025-02-12", Week: 5, Compensatory: true}},
		},
		{
			name:       "saturday",
			start:      date(2025, time.January, 18),
			wantPolicy: PolicyWeekendDeferred,
			wantFirst: []trainingDay{
				{Date: "2025-01-20", Week: 1}, {Date: "2025-01-22", Week: 1}, {Date: "2025-01-24", Week: 1},
			},
			wantLast: []trainingDay{{Date: "2025-02-14", Week: 4}},
		},
		{
			name:       "sunday",
			start:      date(2025, time.January, 19),
			wantPolicy: PolicyWeekendDeferred,
			wantFirst: []trainingDay{
				{Date: "2025-01-20", Week: 1}, {Date: "2025-01-22", Week: 1}, {Date: "2025-01-24", Week: 1},
			},
			wantLast: []trainingDay{{Date: "2025-02-14", Week: 4}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r, err := Generate(GenerateInput{
				Plan:      beginnerPlan(t),
				PlanID:    1,
				UserID:    1,
				StartDate: tt.start,
				Catalog:   testCatalog(8),
			})
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			checkInvariants(t, r)
			if r.Target != 12 {
				t.Errorf("Target = %d, want 12", r.Target)
			}
			if r.FirstWeek.Policy != tt.wantPolicy {
				t.Errorf("Policy = %s, want %s", r.FirstWeek.Policy, tt.wantPolicy)
			}
			days := trainingDays(r)
			if diff := cmp.Diff(tt.wantFirst, days[:len(tt.wantFirst)]); diff != "" {
				t.Errorf("first training days mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantLast, days[len(days)-len(tt.wantLast):]); diff != "" {
				t.Errorf("last training days mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGenerate_weekendStart(t *testing.T) {
	t.Parallel()
	r, err := Generate(GenerateInput{
		Plan:      beginnerPlan(t),
		PlanID:    1,
		UserID:    1,
		StartDate: date(2025, time.January, 18),
		Catalog:   testCatalog(8),
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !hasWarning(r.Warnings, WarnFullBodyNotImplemented) {
		t.Errorf("missing %s warning", WarnFullBodyNotImplemented)
	}
	for i, e := range r.Entries[:7] {
		if !e.IsRest || e.WeekNumber != 0 || !e.Date.Equal(date(2025, time.January, 13+i)) {
			t.Errorf("entry %d = %s week %d rest %t, want a week 0 rest day", i, e.Date, e.WeekNumber, e.IsRest)
		}
	}
	if r.FirstWeek.WeekOffset != 1 || !r.FirstWeek.FullBodyPending {
		t.Errorf("FirstWeek = %+v", r.FirstWeek)
	}
}

func TestGenerate_consecutiveStartIsTapered(t *testing.T) {
	t.Parallel()
	r, err := Generate(GenerateInput{
		Plan:      beginnerPlan(t),
		PlanID:    1,
		UserID:    1,
		StartDate: date(2025, time.January, 15),
		Catalog:   testCatalog(8),
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !r.StartConfig.IsConsecutiveDays || !r.StartConfig.Derived {
		t.Errorf("StartConfig = %+v, want derived consecutive days", r.StartConfig)
	}
	training := r.TrainingEntries()
	for day, e := range training[:3] {
		for _, ex := range e.Exercises {
			if ex.Adjustment == nil || ex.Adjustment.DayInRun != day+1 {
				t.Fatalf("%s %q adjustment = %+v, want day %d", e.DayAbbrev, ex.Name, ex.Adjustment, day+1)
			}
		}
	}
	thirdDay := training[2].Exercises[0]
	if thirdDay.SetsRepsScheme != "2x7-9" || thirdDay.RestSeconds != 90 {
		t.Errorf("third day prescription = %s rest %d, want 2x7-9 rest 90", thirdDay.SetsRepsScheme, thirdDay.RestSeconds)
	}
	for _, e := range training[3:] {
		for _, ex := range e.Exercises {
			if ex.Adjustment != nil {
				t.Fatalf("week %d %q tapered outside the first week", e.WeekNumber, ex.Name)
			}
		}
	}
}

func TestGenerate_explicitStartConfig(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name         string
		option       DistributionOption
		wantWeeks    int
		wantLast     []trainingDay
		wantExtended bool
	}{
		{
			name:      "compress spills into the following monday",
			option:    DistributionCompress,
			wantWeeks: 4,
			wantLast: []trainingDay{
				{Date: "2025-02-03", Week: 4}, {Date: "2025-02-05", Week: 4}, {Date: "2025-02-07", Week: 4},
				{Date: "2025-02-10", Week: 5, Compensatory: true},
			},
		},
		{
			name:      "extend week appends a compensatory week",
			option:    DistributionExtendWeek,
			wantWeeks: 5,
			wantLast: []trainingDay{
				{Date: "2025-02-07", Week: 4},
				{Date: "2025-02-10", Week: 5, Compensatory: true},
			},
			wantExtended: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r, err := Generate(GenerateInput{
				Plan:   beginnerPlan(t),
				PlanID: 7,
				UserID: 3,
				StartConfig: &StartConfig{
					StartDate:          date(2025, time.January, 16),
					DistributionOption: tt.option,
				},
				Catalog: testCatalog(8),
			})
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			checkInvariants(t, r)
			if r.FirstWeek.Policy != PolicyExplicit || r.FirstWeek.TotalWeeks != tt.wantWeeks ||
				r.FirstWeek.Extended != tt.wantExtended {
				t.Errorf("FirstWeek = %+v", r.FirstWeek)
			}
			if !hasWarning(r.Warnings, WarnFirstWeekTrimmed) {
				t.Errorf("missing %s warning", WarnFirstWeekTrimmed)
			}
			days := trainingDays(r)
			if diff := cmp.Diff(tt.wantLast, days[len(days)-len(tt.wantLast):]); diff != "" {
				t.Errorf("last training days mismatch (-want +got):\n%s", diff)
			}

			rec := r.StartConfig
			if rec.Derived || rec.DistributionOption != tt.option || rec.StartDayOfWeek != time.Thursday ||
				!rec.IsConsecutiveDays || rec.PlanID != 7 || rec.UserID != 3 {
				t.Errorf("StartConfig = %+v", rec)
			}
			if diff := cmp.Diff([]time.Weekday{time.Thursday, time.Friday}, rec.FirstWeekDays); diff != "" {
				t.Errorf("FirstWeekDays mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGenerate_extendWeekWithFullFirstWeek(t *testing.T) {
	t.Parallel()
	r, err := Generate(GenerateInput{
		Plan:   beginnerPlan(t),
		PlanID: 7,
		UserID: 3,
		StartConfig: &StartConfig{
			StartDate:          date(2025, time.January, 13),
			DistributionOption: DistributionExtendWeek,
		},
		Catalog: testCatalog(8),
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	checkInvariants(t, r)
	if r.FirstWeek.Extended || r.FirstWeek.TotalWeeks != 4 {
		t.Errorf("FirstWeek = %+v, want four weeks without extension", r.FirstWeek)
	}
	days := trainingDays(r)
	if diff := cmp.Diff(trainingDay{Date: "2025-02-07", Week: 4}, days[len(days)-1]); diff != "" {
		t.Errorf("last training day mismatch (-want +got):\n%s", diff)
	}
	if last := r.Entries[len(r.Entries)-1]; last.Date.Format(time.DateOnly) != "2025-02-09" || last.WeekNumber != 4 {
		t.Errorf("last entry on %s in week %d, want 2025-02-09 in week 4",
			last.Date.Format(time.DateOnly), last.WeekNumber)
	}
}

func TestGenerate_preferences(t *testing.T) {
	t.Parallel()
	t.Run("sessions land on preferred days", func(t *testing.T) {
		t.Parallel()
		prefs := PreferencesFromDays([]time.Weekday{time.Tuesday, time.Thursday, time.Saturday})
		r, err := Generate(GenerateInput{
			Plan:        beginnerPlan(t),
			PlanID:      1,
			UserID:      1,
			StartDate:   date(2025, time.January, 13),
			Preferences: prefs,
			Catalog:     testCatalog(8),
		})
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		checkInvariants(t, r)
		for _, e := range r.TrainingEntries() {
			if !slices.Contains([]string{"Tue", "Thu", "Sat"}, e.DayAbbrev) {
				t.Errorf("session on %s %s, want a preferred day", e.DayAbbrev, e.Date.Format(time.DateOnly))
			}
		}
	})

	t.Run("more preferred days than sessions clones sessions", func(t *testing.T) {
		t.Parallel()
		prefs := PreferencesFromDays([]time.Weekday{time.Monday, time.Tuesday, time.Thursday, time.Friday})
		r, err := Generate(GenerateInput{
			Plan:        beginnerPlan(t),
			PlanID:      1,
			UserID:      1,
			StartDate:   date(2025, time.January, 13),
			Preferences: prefs,
			Catalog:     testCatalog(8),
		})
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		checkInvariants(t, r)
		if r.Target != 16 {
			t.Errorf("Target = %d, want 16", r.Target)
		}
		cloned := 0
		for _, e := range r.TrainingEntries() {
			if e.Cloned {
				cloned++
				if e.DayAbbrev != "Fri" {
					t.Errorf("cloned session on %s, want Fri", e.DayAbbrev)
				}
			}
		}
		if cloned != 4 {
			t.Errorf("cloned sessions = %d, want 4", cloned)
		}
	})

	t.Run("exercise limit", func(t *testing.T) {
		t.Parallel()
		prefs := Preferences{ExercisesPerSessionLimit: 2}
		plan := Plan{Weeks: []Week{{Sessions: []Session{
			{DayLabel: "D1", Title: "Authored", Exercises: []ExerciseRef{
				{Name: "A", MuscleGroup: GroupChest}, {Name: "B", MuscleGroup: GroupChest}, {Name: "C", MuscleGroup: GroupBack},
			}},
			{DayLabel: "D2", Title: "Allocated", MuscleGroups: []string{GroupLegs, GroupCore, GroupArms}},
		}}}}
		r, err := Generate(GenerateInput{
			Plan:        plan,
			PlanID:      1,
			UserID:      1,
			StartDate:   date(2025, time.January, 13),
			Preferences: prefs,
			Catalog:     testCatalog(8),
		})
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		for _, e := range r.TrainingEntries() {
			if len(e.Exercises) != 2 {
				t.Errorf("%q has %d exercises, want 2", e.Title, len(e.Exercises))
			}
		}
	})
}

func TestGenerate_isDeterministic(t *testing.T) {
	t.Parallel()
	in := GenerateInput{
		Plan:      beginnerPlan(t),
		PlanID:    42,
		UserID:    1,
		StartDate: date(2025, time.January, 16),
		Catalog:   testCatalog(8),
	}
	first, err := Generate(in)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	second, err := Generate(in)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if diff := cmp.Diff(first.Entries, second.Entries); diff != "" {
		t.Errorf("regenerated entries mismatch (-first +second):\n%s", diff)
	}
	if first.Entries[0].ID != entryID(42, first.Entries[0].Date) {
		t.Errorf("entry ID is not derived from the plan and the date")
	}
}

func TestGenerate_unexpectedDayLabel(t *testing.T) {
	t.Parallel()
	plan := Plan{Weeks: []Week{{Sessions: []Session{
		{DayLabel: "Mon", Title: "Upper", MuscleGroups: []string{GroupChest, GroupBack, GroupShoulders, GroupArms}},
		{DayLabel: "Funday", Title: "Mystery", MuscleGroups: []string{GroupCore, GroupGlutes, GroupLegs, GroupArms}},
		{DayLabel: "Fri", Title: "Lower", MuscleGroups: []string{GroupLegs, GroupGlutes, GroupCore, GroupBack}},
	}}}}
	r, err := Generate(GenerateInput{
		Plan:      plan,
		PlanID:    1,
		UserID:    1,
		StartDate: date(2025, time.January, 13),
		Catalog:   testCatalog(8),
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !hasWarning(r.Warnings, WarnUnexpectedDayLabel) {
		t.Errorf("missing %s warning", WarnUnexpectedDayLabel)
	}
	for _, e := range r.TrainingEntries() {
		if e.Title == "Mystery" {
			t.Errorf("session with an unplaceable label was scheduled on %s", e.Date.Format(time.DateOnly))
		}
	}
}

func TestGenerate_errors(t *testing.T) {
	t.Parallel()
	start := date(2025, time.January, 13)
	valid := Plan{Weeks: []Week{{Sessions: []Session{{DayLabel: "D1", MuscleGroups: []string{GroupCore}}}}}}
	overbooked := beginnerPlan(t)
	overbooked.FrequencyPerWeek = 2
	tests := []struct {
		name    string
		in      GenerateInput
		wantErr error
	}{
		{
			name:    "no weeks",
			in:      GenerateInput{Plan: Plan{}, StartDate: start, Catalog: testCatalog(8)},
			wantErr: ErrInvalidPlan,
		},
		{
			name: "empty week",
			in: GenerateInput{
				Plan:      Plan{Weeks: []Week{{Sessions: nil}}},
				StartDate: start,
				Catalog:   testCatalog(8),
			},
			wantErr: ErrInvalidPlan,
		},
		{
			name: "total weeks mismatch",
			in: GenerateInput{
				Plan:      Plan{TotalWeeks: 2, Weeks: valid.Weeks},
				StartDate: start,
				Catalog:   testCatalog(8),
			},
			wantErr: ErrInvalidPlan,
		},
		{
			name:    "missing start date",
			in:      GenerateInput{Plan: valid, Catalog: testCatalog(8)},
			wantErr: ErrInvalidPlan,
		},
		{
			name: "unknown distribution option",
			in: GenerateInput{
				Plan:        valid,
				StartConfig: &StartConfig{StartDate: start, DistributionOption: "stretch"},
				Catalog:     testCatalog(8),
			},
			wantErr: ErrInvalidPlan,
		},
		{
			name:    "more sessions than the weekly frequency",
			in:      GenerateInput{Plan: overbooked, StartDate: start, Catalog: testCatalog(8)},
			wantErr: ErrInvalidPlan,
		},
		{
			name: "more sessions than the weekly frequency with an extended week",
			in: GenerateInput{
				Plan: overbooked,
				StartConfig: &StartConfig{
					StartDate:          date(2025, time.January, 16),
					DistributionOption: DistributionExtendWeek,
				},
				Catalog: testCatalog(8),
			},
			wantErr: ErrInvalidPlan,
		},
		{
			name:    "group without candidates",
			in:      GenerateInput{Plan: valid, StartDate: start, Catalog: nil},
			wantErr: ErrMissingPool,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Generate(tt.in); !errors.Is(err, tt.wantErr) {
				t.Errorf("Generate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGenerate_frequencyAboveAuthoredSessions(t *testing.T) {
	t.Parallel()
	plan := beginnerPlan(t)
	plan.FrequencyPerWeek = 4
	result, err := Generate(GenerateInput{
		Plan:      plan,
		PlanID:    1,
		UserID:    1,
		StartDate: date(2025, time.January, 13),
		Catalog:   testCatalog(8),
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if result.Target != 16 {
		t.Errorf("Target = %d, want 16", result.Target)
	}
	checkInvariants(t, result)
}

func TestGenerate_smallSingleGroupPool(t *testing.T) {
	t.Parallel()
	plan := Plan{Weeks: []Week{{Sessions: []Session{{DayLabel: "D1", Title: "Abs", MuscleGroups: []string{"abs"}}}}}}
	result, err := Generate(GenerateInput{
		Plan:      plan,
		PlanID:    1,
		UserID:    1,
		StartDate: date(2025, time.January, 13),
		Catalog: []ExerciseRef{
			{Name: "Plank", MuscleGroup: GroupCore},
			{Name: "Crunch", MuscleGroup: GroupCore},
			{Name: "Dead Bug", MuscleGroup: GroupCore},
		},
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	training := result.TrainingEntries()
	if len(training) != 1 {
		t.Fatalf("training entries = %d, want 1", len(training))
	}
	if diff := cmp.Diff([]string{"Plank", "Crunch", "Dead Bug", "Plank"}, names(training[0].Exercises)); diff != "" {
		t.Errorf("exercises mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]bool{false, false, false, true}, repeats(training[0].Exercises)); diff != "" {
		t.Errorf("repeats mismatch (-want +got):\n%s", diff)
	}
}
