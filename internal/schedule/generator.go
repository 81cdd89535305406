// Package schedule generates workout schedules by mapping abstract multi-week training plans onto the calendar.
//
// Generation is deterministic. The first calendar week is resolved from the start day. Sessions are assigned to
// weekdays and placed on dates one week at a time. The final week compensates for sessions lost earlier.
// Exercises are then allocated from per-muscle-group pools, and back-to-back first-week sessions are tapered.
package schedule

import (
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/myrjola/workoutcal/internal/errors"
)

// maxSpillDays bounds how far the final week may spill into following weeks.
const maxSpillDays = 4 * daysPerWeek

// entryNamespace derives deterministic schedule entry IDs from the plan and the date.
//
//nolint:gochecknoglobals // constant namespace.
var entryNamespace = uuid.MustParse("6f1c2b0e-93a4-4d1e-9b7a-2f8c5d3e1a47")

// GenerateInput is everything a generation run needs.
type GenerateInput struct {
	Plan      Plan
	PlanID    int
	UserID    int
	StartDate time.Time
	// StartConfig is the user's explicit start configuration. Nil uses the start-day table.
	StartConfig *StartConfig
	Preferences Preferences
	// Catalog provides the candidates for sessions without exercises.
	Catalog []ExerciseRef
}

// Result is the outcome of a generation run.
type Result struct {
	Entries     []ScheduleEntry
	Warnings    []Warning
	FirstWeek   FirstWeekResolution
	StartConfig StartConfigRecord
	// Target is the number of training sessions the plan should have.
	Target int
	// Scheduled is the number of training sessions placed on dates.
	Scheduled int
}

// TrainingEntries returns the entries that are not rest days.
func (r Result) TrainingEntries() []ScheduleEntry {
	var out []ScheduleEntry
	for _, e := range r.Entries {
		if !e.IsRest {
			out = append(out, e)
		}
	}
	return out
}

// placedDay is one calendar day after placement. session is nil for rest days.
type placedDay struct {
	date       time.Time
	weekNumber int
	session    *Session
}

// generator generates the schedule of one plan.
type generator struct {
	in        GenerateInput
	rule      LevelRule
	startDate time.Time
	anchor    time.Time
	// frequency is the effective sessions per week.
	frequency int
	// preferred is non-nil when day preferences drive the weekly assignment.
	preferred        []time.Weekday
	includeSaturdays bool
	pools            *exercisePools
	// regular holds the weekly assignment of every plan week before first-week and final-week adjustments.
	regular  [][]slot
	days     []placedDay
	warnings []Warning
}

// Generate maps the plan onto the calendar and allocates exercises. It does not touch any store.
//
// Configuration problems are reported as errors wrapping ErrInvalidPlan or ErrMissingPool before anything is
// generated. An *AllocationError is returned when a session cannot be filled.
func Generate(in GenerateInput) (Result, error) {
	g, err := newGenerator(in)
	if err != nil {
		return Result{}, err
	}
	return g.generate()
}

// newGenerator validates the input and prepares the pools.
func newGenerator(in GenerateInput) (*generator, error) {
	if err := validatePlan(in.Plan); err != nil {
		return nil, err
	}

	startDate := in.StartDate
	includeSaturdays := false
	if cfg := in.StartConfig; cfg != nil {
		if err := validateStartConfig(*cfg); err != nil {
			return nil, err
		}
		if !cfg.StartDate.IsZero() {
			startDate = cfg.StartDate
		}
		includeSaturdays = cfg.IncludeSaturdays
	}
	if startDate.IsZero() {
		return nil, fmt.Errorf("%w: start date is required", ErrInvalidPlan)
	}
	startDate = normalizeDate(startDate)

	level, _ := ParseLevel(string(in.Plan.Level))
	g := &generator{
		in:               in,
		rule:             LevelRuleFor(level),
		startDate:        startDate,
		anchor:           WeekAnchor(startDate),
		frequency:        in.Plan.FrequencyPerWeek,
		preferred:        nil,
		includeSaturdays: includeSaturdays,
		pools:            nil,
		regular:          nil,
		days:             nil,
		warnings:         nil,
	}
	if g.frequency == 0 {
		for _, w := range in.Plan.Weeks {
			g.frequency = max(g.frequency, len(w.Sessions))
		}
	}
	if in.Preferences.active() {
		g.preferred = in.Preferences.PreferredDays()
		g.frequency = len(g.preferred)
	}

	pools, err := preparePools(in.Plan, in.Catalog)
	if err != nil {
		return nil, err
	}
	g.pools = pools
	return g, nil
}

// validatePlan rejects plans that cannot be scheduled.
func validatePlan(p Plan) error {
	if len(p.Weeks) == 0 {
		return fmt.Errorf("%w: plan has no weeks", ErrInvalidPlan)
	}
	if p.TotalWeeks != 0 && p.TotalWeeks != len(p.Weeks) {
		return fmt.Errorf("%w: total weeks %d does not match %d authored weeks",
			ErrInvalidPlan, p.TotalWeeks, len(p.Weeks))
	}
	if p.FrequencyPerWeek < 0 {
		return fmt.Errorf("%w: negative frequency per week %d", ErrInvalidPlan, p.FrequencyPerWeek)
	}
	if p.Level != "" {
		if _, ok := ParseLevel(string(p.Level)); !ok {
			return fmt.Errorf("%w: unknown level %q", ErrInvalidPlan, p.Level)
		}
	}
	for i, w := range p.Weeks {
		if len(w.Sessions) == 0 {
			return fmt.Errorf("%w: week %d has no sessions", ErrInvalidPlan, i+1)
		}
		// Authored sessions beyond the weekly frequency would overshoot the plan target.
		if p.FrequencyPerWeek > 0 && len(w.Sessions) > p.FrequencyPerWeek {
			return fmt.Errorf("%w: week %d has %d sessions but the plan trains %d times per week",
				ErrInvalidPlan, i+1, len(w.Sessions), p.FrequencyPerWeek)
		}
		for j, s := range w.Sessions {
			if len(s.Exercises) == 0 && len(sessionGroups(s)) == 0 {
				return fmt.Errorf("%w: week %d session %d has neither exercises nor muscle groups",
					ErrInvalidPlan, i+1, j+1)
			}
		}
	}
	return nil
}

func validateStartConfig(cfg StartConfig) error {
	if cfg.SessionsFirstWeek < 0 {
		return fmt.Errorf("%w: negative sessions in first week %d", ErrInvalidPlan, cfg.SessionsFirstWeek)
	}
	switch cfg.DistributionOption {
	case "", DistributionCompress, DistributionExtendWeek:
		return nil
	default:
		return fmt.Errorf("%w: unknown distribution option %q", ErrInvalidPlan, cfg.DistributionOption)
	}
}

// preparePools builds the pools and checks that every group needing allocation has candidates.
func preparePools(p Plan, catalog []ExerciseRef) (*exercisePools, error) {
	pools := buildPools(catalog)
	var missing []string
	for _, w := range p.Weeks {
		for _, s := range w.Sessions {
			if len(s.Exercises) > 0 {
				continue
			}
			for _, g := range sessionGroups(s) {
				if pools.candidates(g) == 0 && !slices.Contains(missing, g) {
					missing = append(missing, g)
				}
			}
		}
	}
	if len(missing) > 0 {
		return nil, errors.Wrap(fmt.Errorf("%w: no candidates for %v", ErrMissingPool, missing),
			"prepare exercise pools", slog.Any("groups", missing), slog.Int("catalog_size", len(catalog)))
	}
	return pools, nil
}

func (g *generator) warn(level slog.Level, code, msg string, attrs ...slog.Attr) {
	g.warnings = append(g.warnings, Warning{Level: level, Code: code, Message: msg, Attrs: attrs})
}

// generate runs the pipeline: assign and place week by week, allocate, taper, and emit entries.
func (g *generator) generate() (Result, error) {
	weeks := g.in.Plan.Weeks
	totalWeeks := len(weeks)
	target := g.frequency * totalWeeks

	g.regular = make([][]slot, totalWeeks)
	for i, w := range weeks {
		g.regular[i] = g.regularSlots(w, i+1)
	}

	// An explicit first week never trains more often than a regular week.
	cfg := g.in.StartConfig
	if cfg != nil {
		capped := *cfg
		if capped.SessionsFirstWeek == 0 || capped.SessionsFirstWeek > g.frequency {
			capped.SessionsFirstWeek = g.frequency
		}
		cfg = &capped
	}
	res := resolveFirstWeek(g.startDate.Weekday(), cfg, slotDays(g.regular[0]), totalWeeks)
	if res.FullBodyPending {
		g.warn(slog.LevelWarn, WarnFullBodyNotImplemented,
			"weekend start calls for a full-body session which is not scheduled; plan starts the following Monday",
			slog.String("start_day", dayAbbrev(g.startDate.Weekday())))
	}

	// Deferred start weeks are rest.
	for cw := range res.WeekOffset {
		g.placeRestWeek(cw)
	}

	scheduled := 0
	fixedDays := g.fixedDays()
	for i := range weeks {
		slots := g.regular[i]
		if i == 0 && res.Days != nil {
			var trimmed int
			slots, trimmed = firstWeekSlots(weeks[0].Sessions, res)
			if trimmed > 0 {
				g.warn(slog.LevelInfo, WarnFirstWeekTrimmed, "sessions trimmed from the partial first week",
					slog.Int("trimmed", trimmed), slog.Any("days", dayAbbrevs(res.Days)))
			}
		}
		final := i == totalWeeks-1 && !res.Extended
		if final {
			slots = g.compensateFinal(slots, target-scheduled, weeks[i].Sessions, fixedDays, i+1)
		}
		scheduled += g.place(newWeekAssignment(i+1, i+res.WeekOffset, slots), final)
	}
	if res.Extended {
		if deficit := target - scheduled; deficit > 0 {
			slots := g.compensateFinal(nil, deficit, weeks[totalWeeks-1].Sessions, fixedDays, totalWeeks+1)
			scheduled += g.place(newWeekAssignment(totalWeeks+1, totalWeeks+res.WeekOffset, slots), true)
		} else {
			// The authored weeks already reached the target so there is nothing to extend.
			res.Extended = false
			res.TotalWeeks--
		}
	}

	if err := g.allocateExercises(); err != nil {
		return Result{}, err
	}
	if res.IsConsecutiveDays {
		g.taperFirstWeek(1)
	}
	g.applySessionLimit()

	if scheduled != target {
		g.warn(slog.LevelWarn, WarnTargetMismatch, "scheduled session count differs from the plan target",
			slog.Int("target", target), slog.Int("scheduled", scheduled))
	}

	return Result{
		Entries:     g.entries(),
		Warnings:    g.warnings,
		FirstWeek:   res,
		StartConfig: g.startConfigRecord(res),
		Target:      target,
		Scheduled:   scheduled,
	}, nil
}

// regularSlots applies placeholder translation and day preferences to one week.
func (g *generator) regularSlots(w Week, weekNumber int) []slot {
	if g.preferred != nil {
		return preferredSlots(w.Sessions, g.preferred)
	}
	slots, warnings := labelSlots(w, weekNumber, g.includeSaturdays)
	g.warnings = append(g.warnings, warnings...)
	return slots
}

// fixedDays are the weekdays that receive compensatory sessions: the preferred days, otherwise the regular days of
// weeks 2..n, otherwise the template for the weekly frequency.
func (g *generator) fixedDays() []time.Weekday {
	if g.preferred != nil {
		return g.preferred
	}
	var slots []slot
	for i, s := range g.regular {
		if i > 0 || len(g.regular) == 1 {
			slots = append(slots, s...)
		}
	}
	if days := slotDays(slots); len(days) > 0 {
		return days
	}
	return slotDays(slotsOnDays(weekdayTemplate(g.frequency, g.includeSaturdays)))
}

func slotsOnDays(days []time.Weekday) []slot {
	slots := make([]slot, len(days))
	for i, d := range days {
		slots[i] = slot{day: d, session: Session{}} //nolint:exhaustruct // only the day matters.
	}
	return slots
}

// compensateFinal makes the final week carry exactly the remaining deficit.
func (g *generator) compensateFinal(
	slots []slot, deficit int, base []Session, fixedDays []time.Weekday, weekNumber int,
) []slot {
	out, trimmed := compensate(slots, deficit, base, fixedDays)
	if trimmed > 0 {
		g.warn(slog.LevelWarn, WarnFinalWeekTrimmed, "final week trimmed to reach the plan target exactly",
			slog.Int("week", weekNumber), slog.Int("trimmed", trimmed))
	}
	return out
}

// placeRestWeek emits seven rest days for calendar week cw.
func (g *generator) placeRestWeek(cw int) {
	for d := range daysPerWeek {
		g.days = append(g.days, placedDay{date: DateFor(g.anchor, cw, d), weekNumber: 0, session: nil})
	}
}

// place writes the assignment onto dates, one session per day, and returns the number of placed sessions.
//
// Days before the start date are rest and keep their queue. The final week keeps walking into the following
// weeks while sessions remain, up to maxSpillDays. Sessions that are never placed are reported.
func (g *generator) place(a WeekAssignment, final bool) int {
	var queues [daysPerWeek][]Session
	for offset := range daysPerWeek {
		queues[offset] = a.Sessions(weekdayAt(offset))
	}
	remaining := a.Len()

	placed := 0
	limit := daysPerWeek
	if final {
		limit += maxSpillDays
	}
	for d := 0; d < limit; d++ {
		if d >= daysPerWeek && remaining == 0 {
			break
		}
		date := DateFor(g.anchor, a.CalendarWeek(), d)
		day := placedDay{date: date, weekNumber: a.PlanWeek() + d/daysPerWeek, session: nil}
		q := &queues[d%daysPerWeek]
		if !date.Before(g.startDate) && len(*q) > 0 {
			s := (*q)[0]
			*q = (*q)[1:]
			day.session = &s
			remaining--
			placed++
		}
		g.days = append(g.days, day)
	}

	if remaining > 0 {
		var leftover []string
		for offset, q := range queues {
			for range q {
				leftover = append(leftover, dayAbbrev(weekdayAt(offset)))
			}
		}
		g.warn(slog.LevelWarn, WarnUnassignedSessions, "sessions could not be placed on any day and were dropped",
			slog.Int("week", a.PlanWeek()), slog.Int("count", remaining), slog.Any("days", leftover))
	}
	return placed
}

// allocateExercises fills sessions without exercises in date order. Exercise reuse is tracked per plan week and
// seeded with the exercises authored for that week.
func (g *generator) allocateExercises() error {
	used := make(map[int]map[string]bool)
	usedIn := func(week int) map[string]bool {
		if used[week] == nil {
			used[week] = make(map[string]bool)
		}
		return used[week]
	}
	for _, d := range g.days {
		if d.session == nil {
			continue
		}
		for _, e := range d.session.Exercises {
			usedIn(d.weekNumber)[e.Name] = true
		}
	}

	limit := g.in.Preferences.ExercisesPerSessionLimit
	for _, d := range g.days {
		if d.session == nil || len(d.session.Exercises) > 0 {
			continue
		}
		picked, err := g.pools.allocate(sessionGroups(*d.session), g.rule, limit, usedIn(d.weekNumber))
		if err != nil {
			var allocErr *AllocationError
			if errors.As(err, &allocErr) {
				allocErr.WeekNumber = d.weekNumber
				allocErr.Date = d.date
				allocErr.SessionTitle = d.session.Title
			}
			return errors.Wrap(err, "allocate exercises",
				slog.Int("week", d.weekNumber), slog.String("date", d.date.Format(time.DateOnly)))
		}
		d.session.Exercises = picked
	}
	return nil
}

// taperFirstWeek tapers runs of 2-3 back-to-back training days in plan week weekNumber.
func (g *generator) taperFirstWeek(weekNumber int) {
	var run []*Session
	var last time.Time
	flush := func() {
		if len(run) >= 2 && len(run) <= maxConsecutiveRun {
			for i, s := range run {
				s.Exercises = TaperExercises(s.Exercises, i+1)
			}
		}
		run = nil
	}
	for _, d := range g.days {
		if d.weekNumber != weekNumber || d.session == nil {
			continue
		}
		if len(run) > 0 && !d.date.Equal(last.AddDate(0, 0, 1)) {
			flush()
		}
		run = append(run, d.session)
		last = d.date
	}
	flush()
}

// applySessionLimit trims authored sessions that exceed the user's exercises-per-session limit.
func (g *generator) applySessionLimit() {
	limit := g.in.Preferences.ExercisesPerSessionLimit
	if limit <= 0 {
		return
	}
	for _, d := range g.days {
		if d.session != nil && len(d.session.Exercises) > limit {
			d.session.Exercises = d.session.Exercises[:limit]
		}
	}
}

// entries converts the placed days to schedule entries with deterministic IDs.
func (g *generator) entries() []ScheduleEntry {
	entries := make([]ScheduleEntry, 0, len(g.days))
	global := 0
	inWeek := make(map[int]int)
	for _, d := range g.days {
		e := ScheduleEntry{
			ID:                 entryID(g.in.PlanID, d.date),
			PlanID:             g.in.PlanID,
			UserID:             g.in.UserID,
			Date:               d.date,
			WeekNumber:         d.weekNumber,
			DayAbbrev:          dayAbbrev(d.date.Weekday()),
			SessionOrderGlobal: 0,
			SessionOrderInWeek: 0,
			Title:              "Rest",
			MuscleGroups:       nil,
			Exercises:          nil,
			IsRest:             true,
			Cloned:             false,
			Compensatory:       false,
		}
		if s := d.session; s != nil {
			global++
			inWeek[d.weekNumber]++
			e.SessionOrderGlobal = global
			e.SessionOrderInWeek = inWeek[d.weekNumber]
			e.Title = s.Title
			if e.Title == "" {
				e.Title = "Week " + strconv.Itoa(d.weekNumber) + " session " + strconv.Itoa(e.SessionOrderInWeek)
			}
			e.MuscleGroups = sessionGroups(*s)
			e.Exercises = cloneExercises(s.Exercises)
			e.IsRest = false
			e.Cloned = s.Cloned
			e.Compensatory = s.Compensatory
		}
		entries = append(entries, e)
	}
	return entries
}

// entryID derives a stable identifier so that regenerating a plan reproduces the same entries.
func entryID(planID int, date time.Time) uuid.UUID {
	return uuid.NewSHA1(entryNamespace, []byte(strconv.Itoa(planID)+"/"+date.Format(time.DateOnly)))
}

func (g *generator) startConfigRecord(res FirstWeekResolution) StartConfigRecord {
	cfg := StartConfig{
		StartDate:          g.startDate,
		StartDayOfWeek:     g.startDate.Weekday(),
		SessionsFirstWeek:  len(res.Days),
		IncludeSaturdays:   false,
		DistributionOption: DistributionCompress,
	}
	if res.Extended {
		cfg.DistributionOption = DistributionExtendWeek
	}
	if in := g.in.StartConfig; in != nil {
		cfg.SessionsFirstWeek = in.SessionsFirstWeek
		cfg.IncludeSaturdays = in.IncludeSaturdays
		if in.DistributionOption != "" {
			cfg.DistributionOption = in.DistributionOption
		}
	}
	return StartConfigRecord{
		StartConfig:       cfg,
		PlanID:            g.in.PlanID,
		UserID:            g.in.UserID,
		FirstWeekDays:     slices.Clone(res.Days),
		IsConsecutiveDays: res.IsConsecutiveDays,
		Derived:           g.in.StartConfig == nil,
		UpdatedAt:         time.Time{},
	}
}
