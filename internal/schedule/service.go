package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/myrjola/workoutcal/internal/errors"
	"github.com/myrjola/workoutcal/internal/logging"
)

// Catalog provides candidate exercises for muscle groups.
type Catalog interface {
	// CandidateExercises returns the exercises that train one of the canonical groups.
	CandidateExercises(ctx context.Context, groups []string) ([]ExerciseRef, error)
}

// PreferenceStore reads and writes a user's workout preferences.
type PreferenceStore interface {
	Preferences(ctx context.Context, userID int) (Preferences, error)
	SavePreferences(ctx context.Context, userID int, prefs Preferences) error
}

// Store persists generated schedules.
type Store interface {
	// InTx runs fn in one transaction that is serialized with other writers of the same plan. Nothing is
	// committed when fn returns an error.
	InTx(ctx context.Context, planID int, fn func(StoreTx) error) error
	Schedule(ctx context.Context, planID int) ([]ScheduleEntry, error)
	// StartConfig returns ErrNotFound when the plan has never been generated.
	StartConfig(ctx context.Context, planID int) (StartConfigRecord, error)
}

// StoreTx is the write side of Store within one transaction.
type StoreTx interface {
	DeleteScheduleForPlan(ctx context.Context, planID int) error
	InsertScheduleEntry(ctx context.Context, e ScheduleEntry) error
	UpsertStartConfig(ctx context.Context, rec StartConfigRecord) error
}

// Backend bundles the stores of one database.
type Backend struct {
	Store       Store
	Catalog     Catalog
	Preferences PreferenceStore
}

// Service generates and persists workout schedules.
type Service struct {
	store   Store
	catalog Catalog
	prefs   PreferenceStore
	logger  *slog.Logger
	locks   *planLocks
	now     func() time.Time
}

// NewService creates a schedule service on top of backend.
func NewService(backend Backend, logger *slog.Logger) *Service {
	return &Service{
		store:   backend.Store,
		catalog: backend.Catalog,
		prefs:   backend.Preferences,
		logger:  logger,
		locks:   newPlanLocks(),
		now:     time.Now,
	}
}

// GenerateSchedule generates the schedule of a plan and replaces the stored one in a single transaction.
//
// cfg is the user's explicit start configuration and may be nil. Generation warnings are logged and returned
// with the result. On error nothing is changed.
func (s *Service) GenerateSchedule(
	ctx context.Context,
	plan Plan,
	userID int,
	planID int,
	startDate time.Time,
	cfg *StartConfig,
) (Result, error) {
	unlock := s.locks.lock(planID)
	defer unlock()

	ctx = logging.WithAttrs(ctx, slog.Int("plan_id", planID), slog.Int("user_id", userID))
	start := time.Now()

	var warnings []Warning
	prefs, err := s.prefs.Preferences(ctx, userID)
	if err != nil {
		warnings = append(warnings, Warning{
			Level:   slog.LevelWarn,
			Code:    WarnPreferencesUnavailable,
			Message: "continuing without day preferences",
			Attrs:   []slog.Attr{errors.SlogError(err)},
		})
		prefs = Preferences{}
	}

	catalog, err := s.catalog.CandidateExercises(ctx, PlanGroups(plan))
	if err != nil {
		return Result{}, fmt.Errorf("load candidate exercises: %w", err)
	}

	res, err := Generate(GenerateInput{
		Plan:        plan,
		PlanID:      planID,
		UserID:      userID,
		StartDate:   startDate,
		StartConfig: cfg,
		Preferences: prefs,
		Catalog:     catalog,
	})
	if err != nil {
		return Result{}, fmt.Errorf("generate schedule: %w", err)
	}
	res.Warnings = append(warnings, res.Warnings...)
	res.StartConfig.UpdatedAt = s.now()

	err = s.store.InTx(ctx, planID, func(tx StoreTx) error {
		if err = tx.DeleteScheduleForPlan(ctx, planID); err != nil {
			return fmt.Errorf("delete previous schedule: %w", err)
		}
		for _, e := range res.Entries {
			if err = tx.InsertScheduleEntry(ctx, e); err != nil {
				return fmt.Errorf("insert schedule entry: %w", err)
			}
		}
		if err = tx.UpsertStartConfig(ctx, res.StartConfig); err != nil {
			return fmt.Errorf("save start config: %w", err)
		}
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("persist schedule: %w", err)
	}

	for _, w := range res.Warnings {
		s.logger.LogAttrs(ctx, w.Level, w.Message, w.LogAttrs()...)
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "generated schedule",
		slog.Int("target", res.Target),
		slog.Int("scheduled", res.Scheduled),
		slog.Int("entries", len(res.Entries)),
		slog.String("first_week_policy", string(res.FirstWeek.Policy)),
		slog.Any("first_week_days", dayAbbrevs(res.FirstWeek.Days)),
		slog.Bool("consecutive_days", res.FirstWeek.IsConsecutiveDays),
		slog.Int("warnings", len(res.Warnings)),
		slog.Duration("duration", time.Since(start)))
	return res, nil
}

// Schedule returns the stored schedule of a plan in date order.
func (s *Service) Schedule(ctx context.Context, planID int) ([]ScheduleEntry, error) {
	entries, err := s.store.Schedule(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("get schedule %d: %w", planID, err)
	}
	return entries, nil
}

// StartConfig returns the start configuration of the latest generation of a plan.
func (s *Service) StartConfig(ctx context.Context, planID int) (StartConfigRecord, error) {
	rec, err := s.store.StartConfig(ctx, planID)
	if err != nil {
		return StartConfigRecord{}, fmt.Errorf("get start config %d: %w", planID, err)
	}
	return rec, nil
}

// Preferences returns the stored workout preferences of a user.
func (s *Service) Preferences(ctx context.Context, userID int) (Preferences, error) {
	prefs, err := s.prefs.Preferences(ctx, userID)
	if err != nil {
		return Preferences{}, fmt.Errorf("get preferences: %w", err)
	}
	return prefs, nil
}

// SavePreferences stores the workout preferences of a user. They apply to the next generation.
func (s *Service) SavePreferences(ctx context.Context, userID int, prefs Preferences) error {
	if prefs.ExercisesPerSessionLimit < 0 {
		return fmt.Errorf("%w: negative exercises per session limit", ErrInvalidPlan)
	}
	if err := s.prefs.SavePreferences(ctx, userID, prefs); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}

// PlanGroups returns the canonical muscle groups of the sessions that need allocation, sorted.
func PlanGroups(plan Plan) []string {
	var groups []string
	for _, w := range plan.Weeks {
		for _, session := range w.Sessions {
			if len(session.Exercises) > 0 {
				continue
			}
			for _, g := range sessionGroups(session) {
				if !slices.Contains(groups, g) {
					groups = append(groups, g)
				}
			}
		}
	}
	slices.Sort(groups)
	return groups
}

// planLocks serializes generation runs per plan id.
type planLocks struct {
	mu    sync.Mutex
	locks map[int]*planLock
}

type planLock struct {
	mu      sync.Mutex
	holders int
}

func newPlanLocks() *planLocks {
	return &planLocks{mu: sync.Mutex{}, locks: make(map[int]*planLock)}
}

// lock blocks until planID is free and returns the func that releases it.
func (p *planLocks) lock(planID int) func() {
	p.mu.Lock()
	l, ok := p.locks[planID]
	if !ok {
		l = &planLock{mu: sync.Mutex{}, holders: 0}
		p.locks[planID] = l
	}
	l.holders++
	p.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		p.mu.Lock()
		l.holders--
		if l.holders == 0 {
			delete(p.locks, planID)
		}
		p.mu.Unlock()
	}
}
