package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/myrjola/workoutcal/internal/errors"
	"github.com/myrjola/workoutcal/internal/logging"
	"github.com/myrjola/workoutcal/internal/postgres"
	"github.com/myrjola/workoutcal/internal/schedule"
	"github.com/myrjola/workoutcal/internal/sqlite"
	"golang.org/x/sync/errgroup"
)

const (
	defaultPlans            = 200
	usersPerPlan            = 4
	maxConcurrentOperations = 16
	concurrentRegenerations = 8
	scenarioTimeout         = 30 * time.Second
	successRateThreshold    = 95.0
	percentageMultiplier    = 100
	startDateSpreadDays     = 60
	randomSeed              = 2025
)

//nolint:gochecknoglobals // fixed levels cycled by the scenarios.
var levels = []schedule.Level{schedule.LevelBeginner, schedule.LevelIntermediate, schedule.LevelAdvanced}

// scenario is one plan generated by the stress test.
type scenario struct {
	planID int
	userID int
	level  schedule.Level
	start  time.Time
	prefs  *schedule.Preferences
}

// newScenarios derives n deterministic scenarios.
func newScenarios(n int) []scenario {
	rng := rand.New(rand.NewPCG(randomSeed, randomSeed)) //nolint:gosec // reproducible load, not security.
	base := time.Date(2025, time.January, 6, 0, 0, 0, 0, time.Local)
	out := make([]scenario, n)
	for i := range out {
		s := scenario{
			planID: i + 1,
			userID: i/usersPerPlan + 1,
			level:  levels[i%len(levels)],
			start:  base.AddDate(0, 0, rng.IntN(startDateSpreadDays)),
			prefs:  nil,
		}
		// Every third user trains on a random subset of weekdays.
		if s.userID%3 == 0 {
			var days []time.Weekday
			for d := time.Sunday; d <= time.Saturday; d++ {
				if rng.IntN(2) == 0 {
					days = append(days, d)
				}
			}
			prefs := schedule.PreferencesFromDays(days)
			s.prefs = &prefs
		}
		out[i] = s
	}
	return out
}

// runScenario generates the plan and checks what was stored.
func runScenario(ctx context.Context, svc *schedule.Service, groups []string, s scenario) error {
	if s.prefs != nil {
		if err := svc.SavePreferences(ctx, s.userID, *s.prefs); err != nil {
			return fmt.Errorf("save preferences: %w", err)
		}
	}
	plan, err := schedule.BuildPlan(s.level, groups, nil)
	if err != nil {
		return fmt.Errorf("build plan: %w", err)
	}
	res, err := svc.GenerateSchedule(ctx, plan, s.userID, s.planID, s.start, nil)
	if err != nil {
		return fmt.Errorf("generate schedule: %w", err)
	}
	return verifyStored(ctx, svc, s.planID, res.Target)
}

// verifyStored checks that the stored schedule has target sessions and no date twice.
func verifyStored(ctx context.Context, svc *schedule.Service, planID, target int) error {
	entries, err := svc.Schedule(ctx, planID)
	if err != nil {
		return fmt.Errorf("read schedule: %w", err)
	}
	seen := make(map[string]bool, len(entries))
	training := 0
	for _, e := range entries {
		key := e.Date.Format(time.DateOnly)
		if seen[key] {
			return errors.New("date stored twice", slog.Int("plan_id", planID), slog.String("date", key))
		}
		seen[key] = true
		if !e.IsRest {
			training++
		}
	}
	if training != target {
		return errors.New("stored session count differs from target",
			slog.Int("plan_id", planID), slog.Int("stored", training), slog.Int("target", target))
	}
	return nil
}

// RunLoadTest generates every scenario concurrently and fails when too many scenarios fail.
func RunLoadTest(ctx context.Context, svc *schedule.Service, groups []string, scenarios []scenario,
	logger *slog.Logger) error {
	logger.LogAttrs(ctx, slog.LevelInfo, "starting load test", slog.Int("plans", len(scenarios)))
	start := time.Now()

	var successCount, failureCount atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentOperations)
	for _, s := range scenarios {
		g.Go(func() error {
			scenarioCtx, cancel := context.WithTimeout(ctx, scenarioTimeout)
			defer cancel()
			if err := runScenario(scenarioCtx, svc, groups, s); err != nil {
				failureCount.Add(1)
				logger.LogAttrs(scenarioCtx, slog.LevelWarn, "scenario failed",
					slog.Int("plan_id", s.planID), errors.SlogError(err))
				return nil
			}
			successCount.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("load test failed: %w", err)
	}

	successRate := float64(successCount.Load()) / float64(len(scenarios)) * percentageMultiplier
	elapsed := time.Since(start)
	logger.LogAttrs(ctx, slog.LevelInfo, "load test completed",
		slog.Int64("successful", successCount.Load()),
		slog.Int64("failed", failureCount.Load()),
		slog.Float64("success_rate", successRate),
		slog.Duration("duration", elapsed),
		slog.Float64("plans_per_second", float64(len(scenarios))/elapsed.Seconds()))
	if successRate < successRateThreshold {
		return fmt.Errorf("load test failed: success rate %.1f%% below threshold", successRate)
	}
	return nil
}

// RunRegenerationRace regenerates one plan from several goroutines at once. The stored schedule must match a
// single run afterwards.
func RunRegenerationRace(ctx context.Context, svc *schedule.Service, groups []string, s scenario,
	logger *slog.Logger) error {
	plan, err := schedule.BuildPlan(s.level, groups, nil)
	if err != nil {
		return fmt.Errorf("build plan: %w", err)
	}
	var target atomic.Int64
	var g errgroup.Group
	for i := range concurrentRegenerations {
		g.Go(func() error {
			res, genErr := svc.GenerateSchedule(ctx, plan, s.userID, s.planID, s.start.AddDate(0, 0, i), nil)
			if genErr != nil {
				return genErr
			}
			target.Store(int64(res.Target))
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return fmt.Errorf("regenerate plan %d: %w", s.planID, err)
	}
	if err = verifyStored(ctx, svc, s.planID, int(target.Load())); err != nil {
		return err
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "concurrent regeneration kept one schedule",
		slog.Int("plan_id", s.planID), slog.Int("runs", concurrentRegenerations))
	return nil
}

// openBackend connects to PostgreSQL when WORKOUTCAL_POSTGRES_DSN is set and to a temporary SQLite file otherwise.
func openBackend(ctx context.Context, logger *slog.Logger) (schedule.Backend, func(), error) {
	if dsn := os.Getenv("WORKOUTCAL_POSTGRES_DSN"); dsn != "" {
		if err := postgres.RunMigrations(dsn); err != nil {
			return schedule.Backend{}, nil, errors.Wrap(err, "migrate postgres")
		}
		db, err := postgres.New(ctx, dsn, logger)
		if err != nil {
			return schedule.Backend{}, nil, errors.Wrap(err, "open postgres")
		}
		return db.Backend(), db.Close, nil
	}

	dir, err := os.MkdirTemp("", "workoutcal-stresstest")
	if err != nil {
		return schedule.Backend{}, nil, errors.Wrap(err, "create temporary directory")
	}
	db, err := sqlite.NewDatabase(ctx, filepath.Join(dir, "stresstest.sqlite3"), logger)
	if err != nil {
		return schedule.Backend{}, nil, errors.Wrap(err, "open db")
	}
	cleanup := func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.LogAttrs(ctx, slog.LevelError, "failed to close db", errors.SlogError(closeErr))
		}
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			logger.LogAttrs(ctx, slog.LevelError, "failed to remove temporary directory", errors.SlogError(rmErr))
		}
	}
	return schedule.NewSQLiteBackend(db, logger), cleanup, nil
}

func run(ctx context.Context, logger *slog.Logger, args []string) error {
	plans := defaultPlans
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return errors.New("usage: stresstest [plans]", slog.String("plans", args[0]))
		}
		plans = n
	}

	backend, cleanup, err := openBackend(ctx, logger)
	if err != nil {
		return err
	}
	defer cleanup()
	svc := schedule.NewService(backend, logger)

	catalog, err := backend.Catalog.CandidateExercises(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "load exercise catalog")
	}
	var groups []string
	for _, e := range catalog {
		groups = append(groups, e.MuscleGroup)
	}

	scenarios := newScenarios(plans)
	if err = RunLoadTest(ctx, svc, groups, scenarios, logger); err != nil {
		return err
	}
	return RunRegenerationRace(ctx, svc, groups, scenarios[0], logger)
}

func main() {
	ctx := context.Background()
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelInfo,
		ReplaceAttr: nil,
	})))
	if err := run(ctx, logger, os.Args[1:]); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "stress test failed", errors.SlogError(err))
		os.Exit(1)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "stress test passed")
}
