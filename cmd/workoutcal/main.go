package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"
	"time"

	"github.com/myrjola/workoutcal/internal/envstruct"
	"github.com/myrjola/workoutcal/internal/errors"
	"github.com/myrjola/workoutcal/internal/flightrecorder"
	"github.com/myrjola/workoutcal/internal/logging"
	"github.com/myrjola/workoutcal/internal/planfile"
	"github.com/myrjola/workoutcal/internal/postgres"
	"github.com/myrjola/workoutcal/internal/schedule"
	"github.com/myrjola/workoutcal/internal/sqlite"
	"golang.org/x/sync/errgroup"
)

type config struct {
	// SqliteURL is the URL to the SQLite database. You can use ":memory:" for an ethereal in-memory database.
	SqliteURL string `env:"WORKOUTCAL_SQLITE_URL" envDefault:"./workoutcal.sqlite3"`
	// PostgresDSN selects the PostgreSQL store instead of SQLite when set.
	PostgresDSN string `env:"WORKOUTCAL_POSTGRES_DSN" envDefault:""`
	// Concurrency is the number of plans generated at the same time.
	Concurrency int `env:"WORKOUTCAL_CONCURRENCY" envDefault:"4"`
	// TracesDir enables the flight recorder. Plans taking longer than SlowGenerationMillis leave a trace there.
	TracesDir            string `env:"WORKOUTCAL_TRACES_DIR" envDefault:""`
	SlowGenerationMillis int    `env:"WORKOUTCAL_SLOW_GENERATION_MS" envDefault:"2000"`
}

// planOutcome is the result of generating one plan file.
type planOutcome struct {
	path   string
	doc    *planfile.Document
	result schedule.Result
}

func run(
	ctx context.Context,
	logger *slog.Logger,
	lookupEnv func(string) (string, bool),
	args []string,
	stdout io.Writer,
) error {
	var (
		cancel context.CancelFunc
		err    error
	)

	ctx, cancel = signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	var cfg config
	if err = envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}
	if cfg.Concurrency < 1 {
		return errors.New("WORKOUTCAL_CONCURRENCY must be positive", slog.Int("concurrency", cfg.Concurrency))
	}

	flags := flag.NewFlagSet("workoutcal", flag.ContinueOnError)
	flags.SetOutput(stdout)
	showEntries := flags.Bool("show", false, "print every generated schedule entry")
	if err = flags.Parse(args); err != nil {
		return errors.Wrap(err, "parse flags")
	}
	paths := flags.Args()
	if len(paths) == 0 {
		return errors.New("usage: workoutcal [-show] plan.yaml...")
	}

	docs := make([]*planfile.Document, len(paths))
	for i, path := range paths {
		if docs[i], err = planfile.Load(path); err != nil {
			return errors.Wrap(err, "load plan file", slog.String("path", path))
		}
	}

	backend, closeBackend, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeBackend()
	svc := schedule.NewService(backend, logger)

	recorder, err := startRecorder(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if recorder != nil {
		defer recorder.Stop(ctx)
	}
	slow := time.Duration(cfg.SlowGenerationMillis) * time.Millisecond

	catalog, err := backend.Catalog.CandidateExercises(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "load exercise catalog")
	}
	availableGroups := catalogGroups(catalog)

	outcomes := make([]planOutcome, len(docs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)
	for i, doc := range docs {
		g.Go(func() error {
			start := time.Now()
			res, genErr := generate(ctx, svc, doc, availableGroups)
			if recorder != nil && time.Since(start) > slow {
				recorder.CaptureSlowTrace(ctx, fmt.Sprintf("plan-%d", doc.PlanID))
			}
			if genErr != nil {
				return errors.Wrap(genErr, "generate plan", slog.String("path", paths[i]),
					slog.Int("plan_id", doc.PlanID))
			}
			outcomes[i] = planOutcome{path: paths[i], doc: doc, result: res}
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return err
	}

	for _, o := range outcomes {
		if err = printOutcome(stdout, o, *showEntries); err != nil {
			return errors.Wrap(err, "print summary")
		}
	}
	return nil
}

// openBackend connects to PostgreSQL when a DSN is configured and to SQLite otherwise.
func openBackend(ctx context.Context, cfg config, logger *slog.Logger) (schedule.Backend, func(), error) {
	if cfg.PostgresDSN != "" {
		if err := postgres.RunMigrations(cfg.PostgresDSN); err != nil {
			return schedule.Backend{}, nil, errors.Wrap(err, "migrate postgres")
		}
		db, err := postgres.New(ctx, cfg.PostgresDSN, logger)
		if err != nil {
			return schedule.Backend{}, nil, errors.Wrap(err, "open postgres")
		}
		logger.LogAttrs(ctx, slog.LevelInfo, "connected to postgres")
		return db.Backend(), db.Close, nil
	}

	db, err := sqlite.NewDatabase(ctx, cfg.SqliteURL, logger)
	if err != nil {
		return schedule.Backend{}, nil, errors.Wrap(err, "open db", slog.String("url", cfg.SqliteURL))
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "connected to db")
	closeDB := func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.LogAttrs(ctx, slog.LevelError, "failed to close db", errors.SlogError(closeErr))
		}
	}
	return schedule.NewSQLiteBackend(db, logger), closeDB, nil
}

// startRecorder starts the flight recorder when a traces directory is configured. It returns nil otherwise.
func startRecorder(ctx context.Context, cfg config, logger *slog.Logger) (*flightrecorder.Recorder, error) {
	if cfg.TracesDir == "" {
		return nil, nil //nolint:nilnil // recording is disabled.
	}
	recorder, err := flightrecorder.New(flightrecorder.Config{
		Logger:          logger,
		MinAge:          0,
		MaxBytes:        0,
		Cooldown:        0,
		TracesDirectory: cfg.TracesDir,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create flight recorder")
	}
	if err = recorder.Start(ctx); err != nil {
		return nil, errors.Wrap(err, "start flight recorder")
	}
	return recorder, nil
}

func generate(
	ctx context.Context, svc *schedule.Service, doc *planfile.Document, availableGroups []string,
) (schedule.Result, error) {
	if prefs := doc.SchedulePreferences(); prefs != nil {
		if err := svc.SavePreferences(ctx, doc.UserID, *prefs); err != nil {
			return schedule.Result{}, fmt.Errorf("save preferences: %w", err)
		}
	}
	plan, err := doc.Plan(availableGroups)
	if err != nil {
		return schedule.Result{}, fmt.Errorf("resolve plan: %w", err)
	}
	start, err := doc.Start()
	if err != nil {
		return schedule.Result{}, err
	}
	startConfig, err := doc.ScheduleStartConfig()
	if err != nil {
		return schedule.Result{}, err
	}
	res, err := svc.GenerateSchedule(ctx, plan, doc.UserID, doc.PlanID, start, startConfig)
	if err != nil {
		return schedule.Result{}, fmt.Errorf("generate schedule: %w", err)
	}
	return res, nil
}

// catalogGroups returns the canonical muscle groups that have at least one exercise.
func catalogGroups(catalog []schedule.ExerciseRef) []string {
	var groups []string
	for _, e := range catalog {
		if g := schedule.NormalizeGroup(e.MuscleGroup); g != "" && !slices.Contains(groups, g) {
			groups = append(groups, g)
		}
	}
	return groups
}

func printOutcome(w io.Writer, o planOutcome, showEntries bool) error {
	res := o.result
	days := make([]string, len(res.FirstWeek.Days))
	for i, d := range res.FirstWeek.Days {
		days[i] = d.String()[:3]
	}
	if _, err := fmt.Fprintf(w, "%s: plan %d user %d: %d/%d sessions, first week %s [%s]",
		o.path, o.doc.PlanID, o.doc.UserID, res.Scheduled, res.Target, res.FirstWeek.Policy,
		strings.Join(days, " ")); err != nil {
		return err
	}
	if res.FirstWeek.IsConsecutiveDays {
		if _, err := fmt.Fprint(w, " consecutive"); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, ", %d warnings\n", len(res.Warnings)); err != nil {
		return err
	}
	for _, warning := range res.Warnings {
		if _, err := fmt.Fprintf(w, "  warning %s: %s\n", warning.Code, warning.Message); err != nil {
			return err
		}
	}
	if !showEntries {
		return nil
	}
	for _, e := range res.TrainingEntries() {
		names := make([]string, len(e.Exercises))
		for i, ex := range e.Exercises {
			names[i] = ex.Name + " " + ex.SetsRepsScheme
		}
		if _, err := fmt.Fprintf(w, "  %s %s week %d #%d %s (%s): %s\n",
			e.Date.Format("2006-01-02"), e.DayAbbrev, e.WeekNumber, e.SessionOrderGlobal, e.Title,
			strings.Join(e.MuscleGroups, ", "), strings.Join(names, "; ")); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	ctx := context.Background()
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelInfo,
		ReplaceAttr: nil,
	}))
	logger := slog.New(loggerHandler)
	if err := run(ctx, logger, os.LookupEnv, os.Args[1:], os.Stdout); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failure generating schedules", errors.SlogError(err))
		os.Exit(1)
	}
}
