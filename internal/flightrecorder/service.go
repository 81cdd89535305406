// Package flightrecorder keeps a rolling execution trace and writes it to disk when a generation run is slow.
package flightrecorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/trace"
	"sync/atomic"
	"time"
)

const (
	defaultMinAge   = time.Minute
	defaultMaxBytes = 16 * 1024 * 1024
	defaultCooldown = 5 * time.Minute
)

// Recorder captures the recent trace of the process on demand.
type Recorder struct {
	logger          *slog.Logger
	flightRecorder  *trace.FlightRecorder
	tracesDirectory string
	cooldown        time.Duration
	// lastCapture is the Unix time of the latest capture.
	lastCapture atomic.Int64
}

// Config configures a Recorder. Zero durations and sizes use the defaults.
type Config struct {
	Logger          *slog.Logger
	MinAge          time.Duration
	MaxBytes        uint64
	Cooldown        time.Duration
	TracesDirectory string
}

// New creates a recorder writing into cfg.TracesDirectory, which is created when missing.
func New(cfg Config) (*Recorder, error) {
	if cfg.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if cfg.TracesDirectory == "" {
		return nil, errors.New("traces directory is required")
	}

	if stat, err := os.Stat(cfg.TracesDirectory); err != nil {
		if err = os.MkdirAll(cfg.TracesDirectory, 0o700); err != nil { //nolint:mnd // owner only.
			return nil, fmt.Errorf("create traces directory: %w", err)
		}
	} else if !stat.IsDir() {
		return nil, fmt.Errorf("traces path is not a directory: %s", cfg.TracesDirectory)
	}

	r := &Recorder{
		logger:          cfg.Logger,
		flightRecorder:  nil,
		tracesDirectory: cfg.TracesDirectory,
		cooldown:        cfg.Cooldown,
		lastCapture:     atomic.Int64{},
	}
	if r.cooldown == 0 {
		r.cooldown = defaultCooldown
	}
	recorderCfg := trace.FlightRecorderConfig{MinAge: cfg.MinAge, MaxBytes: cfg.MaxBytes}
	if recorderCfg.MinAge == 0 {
		recorderCfg.MinAge = defaultMinAge
	}
	if recorderCfg.MaxBytes == 0 {
		recorderCfg.MaxBytes = defaultMaxBytes
	}
	r.flightRecorder = trace.NewFlightRecorder(recorderCfg)
	return r, nil
}

// Start begins recording.
func (r *Recorder) Start(ctx context.Context) error {
	if err := r.flightRecorder.Start(); err != nil {
		return fmt.Errorf("start flight recorder: %w", err)
	}
	r.logger.LogAttrs(ctx, slog.LevelDebug, "flight recorder started",
		slog.String("directory", r.tracesDirectory), slog.Duration("cooldown", r.cooldown))
	return nil
}

// Stop ends recording.
func (r *Recorder) Stop(ctx context.Context) {
	r.flightRecorder.Stop()
	r.logger.LogAttrs(ctx, slog.LevelDebug, "flight recorder stopped")
}

// CaptureSlowTrace writes the recorded trace to a file named after label, such as "plan-12". At most one trace is
// written per cooldown period. It returns the path of the written file or "" when nothing was written.
func (r *Recorder) CaptureSlowTrace(ctx context.Context, label string) string {
	now := time.Now()
	last := r.lastCapture.Load()
	if last > 0 && now.Sub(time.Unix(last, 0)) < r.cooldown {
		r.logger.LogAttrs(ctx, slog.LevelDebug, "skipping trace capture due to cooldown",
			slog.Time("last_capture", time.Unix(last, 0)))
		return ""
	}
	if !r.lastCapture.CompareAndSwap(last, now.Unix()) {
		return ""
	}

	path := filepath.Join(r.tracesDirectory, fmt.Sprintf("slow-%s-%s.trace", label, now.UTC().Format("20060102-150405")))
	file, err := os.Create(path)
	if err != nil {
		r.logger.LogAttrs(ctx, slog.LevelError, "failed to create trace file",
			slog.String("file", path), slog.Any("error", err))
		return ""
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			r.logger.LogAttrs(ctx, slog.LevelError, "failed to close trace file",
				slog.String("file", path), slog.Any("error", closeErr))
		}
	}()

	n, err := r.flightRecorder.WriteTo(file)
	if err != nil {
		r.logger.LogAttrs(ctx, slog.LevelError, "failed to write trace",
			slog.String("file", path), slog.Any("error", err))
		return ""
	}
	r.logger.LogAttrs(ctx, slog.LevelWarn, "captured slow generation trace",
		slog.String("file", path), slog.Int64("bytes", n))
	return path
}
