package schedule

import (
	"log/slog"

	"github.com/myrjola/workoutcal/internal/errors"
)

var (
	// ErrInvalidPlan is returned for plans and start configurations that cannot be scheduled.
	ErrInvalidPlan = errors.NewSentinel("invalid plan")
	// ErrMissingPool is returned when a session references a muscle group without catalog candidates.
	ErrMissingPool = errors.NewSentinel("missing exercise pool")
	// ErrAllocationShortfall is returned when a session cannot reach its minimum exercise count.
	ErrAllocationShortfall = errors.NewSentinel("allocation shortfall")
	// ErrNotFound is returned when a stored record does not exist.
	ErrNotFound = errors.NewSentinel("not found")
)

// Warning codes.
const (
	WarnUnexpectedDayLabel     = "unexpected_day_label"
	WarnUnassignedSessions     = "unassigned_sessions"
	WarnFullBodyNotImplemented = "full_body_not_implemented"
	WarnFirstWeekTrimmed       = "first_week_trimmed"
	WarnFinalWeekTrimmed       = "final_week_trimmed"
	WarnTargetMismatch         = "target_mismatch"
	WarnPreferencesUnavailable = "preferences_unavailable"
)

// Warning is a non-fatal anomaly found during generation. Generation commits despite warnings.
type Warning struct {
	Level   slog.Level
	Code    string
	Message string
	Attrs   []slog.Attr
}

// LogAttrs returns the attributes to log the warning with.
func (w Warning) LogAttrs() []slog.Attr {
	return append([]slog.Attr{slog.String("code", w.Code)}, w.Attrs...)
}
