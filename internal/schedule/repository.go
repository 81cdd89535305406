package schedule

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/myrjola/workoutcal/internal/sqlite"
)

const (
	timestampFormat = "2006-01-02T15:04:05.000Z"
	dateFormat      = time.DateOnly
)

// baseRepository holds what every SQLite repository needs.
type baseRepository struct {
	db     *sqlite.Database
	logger *slog.Logger
}

func newBaseRepository(db *sqlite.Database, logger *slog.Logger) baseRepository {
	return baseRepository{db: db, logger: logger}
}

// rollback returns a func for defer that rolls back tx unless it was committed and joins the failure into errp.
func (r baseRepository) rollback(tx *sql.Tx, errp *error) func() {
	return func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			*errp = errors.Join(*errp, fmt.Errorf("rollback transaction: %w", rollbackErr))
		}
	}
}

// NewSQLiteBackend returns the SQLite implementations of the stores the service depends on.
func NewSQLiteBackend(db *sqlite.Database, logger *slog.Logger) Backend {
	return Backend{
		Store:       newSQLiteScheduleRepository(db, logger),
		Catalog:     newSQLiteExerciseRepository(db, logger),
		Preferences: newSQLitePreferenceRepository(db, logger),
	}
}

func formatDate(t time.Time) string {
	return t.Format(dateFormat)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(dateFormat, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// formatWeekdays encodes weekdays as comma-separated abbreviations such as "Wed,Thu,Fri".
func formatWeekdays(days []time.Weekday) string {
	return strings.Join(dayAbbrevs(days), ",")
}

func parseWeekdays(s string) ([]time.Weekday, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	days := make([]time.Weekday, 0, len(parts))
	for _, p := range parts {
		kind, day, _ := parseDayLabel(p)
		if kind != labelWeekday {
			return nil, fmt.Errorf("parse weekday %q", p)
		}
		days = append(days, day)
	}
	return days, nil
}
