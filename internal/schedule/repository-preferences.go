package schedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/myrjola/workoutcal/internal/sqlite"
)

// sqlitePreferencesRepository implements PreferenceStore.
type sqlitePreferencesRepository struct {
	baseRepository
}

func newSQLitePreferenceRepository(db *sqlite.Database, logger *slog.Logger) *sqlitePreferencesRepository {
	return &sqlitePreferencesRepository{
		baseRepository: newBaseRepository(db, logger),
	}
}

// Preferences retrieves the workout preferences of a user. Users without stored preferences get the zero value,
// which disables preference-driven assignment.
func (r *sqlitePreferencesRepository) Preferences(ctx context.Context, userID int) (Preferences, error) {
	var prefs Preferences
	err := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT use_preferences, monday, tuesday, wednesday, thursday, friday, saturday, sunday,
		       exercises_per_session_limit
		FROM workout_preferences
		WHERE user_id = ?`, userID).Scan(
		&prefs.UsePreferences,
		&prefs.Monday, &prefs.Tuesday, &prefs.Wednesday, &prefs.Thursday,
		&prefs.Friday, &prefs.Saturday, &prefs.Sunday,
		&prefs.ExercisesPerSessionLimit,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Preferences{}, nil
	}
	if err != nil {
		return Preferences{}, fmt.Errorf("query workout preferences: %w", err)
	}
	return prefs, nil
}

// SavePreferences stores the workout preferences of a user.
func (r *sqlitePreferencesRepository) SavePreferences(ctx context.Context, userID int, prefs Preferences) error {
	_, err := r.db.ReadWrite.ExecContext(ctx, `
		INSERT INTO workout_preferences (
			user_id, use_preferences, monday, tuesday, wednesday, thursday, friday, saturday, sunday,
			exercises_per_session_limit
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			use_preferences = excluded.use_preferences,
			monday = excluded.monday,
			tuesday = excluded.tuesday,
			wednesday = excluded.wednesday,
			thursday = excluded.thursday,
			friday = excluded.friday,
			saturday = excluded.saturday,
			sunday = excluded.sunday,
			exercises_per_session_limit = excluded.exercises_per_session_limit`,
		userID, prefs.UsePreferences,
		prefs.Monday, prefs.Tuesday, prefs.Wednesday, prefs.Thursday,
		prefs.Friday, prefs.Saturday, prefs.Sunday,
		prefs.ExercisesPerSessionLimit,
	)
	if err != nil {
		return fmt.Errorf("save workout preferences: %w", err)
	}
	return nil
}
