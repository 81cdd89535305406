package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/myrjola/workoutcal/internal/schedule"
)

// CandidateExercises returns the exercises whose primary muscle group normalizes to one of groups.
func (db *DB) CandidateExercises(ctx context.Context, groups []string) ([]schedule.ExerciseRef, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT e.id, e.name, emg.muscle_group_name, e.sets_reps_scheme, e.rest_seconds
		FROM exercises e
		JOIN exercise_muscle_groups emg ON emg.exercise_id = e.id
		WHERE emg.is_primary
		ORDER BY emg.muscle_group_name, e.id`)
	if err != nil {
		return nil, fmt.Errorf("query candidate exercises: %w", err)
	}
	exercises, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (schedule.ExerciseRef, error) {
		var e schedule.ExerciseRef
		err := row.Scan(&e.ID, &e.Name, &e.MuscleGroup, &e.SetsRepsScheme, &e.RestSeconds)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("collect exercises: %w", err)
	}
	return schedule.FilterByGroups(exercises, groups), nil
}

// Preferences retrieves the workout preferences of a user. Users without stored preferences get the zero value.
func (db *DB) Preferences(ctx context.Context, userID int) (schedule.Preferences, error) {
	var prefs schedule.Preferences
	err := db.Pool.QueryRow(ctx, `
		SELECT use_preferences, monday, tuesday, wednesday, thursday, friday, saturday, sunday,
		       exercises_per_session_limit
		FROM workout_preferences
		WHERE user_id = $1`, userID).Scan(
		&prefs.UsePreferences,
		&prefs.Monday, &prefs.Tuesday, &prefs.Wednesday, &prefs.Thursday,
		&prefs.Friday, &prefs.Saturday, &prefs.Sunday,
		&prefs.ExercisesPerSessionLimit,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return schedule.Preferences{}, nil
	}
	if err != nil {
		return schedule.Preferences{}, fmt.Errorf("query workout preferences: %w", err)
	}
	return prefs, nil
}

// SavePreferences stores the workout preferences of a user.
func (db *DB) SavePreferences(ctx context.Context, userID int, prefs schedule.Preferences) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO workout_preferences (
			user_id, use_preferences, monday, tuesday, wednesday, thursday, friday, saturday, sunday,
			exercises_per_session_limit
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
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
