package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/myrjola/workoutcal/internal/sqlite"
)

// sqliteExerciseRepository implements Catalog on the exercises table.
type sqliteExerciseRepository struct {
	baseRepository
}

func newSQLiteExerciseRepository(db *sqlite.Database, logger *slog.Logger) *sqliteExerciseRepository {
	return &sqliteExerciseRepository{
		baseRepository: newBaseRepository(db, logger),
	}
}

// CandidateExercises returns the exercises whose primary muscle group normalizes to one of groups.
func (r *sqliteExerciseRepository) CandidateExercises(ctx context.Context, groups []string) (_ []ExerciseRef, err error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT e.id, e.name, emg.muscle_group_name, e.sets_reps_scheme, e.rest_seconds
		FROM exercises e
		JOIN exercise_muscle_groups emg ON emg.exercise_id = e.id
		WHERE emg.is_primary = 1
		ORDER BY emg.muscle_group_name, e.id`)
	if err != nil {
		return nil, fmt.Errorf("query candidate exercises: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var exercises []ExerciseRef
	for rows.Next() {
		var e ExerciseRef
		if err = rows.Scan(&e.ID, &e.Name, &e.MuscleGroup, &e.SetsRepsScheme, &e.RestSeconds); err != nil {
			return nil, fmt.Errorf("scan exercise: %w", err)
		}
		exercises = append(exercises, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return FilterByGroups(exercises, groups), nil
}
