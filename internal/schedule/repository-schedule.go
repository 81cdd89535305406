package schedule

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/myrjola/workoutcal/internal/sqlite"
)

// sqliteScheduleRepository implements Store. Writers are serialized by the single read-write connection, which
// begins every transaction with BEGIN IMMEDIATE.
type sqliteScheduleRepository struct {
	baseRepository
}

func newSQLiteScheduleRepository(db *sqlite.Database, logger *slog.Logger) *sqliteScheduleRepository {
	return &sqliteScheduleRepository{
		baseRepository: newBaseRepository(db, logger),
	}
}

// InTx runs fn in one write transaction and commits when fn succeeds.
func (r *sqliteScheduleRepository) InTx(ctx context.Context, planID int, fn func(StoreTx) error) (err error) {
	tx, err := r.db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer r.rollback(tx, &err)()
	r.logger.LogAttrs(ctx, slog.LevelDebug, "began schedule transaction", slog.Int("plan_id", planID))

	if err = fn(&sqliteScheduleTx{tx: tx}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Schedule returns the stored entries of a plan in date order.
func (r *sqliteScheduleRepository) Schedule(ctx context.Context, planID int) (_ []ScheduleEntry, err error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT id, plan_id, user_id, scheduled_date, week_number, day_abbrev,
		       session_order_global, session_order_in_week, title, muscle_groups, exercises,
		       is_rest, cloned, compensatory
		FROM schedule_entries
		WHERE plan_id = ?
		ORDER BY scheduled_date`, planID)
	if err != nil {
		return nil, fmt.Errorf("query schedule entries: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var entries []ScheduleEntry
	for rows.Next() {
		var (
			e            ScheduleEntry
			id           string
			dateStr      string
			muscleGroups string
			exercises    string
		)
		if err = rows.Scan(&id, &e.PlanID, &e.UserID, &dateStr, &e.WeekNumber, &e.DayAbbrev,
			&e.SessionOrderGlobal, &e.SessionOrderInWeek, &e.Title, &muscleGroups, &exercises,
			&e.IsRest, &e.Cloned, &e.Compensatory); err != nil {
			return nil, fmt.Errorf("scan schedule entry: %w", err)
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse entry id: %w", err)
		}
		if e.Date, err = parseDate(dateStr); err != nil {
			return nil, err
		}
		if err = DecodeEntryPayload(&e, []byte(muscleGroups), []byte(exercises)); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return entries, nil
}

// StartConfig returns the start configuration stored by the latest generation of a plan.
func (r *sqliteScheduleRepository) StartConfig(ctx context.Context, planID int) (StartConfigRecord, error) {
	var (
		rec           StartConfigRecord
		startDate     string
		startDay      int
		option        string
		firstWeekDays string
		updatedAt     string
	)
	err := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT plan_id, user_id, start_date, start_day_of_week, sessions_first_week, include_saturdays,
		       distribution_option, first_week_days, is_consecutive_days, derived, updated_at
		FROM plan_start_configs
		WHERE plan_id = ?`, planID).Scan(
		&rec.PlanID, &rec.UserID, &startDate, &startDay, &rec.SessionsFirstWeek, &rec.IncludeSaturdays,
		&option, &firstWeekDays, &rec.IsConsecutiveDays, &rec.Derived, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return StartConfigRecord{}, ErrNotFound
	}
	if err != nil {
		return StartConfigRecord{}, fmt.Errorf("query start config: %w", err)
	}

	if rec.StartDate, err = parseDate(startDate); err != nil {
		return StartConfigRecord{}, err
	}
	rec.StartDayOfWeek = time.Weekday(startDay)
	rec.DistributionOption = DistributionOption(option)
	if rec.FirstWeekDays, err = parseWeekdays(firstWeekDays); err != nil {
		return StartConfigRecord{}, fmt.Errorf("parse first week days: %w", err)
	}
	if rec.UpdatedAt, err = time.Parse(timestampFormat, updatedAt); err != nil {
		return StartConfigRecord{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return rec, nil
}

// sqliteScheduleTx implements StoreTx within one transaction.
type sqliteScheduleTx struct {
	tx *sql.Tx
}

func (t *sqliteScheduleTx) DeleteScheduleForPlan(ctx context.Context, planID int) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM schedule_entries WHERE plan_id = ?`, planID); err != nil {
		return fmt.Errorf("delete schedule entries: %w", err)
	}
	return nil
}

func (t *sqliteScheduleTx) InsertScheduleEntry(ctx context.Context, e ScheduleEntry) error {
	muscleGroups, exercises, err := EncodeEntryPayload(e)
	if err != nil {
		return err
	}
	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO schedule_entries (
			id, plan_id, user_id, scheduled_date, week_number, day_abbrev,
			session_order_global, session_order_in_week, title, muscle_groups, exercises,
			is_rest, cloned, compensatory
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID.String(), e.PlanID, e.UserID, formatDate(e.Date), e.WeekNumber, e.DayAbbrev,
		e.SessionOrderGlobal, e.SessionOrderInWeek, e.Title, string(muscleGroups), string(exercises),
		e.IsRest, e.Cloned, e.Compensatory)
	if err != nil {
		return fmt.Errorf("insert schedule entry %s: %w", formatDate(e.Date), err)
	}
	return nil
}

func (t *sqliteScheduleTx) UpsertStartConfig(ctx context.Context, rec StartConfigRecord) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO plan_start_configs (
			plan_id, user_id, start_date, start_day_of_week, sessions_first_week, include_saturdays,
			distribution_option, first_week_days, is_consecutive_days, derived, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (plan_id) DO UPDATE SET
			user_id = excluded.user_id,
			start_date = excluded.start_date,
			start_day_of_week = excluded.start_day_of_week,
			sessions_first_week = excluded.sessions_first_week,
			include_saturdays = excluded.include_saturdays,
			distribution_option = excluded.distribution_option,
			first_week_days = excluded.first_week_days,
			is_consecutive_days = excluded.is_consecutive_days,
			derived = excluded.derived,
			updated_at = excluded.updated_at`,
		rec.PlanID, rec.UserID, formatDate(rec.StartDate), int(rec.StartDayOfWeek), rec.SessionsFirstWeek,
		rec.IncludeSaturdays, string(rec.DistributionOption), formatWeekdays(rec.FirstWeekDays),
		rec.IsConsecutiveDays, rec.Derived, rec.UpdatedAt.UTC().Format(timestampFormat))
	if err != nil {
		return fmt.Errorf("upsert start config: %w", err)
	}
	return nil
}

// EncodeEntryPayload encodes the muscle groups and exercises of an entry as JSON arrays.
func EncodeEntryPayload(e ScheduleEntry) ([]byte, []byte, error) {
	groups := e.MuscleGroups
	if groups == nil {
		groups = []string{}
	}
	exercises := e.Exercises
	if exercises == nil {
		exercises = []ExerciseRef{}
	}
	groupsJSON, err := json.Marshal(groups)
	if err != nil {
		return nil, nil, fmt.Errorf("encode muscle groups: %w", err)
	}
	exercisesJSON, err := json.Marshal(exercises)
	if err != nil {
		return nil, nil, fmt.Errorf("encode exercises: %w", err)
	}
	return groupsJSON, exercisesJSON, nil
}

// DecodeEntryPayload is the inverse of EncodeEntryPayload.
func DecodeEntryPayload(e *ScheduleEntry, muscleGroups, exercises []byte) error {
	if err := json.Unmarshal(muscleGroups, &e.MuscleGroups); err != nil {
		return fmt.Errorf("decode muscle groups: %w", err)
	}
	if err := json.Unmarshal(exercises, &e.Exercises); err != nil {
		return fmt.Errorf("decode exercises: %w", err)
	}
	if len(e.MuscleGroups) == 0 {
		e.MuscleGroups = nil
	}
	if len(e.Exercises) == 0 {
		e.Exercises = nil
	}
	return nil
}
