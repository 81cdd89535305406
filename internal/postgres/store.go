package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/myrjola/workoutcal/internal/schedule"
)

// InTx runs fn in one transaction that holds the advisory lock of the plan. Inserts are queued in a batch that is
// sent before commit.
func (db *DB) InTx(ctx context.Context, planID int, fn func(schedule.StoreTx) error) (err error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			err = errors.Join(err, fmt.Errorf("rollback transaction: %w", rollbackErr))
		}
	}()

	if _, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(planID)); err != nil {
		return fmt.Errorf("lock plan: %w", err)
	}

	stx := &storeTx{tx: tx, batch: &pgx.Batch{}}
	if err = fn(stx); err != nil {
		return err
	}
	if err = stx.flush(ctx); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	db.logger.LogAttrs(ctx, slog.LevelDebug, "committed schedule", slog.Int("plan_id", planID))
	return nil
}

// Schedule returns the stored entries of a plan in date order.
func (db *DB) Schedule(ctx context.Context, planID int) ([]schedule.ScheduleEntry, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id::text, plan_id, user_id, scheduled_date::text, week_number, day_abbrev,
		       session_order_global, session_order_in_week, title, muscle_groups, exercises,
		       is_rest, cloned, compensatory
		FROM schedule_entries
		WHERE plan_id = $1
		ORDER BY scheduled_date`, planID)
	if err != nil {
		return nil, fmt.Errorf("query schedule entries: %w", err)
	}
	defer rows.Close()

	var entries []schedule.ScheduleEntry
	for rows.Next() {
		var (
			e            schedule.ScheduleEntry
			id           string
			date         string
			muscleGroups []byte
			exercises    []byte
		)
		if err = rows.Scan(&id, &e.PlanID, &e.UserID, &date, &e.WeekNumber, &e.DayAbbrev,
			&e.SessionOrderGlobal, &e.SessionOrderInWeek, &e.Title, &muscleGroups, &exercises,
			&e.IsRest, &e.Cloned, &e.Compensatory); err != nil {
			return nil, fmt.Errorf("scan schedule entry: %w", err)
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse entry id: %w", err)
		}
		if e.Date, err = time.ParseInLocation(time.DateOnly, date, time.Local); err != nil {
			return nil, fmt.Errorf("parse entry date: %w", err)
		}
		if err = schedule.DecodeEntryPayload(&e, muscleGroups, exercises); err != nil {
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
func (db *DB) StartConfig(ctx context.Context, planID int) (schedule.StartConfigRecord, error) {
	var (
		rec           schedule.StartConfigRecord
		startDate     string
		startDay      int
		option        string
		firstWeekDays []string
	)
	err := db.Pool.QueryRow(ctx, `
		SELECT plan_id, user_id, start_date::text, start_day_of_week, sessions_first_week, include_saturdays,
		       distribution_option, first_week_days, is_consecutive_days, derived, updated_at
		FROM plan_start_configs
		WHERE plan_id = $1`, planID).Scan(
		&rec.PlanID, &rec.UserID, &startDate, &startDay, &rec.SessionsFirstWeek, &rec.IncludeSaturdays,
		&option, &firstWeekDays, &rec.IsConsecutiveDays, &rec.Derived, &rec.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return schedule.StartConfigRecord{}, schedule.ErrNotFound
	}
	if err != nil {
		return schedule.StartConfigRecord{}, fmt.Errorf("query start config: %w", err)
	}

	if rec.StartDate, err = time.ParseInLocation(time.DateOnly, startDate, time.Local); err != nil {
		return schedule.StartConfigRecord{}, fmt.Errorf("parse start date: %w", err)
	}
	rec.StartDayOfWeek = time.Weekday(startDay)
	rec.DistributionOption = schedule.DistributionOption(option)
	for _, name := range firstWeekDays {
		day, ok := schedule.ParseWeekday(name)
		if !ok {
			return schedule.StartConfigRecord{}, fmt.Errorf("parse first week day %q", name)
		}
		rec.FirstWeekDays = append(rec.FirstWeekDays, day)
	}
	return rec, nil
}

// storeTx implements schedule.StoreTx. Deletes run immediately and writes are batched.
type storeTx struct {
	tx     pgx.Tx
	batch  *pgx.Batch
	queued []string
}

func (t *storeTx) DeleteScheduleForPlan(ctx context.Context, planID int) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM schedule_entries WHERE plan_id = $1`, planID); err != nil {
		return fmt.Errorf("delete schedule entries: %w", err)
	}
	return nil
}

func (t *storeTx) InsertScheduleEntry(_ context.Context, e schedule.ScheduleEntry) error {
	muscleGroups, exercises, err := schedule.EncodeEntryPayload(e)
	if err != nil {
		return err
	}
	t.batch.Queue(`
		INSERT INTO schedule_entries (
			id, plan_id, user_id, scheduled_date, week_number, day_abbrev,
			session_order_global, session_order_in_week, title, muscle_groups, exercises,
			is_rest, cloned, compensatory
		) VALUES ($1::uuid, $2, $3, $4::date, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		e.ID.String(), e.PlanID, e.UserID, e.Date.Format(time.DateOnly), e.WeekNumber, e.DayAbbrev,
		e.SessionOrderGlobal, e.SessionOrderInWeek, e.Title, muscleGroups, exercises,
		e.IsRest, e.Cloned, e.Compensatory)
	t.queued = append(t.queued, "insert schedule entry "+e.Date.Format(time.DateOnly))
	return nil
}

func (t *storeTx) UpsertStartConfig(_ context.Context, rec schedule.StartConfigRecord) error {
	days := make([]string, len(rec.FirstWeekDays))
	for i, d := range rec.FirstWeekDays {
		days[i] = d.String()[:3]
	}
	t.batch.Queue(`
		INSERT INTO plan_start_configs (
			plan_id, user_id, start_date, start_day_of_week, sessions_first_week, include_saturdays,
			distribution_option, first_week_days, is_consecutive_days, derived, updated_at
		) VALUES ($1, $2, $3::date, $4, $5, $6, $7, $8, $9, $10, $11)
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
		rec.PlanID, rec.UserID, rec.StartDate.Format(time.DateOnly), int(rec.StartDayOfWeek), rec.SessionsFirstWeek,
		rec.IncludeSaturdays, string(rec.DistributionOption), days, rec.IsConsecutiveDays, rec.Derived,
		rec.UpdatedAt)
	t.queued = append(t.queued, "upsert start config")
	return nil
}

// flush sends the queued writes and reports the first failing one.
func (t *storeTx) flush(ctx context.Context) (err error) {
	if t.batch.Len() == 0 {
		return nil
	}
	results := t.tx.SendBatch(ctx, t.batch)
	defer func() {
		if closeErr := results.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close batch: %w", closeErr)
		}
	}()
	for _, op := range t.queued {
		if _, err = results.Exec(); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return nil
}
