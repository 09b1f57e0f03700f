package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dailybuddy/core/internal/domain/entities"
	"github.com/dailybuddy/core/internal/ports"
)

// ReminderRepositoryImpl implements the ReminderRepository interface
type ReminderRepositoryImpl struct {
	db *sqlx.DB
}

// NewReminderRepository creates a new reminder repository
func NewReminderRepository(db *sqlx.DB) ports.ReminderRepository {
	return &ReminderRepositoryImpl{db: db}
}

const reminderColumns = `id, title, description, type, scheduled_time, recurring, recurring_pattern,
	days, times, sound_enabled, sound_type, sound_volume, notification_enabled,
	vibration_enabled, completed, created_at, updated_at`

func (r *ReminderRepositoryImpl) Create(ctx context.Context, reminder *entities.Reminder) error {
	query := r.db.Rebind(`
		INSERT INTO reminders (` + reminderColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		reminder.ID, reminder.Title, reminder.Description, reminder.Type,
		reminder.ScheduledTime, reminder.Recurring, reminder.RecurringPattern,
		reminder.Days, reminder.Times, reminder.SoundEnabled, reminder.SoundType,
		reminder.SoundVolume, reminder.NotificationEnabled, reminder.VibrationEnabled,
		reminder.Completed, reminder.CreatedAt, reminder.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create reminder: %w", err)
	}
	return nil
}

func (r *ReminderRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entities.Reminder, error) {
	query := r.db.Rebind(`SELECT ` + reminderColumns + ` FROM reminders WHERE id = ?`)

	var reminder entities.Reminder
	if err := r.db.GetContext(ctx, &reminder, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrReminderNotFound
		}
		return nil, fmt.Errorf("get reminder by id: %w", err)
	}
	return &reminder, nil
}

func (r *ReminderRepositoryImpl) Update(ctx context.Context, reminder *entities.Reminder) error {
	query := r.db.Rebind(`
		UPDATE reminders SET
			title = ?, description = ?, type = ?, scheduled_time = ?, recurring = ?,
			recurring_pattern = ?, days = ?, times = ?, sound_enabled = ?, sound_type = ?,
			sound_volume = ?, notification_enabled = ?, vibration_enabled = ?,
			completed = ?, updated_at = ?
		WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query,
		reminder.Title, reminder.Description, reminder.Type, reminder.ScheduledTime,
		reminder.Recurring, reminder.RecurringPattern, reminder.Days, reminder.Times,
		reminder.SoundEnabled, reminder.SoundType, reminder.SoundVolume,
		reminder.NotificationEnabled, reminder.VibrationEnabled,
		reminder.Completed, reminder.UpdatedAt, reminder.ID,
	)
	if err != nil {
		return fmt.Errorf("update reminder: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update reminder: %w", err)
	}
	if rows == 0 {
		return entities.ErrReminderNotFound
	}
	return nil
}

func (r *ReminderRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	query := r.db.Rebind(`DELETE FROM reminders WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	if rows == 0 {
		return entities.ErrReminderNotFound
	}
	return nil
}

func (r *ReminderRepositoryImpl) List(ctx context.Context, filter ports.ReminderFilter) ([]*entities.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders WHERE 1=1`
	args := []interface{}{}

	if filter.Type != nil {
		query += ` AND type = ?`
		args = append(args, *filter.Type)
	}
	if filter.Completed != nil {
		query += ` AND completed = ?`
		args = append(args, *filter.Completed)
	}
	if filter.Before != nil {
		query += ` AND scheduled_time <= ?`
		args = append(args, *filter.Before)
	}
	if filter.After != nil {
		query += ` AND scheduled_time >= ?`
		args = append(args, *filter.After)
	}

	query += ` ORDER BY scheduled_time ASC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, filter.Offset)
		}
	}

	var reminders []*entities.Reminder
	if err := r.db.SelectContext(ctx, &reminders, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	return reminders, nil
}

// ListPending feeds the poller. A row that fails to scan (corrupt days or
// times blob) is treated as absent rather than failing the whole read.
func (r *ReminderRepositoryImpl) ListPending(ctx context.Context) ([]*entities.Reminder, error) {
	query := r.db.Rebind(`
		SELECT ` + reminderColumns + ` FROM reminders
		WHERE completed = ?
		ORDER BY scheduled_time ASC`)

	rows, err := r.db.QueryxContext(ctx, query, false)
	if err != nil {
		return nil, fmt.Errorf("list pending reminders: %w", err)
	}
	defer rows.Close()

	var reminders []*entities.Reminder
	for rows.Next() {
		var reminder entities.Reminder
		if err := rows.StructScan(&reminder); err != nil {
			continue
		}
		reminders = append(reminders, &reminder)
	}
	return reminders, rows.Err()
}
