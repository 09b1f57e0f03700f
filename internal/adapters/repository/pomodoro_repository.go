package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dailybuddy/core/internal/domain/entities"
	"github.com/dailybuddy/core/internal/ports"
)

// PomodoroRepositoryImpl implements the PomodoroRepository interface. The
// timer snapshot lives in a single fixed row; the session log is
// append-only with a retention prune.
type PomodoroRepositoryImpl struct {
	db *sqlx.DB
}

// NewPomodoroRepository creates a new pomodoro repository
func NewPomodoroRepository(db *sqlx.DB) ports.PomodoroRepository {
	return &PomodoroRepositoryImpl{db: db}
}

func (r *PomodoroRepositoryImpl) GetState(ctx context.Context) (*entities.PomodoroState, error) {
	query := `
		SELECT is_active, mode, duration_seconds, time_left_seconds, started_at, task_label, updated_at
		FROM pomodoro_state WHERE id = 1`

	var state entities.PomodoroState
	if err := r.db.GetContext(ctx, &state, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get timer state: %w", err)
	}
	return &state, nil
}

func (r *PomodoroRepositoryImpl) SaveState(ctx context.Context, state *entities.PomodoroState) error {
	query := r.db.Rebind(`
		INSERT INTO pomodoro_state (id, is_active, mode, duration_seconds, time_left_seconds, started_at, task_label, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			is_active = excluded.is_active,
			mode = excluded.mode,
			duration_seconds = excluded.duration_seconds,
			time_left_seconds = excluded.time_left_seconds,
			started_at = excluded.started_at,
			task_label = excluded.task_label,
			updated_at = excluded.updated_at`)

	_, err := r.db.ExecContext(ctx, query,
		state.IsActive, state.Mode, state.DurationSeconds, state.TimeLeftSeconds,
		state.StartedAt, state.TaskLabel, state.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save timer state: %w", err)
	}
	return nil
}

func (r *PomodoroRepositoryImpl) ClearState(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM pomodoro_state WHERE id = 1`); err != nil {
		return fmt.Errorf("clear timer state: %w", err)
	}
	return nil
}

func (r *PomodoroRepositoryImpl) AppendSession(ctx context.Context, session *entities.PomodoroSession) error {
	query := r.db.Rebind(`
		INSERT INTO pomodoro_sessions (id, mode, duration_seconds, task_label, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		session.ID, session.Mode, session.DurationSeconds, session.TaskLabel,
		session.StartedAt, session.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("append session: %w", err)
	}
	return nil
}

func (r *PomodoroRepositoryImpl) ListSessions(ctx context.Context, limit int) ([]*entities.PomodoroSession, error) {
	query := r.db.Rebind(`
		SELECT id, mode, duration_seconds, task_label, started_at, completed_at
		FROM pomodoro_sessions
		ORDER BY completed_at DESC
		LIMIT ?`)

	var sessions []*entities.PomodoroSession
	if err := r.db.SelectContext(ctx, &sessions, query, limit); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

func (r *PomodoroRepositoryImpl) PruneSessions(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM pomodoro_sessions WHERE completed_at < ?`), olderThan)
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	return result.RowsAffected()
}

// SettingsRepositoryImpl implements the SettingsRepository interface
type SettingsRepositoryImpl struct {
	db *sqlx.DB
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *sqlx.DB) ports.SettingsRepository {
	return &SettingsRepositoryImpl{db: db}
}

func (r *SettingsRepositoryImpl) Get(ctx context.Context, key string) (string, error) {
	query := r.db.Rebind(`SELECT value FROM settings WHERE key = ?`)

	var value string
	if err := r.db.GetContext(ctx, &value, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("setting %q not found", key)
		}
		return "", fmt.Errorf("get setting: %w", err)
	}
	return value, nil
}

func (r *SettingsRepositoryImpl) Set(ctx context.Context, key, value string) error {
	query := r.db.Rebind(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`)

	if _, err := r.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("set setting: %w", err)
	}
	return nil
}
