package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dailybuddy/core/internal/domain/entities"
)

// ReminderRepository defines the interface for reminder data operations
type ReminderRepository interface {
	Create(ctx context.Context, reminder *entities.Reminder) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Reminder, error)
	Update(ctx context.Context, reminder *entities.Reminder) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ReminderFilter) ([]*entities.Reminder, error)
	// ListPending returns reminders that are not completed, for the poller.
	ListPending(ctx context.Context) ([]*entities.Reminder, error)
}

// MedicationRepository defines the interface for medication data operations
type MedicationRepository interface {
	Create(ctx context.Context, med *entities.Medication) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Medication, error)
	Update(ctx context.Context, med *entities.Medication) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*entities.Medication, error)
	ListActive(ctx context.Context) ([]*entities.Medication, error)
}

// TaskRepository defines the interface for agenda task data operations
type TaskRepository interface {
	Create(ctx context.Context, task *entities.AgendaTask) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.AgendaTask, error)
	Update(ctx context.Context, task *entities.AgendaTask) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter TaskFilter) ([]*entities.AgendaTask, error)
	// ListDue returns uncompleted tasks with a due date, for the poller.
	ListDue(ctx context.Context) ([]*entities.AgendaTask, error)
}

// HabitRepository defines the interface for habit data operations
type HabitRepository interface {
	Create(ctx context.Context, habit *entities.Habit) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Habit, error)
	Update(ctx context.Context, habit *entities.Habit) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*entities.Habit, error)
	MarkCompleted(ctx context.Context, habitID uuid.UUID, day string) error
	// ListIncompleteForDay returns habits without a completion on the given
	// calendar day, for the evening nudge.
	ListIncompleteForDay(ctx context.Context, day string) ([]*entities.Habit, error)
}

// PomodoroRepository defines the interface for the timer snapshot and the
// completed-sessions log
type PomodoroRepository interface {
	GetState(ctx context.Context) (*entities.PomodoroState, error)
	SaveState(ctx context.Context, state *entities.PomodoroState) error
	ClearState(ctx context.Context) error
	AppendSession(ctx context.Context, session *entities.PomodoroSession) error
	ListSessions(ctx context.Context, limit int) ([]*entities.PomodoroSession, error)
	PruneSessions(ctx context.Context, olderThan time.Time) (int64, error)
}

// SettingsRepository is a small key-value table for operator settings such
// as the API password hash
type SettingsRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Ledger is the dedupe ledger: at most one Mark per key is observable, and
// a Fired key stays fired for the entry TTL.
type Ledger interface {
	Fired(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string) error
}

// Filter types for repository queries

type ReminderFilter struct {
	Type      *entities.ReminderType
	Completed *bool
	Before    *time.Time
	After     *time.Time
	Limit     int
	Offset    int
}

type TaskFilter struct {
	Priority  *entities.Priority
	Completed *bool
	DueBefore *time.Time
	DueAfter  *time.Time
	Limit     int
	Offset    int
}
