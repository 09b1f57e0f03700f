package ports

import (
	"time"

	"github.com/dailybuddy/core/internal/domain/entities"
)

// Request/Response Types

// Auth related types
type LoginRequest struct {
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Reminder related types
type CreateReminderRequest struct {
	Title               string                    `json:"title" validate:"required,max=200"`
	Description         string                    `json:"description" validate:"max=2000"`
	Type                entities.ReminderType     `json:"type" validate:"required"`
	ScheduledTime       *time.Time                `json:"scheduled_time"`
	Recurring           bool                      `json:"recurring"`
	RecurringPattern    entities.RecurringPattern `json:"recurring_pattern"`
	Days                []int                     `json:"days" validate:"omitempty,dive,min=0,max=6"`
	Times               []string                  `json:"times"`
	SoundEnabled        bool                      `json:"sound_enabled"`
	SoundType           entities.SoundType        `json:"sound_type"`
	SoundVolume         int                       `json:"sound_volume" validate:"min=0,max=100"`
	NotificationEnabled bool                      `json:"notification_enabled"`
	VibrationEnabled    bool                      `json:"vibration_enabled"`
}

type UpdateReminderRequest struct {
	Title               *string                    `json:"title" validate:"omitempty,max=200"`
	Description         *string                    `json:"description" validate:"omitempty,max=2000"`
	Type                *entities.ReminderType     `json:"type"`
	ScheduledTime       *time.Time                 `json:"scheduled_time"`
	Recurring           *bool                      `json:"recurring"`
	RecurringPattern    *entities.RecurringPattern `json:"recurring_pattern"`
	Days                []int                      `json:"days" validate:"omitempty,dive,min=0,max=6"`
	Times               []string                   `json:"times"`
	SoundEnabled        *bool                      `json:"sound_enabled"`
	SoundType           *entities.SoundType        `json:"sound_type"`
	SoundVolume         *int                       `json:"sound_volume" validate:"omitempty,min=0,max=100"`
	NotificationEnabled *bool                      `json:"notification_enabled"`
	VibrationEnabled    *bool                      `json:"vibration_enabled"`
}

// Medication related types
type CreateMedicationRequest struct {
	Name   string   `json:"name" validate:"required,max=200"`
	Dosage string   `json:"dosage" validate:"max=200"`
	Times  []string `json:"times" validate:"required,min=1"`
	Active *bool    `json:"active"`
}

type UpdateMedicationRequest struct {
	Name   *string  `json:"name" validate:"omitempty,max=200"`
	Dosage *string  `json:"dosage" validate:"omitempty,max=200"`
	Times  []string `json:"times"`
	Active *bool    `json:"active"`
}

// Agenda task related types
type CreateTaskRequest struct {
	Title    string            `json:"title" validate:"required,max=200"`
	Priority entities.Priority `json:"priority"`
	DueDate  *time.Time        `json:"due_date"`
}

type UpdateTaskRequest struct {
	Title     *string            `json:"title" validate:"omitempty,max=200"`
	Priority  *entities.Priority `json:"priority"`
	DueDate   *time.Time         `json:"due_date"`
	Completed *bool              `json:"completed"`
}

// Habit related types
type CreateHabitRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// Pomodoro related types
type StartPomodoroRequest struct {
	Mode            entities.PomodoroMode `json:"mode"`
	DurationSeconds int                   `json:"duration_seconds" validate:"omitempty,min=60,max=14400"`
	TaskLabel       string                `json:"task_label" validate:"max=200"`
}

// Popup related types
type ShowPopupRequest struct {
	Type       string                 `json:"type" validate:"required,max=100"`
	Title      string                 `json:"title" validate:"required,max=200"`
	Message    string                 `json:"message" validate:"max=2000"`
	DurationMS int                    `json:"duration_ms" validate:"min=0"`
	Priority   entities.Priority      `json:"priority"`
	Actions    []entities.PopupAction `json:"actions" validate:"omitempty,dive"`
}
