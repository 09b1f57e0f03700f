package entities

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrReminderNotFound    = errors.New("reminder not found")
	ErrMedicationNotFound  = errors.New("medication not found")
	ErrTaskNotFound        = errors.New("task not found")
	ErrHabitNotFound       = errors.New("habit not found")
	ErrPopupNotFound       = errors.New("popup not found")
	ErrInvalidReminderType = errors.New("invalid reminder type")
	ErrInvalidPattern      = errors.New("invalid recurring pattern")
	ErrScheduleConflict    = errors.New("scheduled_time cannot be combined with recurrence fields")
	ErrInvalidPriority     = errors.New("invalid priority")
	ErrAlreadyCompleted    = errors.New("reminder is already completed")
	ErrNoUpcomingSlot      = errors.New("no upcoming occurrence matches the schedule")
	ErrTimerNotRunning     = errors.New("pomodoro timer is not running")
	ErrTimerAlreadyActive  = errors.New("pomodoro timer is already active")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrPasswordNotSet      = errors.New("password has not been set")
)

// Enums and types
type ReminderType string

const (
	ReminderTypeMedication ReminderType = "medication"
	ReminderTypeTask       ReminderType = "task"
	ReminderTypeHabit      ReminderType = "habit"
	ReminderTypeStudy      ReminderType = "study"
	ReminderTypeGeneral    ReminderType = "general"
)

type RecurringPattern string

const (
	PatternDaily  RecurringPattern = "daily"
	PatternWeekly RecurringPattern = "weekly"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

type SoundType string

const (
	SoundGentle SoundType = "gentle"
	SoundChime  SoundType = "chime"
	SoundBell   SoundType = "bell"
	SoundAlert  SoundType = "alert"
	SoundBeep   SoundType = "beep"
)

type PomodoroMode string

const (
	ModeFocus      PomodoroMode = "focus"
	ModeShortBreak PomodoroMode = "short_break"
	ModeLongBreak  PomodoroMode = "long_break"
)

// Reminder represents a scheduled user-facing event.
type Reminder struct {
	ID                  uuid.UUID        `json:"id" db:"id"`
	Title               string           `json:"title" db:"title"`
	Description         string           `json:"description" db:"description"`
	Type                ReminderType     `json:"type" db:"type"`
	ScheduledTime       time.Time        `json:"scheduled_time" db:"scheduled_time"`
	Recurring           bool             `json:"recurring" db:"recurring"`
	RecurringPattern    RecurringPattern `json:"recurring_pattern,omitempty" db:"recurring_pattern"`
	Days                WeekdaySet       `json:"days,omitempty" db:"days"`
	Times               ClockTimes       `json:"times,omitempty" db:"times"`
	SoundEnabled        bool             `json:"sound_enabled" db:"sound_enabled"`
	SoundType           SoundType        `json:"sound_type" db:"sound_type"`
	SoundVolume         int              `json:"sound_volume" db:"sound_volume"`
	NotificationEnabled bool             `json:"notification_enabled" db:"notification_enabled"`
	VibrationEnabled    bool             `json:"vibration_enabled" db:"vibration_enabled"`
	Completed           bool             `json:"completed" db:"completed"`
	CreatedAt           time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at" db:"updated_at"`
}

// Medication represents a recurring medication schedule scanned by the poller.
type Medication struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	Dosage    string     `json:"dosage" db:"dosage"`
	Times     ClockTimes `json:"times" db:"times"`
	Active    bool       `json:"active" db:"active"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// AgendaTask is a dated to-do item whose due date the poller watches.
type AgendaTask struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Title     string     `json:"title" db:"title"`
	Priority  Priority   `json:"priority" db:"priority"`
	DueDate   *time.Time `json:"due_date" db:"due_date"`
	Completed bool       `json:"completed" db:"completed"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// Habit is a daily habit; the evening nudge lists habits without a
// completion recorded for the current day.
type Habit struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// HabitCompletion marks a habit done on a calendar day (YYYY-MM-DD).
type HabitCompletion struct {
	HabitID uuid.UUID `json:"habit_id" db:"habit_id"`
	Day     string    `json:"day" db:"day"`
}

// PomodoroState is the single persisted timer snapshot. TimeLeftSeconds is
// a display hint only; the authoritative remaining time is always derived
// from StartedAt and DurationSeconds against the wall clock.
type PomodoroState struct {
	IsActive        bool         `json:"is_active" db:"is_active"`
	Mode            PomodoroMode `json:"mode" db:"mode"`
	DurationSeconds int          `json:"duration_seconds" db:"duration_seconds"`
	TimeLeftSeconds int          `json:"time_left_seconds" db:"time_left_seconds"`
	StartedAt       time.Time    `json:"started_at" db:"started_at"`
	TaskLabel       string       `json:"task_label" db:"task_label"`
	UpdatedAt       time.Time    `json:"updated_at" db:"updated_at"`
}

// PomodoroSession is one completed timer run, appended to the session log.
type PomodoroSession struct {
	ID              uuid.UUID    `json:"id" db:"id"`
	Mode            PomodoroMode `json:"mode" db:"mode"`
	DurationSeconds int          `json:"duration_seconds" db:"duration_seconds"`
	TaskLabel       string       `json:"task_label" db:"task_label"`
	StartedAt       time.Time    `json:"started_at" db:"started_at"`
	CompletedAt     time.Time    `json:"completed_at" db:"completed_at"`
}

// PopupAction is one labelled button on a popup. Event, when set, is
// published on the bus after the action dismisses the popup.
type PopupAction struct {
	Label string `json:"label"`
	Event string `json:"event,omitempty"`
}

// Popup is an ephemeral, non-persistent notice held by the presenter.
type Popup struct {
	ID        uuid.UUID     `json:"id"`
	Type      string        `json:"type"`
	Title     string        `json:"title"`
	Message   string        `json:"message"`
	Duration  time.Duration `json:"duration_ms"`
	Priority  Priority      `json:"priority"`
	Actions   []PopupAction `json:"actions,omitempty"`
	Sound     *SoundCue     `json:"sound,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// MarshalJSON writes Duration in milliseconds to match the duration_ms key.
func (p Popup) MarshalJSON() ([]byte, error) {
	type alias Popup
	return json.Marshal(struct {
		alias
		Duration int64 `json:"duration_ms"`
	}{alias(p), p.Duration.Milliseconds()})
}

// SoundCue describes a synthesized tone for the client to play.
type SoundCue struct {
	Frequency  float64       `json:"frequency_hz"`
	Duration   time.Duration `json:"duration_ms"`
	Waveform   string        `json:"waveform"`
	Gain       float64       `json:"gain"`
}

// MarshalJSON writes Duration in the milliseconds the duration_ms key
// promises, not nanoseconds.
func (sc SoundCue) MarshalJSON() ([]byte, error) {
	type alias SoundCue
	return json.Marshal(struct {
		alias
		Duration int64 `json:"duration_ms"`
	}{alias(sc), sc.Duration.Milliseconds()})
}

// Notification is the gateway's channel-independent payload.
type Notification struct {
	Category string    `json:"category"`
	Title    string    `json:"title"`
	Body     string    `json:"body"`
	Tag      string    `json:"tag"`
	Priority Priority  `json:"priority"`
	Sound    *SoundCue `json:"sound,omitempty"`
	Vibrate  bool      `json:"vibrate"`
}

// Business logic methods for Reminder

// IsDue reports whether the reminder's scheduled time falls within the
// tolerance window around now. Instants older than the window are treated
// as missed, never retroactively fired.
func (r *Reminder) IsDue(now time.Time, tolerance time.Duration) bool {
	if r.Completed {
		return false
	}
	delta := now.Sub(r.ScheduledTime)
	return delta >= -tolerance && delta <= tolerance
}

// Missed reports whether the scheduled instant is already further in the
// past than the tolerance window allows.
func (r *Reminder) Missed(now time.Time, tolerance time.Duration) bool {
	return now.Sub(r.ScheduledTime) > tolerance
}

func (r *Reminder) Complete() error {
	if r.Completed {
		return ErrAlreadyCompleted
	}
	r.Completed = true
	return nil
}

// FireKey is the dedupe-ledger key for this reminder's current instant.
// The scheduled unix time is part of the key so an edited-and-rescheduled
// reminder gets a fresh key.
func (r *Reminder) FireKey() string {
	return fmt.Sprintf("reminder:%s:%d", r.ID, r.ScheduledTime.Unix())
}

// Business logic methods for AgendaTask

func (t *AgendaTask) IsDue(now time.Time, tolerance time.Duration) bool {
	if t.Completed || t.DueDate == nil {
		return false
	}
	delta := now.Sub(*t.DueDate)
	return delta >= -tolerance && delta <= tolerance
}

func (t *AgendaTask) FireKey() string {
	if t.DueDate == nil {
		return ""
	}
	return fmt.Sprintf("task:%s:%d", t.ID, t.DueDate.Unix())
}

// Business logic methods for Medication

// DueSlot returns the HH:MM slot matching now, if any. Slots match within
// the same tolerance window as reminders.
func (m *Medication) DueSlot(now time.Time, tolerance time.Duration) (string, bool) {
	if !m.Active {
		return "", false
	}
	for _, ct := range m.Times {
		slot, err := ct.On(now)
		if err != nil {
			continue
		}
		delta := now.Sub(slot)
		if delta >= -tolerance && delta <= tolerance {
			return string(ct), true
		}
	}
	return "", false
}

// FireKey keys a medication nudge by calendar day and slot so each daily
// slot fires at most once.
func (m *Medication) FireKey(day, slot string) string {
	return fmt.Sprintf("medication:%s:%s:%s", m.ID, day, slot)
}

// Business logic methods for PomodoroState

// Remaining derives the remaining time from the wall clock. A restart
// between ticks does not lose elapsed time.
func (p *PomodoroState) Remaining(now time.Time) time.Duration {
	if !p.IsActive {
		return 0
	}
	total := time.Duration(p.DurationSeconds) * time.Second
	elapsed := now.Sub(p.StartedAt)
	if elapsed >= total {
		return 0
	}
	return total - elapsed
}

// Finished reports whether the running timer has used up its duration.
func (p *PomodoroState) Finished(now time.Time) bool {
	return p.IsActive && p.Remaining(now) == 0
}

func (p *PomodoroState) FireKey() string {
	return fmt.Sprintf("pomodoro:%d", p.StartedAt.Unix())
}

// Utility methods

func (rt ReminderType) IsValid() bool {
	switch rt {
	case ReminderTypeMedication, ReminderTypeTask, ReminderTypeHabit, ReminderTypeStudy, ReminderTypeGeneral:
		return true
	default:
		return false
	}
}

func (rp RecurringPattern) IsValid() bool {
	switch rp {
	case PatternDaily, PatternWeekly:
		return true
	default:
		return false
	}
}

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// Rank orders priorities for presenter eviction: high > medium > low.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}

func (st SoundType) IsValid() bool {
	switch st {
	case SoundGentle, SoundChime, SoundBell, SoundAlert, SoundBeep:
		return true
	default:
		return false
	}
}

func (m PomodoroMode) IsValid() bool {
	switch m {
	case ModeFocus, ModeShortBreak, ModeLongBreak:
		return true
	default:
		return false
	}
}

// DayKey formats a time as the calendar-day key used by habit completions
// and medication dedupe keys.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
