package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dailybuddy/core/internal/domain/entities"
	"github.com/dailybuddy/core/internal/events"
	"github.com/dailybuddy/core/internal/infrastructure/logger"
	"github.com/dailybuddy/core/internal/ports"
)

// Default durations per mode, in seconds.
const (
	defaultFocusSeconds      = 25 * 60
	defaultShortBreakSeconds = 5 * 60
	defaultLongBreakSeconds  = 15 * 60
)

// PomodoroService manages the single persisted countdown timer and the
// completed-sessions log.
type PomodoroService struct {
	pomodoroRepo ports.PomodoroRepository
	bus          *events.Bus
	logger       *logger.Logger
	now          func() time.Time
}

// NewPomodoroService creates a new pomodoro service
func NewPomodoroService(pomodoroRepo ports.PomodoroRepository, bus *events.Bus, logger *logger.Logger) *PomodoroService {
	return &PomodoroService{
		pomodoroRepo: pomodoroRepo,
		bus:          bus,
		logger:       logger,
		now:          time.Now,
	}
}

// Start begins a countdown. Starting while a timer is already running is
// rejected; stop or reset first.
func (s *PomodoroService) Start(ctx context.Context, req ports.StartPomodoroRequest) (*entities.PomodoroState, error) {
	existing, err := s.pomodoroRepo.GetState(ctx)
	if err == nil && existing != nil && existing.IsActive && !existing.Finished(s.now()) {
		return nil, entities.ErrTimerAlreadyActive
	}

	mode := req.Mode
	if mode == "" {
		mode = entities.ModeFocus
	}
	if !mode.IsValid() {
		return nil, fmt.Errorf("invalid pomodoro mode %q", req.Mode)
	}

	duration := req.DurationSeconds
	if duration == 0 {
		switch mode {
		case entities.ModeShortBreak:
			duration = defaultShortBreakSeconds
		case entities.ModeLongBreak:
			duration = defaultLongBreakSeconds
		default:
			duration = defaultFocusSeconds
		}
	}

	state := &entities.PomodoroState{
		IsActive:        true,
		Mode:            mode,
		DurationSeconds: duration,
		TimeLeftSeconds: duration,
		StartedAt:       s.now(),
		TaskLabel:       req.TaskLabel,
		UpdatedAt:       s.now(),
	}

	if err := s.pomodoroRepo.SaveState(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to save timer state: %w", err)
	}

	s.logger.Info("Pomodoro started", "mode", state.Mode, "duration_s", state.DurationSeconds, "task", state.TaskLabel)
	s.bus.Publish(events.TopicPomodoroStart, state)
	return state, nil
}

// Status returns the current snapshot with the remaining time recomputed
// from the wall clock, so a restart never resumes from a stale counter.
func (s *PomodoroService) Status(ctx context.Context) (*entities.PomodoroState, error) {
	state, err := s.pomodoroRepo.GetState(ctx)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return &entities.PomodoroState{}, nil
	}
	if state.IsActive {
		state.TimeLeftSeconds = int(state.Remaining(s.now()).Seconds())
	}
	return state, nil
}

// Stop clears the persisted timer state immediately, regardless of poll
// timing.
func (s *PomodoroService) Stop(ctx context.Context) error {
	state, err := s.pomodoroRepo.GetState(ctx)
	if err != nil {
		return err
	}
	if state == nil || !state.IsActive {
		return entities.ErrTimerNotRunning
	}

	if err := s.pomodoroRepo.ClearState(ctx); err != nil {
		return fmt.Errorf("failed to clear timer state: %w", err)
	}

	s.bus.Publish(events.TopicPomodoroStop, state)
	return nil
}

// Reset clears any timer state. Unlike Stop, resetting an idle timer is
// not an error.
func (s *PomodoroService) Reset(ctx context.Context) error {
	if err := s.pomodoroRepo.ClearState(ctx); err != nil {
		return fmt.Errorf("failed to clear timer state: %w", err)
	}
	s.bus.Publish(events.TopicPomodoroReset, nil)
	return nil
}

// Complete logs a finished run and clears the timer. Called by the poller
// once the countdown's wall-clock duration has elapsed.
func (s *PomodoroService) Complete(ctx context.Context, state *entities.PomodoroState) (*entities.PomodoroSession, error) {
	session := &entities.PomodoroSession{
		ID:              uuid.New(),
		Mode:            state.Mode,
		DurationSeconds: state.DurationSeconds,
		TaskLabel:       state.TaskLabel,
		StartedAt:       state.StartedAt,
		CompletedAt:     s.now(),
	}

	if err := s.pomodoroRepo.AppendSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to append session: %w", err)
	}
	if err := s.pomodoroRepo.ClearState(ctx); err != nil {
		return nil, fmt.Errorf("failed to clear timer state: %w", err)
	}

	s.logger.Info("Pomodoro completed", "mode", session.Mode, "duration_s", session.DurationSeconds)
	s.bus.Publish(events.TopicPomodoroComplete, session)
	return session, nil
}

// ListSessions returns the most recent completed sessions.
func (s *PomodoroService) ListSessions(ctx context.Context, limit int) ([]*entities.PomodoroSession, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.pomodoroRepo.ListSessions(ctx, limit)
}
