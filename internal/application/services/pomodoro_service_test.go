package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dailybuddy/core/internal/domain/entities"
	"github.com/dailybuddy/core/internal/events"
	"github.com/dailybuddy/core/internal/ports"
)

// fakePomodoroRepo keeps the timer state and session log in memory.
type fakePomodoroRepo struct {
	state    *entities.PomodoroState
	sessions []*entities.PomodoroSession
}

func (f *fakePomodoroRepo) GetState(ctx context.Context) (*entities.PomodoroState, error) {
	if f.state == nil {
		return nil, nil
	}
	cp := *f.state
	return &cp, nil
}

func (f *fakePomodoroRepo) SaveState(ctx context.Context, state *entities.PomodoroState) error {
	cp := *state
	f.state = &cp
	return nil
}

func (f *fakePomodoroRepo) ClearState(ctx context.Context) error {
	f.state = nil
	return nil
}

func (f *fakePomodoroRepo) AppendSession(ctx context.Context, session *entities.PomodoroSession) error {
	f.sessions = append(f.sessions, session)
	return nil
}

func (f *fakePomodoroRepo) ListSessions(ctx context.Context, limit int) ([]*entities.PomodoroSession, error) {
	if limit > len(f.sessions) {
		limit = len(f.sessions)
	}
	return f.sessions[:limit], nil
}

func (f *fakePomodoroRepo) PruneSessions(ctx context.Context, olderThan time.Time) (int64, error) {
	kept := f.sessions[:0]
	pruned := int64(0)
	for _, s := range f.sessions {
		if s.CompletedAt.Before(olderThan) {
			pruned++
			continue
		}
		kept = append(kept, s)
	}
	f.sessions = kept
	return pruned, nil
}

var _ ports.PomodoroRepository = (*fakePomodoroRepo)(nil)

func newTestPomodoroService(repo *fakePomodoroRepo) *PomodoroService {
	return NewPomodoroService(repo, events.NewBus(), testLogger())
}

func TestPomodoroStartDefaults(t *testing.T) {
	repo := &fakePomodoroRepo{}
	s := newTestPomodoroService(repo)
	ctx := context.Background()

	state, err := s.Start(ctx, ports.StartPomodoroRequest{})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if state.Mode != entities.ModeFocus || state.DurationSeconds != 1500 {
		t.Errorf("unexpected defaults: mode=%s duration=%d", state.Mode, state.DurationSeconds)
	}

	if _, err := s.Start(ctx, ports.StartPomodoroRequest{}); !errors.Is(err, entities.ErrTimerAlreadyActive) {
		t.Errorf("got %v, want ErrTimerAlreadyActive", err)
	}
}

func TestPomodoroStartModes(t *testing.T) {
	tests := []struct {
		mode entities.PomodoroMode
		want int
	}{
		{entities.ModeFocus, 1500},
		{entities.ModeShortBreak, 300},
		{entities.ModeLongBreak, 900},
	}

	for _, tt := range tests {
		repo := &fakePomodoroRepo{}
		s := newTestPomodoroService(repo)

		state, err := s.Start(context.Background(), ports.StartPomodoroRequest{Mode: tt.mode})
		if err != nil {
			t.Fatalf("Start(%s) failed: %v", tt.mode, err)
		}
		if state.DurationSeconds != tt.want {
			t.Errorf("mode %s: duration = %d, want %d", tt.mode, state.DurationSeconds, tt.want)
		}
	}

	if _, err := newTestPomodoroService(&fakePomodoroRepo{}).Start(context.Background(), ports.StartPomodoroRequest{Mode: "nap"}); err == nil {
		t.Error("expected error for invalid mode")
	}
}

func TestPomodoroStatusDerivesRemaining(t *testing.T) {
	started := time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local)
	repo := &fakePomodoroRepo{}
	s := newTestPomodoroService(repo)
	ctx := context.Background()

	now := started
	s.now = func() time.Time { return now }

	if _, err := s.Start(ctx, ports.StartPomodoroRequest{DurationSeconds: 1500}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// 900 elapsed seconds leave 600 regardless of what the stored
	// counter says, as if the process had restarted meanwhile.
	now = started.Add(900 * time.Second)
	repo.state.TimeLeftSeconds = 1500

	state, err := s.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if state.TimeLeftSeconds != 600 {
		t.Errorf("TimeLeftSeconds = %d, want 600", state.TimeLeftSeconds)
	}
}

func TestPomodoroStopAndReset(t *testing.T) {
	repo := &fakePomodoroRepo{}
	s := newTestPomodoroService(repo)
	ctx := context.Background()

	if err := s.Stop(ctx); !errors.Is(err, entities.ErrTimerNotRunning) {
		t.Errorf("got %v, want ErrTimerNotRunning", err)
	}

	// Reset on an idle timer is fine.
	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	if _, err := s.Start(ctx, ports.StartPomodoroRequest{}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if repo.state != nil {
		t.Error("state not cleared after stop")
	}
}

func TestPomodoroComplete(t *testing.T) {
	repo := &fakePomodoroRepo{}
	bus := events.NewBus()
	s := NewPomodoroService(repo, bus, testLogger())
	ctx := context.Background()

	completed := 0
	bus.Subscribe(events.TopicPomodoroComplete, func(events.Event) { completed++ })

	state, err := s.Start(ctx, ports.StartPomodoroRequest{TaskLabel: "review"})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	session, err := s.Complete(ctx, state)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if session.TaskLabel != "review" || session.Mode != entities.ModeFocus {
		t.Errorf("unexpected session: %+v", session)
	}
	if repo.state != nil {
		t.Error("state not cleared after completion")
	}
	if len(repo.sessions) != 1 {
		t.Errorf("session log has %d entries, want 1", len(repo.sessions))
	}
	if completed != 1 {
		t.Errorf("complete event published %d times, want 1", completed)
	}
}
