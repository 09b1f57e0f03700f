// Package scheduler runs the polling loop that decides "is anything due
// right now?" across every reminder-like source, guarded by the dedupe
// ledger so a matching instant fires at most once.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dailybuddy/core/internal/domain/entities"
	"github.com/dailybuddy/core/internal/events"
	"github.com/dailybuddy/core/internal/infrastructure/config"
	"github.com/dailybuddy/core/internal/infrastructure/logger"
	"github.com/dailybuddy/core/internal/ports"
)

// Gateway is the slice of the notification gateway the poller needs.
type Gateway interface {
	Send(ctx context.Context, n entities.Notification) bool
}

// PomodoroCompleter finalizes a finished countdown (session log + state
// clear + bus event).
type PomodoroCompleter interface {
	Complete(ctx context.Context, state *entities.PomodoroState) (*entities.PomodoroSession, error)
}

// Sweeper is implemented by the in-memory ledger; the Redis ledger expires
// entries itself and provides no sweep.
type Sweeper interface {
	Sweep() int
}

// Deps bundles the scheduler's collaborators.
type Deps struct {
	Reminders   ports.ReminderRepository
	Medications ports.MedicationRepository
	Tasks       ports.TaskRepository
	Habits      ports.HabitRepository
	Pomodoro    ports.PomodoroRepository
	Completer   PomodoroCompleter
	Ledger      ports.Ledger
	Gateway     Gateway
	Bus         *events.Bus
	Logger      *logger.Logger
	Sweeper     Sweeper // nil when the ledger handles its own expiry
}

// Scheduler is the fixed-interval poller plus the daily maintenance jobs.
type Scheduler struct {
	cfg     config.SchedulerConfig
	deps    Deps
	logger  *logger.Logger
	metrics *metrics
	cron    *gocron.Scheduler
	now     func() time.Time
}

// New creates a scheduler. Prometheus counters are registered on reg;
// pass nil to skip metrics (tests).
func New(cfg config.SchedulerConfig, deps Deps, reg prometheus.Registerer) *Scheduler {
	return &Scheduler{
		cfg:     cfg,
		deps:    deps,
		logger:  deps.Logger.WithComponent("scheduler"),
		metrics: newMetrics(reg),
		cron:    gocron.NewScheduler(time.Local),
		now:     time.Now,
	}
}

// Run blocks, ticking immediately and then on every interval, until ctx is
// cancelled. Maintenance jobs are started alongside and stopped on exit.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.cfg.Interval <= 0 {
		return fmt.Errorf("scheduler interval must be positive, got %s", s.cfg.Interval)
	}

	s.startMaintenance(ctx)
	defer s.cron.Stop()

	s.logger.Info("Scheduler started", "interval", s.cfg.Interval, "tolerance", s.cfg.Tolerance)

	s.Tick(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler shutting down")
			return nil
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs every category check once, in fixed order. Each check is
// isolated: an error or panic in one category is logged and the rest of
// the tick proceeds; the next tick is the retry.
func (s *Scheduler) Tick(ctx context.Context) {
	now := s.now()

	s.runCheck(ctx, "reminders", func(ctx context.Context) (int, int, error) {
		return s.checkReminders(ctx, now)
	})
	s.runCheck(ctx, "medications", func(ctx context.Context) (int, int, error) {
		return s.checkMedications(ctx, now)
	})
	s.runCheck(ctx, "tasks", func(ctx context.Context) (int, int, error) {
		return s.checkTasks(ctx, now)
	})
	s.runCheck(ctx, "habits", func(ctx context.Context) (int, int, error) {
		return s.checkHabitNudge(ctx, now)
	})
	s.runCheck(ctx, "pomodoro", func(ctx context.Context) (int, int, error) {
		return s.checkPomodoro(ctx, now)
	})
	s.runCheck(ctx, "health", func(ctx context.Context) (int, int, error) {
		return s.checkHealthNudge(ctx, now)
	})

	s.metrics.ticks.Inc()
}

func (s *Scheduler) runCheck(ctx context.Context, category string, fn func(context.Context) (int, int, error)) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorw("Scheduler check panicked", "category", category, "panic", r)
			s.metrics.errors.WithLabelValues(category).Inc()
		}
	}()

	fired, deduped, err := fn(ctx)
	s.logger.LogCheck(category, fired, deduped, err)
	if err != nil {
		s.metrics.errors.WithLabelValues(category).Inc()
	}
	if fired > 0 {
		s.metrics.fired.WithLabelValues(category).Add(float64(fired))
	}
	if deduped > 0 {
		s.metrics.deduped.WithLabelValues(category).Add(float64(deduped))
	}
}

// fire marks the ledger key, pushes the notification through the gateway,
// and raises the matching popup. The ledger write happens first so a crash
// mid-fire errs on the side of staying quiet rather than repeating.
func (s *Scheduler) fire(ctx context.Context, key string, n entities.Notification, popup entities.Popup) error {
	if err := s.deps.Ledger.Mark(ctx, key); err != nil {
		return fmt.Errorf("mark ledger: %w", err)
	}

	s.deps.Gateway.Send(ctx, n)
	popup.Sound = n.Sound
	s.deps.Bus.Publish(events.TopicShowPopup, popup)
	return nil
}

// firePopup is fire without the gateway leg, for reminders whose
// notification preference is off: the popup still shows, nothing leaves
// the process.
func (s *Scheduler) firePopup(ctx context.Context, key string, popup entities.Popup) error {
	if err := s.deps.Ledger.Mark(ctx, key); err != nil {
		return fmt.Errorf("mark ledger: %w", err)
	}

	s.deps.Bus.Publish(events.TopicShowPopup, popup)
	return nil
}

// startMaintenance arms the daily gocron jobs: ledger sweep (in-memory
// ledger only) and session-log pruning.
func (s *Scheduler) startMaintenance(ctx context.Context) {
	if s.deps.Sweeper != nil {
		s.cron.Every(1).Day().At("03:00").Do(func() {
			dropped := s.deps.Sweeper.Sweep()
			s.logger.Info("Ledger sweep", "dropped", dropped)
		})
	}

	if s.cfg.SessionRetention > 0 {
		s.cron.Every(1).Day().At("03:10").Do(func() {
			cutoff := s.now().Add(-s.cfg.SessionRetention)
			pruned, err := s.deps.Pomodoro.PruneSessions(ctx, cutoff)
			if err != nil {
				s.logger.Warnw("Session prune failed", "error", err)
				return
			}
			s.logger.Info("Session prune", "pruned", pruned)
		})
	}

	s.cron.StartAsync()
}
