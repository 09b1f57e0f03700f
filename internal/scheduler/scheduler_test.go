package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dailybuddy/core/internal/adapters/ledger"
	"github.com/dailybuddy/core/internal/domain/entities"
	"github.com/dailybuddy/core/internal/events"
	"github.com/dailybuddy/core/internal/infrastructure/config"
	"github.com/dailybuddy/core/internal/infrastructure/logger"
	"github.com/dailybuddy/core/internal/ports"
)

// In-memory repository fakes. Only the poller-facing methods carry
// behavior; the CRUD methods exist to satisfy the interfaces.

type fakeReminderRepo struct {
	reminders []*entities.Reminder
	updated   []*entities.Reminder
}

func (f *fakeReminderRepo) Create(ctx context.Context, r *entities.Reminder) error { return nil }
func (f *fakeReminderRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.Reminder, error) {
	return nil, entities.ErrReminderNotFound
}
func (f *fakeReminderRepo) Update(ctx context.Context, r *entities.Reminder) error {
	f.updated = append(f.updated, r)
	return nil
}
func (f *fakeReminderRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }
func (f *fakeReminderRepo) List(ctx context.Context, filter ports.ReminderFilter) ([]*entities.Reminder, error) {
	return f.reminders, nil
}
func (f *fakeReminderRepo) ListPending(ctx context.Context) ([]*entities.Reminder, error) {
	var pending []*entities.Reminder
	for _, r := range f.reminders {
		if !r.Completed {
			pending = append(pending, r)
		}
	}
	return pending, nil
}

type fakeMedicationRepo struct {
	meds []*entities.Medication
}

func (f *fakeMedicationRepo) Create(ctx context.Context, m *entities.Medication) error { return nil }
func (f *fakeMedicationRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.Medication, error) {
	return nil, entities.ErrMedicationNotFound
}
func (f *fakeMedicationRepo) Update(ctx context.Context, m *entities.Medication) error { return nil }
func (f *fakeMedicationRepo) Delete(ctx context.Context, id uuid.UUID) error           { return nil }
func (f *fakeMedicationRepo) List(ctx context.Context) ([]*entities.Medication, error) {
	return f.meds, nil
}
func (f *fakeMedicationRepo) ListActive(ctx context.Context) ([]*entities.Medication, error) {
	var active []*entities.Medication
	for _, m := range f.meds {
		if m.Active {
			active = append(active, m)
		}
	}
	return active, nil
}

type fakeTaskRepo struct {
	tasks []*entities.AgendaTask
}

func (f *fakeTaskRepo) Create(ctx context.Context, t *entities.AgendaTask) error { return nil }
func (f *fakeTaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.AgendaTask, error) {
	return nil, entities.ErrTaskNotFound
}
func (f *fakeTaskRepo) Update(ctx context.Context, t *entities.AgendaTask) error { return nil }
func (f *fakeTaskRepo) Delete(ctx context.Context, id uuid.UUID) error           { return nil }
func (f *fakeTaskRepo) List(ctx context.Context, filter ports.TaskFilter) ([]*entities.AgendaTask, error) {
	return f.tasks, nil
}
func (f *fakeTaskRepo) ListDue(ctx context.Context) ([]*entities.AgendaTask, error) {
	var due []*entities.AgendaTask
	for _, t := range f.tasks {
		if !t.Completed && t.DueDate != nil {
			due = append(due, t)
		}
	}
	return due, nil
}

type fakeHabitRepo struct {
	incomplete []*entities.Habit
}

func (f *fakeHabitRepo) Create(ctx context.Context, h *entities.Habit) error { return nil }
func (f *fakeHabitRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.Habit, error) {
	return nil, entities.ErrHabitNotFound
}
func (f *fakeHabitRepo) Update(ctx context.Context, h *entities.Habit) error { return nil }
func (f *fakeHabitRepo) Delete(ctx context.Context, id uuid.UUID) error      { return nil }
func (f *fakeHabitRepo) List(ctx context.Context) ([]*entities.Habit, error) { return nil, nil }
func (f *fakeHabitRepo) MarkCompleted(ctx context.Context, id uuid.UUID, d string) error {
	return nil
}
func (f *fakeHabitRepo) ListIncompleteForDay(ctx context.Context, day string) ([]*entities.Habit, error) {
	return f.incomplete, nil
}

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
func (f *fakePomodoroRepo) SaveState(ctx context.Context, s *entities.PomodoroState) error {
	cp := *s
	f.state = &cp
	return nil
}
func (f *fakePomodoroRepo) ClearState(ctx context.Context) error { f.state = nil; return nil }
func (f *fakePomodoroRepo) AppendSession(ctx context.Context, s *entities.PomodoroSession) error {
	f.sessions = append(f.sessions, s)
	return nil
}
func (f *fakePomodoroRepo) ListSessions(ctx context.Context, limit int) ([]*entities.PomodoroSession, error) {
	return f.sessions, nil
}
func (f *fakePomodoroRepo) PruneSessions(ctx context.Context, olderThan time.Time) (int64, error) {
	return 0, nil
}

// fakeCompleter finalizes a run the way the pomodoro service would.
type fakeCompleter struct {
	repo *fakePomodoroRepo
}

func (f *fakeCompleter) Complete(ctx context.Context, state *entities.PomodoroState) (*entities.PomodoroSession, error) {
	session := &entities.PomodoroSession{
		ID:              uuid.New(),
		Mode:            state.Mode,
		DurationSeconds: state.DurationSeconds,
		TaskLabel:       state.TaskLabel,
		StartedAt:       state.StartedAt,
		CompletedAt:     time.Now(),
	}
	f.repo.sessions = append(f.repo.sessions, session)
	f.repo.state = nil
	return session, nil
}

// fakeGateway records every notification it is asked to deliver.
type fakeGateway struct {
	mu   sync.Mutex
	sent []entities.Notification
}

func (f *fakeGateway) Send(ctx context.Context, n entities.Notification) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
	return true
}

// byCategory returns the sent notifications for one category. Ticks run
// every check, so assertions must not count unrelated nudges.
func (f *fakeGateway) byCategory(category string) []entities.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entities.Notification
	for _, n := range f.sent {
		if n.Category == category {
			out = append(out, n)
		}
	}
	return out
}

type fixture struct {
	sched       *Scheduler
	reminders   *fakeReminderRepo
	medications *fakeMedicationRepo
	tasks       *fakeTaskRepo
	habits      *fakeHabitRepo
	pomodoro    *fakePomodoroRepo
	gateway     *fakeGateway
	bus         *events.Bus
}

func testConfig() config.SchedulerConfig {
	return config.SchedulerConfig{
		Interval:         30 * time.Second,
		Tolerance:        time.Minute,
		LedgerTTL:        7 * 24 * time.Hour,
		HabitNudgeHour:   20,
		HealthNudgeStart: 9,
		HealthNudgeEnd:   21,
		HealthNudgeEvery: 2 * time.Hour,
	}
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()

	f := &fixture{
		reminders:   &fakeReminderRepo{},
		medications: &fakeMedicationRepo{},
		tasks:       &fakeTaskRepo{},
		habits:      &fakeHabitRepo{},
		pomodoro:    &fakePomodoroRepo{},
		gateway:     &fakeGateway{},
		bus:         events.NewBus(),
	}

	appLogger := &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
	f.sched = New(testConfig(), Deps{
		Reminders:   f.reminders,
		Medications: f.medications,
		Tasks:       f.tasks,
		Habits:      f.habits,
		Pomodoro:    f.pomodoro,
		Completer:   &fakeCompleter{repo: f.pomodoro},
		Ledger:      ledger.NewMemory(7 * 24 * time.Hour),
		Gateway:     f.gateway,
		Bus:         f.bus,
		Logger:      appLogger,
	}, nil)
	f.sched.now = func() time.Time { return now }

	return f
}

func TestTickFiresDueReminderOnce(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.Local)
	f := newFixture(t, now)

	f.reminders.reminders = []*entities.Reminder{
		{ID: uuid.New(), Title: "Stretch", ScheduledTime: now, NotificationEnabled: true},
		{ID: uuid.New(), Title: "Later", ScheduledTime: now.Add(time.Hour), NotificationEnabled: true},
	}

	ctx := context.Background()
	f.sched.Tick(ctx)

	if got := f.gateway.byCategory("reminder"); len(got) != 1 {
		t.Fatalf("sent %d reminder notifications, want 1", len(got))
	}

	// Re-polling the same instant must not fire again.
	f.sched.Tick(ctx)
	f.sched.Tick(ctx)

	if got := f.gateway.byCategory("reminder"); len(got) != 1 {
		t.Errorf("sent %d reminder notifications after re-polls, want 1", len(got))
	}
}

func TestTickSkipsMissedReminder(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.Local)
	f := newFixture(t, now)

	// Scheduled well before the tolerance window: missed, never fired.
	f.reminders.reminders = []*entities.Reminder{
		{ID: uuid.New(), Title: "Old", ScheduledTime: now.Add(-10 * time.Minute), NotificationEnabled: true},
	}

	f.sched.Tick(context.Background())

	if got := f.gateway.byCategory("reminder"); len(got) != 0 {
		t.Errorf("missed reminder fired: %+v", got)
	}
}

func TestTickRearmsRecurringReminder(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.Local) // Monday
	f := newFixture(t, now)

	f.reminders.reminders = []*entities.Reminder{{
		ID:                  uuid.New(),
		Title:               "Standup",
		ScheduledTime:       now,
		Recurring:           true,
		RecurringPattern:    entities.PatternWeekly,
		Days:                entities.WeekdaySet{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		Times:               entities.ClockTimes{"08:00"},
		NotificationEnabled: true,
	}}

	f.sched.Tick(context.Background())

	if len(f.reminders.updated) != 1 {
		t.Fatalf("re-armed %d reminders, want 1", len(f.reminders.updated))
	}
	want := time.Date(2026, 3, 3, 8, 0, 0, 0, time.Local)
	if got := f.reminders.updated[0].ScheduledTime; !got.Equal(want) {
		t.Errorf("re-armed to %v, want %v", got, want)
	}
}

func TestTickFiresMedicationSlotOncePerDay(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.Local)
	f := newFixture(t, now)

	f.medications.meds = []*entities.Medication{{
		ID:     uuid.New(),
		Name:   "Iron",
		Active: true,
		Times:  entities.ClockTimes{"08:00", "20:00"},
	}}

	ctx := context.Background()
	f.sched.Tick(ctx)
	f.sched.Tick(ctx)

	if got := f.gateway.byCategory("medication"); len(got) != 1 {
		t.Fatalf("sent %d medication notifications, want 1", len(got))
	}

	// The evening slot is a fresh key and fires separately.
	f.sched.now = func() time.Time { return time.Date(2026, 3, 2, 20, 0, 0, 0, time.Local) }
	f.sched.Tick(ctx)

	if got := f.gateway.byCategory("medication"); len(got) != 2 {
		t.Errorf("sent %d medication notifications, want 2", len(got))
	}
}

func TestTickInactiveMedicationNeverFires(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.Local)
	f := newFixture(t, now)

	f.medications.meds = []*entities.Medication{{
		ID:     uuid.New(),
		Name:   "Paused",
		Active: false,
		Times:  entities.ClockTimes{"08:00"},
	}}

	f.sched.Tick(context.Background())

	if got := f.gateway.byCategory("medication"); len(got) != 0 {
		t.Errorf("inactive medication fired: %+v", got)
	}
}

func TestTickFiresDueTask(t *testing.T) {
	now := time.Date(2026, 3, 2, 17, 0, 0, 0, time.Local)
	f := newFixture(t, now)

	due := now
	f.tasks.tasks = []*entities.AgendaTask{
		{ID: uuid.New(), Title: "Submit report", Priority: entities.PriorityHigh, DueDate: &due},
	}

	ctx := context.Background()
	f.sched.Tick(ctx)
	f.sched.Tick(ctx)

	got := f.gateway.byCategory("task")
	if len(got) != 1 {
		t.Fatalf("sent %d task notifications, want 1", len(got))
	}
	if got[0].Priority != entities.PriorityHigh {
		t.Errorf("task notification priority = %s, want high", got[0].Priority)
	}
}

func TestTickHabitNudge(t *testing.T) {
	now := time.Date(2026, 3, 2, 20, 15, 0, 0, time.Local)
	f := newFixture(t, now)

	f.habits.incomplete = []*entities.Habit{
		{ID: uuid.New(), Name: "Read"},
		{ID: uuid.New(), Name: "Walk"},
	}

	ctx := context.Background()
	f.sched.Tick(ctx)
	f.sched.Tick(ctx)

	if got := f.gateway.byCategory("habit"); len(got) != 1 {
		t.Fatalf("sent %d habit notifications, want 1", len(got))
	}

	// Outside the nudge hour nothing fires.
	f2 := newFixture(t, time.Date(2026, 3, 2, 14, 0, 0, 0, time.Local))
	f2.habits.incomplete = f.habits.incomplete
	f2.sched.Tick(ctx)
	if got := f2.gateway.byCategory("habit"); len(got) != 0 {
		t.Errorf("habit nudge fired outside its hour: %+v", got)
	}
}

func TestTickHabitNudgeAllDone(t *testing.T) {
	now := time.Date(2026, 3, 2, 20, 0, 0, 0, time.Local)
	f := newFixture(t, now)

	f.sched.Tick(context.Background())

	if got := f.gateway.byCategory("habit"); len(got) != 0 {
		t.Errorf("habit nudge fired with nothing open: %+v", got)
	}
}

func TestTickCompletesFinishedPomodoro(t *testing.T) {
	started := time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local)
	now := started.Add(1500 * time.Second)
	f := newFixture(t, now)

	f.pomodoro.state = &entities.PomodoroState{
		IsActive:        true,
		Mode:            entities.ModeFocus,
		DurationSeconds: 1500,
		StartedAt:       started,
		TaskLabel:       "writing",
	}

	ctx := context.Background()
	f.sched.Tick(ctx)

	if len(f.pomodoro.sessions) != 1 {
		t.Fatalf("logged %d sessions, want 1", len(f.pomodoro.sessions))
	}
	if f.pomodoro.state != nil {
		t.Error("timer state not cleared after completion")
	}
	if got := f.gateway.byCategory("pomodoro"); len(got) != 1 {
		t.Errorf("sent %d pomodoro notifications, want 1", len(got))
	}
}

func TestTickRunningPomodoroLeftAlone(t *testing.T) {
	started := time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local)
	f := newFixture(t, started.Add(10*time.Minute))

	f.pomodoro.state = &entities.PomodoroState{
		IsActive:        true,
		Mode:            entities.ModeFocus,
		DurationSeconds: 1500,
		StartedAt:       started,
	}

	f.sched.Tick(context.Background())

	if f.pomodoro.state == nil {
		t.Error("running timer was completed early")
	}
	if len(f.pomodoro.sessions) != 0 {
		t.Errorf("logged %d sessions, want 0", len(f.pomodoro.sessions))
	}
}

func TestTickHealthNudgeBuckets(t *testing.T) {
	ctx := context.Background()

	// 09:30 falls in bucket 0: hydration.
	f := newFixture(t, time.Date(2026, 3, 2, 9, 30, 0, 0, time.Local))
	f.sched.Tick(ctx)
	f.sched.Tick(ctx)

	got := f.gateway.byCategory("health")
	if len(got) != 1 {
		t.Fatalf("sent %d health notifications, want 1", len(got))
	}
	if got[0].Title != "Hydration break" {
		t.Errorf("bucket 0 title = %q, want hydration", got[0].Title)
	}

	// 11:30 falls in bucket 1: movement.
	f2 := newFixture(t, time.Date(2026, 3, 2, 11, 30, 0, 0, time.Local))
	f2.sched.Tick(ctx)
	got = f2.gateway.byCategory("health")
	if len(got) != 1 || got[0].Title != "Movement break" {
		t.Errorf("bucket 1 notifications = %+v, want one movement break", got)
	}

	// Outside the active hours nothing fires.
	f3 := newFixture(t, time.Date(2026, 3, 2, 22, 0, 0, 0, time.Local))
	f3.sched.Tick(ctx)
	if got := f3.gateway.byCategory("health"); len(got) != 0 {
		t.Errorf("health nudge fired outside active hours: %+v", got)
	}
}

func TestTickPopupRaisedOnFire(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.Local)
	f := newFixture(t, now)

	var popups []entities.Popup
	f.bus.Subscribe(events.TopicShowPopup, func(ev events.Event) {
		popups = append(popups, ev.Payload.(entities.Popup))
	})

	f.reminders.reminders = []*entities.Reminder{
		{ID: uuid.New(), Title: "Stretch", ScheduledTime: now, NotificationEnabled: true},
	}

	f.sched.Tick(context.Background())

	if len(popups) != 1 {
		t.Fatalf("raised %d popups, want 1", len(popups))
	}
	if popups[0].Type != "reminder" || popups[0].Title != "Stretch" {
		t.Errorf("unexpected popup: %+v", popups[0])
	}
}

func TestTickReminderNotificationDisabled(t *testing.T) {
	// Notifications off: the popup still shows, nothing reaches the
	// external channels, and the ledger key is still consumed.
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.Local)
	f := newFixture(t, now)

	var popups []entities.Popup
	f.bus.Subscribe(events.TopicShowPopup, func(ev events.Event) {
		popups = append(popups, ev.Payload.(entities.Popup))
	})

	f.reminders.reminders = []*entities.Reminder{
		{ID: uuid.New(), Title: "Quiet", ScheduledTime: now, NotificationEnabled: false},
	}

	ctx := context.Background()
	f.sched.Tick(ctx)

	if got := f.gateway.byCategory("reminder"); len(got) != 0 {
		t.Errorf("sent %d notifications with notifications disabled, want 0", len(got))
	}
	if len(popups) != 1 {
		t.Fatalf("raised %d popups, want 1", len(popups))
	}

	f.sched.Tick(ctx)
	if len(popups) != 1 {
		t.Errorf("raised %d popups after re-poll, want 1", len(popups))
	}
}

func TestCheckIsolation(t *testing.T) {
	// A panicking repository must not take down the tick.
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.Local)
	f := newFixture(t, now)

	f.sched.deps.Reminders = panickyReminderRepo{&fakeReminderRepo{}}
	f.medications.meds = []*entities.Medication{{
		ID:     uuid.New(),
		Name:   "Iron",
		Active: true,
		Times:  entities.ClockTimes{"08:00"},
	}}

	f.sched.Tick(context.Background())

	if got := f.gateway.byCategory("medication"); len(got) != 1 {
		t.Errorf("medication check did not run after reminder panic, sent %d", len(got))
	}
}

type panickyReminderRepo struct{ *fakeReminderRepo }

func (panickyReminderRepo) ListPending(ctx context.Context) ([]*entities.Reminder, error) {
	panic("storage corrupted")
}
