package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dailybuddy/core/internal/domain/entities"
	"github.com/dailybuddy/core/internal/events"
	"github.com/dailybuddy/core/internal/ports"
)

type fakeReminderRepo struct {
	byID map[uuid.UUID]*entities.Reminder
}

var _ ports.ReminderRepository = (*fakeReminderRepo)(nil)

func newFakeReminderRepo() *fakeReminderRepo {
	return &fakeReminderRepo{byID: make(map[uuid.UUID]*entities.Reminder)}
}

func (f *fakeReminderRepo) Create(ctx context.Context, r *entities.Reminder) error {
	cp := *r
	f.byID[r.ID] = &cp
	return nil
}

func (f *fakeReminderRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.Reminder, error) {
	r, ok := f.byID[id]
	if !ok {
		return nil, entities.ErrReminderNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeReminderRepo) Update(ctx context.Context, r *entities.Reminder) error {
	if _, ok := f.byID[r.ID]; !ok {
		return entities.ErrReminderNotFound
	}
	cp := *r
	f.byID[r.ID] = &cp
	return nil
}

func (f *fakeReminderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.byID[id]; !ok {
		return entities.ErrReminderNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeReminderRepo) List(ctx context.Context, filter ports.ReminderFilter) ([]*entities.Reminder, error) {
	var out []*entities.Reminder
	for _, r := range f.byID {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeReminderRepo) ListPending(ctx context.Context) ([]*entities.Reminder, error) {
	var out []*entities.Reminder
	for _, r := range f.byID {
		if !r.Completed {
			out = append(out, r)
		}
	}
	return out, nil
}

func newReminderService(repo *fakeReminderRepo, now time.Time) *ReminderService {
	s := NewReminderService(repo, events.NewBus(), testLogger())
	s.now = func() time.Time { return now }
	return s
}

func TestCreateOneOffReminder(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.Local)
	repo := newFakeReminderRepo()
	s := newReminderService(repo, now)

	at := now.Add(2 * time.Hour)
	reminder, err := s.CreateReminder(context.Background(), ports.CreateReminderRequest{
		Title:         "Call dentist",
		Type:          entities.ReminderTypeGeneral,
		ScheduledTime: &at,
	})
	if err != nil {
		t.Fatalf("CreateReminder: %v", err)
	}
	if !reminder.ScheduledTime.Equal(at) {
		t.Errorf("scheduled at %v, want %v", reminder.ScheduledTime, at)
	}
	if reminder.SoundType != entities.SoundGentle {
		t.Errorf("default sound type = %s, want gentle", reminder.SoundType)
	}
	if _, ok := repo.byID[reminder.ID]; !ok {
		t.Error("reminder not persisted")
	}
}

func TestCreateOneOffReminderWithoutTime(t *testing.T) {
	s := newReminderService(newFakeReminderRepo(), time.Now())

	_, err := s.CreateReminder(context.Background(), ports.CreateReminderRequest{
		Title: "No time",
		Type:  entities.ReminderTypeGeneral,
	})
	if err == nil {
		t.Fatal("expected error for one-off reminder without scheduled_time")
	}
}

func TestCreateReminderInvalidType(t *testing.T) {
	s := newReminderService(newFakeReminderRepo(), time.Now())

	_, err := s.CreateReminder(context.Background(), ports.CreateReminderRequest{
		Title: "Bad",
		Type:  "snack",
	})
	if !errors.Is(err, entities.ErrInvalidReminderType) {
		t.Errorf("err = %v, want ErrInvalidReminderType", err)
	}
}

func TestCreateRecurringReminderResolvesSchedule(t *testing.T) {
	// Monday 08:05 with weekday 08:00 slots resolves to Tuesday 08:00.
	now := time.Date(2026, 3, 2, 8, 5, 0, 0, time.Local)
	s := newReminderService(newFakeReminderRepo(), now)

	reminder, err := s.CreateReminder(context.Background(), ports.CreateReminderRequest{
		Title:            "Standup",
		Type:             entities.ReminderTypeGeneral,
		Recurring:        true,
		RecurringPattern: entities.PatternWeekly,
		Days:             []int{1, 2, 3, 4, 5},
		Times:            []string{"08:00"},
	})
	if err != nil {
		t.Fatalf("CreateReminder: %v", err)
	}
	want := time.Date(2026, 3, 3, 8, 0, 0, 0, time.Local)
	if !reminder.ScheduledTime.Equal(want) {
		t.Errorf("scheduled at %v, want %v", reminder.ScheduledTime, want)
	}
}

func TestCreateRecurringReminderInvalidPattern(t *testing.T) {
	s := newReminderService(newFakeReminderRepo(), time.Now())

	_, err := s.CreateReminder(context.Background(), ports.CreateReminderRequest{
		Title:            "Bad",
		Type:             entities.ReminderTypeGeneral,
		Recurring:        true,
		RecurringPattern: "fortnightly",
		Times:            []string{"08:00"},
	})
	if !errors.Is(err, entities.ErrInvalidPattern) {
		t.Errorf("err = %v, want ErrInvalidPattern", err)
	}
}

func TestUpdateReminderRecomputesSchedule(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 5, 0, 0, time.Local)
	repo := newFakeReminderRepo()
	s := newReminderService(repo, now)

	reminder, err := s.CreateReminder(context.Background(), ports.CreateReminderRequest{
		Title:            "Standup",
		Type:             entities.ReminderTypeGeneral,
		Recurring:        true,
		RecurringPattern: entities.PatternDaily,
		Times:            []string{"08:00"},
	})
	if err != nil {
		t.Fatalf("CreateReminder: %v", err)
	}

	// Moving the slot later today pulls the next occurrence forward.
	updated, err := s.UpdateReminder(context.Background(), reminder.ID, ports.UpdateReminderRequest{
		Times: []string{"09:00"},
	})
	if err != nil {
		t.Fatalf("UpdateReminder: %v", err)
	}
	want := time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local)
	if !updated.ScheduledTime.Equal(want) {
		t.Errorf("rescheduled to %v, want %v", updated.ScheduledTime, want)
	}
}

func TestUpdateReminderRejectsConflictingSchedule(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 5, 0, 0, time.Local)
	repo := newFakeReminderRepo()
	s := newReminderService(repo, now)

	reminder, err := s.CreateReminder(context.Background(), ports.CreateReminderRequest{
		Title:            "Standup",
		Type:             entities.ReminderTypeGeneral,
		Recurring:        true,
		RecurringPattern: entities.PatternDaily,
		Times:            []string{"08:00"},
	})
	if err != nil {
		t.Fatalf("CreateReminder: %v", err)
	}

	at := now.Add(time.Hour)
	_, err = s.UpdateReminder(context.Background(), reminder.ID, ports.UpdateReminderRequest{
		ScheduledTime: &at,
		Times:         []string{"09:00"},
	})
	if !errors.Is(err, entities.ErrScheduleConflict) {
		t.Errorf("err = %v, want ErrScheduleConflict", err)
	}

	// Alone, an explicit scheduled_time overrides the resolved instant.
	updated, err := s.UpdateReminder(context.Background(), reminder.ID, ports.UpdateReminderRequest{
		ScheduledTime: &at,
	})
	if err != nil {
		t.Fatalf("UpdateReminder: %v", err)
	}
	if !updated.ScheduledTime.Equal(at) {
		t.Errorf("scheduled at %v, want %v", updated.ScheduledTime, at)
	}
}

func TestUpdateReminderTitleKeepsSchedule(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.Local)
	repo := newFakeReminderRepo()
	s := newReminderService(repo, now)

	at := now.Add(time.Hour)
	reminder, _ := s.CreateReminder(context.Background(), ports.CreateReminderRequest{
		Title:         "Original",
		Type:          entities.ReminderTypeGeneral,
		ScheduledTime: &at,
	})

	title := "Renamed"
	updated, err := s.UpdateReminder(context.Background(), reminder.ID, ports.UpdateReminderRequest{Title: &title})
	if err != nil {
		t.Fatalf("UpdateReminder: %v", err)
	}
	if updated.Title != "Renamed" {
		t.Errorf("title = %q", updated.Title)
	}
	if !updated.ScheduledTime.Equal(at) {
		t.Errorf("schedule moved to %v on a title-only update", updated.ScheduledTime)
	}
}

func TestCompleteReminderTwice(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.Local)
	repo := newFakeReminderRepo()
	s := newReminderService(repo, now)

	at := now.Add(time.Hour)
	reminder, _ := s.CreateReminder(context.Background(), ports.CreateReminderRequest{
		Title:         "Once",
		Type:          entities.ReminderTypeGeneral,
		ScheduledTime: &at,
	})

	if _, err := s.CompleteReminder(context.Background(), reminder.ID); err != nil {
		t.Fatalf("first complete: %v", err)
	}
	_, err := s.CompleteReminder(context.Background(), reminder.ID)
	if !errors.Is(err, entities.ErrAlreadyCompleted) {
		t.Errorf("second complete err = %v, want ErrAlreadyCompleted", err)
	}
}

func TestDeleteReminderNotFound(t *testing.T) {
	s := newReminderService(newFakeReminderRepo(), time.Now())

	err := s.DeleteReminder(context.Background(), uuid.New())
	if !errors.Is(err, entities.ErrReminderNotFound) {
		t.Errorf("err = %v, want ErrReminderNotFound", err)
	}
}
