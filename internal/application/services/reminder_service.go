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

// ReminderService handles reminder CRUD and schedule resolution
type ReminderService struct {
	reminderRepo ports.ReminderRepository
	bus          *events.Bus
	logger       *logger.Logger
	now          func() time.Time
}

// NewReminderService creates a new reminder service
func NewReminderService(reminderRepo ports.ReminderRepository, bus *events.Bus, logger *logger.Logger) *ReminderService {
	return &ReminderService{
		reminderRepo: reminderRepo,
		bus:          bus,
		logger:       logger,
		now:          time.Now,
	}
}

// CreateReminder creates a new reminder. For recurring reminders only the
// soonest upcoming instant is resolved; a slot whose time already passed
// today rolls to the next matching day.
func (s *ReminderService) CreateReminder(ctx context.Context, req ports.CreateReminderRequest) (*entities.Reminder, error) {
	if !req.Type.IsValid() {
		return nil, entities.ErrInvalidReminderType
	}
	if req.SoundType != "" && !req.SoundType.IsValid() {
		return nil, fmt.Errorf("invalid sound type %q", req.SoundType)
	}

	reminder := &entities.Reminder{
		ID:                  uuid.New(),
		Title:               req.Title,
		Description:         req.Description,
		Type:                req.Type,
		Recurring:           req.Recurring,
		Days:                toWeekdaySet(req.Days),
		Times:               toClockTimes(req.Times),
		SoundEnabled:        req.SoundEnabled,
		SoundType:           req.SoundType,
		SoundVolume:         req.SoundVolume,
		NotificationEnabled: req.NotificationEnabled,
		VibrationEnabled:    req.VibrationEnabled,
		CreatedAt:           s.now(),
		UpdatedAt:           s.now(),
	}
	if reminder.SoundType == "" {
		reminder.SoundType = entities.SoundGentle
	}

	if req.Recurring {
		if !req.RecurringPattern.IsValid() {
			return nil, entities.ErrInvalidPattern
		}
		reminder.RecurringPattern = req.RecurringPattern
		for _, t := range reminder.Times {
			if !t.IsValid() {
				return nil, fmt.Errorf("invalid time slot %q", t)
			}
		}
		next, err := reminder.NextOccurrence(s.now())
		if err != nil {
			return nil, fmt.Errorf("resolve schedule: %w", err)
		}
		reminder.ScheduledTime = next
	} else {
		if req.ScheduledTime == nil {
			return nil, fmt.Errorf("scheduled_time is required for one-off reminders")
		}
		reminder.ScheduledTime = *req.ScheduledTime
	}

	if err := s.reminderRepo.Create(ctx, reminder); err != nil {
		return nil, fmt.Errorf("failed to create reminder: %w", err)
	}

	s.logger.Info("Reminder created", "reminder_id", reminder.ID, "title", reminder.Title, "scheduled", reminder.ScheduledTime)
	s.bus.Publish(events.TopicRemindersUpdated, reminder.ID)

	return reminder, nil
}

// GetReminder retrieves a reminder by ID
func (s *ReminderService) GetReminder(ctx context.Context, id uuid.UUID) (*entities.Reminder, error) {
	return s.reminderRepo.GetByID(ctx, id)
}

// ListReminders lists reminders matching the filter
func (s *ReminderService) ListReminders(ctx context.Context, filter ports.ReminderFilter) ([]*entities.Reminder, error) {
	return s.reminderRepo.List(ctx, filter)
}

// UpdateReminder applies a partial update. Changing any schedule input on
// a recurring reminder recomputes the next occurrence, which also resets
// the dedupe key.
func (s *ReminderService) UpdateReminder(ctx context.Context, id uuid.UUID, req ports.UpdateReminderRequest) (*entities.Reminder, error) {
	// An explicit scheduled_time and recurrence inputs prescribe two
	// different schedules; refuse the ambiguity instead of picking one.
	if req.ScheduledTime != nil &&
		(req.Recurring != nil || req.RecurringPattern != nil || req.Days != nil || req.Times != nil) {
		return nil, entities.ErrScheduleConflict
	}

	reminder, err := s.reminderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	scheduleChanged := false

	if req.Title != nil {
		reminder.Title = *req.Title
	}
	if req.Description != nil {
		reminder.Description = *req.Description
	}
	if req.Type != nil {
		if !req.Type.IsValid() {
			return nil, entities.ErrInvalidReminderType
		}
		reminder.Type = *req.Type
	}
	if req.Recurring != nil {
		reminder.Recurring = *req.Recurring
		scheduleChanged = true
	}
	if req.RecurringPattern != nil {
		if !req.RecurringPattern.IsValid() {
			return nil, entities.ErrInvalidPattern
		}
		reminder.RecurringPattern = *req.RecurringPattern
		scheduleChanged = true
	}
	if req.Days != nil {
		reminder.Days = toWeekdaySet(req.Days)
		scheduleChanged = true
	}
	if req.Times != nil {
		reminder.Times = toClockTimes(req.Times)
		scheduleChanged = true
	}
	if req.ScheduledTime != nil {
		reminder.ScheduledTime = *req.ScheduledTime
	}
	if req.SoundEnabled != nil {
		reminder.SoundEnabled = *req.SoundEnabled
	}
	if req.SoundType != nil {
		if !req.SoundType.IsValid() {
			return nil, fmt.Errorf("invalid sound type %q", *req.SoundType)
		}
		reminder.SoundType = *req.SoundType
	}
	if req.SoundVolume != nil {
		reminder.SoundVolume = *req.SoundVolume
	}
	if req.NotificationEnabled != nil {
		reminder.NotificationEnabled = *req.NotificationEnabled
	}
	if req.VibrationEnabled != nil {
		reminder.VibrationEnabled = *req.VibrationEnabled
	}

	if reminder.Recurring && scheduleChanged {
		next, err := reminder.NextOccurrence(s.now())
		if err != nil {
			return nil, fmt.Errorf("resolve schedule: %w", err)
		}
		reminder.ScheduledTime = next
	}

	reminder.UpdatedAt = s.now()

	if err := s.reminderRepo.Update(ctx, reminder); err != nil {
		return nil, fmt.Errorf("failed to update reminder: %w", err)
	}

	s.bus.Publish(events.TopicRemindersUpdated, reminder.ID)
	return reminder, nil
}

// CompleteReminder marks a reminder completed, excluding it from all
// future firing.
func (s *ReminderService) CompleteReminder(ctx context.Context, id uuid.UUID) (*entities.Reminder, error) {
	reminder, err := s.reminderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := reminder.Complete(); err != nil {
		return nil, err
	}
	reminder.UpdatedAt = s.now()

	if err := s.reminderRepo.Update(ctx, reminder); err != nil {
		return nil, fmt.Errorf("failed to complete reminder: %w", err)
	}

	s.logger.Info("Reminder completed", "reminder_id", reminder.ID)
	s.bus.Publish(events.TopicRemindersUpdated, reminder.ID)
	return reminder, nil
}

// DeleteReminder removes a reminder from the store
func (s *ReminderService) DeleteReminder(ctx context.Context, id uuid.UUID) error {
	if err := s.reminderRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.bus.Publish(events.TopicRemindersUpdated, id)
	return nil
}

func toWeekdaySet(days []int) entities.WeekdaySet {
	if days == nil {
		return nil
	}
	set := make(entities.WeekdaySet, 0, len(days))
	for _, d := range days {
		set = append(set, time.Weekday(d))
	}
	return set
}

func toClockTimes(times []string) entities.ClockTimes {
	if times == nil {
		return nil
	}
	cts := make(entities.ClockTimes, 0, len(times))
	for _, t := range times {
		cts = append(cts, entities.ClockTime(t))
	}
	return cts
}
