package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dailybuddy/core/internal/domain/entities"
	"github.com/dailybuddy/core/internal/events"
	"github.com/dailybuddy/core/internal/notify"
)

// checkReminders fires user reminders whose scheduled instant falls inside
// the tolerance window. Fired recurring reminders are re-armed to their
// next occurrence; one-off reminders stay until completed or deleted.
func (s *Scheduler) checkReminders(ctx context.Context, now time.Time) (fired, deduped int, err error) {
	reminders, err := s.deps.Reminders.ListPending(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list pending reminders: %w", err)
	}

	for _, r := range reminders {
		if !r.IsDue(now, s.cfg.Tolerance) {
			continue
		}

		key := r.FireKey()
		already, ferr := s.deps.Ledger.Fired(ctx, key)
		if ferr != nil {
			err = ferr
			continue
		}
		if already {
			deduped++
			continue
		}

		n := entities.Notification{
			Category: "reminder",
			Title:    r.Title,
			Body:     r.Description,
			Tag:      key,
			Priority: entities.PriorityMedium,
			Vibrate:  r.VibrationEnabled,
		}
		if r.Type == entities.ReminderTypeMedication {
			n.Priority = entities.PriorityHigh
		}
		if r.SoundEnabled {
			n.Sound = notify.NewCue(r.SoundType, r.SoundVolume)
		}

		popup := entities.Popup{
			Type:     "reminder",
			Title:    r.Title,
			Message:  r.Description,
			Duration: 30 * time.Second,
			Priority: n.Priority,
			Sound:    n.Sound,
			Actions: []entities.PopupAction{
				{Label: "Done"},
				{Label: "Snooze"},
			},
		}

		if r.NotificationEnabled {
			ferr = s.fire(ctx, key, n, popup)
		} else {
			// Notifications off for this reminder: popup only.
			ferr = s.firePopup(ctx, key, popup)
		}
		if ferr != nil {
			err = ferr
			continue
		}
		fired++

		if r.Recurring {
			s.rearm(ctx, r, now)
		}
	}

	return fired, deduped, err
}

// rearm rolls a recurring reminder forward to its next occurrence. Failing
// to re-arm is logged, not fatal: the fired instant's ledger key keeps the
// stale schedule from repeating.
func (s *Scheduler) rearm(ctx context.Context, r *entities.Reminder, now time.Time) {
	next, err := r.NextOccurrence(now)
	if err != nil {
		if !errors.Is(err, entities.ErrNoUpcomingSlot) {
			s.logger.Warnw("Reminder re-arm failed", "reminder_id", r.ID, "error", err)
		}
		return
	}

	r.ScheduledTime = next
	r.UpdatedAt = now
	if err := s.deps.Reminders.Update(ctx, r); err != nil {
		s.logger.Warnw("Reminder re-arm update failed", "reminder_id", r.ID, "error", err)
	}
}

// checkMedications fires one nudge per active medication per daily slot.
func (s *Scheduler) checkMedications(ctx context.Context, now time.Time) (fired, deduped int, err error) {
	meds, err := s.deps.Medications.ListActive(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list active medications: %w", err)
	}

	day := entities.DayKey(now)
	for _, m := range meds {
		slot, due := m.DueSlot(now, s.cfg.Tolerance)
		if !due {
			continue
		}

		key := m.FireKey(day, slot)
		already, ferr := s.deps.Ledger.Fired(ctx, key)
		if ferr != nil {
			err = ferr
			continue
		}
		if already {
			deduped++
			continue
		}

		body := fmt.Sprintf("Time to take %s", m.Name)
		if m.Dosage != "" {
			body = fmt.Sprintf("Time to take %s (%s)", m.Name, m.Dosage)
		}

		n := entities.Notification{
			Category: "medication",
			Title:    "Medication reminder",
			Body:     body,
			Tag:      key,
			Priority: entities.PriorityHigh,
			Sound:    notify.NewCue(entities.SoundBell, 80),
			Vibrate:  true,
		}
		popup := entities.Popup{
			Type:     "medication",
			Title:    n.Title,
			Message:  body,
			Duration: 0, // sticky until acknowledged
			Priority: entities.PriorityHigh,
			Actions: []entities.PopupAction{
				{Label: "Taken"},
				{Label: "Snooze"},
			},
		}

		if ferr := s.fire(ctx, key, n, popup); ferr != nil {
			err = ferr
			continue
		}
		fired++
	}

	return fired, deduped, err
}

// checkTasks fires a due-date nudge per uncompleted task. Tasks whose due
// date slipped past the window before the poller saw them are skipped, not
// queued.
func (s *Scheduler) checkTasks(ctx context.Context, now time.Time) (fired, deduped int, err error) {
	tasks, err := s.deps.Tasks.ListDue(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list due tasks: %w", err)
	}

	for _, t := range tasks {
		if !t.IsDue(now, s.cfg.Tolerance) {
			continue
		}

		key := t.FireKey()
		already, ferr := s.deps.Ledger.Fired(ctx, key)
		if ferr != nil {
			err = ferr
			continue
		}
		if already {
			deduped++
			continue
		}

		n := entities.Notification{
			Category: "task",
			Title:    "Task due",
			Body:     t.Title,
			Tag:      key,
			Priority: t.Priority,
			Sound:    notify.NewCue(entities.SoundChime, 70),
		}
		popup := entities.Popup{
			Type:     "task",
			Title:    n.Title,
			Message:  t.Title,
			Duration: 30 * time.Second,
			Priority: t.Priority,
			Actions: []entities.PopupAction{
				{Label: "Mark done"},
			},
		}

		if ferr := s.fire(ctx, key, n, popup); ferr != nil {
			err = ferr
			continue
		}
		fired++
	}

	return fired, deduped, err
}

// checkHabitNudge fires one evening summary per day, listing how many
// habits still lack a completion.
func (s *Scheduler) checkHabitNudge(ctx context.Context, now time.Time) (fired, deduped int, err error) {
	if now.Hour() != s.cfg.HabitNudgeHour {
		return 0, 0, nil
	}

	day := entities.DayKey(now)
	key := "habit:" + day

	already, err := s.deps.Ledger.Fired(ctx, key)
	if err != nil {
		return 0, 0, err
	}
	if already {
		return 0, 1, nil
	}

	pending, err := s.deps.Habits.ListIncompleteForDay(ctx, day)
	if err != nil {
		return 0, 0, fmt.Errorf("list incomplete habits: %w", err)
	}
	if len(pending) == 0 {
		return 0, 0, nil
	}

	body := fmt.Sprintf("%d habit(s) still open today", len(pending))
	n := entities.Notification{
		Category: "habit",
		Title:    "Evening check-in",
		Body:     body,
		Tag:      key,
		Priority: entities.PriorityLow,
		Sound:    notify.NewCue(entities.SoundGentle, 50),
	}
	popup := entities.Popup{
		Type:     "habit",
		Title:    n.Title,
		Message:  body,
		Duration: 60 * time.Second,
		Priority: entities.PriorityLow,
	}

	if err := s.fire(ctx, key, n, popup); err != nil {
		return 0, 0, err
	}
	return 1, 0, nil
}

// checkPomodoro completes a running countdown once its wall-clock duration
// has elapsed. The elapsed test uses the persisted start timestamp, so a
// countdown that straddled a restart still completes on time.
func (s *Scheduler) checkPomodoro(ctx context.Context, now time.Time) (fired, deduped int, err error) {
	state, err := s.deps.Pomodoro.GetState(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("get timer state: %w", err)
	}
	if state == nil || !state.Finished(now) {
		return 0, 0, nil
	}

	key := state.FireKey()
	already, err := s.deps.Ledger.Fired(ctx, key)
	if err != nil {
		return 0, 0, err
	}
	if already {
		return 0, 1, nil
	}

	if err := s.deps.Ledger.Mark(ctx, key); err != nil {
		return 0, 0, fmt.Errorf("mark ledger: %w", err)
	}

	session, err := s.deps.Completer.Complete(ctx, state)
	if err != nil {
		return 0, 0, fmt.Errorf("complete pomodoro: %w", err)
	}

	title := "Focus session complete"
	if session.Mode != entities.ModeFocus {
		title = "Break finished"
	}
	body := session.TaskLabel
	if body == "" {
		body = fmt.Sprintf("%d minutes done", session.DurationSeconds/60)
	}

	n := entities.Notification{
		Category: "pomodoro",
		Title:    title,
		Body:     body,
		Tag:      key,
		Priority: entities.PriorityMedium,
		Sound:    notify.NewCue(entities.SoundAlert, 80),
	}
	s.deps.Gateway.Send(ctx, n)
	s.deps.Bus.Publish(events.TopicShowPopup, entities.Popup{
		Type:     "pomodoro",
		Title:    title,
		Message:  body,
		Duration: 30 * time.Second,
		Priority: entities.PriorityMedium,
		Sound:    n.Sound,
	})

	return 1, 0, nil
}

// checkHealthNudge fires hydration/movement nudges on a coarse bucket of
// the day between the configured hours. The bucket index in the ledger key
// is what keeps one nudge per bucket.
func (s *Scheduler) checkHealthNudge(ctx context.Context, now time.Time) (fired, deduped int, err error) {
	every := int(s.cfg.HealthNudgeEvery.Hours())
	if every <= 0 {
		every = 2
	}
	hour := now.Hour()
	if hour < s.cfg.HealthNudgeStart || hour >= s.cfg.HealthNudgeEnd {
		return 0, 0, nil
	}

	bucket := (hour - s.cfg.HealthNudgeStart) / every
	key := fmt.Sprintf("health:%s:%d", entities.DayKey(now), bucket)

	already, err := s.deps.Ledger.Fired(ctx, key)
	if err != nil {
		return 0, 0, err
	}
	if already {
		return 0, 1, nil
	}

	title, body := "Hydration break", "Time for a glass of water"
	if bucket%2 == 1 {
		title, body = "Movement break", "Stand up and stretch for a minute"
	}

	n := entities.Notification{
		Category: "health",
		Title:    title,
		Body:     body,
		Tag:      key,
		Priority: entities.PriorityLow,
		Sound:    notify.NewCue(entities.SoundGentle, 40),
	}
	popup := entities.Popup{
		Type:     "health",
		Title:    title,
		Message:  body,
		Duration: 20 * time.Second,
		Priority: entities.PriorityLow,
	}

	if err := s.fire(ctx, key, n, popup); err != nil {
		return 0, 0, err
	}
	return 1, 0, nil
}
