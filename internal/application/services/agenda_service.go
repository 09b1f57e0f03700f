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

// AgendaService handles the non-reminder record families the poller scans:
// medications, dated tasks, and daily habits.
type AgendaService struct {
	medicationRepo ports.MedicationRepository
	taskRepo       ports.TaskRepository
	habitRepo      ports.HabitRepository
	bus            *events.Bus
	logger         *logger.Logger
	now            func() time.Time
}

// NewAgendaService creates a new agenda service
func NewAgendaService(medicationRepo ports.MedicationRepository, taskRepo ports.TaskRepository, habitRepo ports.HabitRepository, bus *events.Bus, logger *logger.Logger) *AgendaService {
	return &AgendaService{
		medicationRepo: medicationRepo,
		taskRepo:       taskRepo,
		habitRepo:      habitRepo,
		bus:            bus,
		logger:         logger,
		now:            time.Now,
	}
}

// Medications

func (s *AgendaService) CreateMedication(ctx context.Context, req ports.CreateMedicationRequest) (*entities.Medication, error) {
	med := &entities.Medication{
		ID:        uuid.New(),
		Name:      req.Name,
		Dosage:    req.Dosage,
		Times:     toClockTimes(req.Times),
		Active:    true,
		CreatedAt: s.now(),
		UpdatedAt: s.now(),
	}
	if req.Active != nil {
		med.Active = *req.Active
	}
	for _, t := range med.Times {
		if !t.IsValid() {
			return nil, fmt.Errorf("invalid time slot %q", t)
		}
	}

	if err := s.medicationRepo.Create(ctx, med); err != nil {
		return nil, fmt.Errorf("failed to create medication: %w", err)
	}

	s.bus.Publish(events.TopicMedicationsUpdated, med.ID)
	return med, nil
}

func (s *AgendaService) ListMedications(ctx context.Context) ([]*entities.Medication, error) {
	return s.medicationRepo.List(ctx)
}

func (s *AgendaService) UpdateMedication(ctx context.Context, id uuid.UUID, req ports.UpdateMedicationRequest) (*entities.Medication, error) {
	med, err := s.medicationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		med.Name = *req.Name
	}
	if req.Dosage != nil {
		med.Dosage = *req.Dosage
	}
	if req.Times != nil {
		med.Times = toClockTimes(req.Times)
		for _, t := range med.Times {
			if !t.IsValid() {
				return nil, fmt.Errorf("invalid time slot %q", t)
			}
		}
	}
	if req.Active != nil {
		med.Active = *req.Active
	}
	med.UpdatedAt = s.now()

	if err := s.medicationRepo.Update(ctx, med); err != nil {
		return nil, fmt.Errorf("failed to update medication: %w", err)
	}

	s.bus.Publish(events.TopicMedicationsUpdated, med.ID)
	return med, nil
}

func (s *AgendaService) DeleteMedication(ctx context.Context, id uuid.UUID) error {
	if err := s.medicationRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.bus.Publish(events.TopicMedicationsUpdated, id)
	return nil
}

// Tasks

func (s *AgendaService) CreateTask(ctx context.Context, req ports.CreateTaskRequest) (*entities.AgendaTask, error) {
	task := &entities.AgendaTask{
		ID:        uuid.New(),
		Title:     req.Title,
		Priority:  req.Priority,
		DueDate:   req.DueDate,
		CreatedAt: s.now(),
		UpdatedAt: s.now(),
	}
	if task.Priority == "" {
		task.Priority = entities.PriorityMedium
	}
	if !task.Priority.IsValid() {
		return nil, entities.ErrInvalidPriority
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.bus.Publish(events.TopicTasksUpdated, task.ID)
	return task, nil
}

func (s *AgendaService) ListTasks(ctx context.Context, filter ports.TaskFilter) ([]*entities.AgendaTask, error) {
	return s.taskRepo.List(ctx, filter)
}

func (s *AgendaService) UpdateTask(ctx context.Context, id uuid.UUID, req ports.UpdateTaskRequest) (*entities.AgendaTask, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Priority != nil {
		if !req.Priority.IsValid() {
			return nil, entities.ErrInvalidPriority
		}
		task.Priority = *req.Priority
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	if req.Completed != nil {
		task.Completed = *req.Completed
	}
	task.UpdatedAt = s.now()

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.bus.Publish(events.TopicTasksUpdated, task.ID)
	return task, nil
}

func (s *AgendaService) DeleteTask(ctx context.Context, id uuid.UUID) error {
	if err := s.taskRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.bus.Publish(events.TopicTasksUpdated, id)
	return nil
}

// Habits

func (s *AgendaService) CreateHabit(ctx context.Context, req ports.CreateHabitRequest) (*entities.Habit, error) {
	habit := &entities.Habit{
		ID:        uuid.New(),
		Name:      req.Name,
		CreatedAt: s.now(),
		UpdatedAt: s.now(),
	}

	if err := s.habitRepo.Create(ctx, habit); err != nil {
		return nil, fmt.Errorf("failed to create habit: %w", err)
	}

	s.bus.Publish(events.TopicHabitsUpdated, habit.ID)
	return habit, nil
}

func (s *AgendaService) ListHabits(ctx context.Context) ([]*entities.Habit, error) {
	return s.habitRepo.List(ctx)
}

// CompleteHabit records today's completion for the habit, which also
// removes it from tonight's evening nudge.
func (s *AgendaService) CompleteHabit(ctx context.Context, id uuid.UUID) error {
	if _, err := s.habitRepo.GetByID(ctx, id); err != nil {
		return err
	}

	day := entities.DayKey(s.now())
	if err := s.habitRepo.MarkCompleted(ctx, id, day); err != nil {
		return fmt.Errorf("failed to mark habit completed: %w", err)
	}

	s.bus.Publish(events.TopicHabitsUpdated, id)
	return nil
}

func (s *AgendaService) DeleteHabit(ctx context.Context, id uuid.UUID) error {
	if err := s.habitRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.bus.Publish(events.TopicHabitsUpdated, id)
	return nil
}
