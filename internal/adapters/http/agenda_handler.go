package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dailybuddy/core/internal/application/services"
	"github.com/dailybuddy/core/internal/domain/entities"
	"github.com/dailybuddy/core/internal/infrastructure/logger"
	"github.com/dailybuddy/core/internal/ports"
)

// AgendaHandler handles medication, task, and habit requests
type AgendaHandler struct {
	agendaService *services.AgendaService
	logger        *logger.Logger
}

// NewAgendaHandler creates a new agenda handler
func NewAgendaHandler(agendaService *services.AgendaService, logger *logger.Logger) *AgendaHandler {
	return &AgendaHandler{
		agendaService: agendaService,
		logger:        logger,
	}
}

// Medications

func (h *AgendaHandler) CreateMedication(c echo.Context) error {
	var req ports.CreateMedicationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	medication, err := h.agendaService.CreateMedication(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("Create medication failed", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusCreated, medication)
}

func (h *AgendaHandler) ListMedications(c echo.Context) error {
	medications, err := h.agendaService.ListMedications(c.Request().Context())
	if err != nil {
		h.logger.Error("List medications failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to retrieve medications")
	}

	return c.JSON(http.StatusOK, medications)
}

func (h *AgendaHandler) UpdateMedication(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req ports.UpdateMedicationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	medication, err := h.agendaService.UpdateMedication(c.Request().Context(), id, req)
	if err != nil {
		if errors.Is(err, entities.ErrMedicationNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Medication not found")
		}
		h.logger.Error("Update medication failed", "error", err, "medication_id", id)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, medication)
}

func (h *AgendaHandler) DeleteMedication(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.agendaService.DeleteMedication(c.Request().Context(), id); err != nil {
		if errors.Is(err, entities.ErrMedicationNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Medication not found")
		}
		h.logger.Error("Delete medication failed", "error", err, "medication_id", id)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete medication")
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "Medication deleted"})
}

// Tasks

func (h *AgendaHandler) CreateTask(c echo.Context) error {
	var req ports.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.agendaService.CreateTask(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("Create task failed", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusCreated, task)
}

func (h *AgendaHandler) ListTasks(c echo.Context) error {
	filter := ports.TaskFilter{Limit: 50}

	if p := c.QueryParam("priority"); p != "" {
		priority := entities.Priority(p)
		if !priority.IsValid() {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid priority parameter")
		}
		filter.Priority = &priority
	}

	if completedStr := c.QueryParam("completed"); completedStr != "" {
		completed, err := strconv.ParseBool(completedStr)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid completed parameter")
		}
		filter.Completed = &completed
	}

	if dueBeforeStr := c.QueryParam("due_before"); dueBeforeStr != "" {
		dueBefore, err := time.Parse(time.RFC3339, dueBeforeStr)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid due_before parameter")
		}
		filter.DueBefore = &dueBefore
	}

	if limitStr := c.QueryParam("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid limit parameter")
		}
		filter.Limit = limit
	}

	tasks, err := h.agendaService.ListTasks(c.Request().Context(), filter)
	if err != nil {
		h.logger.Error("List tasks failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to retrieve tasks")
	}

	return c.JSON(http.StatusOK, tasks)
}

func (h *AgendaHandler) UpdateTask(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req ports.UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.agendaService.UpdateTask(c.Request().Context(), id, req)
	if err != nil {
		if errors.Is(err, entities.ErrTaskNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Task not found")
		}
		h.logger.Error("Update task failed", "error", err, "task_id", id)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, task)
}

func (h *AgendaHandler) DeleteTask(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.agendaService.DeleteTask(c.Request().Context(), id); err != nil {
		if errors.Is(err, entities.ErrTaskNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Task not found")
		}
		h.logger.Error("Delete task failed", "error", err, "task_id", id)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete task")
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "Task deleted"})
}

// Habits

func (h *AgendaHandler) CreateHabit(c echo.Context) error {
	var req ports.CreateHabitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	habit, err := h.agendaService.CreateHabit(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("Create habit failed", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusCreated, habit)
}

func (h *AgendaHandler) ListHabits(c echo.Context) error {
	habits, err := h.agendaService.ListHabits(c.Request().Context())
	if err != nil {
		h.logger.Error("List habits failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to retrieve habits")
	}

	return c.JSON(http.StatusOK, habits)
}

// CompleteHabit marks the habit done for the current day
func (h *AgendaHandler) CompleteHabit(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.agendaService.CompleteHabit(c.Request().Context(), id); err != nil {
		if errors.Is(err, entities.ErrHabitNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Habit not found")
		}
		h.logger.Error("Complete habit failed", "error", err, "habit_id", id)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to complete habit")
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "Habit completed for today"})
}

func (h *AgendaHandler) DeleteHabit(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.agendaService.DeleteHabit(c.Request().Context(), id); err != nil {
		if errors.Is(err, entities.ErrHabitNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Habit not found")
		}
		h.logger.Error("Delete habit failed", "error", err, "habit_id", id)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete habit")
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "Habit deleted"})
}
