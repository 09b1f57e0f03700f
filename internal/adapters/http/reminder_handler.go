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

// ReminderHandler handles reminder-related requests
type ReminderHandler struct {
	reminderService *services.ReminderService
	logger          *logger.Logger
}

// NewReminderHandler creates a new reminder handler
func NewReminderHandler(reminderService *services.ReminderService, logger *logger.Logger) *ReminderHandler {
	return &ReminderHandler{
		reminderService: reminderService,
		logger:          logger,
	}
}

// CreateReminder handles reminder creation
func (h *ReminderHandler) CreateReminder(c echo.Context) error {
	var req ports.CreateReminderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	reminder, err := h.reminderService.CreateReminder(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("Create reminder failed", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusCreated, reminder)
}

// GetReminder handles getting a reminder by ID
func (h *ReminderHandler) GetReminder(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	reminder, err := h.reminderService.GetReminder(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, entities.ErrReminderNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Reminder not found")
		}
		h.logger.Error("Get reminder failed", "error", err, "reminder_id", id)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to retrieve reminder")
	}

	return c.JSON(http.StatusOK, reminder)
}

// ListReminders handles listing reminders with optional filters
func (h *ReminderHandler) ListReminders(c echo.Context) error {
	filter := ports.ReminderFilter{Limit: 50}

	if t := c.QueryParam("type"); t != "" {
		rt := entities.ReminderType(t)
		if !rt.IsValid() {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid type parameter")
		}
		filter.Type = &rt
	}

	if completedStr := c.QueryParam("completed"); completedStr != "" {
		completed, err := strconv.ParseBool(completedStr)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid completed parameter")
		}
		filter.Completed = &completed
	}

	if beforeStr := c.QueryParam("before"); beforeStr != "" {
		before, err := time.Parse(time.RFC3339, beforeStr)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid before parameter")
		}
		filter.Before = &before
	}

	if afterStr := c.QueryParam("after"); afterStr != "" {
		after, err := time.Parse(time.RFC3339, afterStr)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid after parameter")
		}
		filter.After = &after
	}

	if limitStr := c.QueryParam("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid limit parameter")
		}
		filter.Limit = limit
	}

	if offsetStr := c.QueryParam("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid offset parameter")
		}
		filter.Offset = offset
	}

	reminders, err := h.reminderService.ListReminders(c.Request().Context(), filter)
	if err != nil {
		h.logger.Error("List reminders failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to retrieve reminders")
	}

	return c.JSON(http.StatusOK, reminders)
}

// UpdateReminder handles partial reminder updates
func (h *ReminderHandler) UpdateReminder(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req ports.UpdateReminderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	reminder, err := h.reminderService.UpdateReminder(c.Request().Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, entities.ErrReminderNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "Reminder not found")
		case errors.Is(err, entities.ErrScheduleConflict):
			return echo.NewHTTPError(http.StatusBadRequest, "scheduled_time cannot be combined with recurrence fields")
		}
		h.logger.Error("Update reminder failed", "error", err, "reminder_id", id)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, reminder)
}

// CompleteReminder marks a reminder as done
func (h *ReminderHandler) CompleteReminder(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	reminder, err := h.reminderService.CompleteReminder(c.Request().Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, entities.ErrReminderNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "Reminder not found")
		case errors.Is(err, entities.ErrAlreadyCompleted):
			return echo.NewHTTPError(http.StatusConflict, "Reminder is already completed")
		default:
			h.logger.Error("Complete reminder failed", "error", err, "reminder_id", id)
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to complete reminder")
		}
	}

	return c.JSON(http.StatusOK, reminder)
}

// DeleteReminder handles reminder deletion
func (h *ReminderHandler) DeleteReminder(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.reminderService.DeleteReminder(c.Request().Context(), id); err != nil {
		if errors.Is(err, entities.ErrReminderNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Reminder not found")
		}
		h.logger.Error("Delete reminder failed", "error", err, "reminder_id", id)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete reminder")
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "Reminder deleted"})
}
