package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/dailybuddy/core/internal/application/services"
	"github.com/dailybuddy/core/internal/domain/entities"
	"github.com/dailybuddy/core/internal/infrastructure/logger"
	"github.com/dailybuddy/core/internal/ports"
)

// PomodoroHandler handles focus timer requests
type PomodoroHandler struct {
	pomodoroService *services.PomodoroService
	logger          *logger.Logger
}

// NewPomodoroHandler creates a new pomodoro handler
func NewPomodoroHandler(pomodoroService *services.PomodoroService, logger *logger.Logger) *PomodoroHandler {
	return &PomodoroHandler{
		pomodoroService: pomodoroService,
		logger:          logger,
	}
}

// Start begins a new timer run
func (h *PomodoroHandler) Start(c echo.Context) error {
	var req ports.StartPomodoroRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	state, err := h.pomodoroService.Start(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, entities.ErrTimerAlreadyActive) {
			return echo.NewHTTPError(http.StatusConflict, "A timer is already running")
		}
		h.logger.Error("Start timer failed", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusCreated, state)
}

// Status returns the current timer state with remaining time derived
// from the wall clock
func (h *PomodoroHandler) Status(c echo.Context) error {
	state, err := h.pomodoroService.Status(c.Request().Context())
	if err != nil {
		if errors.Is(err, entities.ErrTimerNotRunning) {
			return echo.NewHTTPError(http.StatusNotFound, "No timer is running")
		}
		h.logger.Error("Timer status failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to read timer state")
	}

	return c.JSON(http.StatusOK, state)
}

// Stop pauses and discards the running timer
func (h *PomodoroHandler) Stop(c echo.Context) error {
	if err := h.pomodoroService.Stop(c.Request().Context()); err != nil {
		if errors.Is(err, entities.ErrTimerNotRunning) {
			return echo.NewHTTPError(http.StatusConflict, "No timer is running")
		}
		h.logger.Error("Stop timer failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to stop timer")
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "Timer stopped"})
}

// Reset clears the timer state. Resetting an idle timer is a no-op.
func (h *PomodoroHandler) Reset(c echo.Context) error {
	if err := h.pomodoroService.Reset(c.Request().Context()); err != nil {
		h.logger.Error("Reset timer failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to reset timer")
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "Timer reset"})
}

// ListSessions returns recent completed sessions, newest first
func (h *PomodoroHandler) ListSessions(c echo.Context) error {
	limit := 0
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid limit parameter")
		}
		limit = parsed
	}

	sessions, err := h.pomodoroService.ListSessions(c.Request().Context(), limit)
	if err != nil {
		h.logger.Error("List sessions failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to retrieve sessions")
	}

	return c.JSON(http.StatusOK, sessions)
}
