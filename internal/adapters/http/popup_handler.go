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

// PopupHandler handles the in-app popup stack
type PopupHandler struct {
	popupService *services.PopupService
	logger       *logger.Logger
}

// NewPopupHandler creates a new popup handler
func NewPopupHandler(popupService *services.PopupService, logger *logger.Logger) *PopupHandler {
	return &PopupHandler{
		popupService: popupService,
		logger:       logger,
	}
}

// ShowPopup pushes a popup onto the visible stack
func (h *PopupHandler) ShowPopup(c echo.Context) error {
	var req ports.ShowPopupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	shown := h.popupService.Show(services.FromRequest(req))
	if shown == nil {
		// Suppressed: snoozed type, or the stack is full of
		// higher-priority popups.
		return c.JSON(http.StatusAccepted, MessageResponse{Message: "Popup suppressed"})
	}

	return c.JSON(http.StatusCreated, shown)
}

// ListPopups returns the visible stack, highest priority first
func (h *PopupHandler) ListPopups(c echo.Context) error {
	return c.JSON(http.StatusOK, h.popupService.List())
}

// DismissPopup removes a popup from the stack
func (h *PopupHandler) DismissPopup(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.popupService.Dismiss(id); err != nil {
		if errors.Is(err, entities.ErrPopupNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Popup not found")
		}
		h.logger.Error("Dismiss popup failed", "error", err, "popup_id", id)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to dismiss popup")
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "Popup dismissed"})
}

// SnoozePopup dismisses a popup and mutes its type for a short window
func (h *PopupHandler) SnoozePopup(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.popupService.Snooze(id); err != nil {
		if errors.Is(err, entities.ErrPopupNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Popup not found")
		}
		h.logger.Error("Snooze popup failed", "error", err, "popup_id", id)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to snooze popup")
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "Popup snoozed"})
}

// ActOnPopup triggers one of the popup's action buttons by index
func (h *PopupHandler) ActOnPopup(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid action index")
	}

	if err := h.popupService.Act(id, index); err != nil {
		if errors.Is(err, entities.ErrPopupNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Popup not found")
		}
		h.logger.Error("Popup action failed", "error", err, "popup_id", id, "index", index)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "Action triggered"})
}
