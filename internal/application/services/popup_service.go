package services

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dailybuddy/core/internal/domain/entities"
	"github.com/dailybuddy/core/internal/events"
	"github.com/dailybuddy/core/internal/infrastructure/logger"
	"github.com/dailybuddy/core/internal/ports"
)

const (
	// maxVisiblePopups caps concurrently visible popups so a burst of
	// nudges cannot cover the whole screen.
	maxVisiblePopups = 3

	// snoozeWindow suppresses a popup type after the user snoozes it.
	snoozeWindow = 10 * time.Minute
)

// PopupService is the popup/toast presenter. Popups are held purely in
// memory and are lost on restart; snooze state likewise.
type PopupService struct {
	mu      sync.Mutex
	visible []*entities.Popup
	timers  map[uuid.UUID]*time.Timer
	snoozed map[string]time.Time
	bus     *events.Bus
	logger  *logger.Logger
	now     func() time.Time
}

// NewPopupService creates the presenter and subscribes it to the
// show-popup topic so any component can raise a popup through the bus.
func NewPopupService(bus *events.Bus, appLogger *logger.Logger) *PopupService {
	s := &PopupService{
		timers:  make(map[uuid.UUID]*time.Timer),
		snoozed: make(map[string]time.Time),
		bus:     bus,
		logger:  appLogger.WithComponent("popups"),
		now:     time.Now,
	}

	bus.Subscribe(events.TopicShowPopup, func(ev events.Event) {
		popup, ok := ev.Payload.(entities.Popup)
		if !ok {
			return
		}
		s.Show(popup)
	})

	return s
}

// Show presents a popup, subject to the snooze window, the one-per-type
// rule, and the visibility cap. It returns the stored popup, or nil when
// the popup was suppressed or lost the eviction comparison.
func (s *PopupService) Show(popup entities.Popup) *entities.Popup {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	if until, ok := s.snoozed[popup.Type]; ok {
		if now.Before(until) {
			s.logger.Debugw("Popup suppressed by snooze", "type", popup.Type)
			return nil
		}
		delete(s.snoozed, popup.Type)
	}

	if !popup.Priority.IsValid() {
		popup.Priority = entities.PriorityMedium
	}
	popup.ID = uuid.New()
	popup.CreatedAt = now

	// At most one popup per type: a newer popup of the same type replaces
	// the older one regardless of the cap.
	for _, existing := range s.visible {
		if existing.Type == popup.Type {
			s.removeLocked(existing.ID)
			break
		}
	}

	if len(s.visible) >= maxVisiblePopups {
		victim := s.evictionCandidateLocked()
		if victim == nil || victim.Priority.Rank() >= popup.Priority.Rank() {
			// The newcomer does not outrank anything visible; drop it.
			s.logger.Debugw("Popup dropped, presenter full", "type", popup.Type, "priority", popup.Priority)
			return nil
		}
		s.removeLocked(victim.ID)
	}

	s.visible = append(s.visible, &popup)

	if popup.Duration > 0 {
		id := popup.ID
		s.timers[id] = time.AfterFunc(popup.Duration, func() {
			s.Dismiss(id)
		})
	}

	return &popup
}

// evictionCandidateLocked picks the lowest-priority, oldest visible popup.
func (s *PopupService) evictionCandidateLocked() *entities.Popup {
	var victim *entities.Popup
	for _, p := range s.visible {
		if victim == nil ||
			p.Priority.Rank() < victim.Priority.Rank() ||
			(p.Priority.Rank() == victim.Priority.Rank() && p.CreatedAt.Before(victim.CreatedAt)) {
			victim = p
		}
	}
	return victim
}

// List returns the visible popups, highest priority first, FIFO within the
// same priority.
func (s *PopupService) List() []*entities.Popup {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*entities.Popup, len(s.visible))
	copy(out, s.visible)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority.Rank() != out[j].Priority.Rank() {
			return out[i].Priority.Rank() > out[j].Priority.Rank()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Dismiss removes a popup explicitly or on timer expiry.
func (s *PopupService) Dismiss(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.removeLocked(id) {
		return entities.ErrPopupNotFound
	}
	return nil
}

// Snooze dismisses the popup and suppresses its type for the snooze
// window.
func (s *PopupService) Snooze(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	popup := s.findLocked(id)
	if popup == nil {
		return entities.ErrPopupNotFound
	}

	s.snoozed[popup.Type] = s.now().Add(snoozeWindow)
	s.removeLocked(id)
	return nil
}

// Act runs the popup action at the given index. Executing an action always
// dismisses the popup afterward; if the action names a bus event it is
// published after dismissal.
func (s *PopupService) Act(id uuid.UUID, index int) error {
	s.mu.Lock()
	popup := s.findLocked(id)
	if popup == nil {
		s.mu.Unlock()
		return entities.ErrPopupNotFound
	}
	if index < 0 || index >= len(popup.Actions) {
		s.mu.Unlock()
		return entities.ErrPopupNotFound
	}
	action := popup.Actions[index]
	s.removeLocked(id)
	s.mu.Unlock()

	if action.Event != "" {
		s.bus.Publish(action.Event, popup)
	}
	return nil
}

func (s *PopupService) findLocked(id uuid.UUID) *entities.Popup {
	for _, p := range s.visible {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *PopupService) removeLocked(id uuid.UUID) bool {
	for i, p := range s.visible {
		if p.ID == id {
			s.visible = append(s.visible[:i], s.visible[i+1:]...)
			if t, ok := s.timers[id]; ok {
				t.Stop()
				delete(s.timers, id)
			}
			return true
		}
	}
	return false
}

// FromRequest converts an API request into a popup.
func FromRequest(req ports.ShowPopupRequest) entities.Popup {
	return entities.Popup{
		Type:     req.Type,
		Title:    req.Title,
		Message:  req.Message,
		Duration: time.Duration(req.DurationMS) * time.Millisecond,
		Priority: req.Priority,
		Actions:  req.Actions,
	}
}
