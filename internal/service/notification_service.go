package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"menu-lens-be/internal/pkg/logger"
	"menu-lens-be/internal/websocket"
	"menu-lens-be/pkg/events"
	pktNats "menu-lens-be/pkg/nats" // Renamed to avoid collision
)

// sessionNotification is the frame pushed to watchers when a session reaches
// a terminal state.
type sessionNotification struct {
	SessionID string    `json:"session_id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationService listens for terminal session events on the durable
// NATS stream and turns them into user-facing notifications. The durable
// consumer means a restart never loses a "your menu is ready" ping.
type NotificationService struct {
	subscriber *pktNats.Subscriber
	hub        *websocket.Hub
	logger     logger.ILogger
}

func NewNotificationService(sub *pktNats.Subscriber, hub *websocket.Hub, log logger.ILogger) *NotificationService {
	return &NotificationService{
		subscriber: sub,
		hub:        hub,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *NotificationService) Start() {
	// Subscribe to all events with a durable consumer
	err := s.subscriber.Subscribe("events.>", "menu-notif-worker", s.handleEvent)
	if err != nil {
		s.logger.Error("NotificationService", "Failed to start notification subscriber", map[string]interface{}{"error": err})
		return
	}
	s.logger.Info("NotificationService", "Notification service started, listening to events.>", nil)
}

func (s *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	// The NATS subject includes the stream prefix
	typeCode := strings.TrimPrefix(event.EventType(), "events.")

	sessionID, _ := event.Payload()["session_id"].(string)
	if sessionID == "" {
		s.logger.Warn("NotificationService", fmt.Sprintf("Event %s carries no session_id, skipping", typeCode), nil)
		return nil
	}

	var notif sessionNotification
	switch typeCode {
	case "SESSION_COMPLETED":
		notif = sessionNotification{
			SessionID: sessionID,
			Type:      typeCode,
			Title:     "Menu ready",
			Message:   "Your menu has been fully translated.",
			CreatedAt: event.Timestamp(),
		}
	case "SESSION_FAILED":
		reason, _ := event.Payload()["reason"].(string)
		notif = sessionNotification{
			SessionID: sessionID,
			Type:      typeCode,
			Title:     "Translation failed",
			Message:   fmt.Sprintf("We could not finish translating this menu: %s", reason),
			CreatedAt: event.Timestamp(),
		}
	default:
		return nil
	}

	if s.hub != nil {
		s.hub.Send(sessionID, "notification", notif)
	}
	s.logger.Info("NotificationService", "Delivered session notification", map[string]interface{}{
		"session_id": sessionID, "type": typeCode,
	})
	return nil
}
