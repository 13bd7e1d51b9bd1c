package handler

import (
	"menu-lens-be/internal/pkg/logger"
	"menu-lens-be/internal/service"
	internalWS "menu-lens-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ProgressWsHandler upgrades clients onto the live progress feed for one
// translation session.
type ProgressWsHandler struct {
	translationService service.ITranslationService
	hub                *internalWS.Hub
	logger             logger.ILogger
}

func NewProgressWsHandler(translationService service.ITranslationService, hub *internalWS.Hub, log logger.ILogger) *ProgressWsHandler {
	return &ProgressWsHandler{
		translationService: translationService,
		hub:                hub,
		logger:             log,
	}
}

// ServeWs handles websocket requests from the peer.
func (h *ProgressWsHandler) ServeWs(c *fiber.Ctx) error {
	sessionIDStr := c.Params("session_id")
	sessionID, err := uuid.Parse(sessionIDStr)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session ID"})
	}

	// Reject sessions that never existed; finished sessions are still
	// watchable, the client just gets the final snapshot over REST.
	if _, err := h.translationService.Progress(c.UserContext(), sessionID.String()); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	}

	// Upgrade via Fiber WebSocket Middleware
	// We handle the upgrade here using the helper which automatically hijacks the connection
	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("ProgressWsHandler", "Starting WebSocket session", map[string]interface{}{"session_id": sessionID})
			internalWS.ServeWs(h.hub, conn, sessionID.String())
			h.logger.Info("ProgressWsHandler", "WebSocket session ended", map[string]interface{}{"session_id": sessionID})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

// RegisterRoutes registers the websocket route.
func (h *ProgressWsHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws/:session_id", h.ServeWs)
}
