package handler

import (
	"strings"

	"research-assistant-be/internal/pkg/logger"
	"research-assistant-be/internal/pkg/serverutils"
	internalWS "research-assistant-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// ReviewStreamHandler upgrades authenticated clients onto the review notification hub.
// Researchers receive decisions on their own approvals; reviewers also see the queue.
type ReviewStreamHandler struct {
	hub    *internalWS.Hub
	logger logger.ILogger
}

func NewReviewStreamHandler(hub *internalWS.Hub, log logger.ILogger) *ReviewStreamHandler {
	return &ReviewStreamHandler{hub: hub, logger: log}
}

func (h *ReviewStreamHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/ws/reviews", h.ServeWs)
}

// ServeWs authenticates the handshake and hands the connection to the hub.
func (h *ReviewStreamHandler) ServeWs(c *fiber.Ctx) error {
	// Browsers cannot set headers on the handshake, so the query param comes first.
	tokenStr := c.Query("token")
	if tokenStr == "" {
		if auth := c.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			tokenStr = auth[7:]
		}
	}
	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Missing token (query 'token' or header 'Authorization')"))
	}

	userID, role, err := serverutils.ParseToken(tokenStr)
	if err != nil {
		h.logger.Warn("ReviewStream", "Invalid token in websocket handshake", map[string]interface{}{"error": err.Error()})
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("ReviewStream", "Websocket session started", map[string]interface{}{"user_id": userID, "role": role})
		internalWS.ServeWs(h.hub, conn, userID, role)
		h.logger.Info("ReviewStream", "Websocket session ended", map[string]interface{}{"user_id": userID})
	})(c)
}
