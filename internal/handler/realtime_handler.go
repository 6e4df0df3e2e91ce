package handler

import (
	"ai-collab-be/internal/config"
	"ai-collab-be/internal/pkg/apperror"
	"ai-collab-be/internal/pkg/logger"
	"ai-collab-be/internal/pkg/serverutils"
	"ai-collab-be/internal/realtime"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type RealtimeHandler struct {
	hub      *realtime.Hub
	gate     *realtime.Gate
	router   *realtime.Router
	mediator realtime.Mediator
	opts     realtime.Options
	logger   logger.ILogger
}

func NewRealtimeHandler(
	hub *realtime.Hub,
	gate *realtime.Gate,
	router *realtime.Router,
	mediator realtime.Mediator,
	cfg config.RealtimeConfig,
	log logger.ILogger,
) *RealtimeHandler {
	return &RealtimeHandler{
		hub:      hub,
		gate:     gate,
		router:   router,
		mediator: mediator,
		opts: realtime.Options{
			SendBuffer:     cfg.SendBufferSize,
			PromptBuffer:   cfg.AiQueueSize,
			MaxMessageSize: cfg.MaxMessageSize,
		},
		logger: log,
	}
}

// handshake reads connection parameters before the upgrade hijacks the request.
func handshake(c *fiber.Ctx) realtime.Handshake {
	// Priority 1: Query Param (Browser standard)
	token := c.Query("token")
	if token == "" {
		token = c.Query("auth")
	}
	// Priority 2: Authorization Header (Tooling/Non-browser standard)
	if token == "" {
		token = serverutils.BearerToken(c.Get("Authorization"))
	}
	return realtime.Handshake{
		Token:  token,
		RoomID: c.Query("projectId"),
	}
}

// ServeWs authenticates the handshake and then runs the session. A rejected
// handshake still gets upgraded so the client receives a coded error frame
// before the close.
func (h *RealtimeHandler) ServeWs(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	hs := handshake(c)
	session, err := h.gate.Authenticate(c.UserContext(), hs)
	if err != nil {
		h.logger.Warn("RealtimeHandler", "Handshake rejected", map[string]interface{}{
			"room_id": hs.RoomID,
			"code":    apperror.Code(err),
			"error":   err.Error(),
		})
		return websocket.New(func(conn *websocket.Conn) {
			_ = conn.WriteMessage(websocket.TextMessage, realtime.ErrorFrame(err))
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, apperror.Code(err)))
			conn.Close()
		})(c)
	}

	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("RealtimeHandler", "Starting WebSocket session", map[string]interface{}{
			"room_id":    session.RoomID,
			"session_id": session.ID,
			"user_id":    session.User.Id,
		})
		realtime.Serve(h.hub, h.router, h.mediator, conn, session, h.opts, h.logger)
		h.logger.Info("RealtimeHandler", "WebSocket session ended", map[string]interface{}{
			"room_id":    session.RoomID,
			"session_id": session.ID,
		})
	})(c)
}

func (h *RealtimeHandler) Stats(c *fiber.Ctx) error {
	return c.JSON(serverutils.SuccessResponse("Success get realtime stats", h.hub.Stats()))
}

func (h *RealtimeHandler) RegisterRoutes(router fiber.Router) {
	rt := router.Group("/realtime")
	rt.Get("/stats", h.Stats)
	rt.Get("/ws", h.ServeWs)
}
