package realtime

import (
	"ai-collab-be/internal/pkg/logger"

	"github.com/gofiber/websocket/v2"
)

// Options sizes per-connection buffers.
type Options struct {
	SendBuffer     int
	PromptBuffer   int
	MaxMessageSize int64
}

// Serve runs an accepted session until the connection drops. The caller's
// goroutine becomes the reader.
func Serve(hub *Hub, router *Router, mediator Mediator, conn *websocket.Conn, session *Session, opts Options, log logger.ILogger) {
	client := NewClient(hub, conn, session, opts.SendBuffer, opts.PromptBuffer)
	hub.Join(client)

	go client.writePump()
	go client.RunPrompts(mediator, log)
	client.readPump(router, opts.MaxMessageSize, log)
}
