package realtime

import (
	"context"
	"time"

	"ai-collab-be/internal/dto"
	"ai-collab-be/internal/entity"
	"ai-collab-be/internal/pkg/logger"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Session is one authenticated connection bound to one room.
type Session struct {
	ID     uuid.UUID
	User   entity.AuthUser
	RoomID uuid.UUID
	// Project is nil when the room id names no stored project.
	Project *entity.Project
}

func (s *Session) Descriptor() dto.UserDescriptor {
	return dto.UserDescriptor{Id: s.User.Id, Email: s.User.Email}
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	Hub *Hub

	// The websocket connection. Nil for clients that never touch a socket.
	Conn *websocket.Conn

	Session *Session

	// Buffered channel of outbound frames. Closed by Hub.Leave.
	Send chan []byte

	// Prompts waiting for the assistant, answered one at a time.
	prompts chan string
}

func NewClient(hub *Hub, conn *websocket.Conn, session *Session, sendBuffer, promptBuffer int) *Client {
	return &Client{
		Hub:     hub,
		Conn:    conn,
		Session: session,
		Send:    make(chan []byte, sendBuffer),
		prompts: make(chan string, promptBuffer),
	}
}

// QueuePrompt hands a prompt to the client's assistant worker without
// blocking. It reports false when the worker is too far behind.
func (c *Client) QueuePrompt(prompt string) bool {
	select {
	case c.prompts <- prompt:
		return true
	default:
		return false
	}
}

// RunPrompts answers queued prompts in arrival order until the queue is
// closed. Generation runs on its own context so a requester leaving does not
// cancel answers the rest of the room is waiting for.
func (c *Client) RunPrompts(m Mediator, log logger.ILogger) {
	for prompt := range c.prompts {
		if err := m.Mediate(context.Background(), c.Session.RoomID, prompt); err != nil {
			log.Error("Client", "Assistant request failed", map[string]interface{}{
				"room_id":    c.Session.RoomID,
				"session_id": c.Session.ID,
				"error":      err,
			})
		}
	}
}

// closePrompts ends RunPrompts once the remaining prompts are answered.
func (c *Client) closePrompts() {
	close(c.prompts)
}

// readPump pumps frames from the websocket connection to the router.
func (c *Client) readPump(router *Router, maxMessageSize int64, log logger.ILogger) {
	defer func() {
		c.Hub.Leave(c)
		c.closePrompts()
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn("Client", "Unexpected close", map[string]interface{}{
					"session_id": c.Session.ID,
					"error":      err.Error(),
				})
			}
			return
		}
		router.Route(c, data)
	}
}

// writePump pumps frames from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// one frame per message, clients parse each as a JSON document
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
