package realtime

import (
	"encoding/json"
	"fmt"

	"ai-collab-be/internal/dto"
	"ai-collab-be/internal/pkg/apperror"
	"ai-collab-be/internal/pkg/logger"
	"ai-collab-be/pkg/ai"
)

// Router handles frames read from one session. It is called from the
// session's reader goroutine, one frame at a time.
type Router struct {
	hub    *Hub
	marker string
	// preserveClientFields keeps unknown envelope fields from the client.
	// type and sender are always set here.
	preserveClientFields bool
	logger               logger.ILogger
}

func NewRouter(hub *Hub, marker string, preserveClientFields bool, log logger.ILogger) *Router {
	if marker == "" {
		marker = ai.DefaultMarker
	}
	return &Router{
		hub:                  hub,
		marker:               marker,
		preserveClientFields: preserveClientFields,
		logger:               log,
	}
}

func (r *Router) Route(c *Client, data []byte) {
	var frame dto.InboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		r.reject(c, apperror.Wrap(apperror.ErrBadFrame, err))
		return
	}

	switch frame.Type {
	case dto.EventProjectMessage:
		r.projectMessage(c, frame, data)
	default:
		r.reject(c, fmt.Errorf("%w: %q", apperror.ErrUnsupportedEvent, frame.Type))
	}
}

func (r *Router) projectMessage(c *Client, frame dto.InboundFrame, raw []byte) {
	payload, err := r.envelope(c, frame, raw)
	if err != nil {
		r.reject(c, apperror.Wrap(apperror.ErrBadFrame, err))
		return
	}

	delivered := r.hub.Broadcast(c.Session.RoomID, payload, c)
	r.logger.Debug("Router", "Message fanned out", map[string]interface{}{
		"room_id":    c.Session.RoomID,
		"session_id": c.Session.ID,
		"recipients": delivered,
	})

	mention := ai.DetectMention(frame.Message, r.marker)
	if !mention.Addressed {
		return
	}
	if !c.QueuePrompt(mention.Prompt) {
		r.logger.Warn("Router", "Assistant queue full, prompt dropped", map[string]interface{}{
			"room_id":    c.Session.RoomID,
			"session_id": c.Session.ID,
		})
		r.reject(c, fmt.Errorf("%w: too many pending requests", apperror.ErrGenerationFailure))
	}
}

// envelope builds the frame other members receive. The sender is always the
// authenticated session, whatever the client claimed.
func (r *Router) envelope(c *Client, frame dto.InboundFrame, raw []byte) ([]byte, error) {
	sender := c.Session.Descriptor()
	if !r.preserveClientFields {
		return json.Marshal(dto.ProjectMessageFrame{
			Type:    dto.EventProjectMessage,
			Message: frame.Message,
			Sender:  sender,
		})
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	for key, value := range map[string]interface{}{
		"type":    dto.EventProjectMessage,
		"message": frame.Message,
		"sender":  sender,
	} {
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		fields[key] = encoded
	}
	return json.Marshal(fields)
}

func (r *Router) reject(c *Client, err error) {
	r.logger.Warn("Router", "Frame rejected", map[string]interface{}{
		"session_id": c.Session.ID,
		"error":      err.Error(),
	})
	r.hub.SendTo(c, ErrorFrame(err))
}

// ErrorFrame encodes err as an error frame for the client.
func ErrorFrame(err error) []byte {
	data, _ := json.Marshal(dto.ErrorFrame{
		Type: dto.EventError,
		Error: dto.ErrorBody{
			Code:    apperror.Code(err),
			Message: err.Error(),
		},
	})
	return data
}
