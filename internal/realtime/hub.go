package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"ai-collab-be/internal/dto"
	"ai-collab-be/internal/pkg/apperror"
	"ai-collab-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Hub tracks which sessions are in which project room and fans frames out to
// them. All room state sits behind one RWMutex; sends into a client's queue
// happen under the read lock and Leave closes the queue under the write lock,
// so a closed queue is never written to.
type Hub struct {
	// Room id -> live clients in that room.
	rooms map[uuid.UUID]map[*Client]struct{}

	mu sync.RWMutex

	// Redis connection for cross-instance fan-out. Nil runs single instance.
	rdb        *redis.Client
	channel    string
	instanceID string

	logger logger.ILogger
}

// relayEnvelope is what goes over Redis between gateway instances.
type relayEnvelope struct {
	Origin         string          `json:"origin"`
	RoomID         uuid.UUID       `json:"room_id"`
	ExcludeSession string          `json:"exclude_session,omitempty"`
	Message        json.RawMessage `json:"message"`
}

func NewHub(rdb *redis.Client, channel, instanceID string, log logger.ILogger) *Hub {
	return &Hub{
		rooms:      make(map[uuid.UUID]map[*Client]struct{}),
		rdb:        rdb,
		channel:    channel,
		instanceID: instanceID,
		logger:     log,
	}
}

// Run relays frames published by other instances to local members until ctx
// is done. Without Redis it just waits.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb == nil {
		<-ctx.Done()
		return
	}

	pubsub := h.rdb.Subscribe(ctx, h.channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.handleRelay([]byte(msg.Payload))
		}
	}
}

func (h *Hub) handleRelay(data []byte) {
	var env relayEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		h.logger.Warn("Hub", "Relay message parse error", map[string]interface{}{"error": err.Error()})
		return
	}
	if env.Origin == h.instanceID {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.rooms[env.RoomID] {
		if env.ExcludeSession != "" && client.Session.ID.String() == env.ExcludeSession {
			continue
		}
		h.deliver(client, env.Message)
	}
}

// Join adds the client to its room, creating the room on first use, and
// announces it to the members that were already there.
func (h *Hub) Join(client *Client) {
	roomID := client.Session.RoomID
	frame, _ := json.Marshal(dto.MemberJoinedFrame{
		Type: dto.EventMemberJoined,
		User: client.Session.Descriptor(),
	})

	h.mu.Lock()
	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[roomID] = members
	}
	for existing := range members {
		h.deliver(existing, frame)
	}
	members[client] = struct{}{}
	size := len(members)
	h.mu.Unlock()

	h.logger.Info("Hub", "Client joined room", map[string]interface{}{
		"room_id":    roomID,
		"session_id": client.Session.ID,
		"user_id":    client.Session.User.Id,
		"members":    size,
	})
	h.publish(roomID, frame, client.Session.ID.String())
}

// Leave removes the client and closes its outbound queue. Unknown clients
// and rooms are ignored, so calling it twice is harmless.
func (h *Hub) Leave(client *Client) {
	roomID := client.Session.RoomID

	h.mu.Lock()
	members, ok := h.rooms[roomID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := members[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(members, client)
	close(client.Send)
	if len(members) == 0 {
		delete(h.rooms, roomID)
	}
	h.mu.Unlock()

	h.logger.Info("Hub", "Client left room", map[string]interface{}{
		"room_id":    roomID,
		"session_id": client.Session.ID,
	})
}

// Broadcast queues payload for every member of the room except exclude and
// returns how many local members it reached. A member whose queue is full
// misses this frame; the rest still get it.
func (h *Hub) Broadcast(roomID uuid.UUID, payload []byte, exclude *Client) int {
	delivered := h.fanOut(roomID, payload, exclude)

	excludeSession := ""
	if exclude != nil {
		excludeSession = exclude.Session.ID.String()
	}
	h.publish(roomID, payload, excludeSession)
	return delivered
}

// BroadcastAll queues payload for every member of the room.
func (h *Hub) BroadcastAll(roomID uuid.UUID, payload []byte) int {
	return h.Broadcast(roomID, payload, nil)
}

// SendTo queues payload for a single client if it is still in its room.
func (h *Hub) SendTo(client *Client, payload []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, ok := h.rooms[client.Session.RoomID][client]; !ok {
		return false
	}
	return h.deliver(client, payload)
}

func (h *Hub) fanOut(roomID uuid.UUID, payload []byte, exclude *Client) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for client := range h.rooms[roomID] {
		if client == exclude {
			continue
		}
		if h.deliver(client, payload) {
			delivered++
		}
	}
	return delivered
}

// deliver must be called with h.mu held.
func (h *Hub) deliver(client *Client, payload []byte) bool {
	select {
	case client.Send <- payload:
		return true
	default:
		h.logger.Warn("Hub", "Client send buffer full, dropping frame", map[string]interface{}{
			"room_id":    client.Session.RoomID,
			"session_id": client.Session.ID,
			"error":      apperror.ErrDeliveryFailure.Error(),
		})
		return false
	}
}

func (h *Hub) publish(roomID uuid.UUID, payload []byte, excludeSession string) {
	if h.rdb == nil {
		return
	}

	data, err := json.Marshal(relayEnvelope{
		Origin:         h.instanceID,
		RoomID:         roomID,
		ExcludeSession: excludeSession,
		Message:        payload,
	})
	if err != nil {
		return
	}
	if err := h.rdb.Publish(context.Background(), h.channel, data).Err(); err != nil {
		h.logger.Warn("Hub", "Failed to relay frame", map[string]interface{}{
			"room_id": roomID,
			"error":   err.Error(),
		})
	}
}

// Members lists the sessions currently in a room.
func (h *Hub) Members(roomID uuid.UUID) []dto.UserDescriptor {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members := make([]dto.UserDescriptor, 0, len(h.rooms[roomID]))
	for client := range h.rooms[roomID] {
		members = append(members, client.Session.Descriptor())
	}
	return members
}

func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, members := range h.rooms {
		n += len(members)
	}
	return n
}

func (h *Hub) Stats() dto.RealtimeStatsResponse {
	return dto.RealtimeStatsResponse{
		Rooms:   h.RoomCount(),
		Clients: h.ClientCount(),
	}
}
