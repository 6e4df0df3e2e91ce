package realtime

import (
	"encoding/json"
	"testing"

	"ai-collab-be/internal/entity"
	"ai-collab-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestHub() *Hub {
	return NewHub(nil, "", "instance-test", logger.NewNopLogger())
}

func newTestClient(hub *Hub, roomID uuid.UUID, userID, email string) *Client {
	session := &Session{
		ID:     uuid.New(),
		User:   entity.AuthUser{Id: userID, Email: email},
		RoomID: roomID,
	}
	return NewClient(hub, nil, session, 16, 4)
}

func joinedClient(hub *Hub, roomID uuid.UUID, userID string) *Client {
	c := newTestClient(hub, roomID, userID, userID+"@example.com")
	hub.Join(c)
	return c
}

// drain returns everything queued for c without blocking.
func drain(c *Client) [][]byte {
	var frames [][]byte
	for {
		select {
		case f, ok := <-c.Send:
			if !ok {
				return frames
			}
			frames = append(frames, f)
		default:
			return frames
		}
	}
}

type frame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Sender  struct {
		Id    string `json:"id"`
		Email string `json:"email"`
	} `json:"sender"`
	User struct {
		Id    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeFrames(t *testing.T, raw [][]byte) []frame {
	t.Helper()
	out := make([]frame, 0, len(raw))
	for _, r := range raw {
		var f frame
		require.NoError(t, json.Unmarshal(r, &f), string(r))
		out = append(out, f)
	}
	return out
}

func messageFrame(t *testing.T, message string) []byte {
	t.Helper()
	data, err := json.Marshal(map[string]string{"type": "project-message", "message": message})
	require.NoError(t, err)
	return data
}
