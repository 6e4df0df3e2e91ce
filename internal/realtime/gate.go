package realtime

import (
	"context"
	"fmt"

	"ai-collab-be/internal/pkg/apperror"
	"ai-collab-be/internal/pkg/logger"
	"ai-collab-be/internal/service"

	"github.com/google/uuid"
)

// Handshake carries the parameters a client presents when it connects.
type Handshake struct {
	Token  string
	RoomID string
}

// Gate decides whether a connection may join a room. It holds no per
// connection state and is safe for concurrent use.
type Gate struct {
	verifier            service.ICredentialVerifier
	requireExistingRoom bool
	logger              logger.ILogger
}

func NewGate(verifier service.ICredentialVerifier, requireExistingRoom bool, log logger.ILogger) *Gate {
	return &Gate{
		verifier:            verifier,
		requireExistingRoom: requireExistingRoom,
		logger:              log,
	}
}

// Authenticate checks the room id first, then the token. The first failed
// check decides the error, so a bad room id is reported even when the token
// is also bad.
func (g *Gate) Authenticate(ctx context.Context, hs Handshake) (*Session, error) {
	roomID, err := uuid.Parse(hs.RoomID)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", apperror.ErrInvalidRoom, hs.RoomID)
	}

	project, err := g.verifier.ResolveProject(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		if g.requireExistingRoom {
			return nil, fmt.Errorf("%w: no project %s", apperror.ErrInvalidRoom, roomID)
		}
		g.logger.Warn("Gate", "Room has no project record", map[string]interface{}{"room_id": roomID})
	}

	if hs.Token == "" {
		return nil, fmt.Errorf("%w: missing token", apperror.ErrUnauthenticated)
	}
	user, err := g.verifier.VerifyToken(hs.Token)
	if err != nil {
		return nil, err
	}

	return &Session{
		ID:      uuid.New(),
		User:    *user,
		RoomID:  roomID,
		Project: project,
	}, nil
}
