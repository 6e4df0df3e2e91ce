package realtime

import (
	"context"
	"errors"
	"testing"

	"ai-collab-be/internal/entity"
	"ai-collab-be/internal/pkg/apperror"
	"ai-collab-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVerifier struct {
	users      map[string]entity.AuthUser
	projects   map[uuid.UUID]*entity.Project
	resolveErr error
	verified   int
}

func (f *fakeVerifier) VerifyToken(token string) (*entity.AuthUser, error) {
	f.verified++
	user, ok := f.users[token]
	if !ok {
		return nil, apperror.ErrUnauthenticated
	}
	return &user, nil
}

func (f *fakeVerifier) ResolveProject(_ context.Context, roomID uuid.UUID) (*entity.Project, error) {
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	return f.projects[roomID], nil
}

func TestGate_Authenticate(t *testing.T) {
	known := uuid.New()
	verifier := &fakeVerifier{
		users:    map[string]entity.AuthUser{"alice-token": {Id: "alice", Email: "alice@example.com"}},
		projects: map[uuid.UUID]*entity.Project{known: {Id: known, Name: "demo"}},
	}
	gate := NewGate(verifier, false, logger.NewNopLogger())
	ctx := context.Background()

	t.Run("valid handshake", func(t *testing.T) {
		session, err := gate.Authenticate(ctx, Handshake{Token: "alice-token", RoomID: known.String()})
		require.NoError(t, err)
		assert.Equal(t, known, session.RoomID)
		assert.Equal(t, "alice", session.User.Id)
		assert.NotEqual(t, uuid.Nil, session.ID)
		require.NotNil(t, session.Project)
		assert.Equal(t, "demo", session.Project.Name)
	})

	t.Run("malformed room wins over bad token", func(t *testing.T) {
		before := verifier.verified
		_, err := gate.Authenticate(ctx, Handshake{Token: "garbage", RoomID: "p1"})
		assert.ErrorIs(t, err, apperror.ErrInvalidRoom)
		assert.Equal(t, before, verifier.verified, "token is not looked at")
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := gate.Authenticate(ctx, Handshake{RoomID: known.String()})
		assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
	})

	t.Run("invalid token", func(t *testing.T) {
		_, err := gate.Authenticate(ctx, Handshake{Token: "mallory", RoomID: known.String()})
		assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
	})

	t.Run("well formed but absent room is accepted", func(t *testing.T) {
		session, err := gate.Authenticate(ctx, Handshake{Token: "alice-token", RoomID: uuid.NewString()})
		require.NoError(t, err)
		assert.Nil(t, session.Project)
	})

	t.Run("absent room rejected when existence is required", func(t *testing.T) {
		strict := NewGate(verifier, true, logger.NewNopLogger())
		_, err := strict.Authenticate(ctx, Handshake{Token: "alice-token", RoomID: uuid.NewString()})
		assert.ErrorIs(t, err, apperror.ErrInvalidRoom)
	})

	t.Run("store errors reject the connection", func(t *testing.T) {
		broken := NewGate(&fakeVerifier{resolveErr: errors.New("db down")}, false, logger.NewNopLogger())
		_, err := broken.Authenticate(ctx, Handshake{Token: "alice-token", RoomID: known.String()})
		assert.EqualError(t, err, "db down")
	})
}
