package service

import (
	"context"
	"testing"
	"time"

	"ai-collab-be/internal/pkg/apperror"
	"ai-collab-be/internal/repository/unitofwork"
	"ai-collab-be/pkg/filetree"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func TestCredentialService_VerifyToken(t *testing.T) {
	verifier := NewCredentialService(testSecret, nil)
	future := time.Now().Add(time.Hour).Unix()

	t.Run("valid token", func(t *testing.T) {
		user, err := verifier.VerifyToken(signToken(t, jwt.MapClaims{
			"user_id": "u-1",
			"email":   "alice@example.com",
			"exp":     future,
		}))
		require.NoError(t, err)
		assert.Equal(t, "u-1", user.Id)
		assert.Equal(t, "alice@example.com", user.Email)
	})

	t.Run("email only token uses email as id", func(t *testing.T) {
		user, err := verifier.VerifyToken(signToken(t, jwt.MapClaims{"email": "bob@example.com", "exp": future}))
		require.NoError(t, err)
		assert.Equal(t, "bob@example.com", user.Id)
	})

	t.Run("legacy _id claim", func(t *testing.T) {
		user, err := verifier.VerifyToken(signToken(t, jwt.MapClaims{"_id": "abc", "email": "c@example.com"}))
		require.NoError(t, err)
		assert.Equal(t, "abc", user.Id)
	})

	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{"missing", func(t *testing.T) string { return "" }},
		{"garbage", func(t *testing.T) string { return "not-a-jwt" }},
		{"expired", func(t *testing.T) string {
			return signToken(t, jwt.MapClaims{"user_id": "u-1", "exp": time.Now().Add(-time.Minute).Unix()})
		}},
		{"wrong secret", func(t *testing.T) string {
			token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "u-1"}).SignedString([]byte("other"))
			require.NoError(t, err)
			return token
		}},
		{"unsigned", func(t *testing.T) string {
			token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user_id": "u-1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
			require.NoError(t, err)
			return token
		}},
		{"no identity", func(t *testing.T) string { return signToken(t, jwt.MapClaims{"exp": future}) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := verifier.VerifyToken(tt.token(t))
			assert.Nil(t, user)
			assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
		})
	}

	t.Run("unconfigured secret rejects everything", func(t *testing.T) {
		_, err := NewCredentialService("", nil).VerifyToken(signToken(t, jwt.MapClaims{"user_id": "u-1"}))
		assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
	})
}

func TestCredentialService_ResolveProject(t *testing.T) {
	factory := unitofwork.NewRepositoryFactory(setupTestDB(t))
	verifier := NewCredentialService(testSecret, factory)
	ctx := context.Background()

	p := seedProject(t, factory, "alice", filetree.Tree{})

	found, err := verifier.ResolveProject(ctx, p.Id)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, p.Id, found.Id)

	missing, err := verifier.ResolveProject(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}
