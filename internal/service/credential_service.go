package service

import (
	"context"
	"errors"
	"fmt"

	"ai-collab-be/internal/entity"
	"ai-collab-be/internal/pkg/apperror"
	"ai-collab-be/internal/repository/specification"
	"ai-collab-be/internal/repository/unitofwork"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ICredentialVerifier checks access tokens issued by the account service and
// resolves room identifiers against the project store.
type ICredentialVerifier interface {
	VerifyToken(token string) (*entity.AuthUser, error)
	// ResolveProject returns (nil, nil) when no project has this id.
	ResolveProject(ctx context.Context, roomID uuid.UUID) (*entity.Project, error)
}

type credentialService struct {
	secret     []byte
	uowFactory unitofwork.RepositoryFactory
}

func NewCredentialService(secret string, uowFactory unitofwork.RepositoryFactory) ICredentialVerifier {
	return &credentialService{
		secret:     []byte(secret),
		uowFactory: uowFactory,
	}
}

func (s *credentialService) VerifyToken(tokenStr string) (*entity.AuthUser, error) {
	if tokenStr == "" {
		return nil, fmt.Errorf("%w: missing token", apperror.ErrUnauthenticated)
	}
	if len(s.secret) == 0 {
		return nil, fmt.Errorf("%w: token secret not configured", apperror.ErrUnauthenticated)
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: token expired", apperror.ErrUnauthenticated)
		}
		return nil, apperror.Wrap(apperror.ErrUnauthenticated, err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("%w: invalid token", apperror.ErrUnauthenticated)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: invalid token claims", apperror.ErrUnauthenticated)
	}

	return userFromClaims(claims)
}

// userFromClaims accepts the claim names used by the account service over
// time. Older tokens only carry an email, which then doubles as the id.
func userFromClaims(claims jwt.MapClaims) (*entity.AuthUser, error) {
	var id string
	for _, key := range []string{"user_id", "_id", "id", "sub"} {
		if v, ok := claims[key].(string); ok && v != "" {
			id = v
			break
		}
	}
	email, _ := claims["email"].(string)

	if id == "" && email == "" {
		return nil, fmt.Errorf("%w: token carries no user identity", apperror.ErrUnauthenticated)
	}
	if id == "" {
		id = email
	}

	return &entity.AuthUser{Id: id, Email: email}, nil
}

func (s *credentialService) ResolveProject(ctx context.Context, roomID uuid.UUID) (*entity.Project, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	project, err := uow.ProjectRepository().FindOne(ctx, specification.ByID{ID: roomID})
	if err != nil {
		return nil, fmt.Errorf("lookup project %s: %w", roomID, err)
	}
	return project, nil
}
