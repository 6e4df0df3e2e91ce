// FILE: internal/pkg/serverutils/jwt_middleware.go
package serverutils

import (
	"strings"

	"ai-collab-be/internal/entity"

	"github.com/gofiber/fiber/v2"
)

// TokenVerifier resolves a bearer token into the authenticated user.
type TokenVerifier interface {
	VerifyToken(token string) (*entity.AuthUser, error)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header value.
func BearerToken(authHeader string) string {
	if len(authHeader) < 7 || !strings.EqualFold(authHeader[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(authHeader[7:])
}

func JwtMiddleware(verifier TokenVerifier) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		tokenStr := BearerToken(ctx.Get("Authorization"))
		if tokenStr == "" {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Missing token"))
		}

		user, err := verifier.VerifyToken(tokenStr)
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
		}

		ctx.Locals("user_id", user.Id)
		ctx.Locals("user_email", user.Email)
		return ctx.Next()
	}
}
