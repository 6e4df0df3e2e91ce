package serverutils

import (
	"ai-collab-be/internal/entity"

	"github.com/gofiber/fiber/v2"
)

// CurrentUser reads the identity JwtMiddleware stored on the request.
func CurrentUser(ctx *fiber.Ctx) (*entity.AuthUser, error) {
	id, _ := ctx.Locals("user_id").(string)
	if id == "" {
		return nil, fiber.ErrUnauthorized
	}
	email, _ := ctx.Locals("user_email").(string)
	return &entity.AuthUser{Id: id, Email: email}, nil
}
