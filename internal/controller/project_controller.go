package controller

import (
	"ai-collab-be/internal/dto"
	"ai-collab-be/internal/pkg/apperror"
	"ai-collab-be/internal/pkg/serverutils"
	"ai-collab-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IProjectController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	GetAll(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	AddCollaborators(ctx *fiber.Ctx) error
	UpdateFileTree(ctx *fiber.Ctx) error
	UpsertFile(ctx *fiber.Ctx) error
}

type projectController struct {
	service  service.IProjectService
	verifier serverutils.TokenVerifier
}

func NewProjectController(service service.IProjectService, verifier serverutils.TokenVerifier) IProjectController {
	return &projectController{service: service, verifier: verifier}
}

func (c *projectController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/projects/v1")
	h.Use(serverutils.JwtMiddleware(c.verifier))
	h.Get("", c.GetAll)
	h.Post("", c.Create)
	h.Put("update-file-tree", c.UpdateFileTree)
	h.Put("add-user", c.AddCollaborators)
	h.Get(":id", c.Show)
	h.Patch(":id/files", c.UpsertFile)
}

func (c *projectController) Create(ctx *fiber.Ctx) error {
	user, err := serverutils.CurrentUser(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateProjectRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Wrap(apperror.ErrBadRequest, err)
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Create(ctx.UserContext(), user, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success create project", res))
}

func (c *projectController) GetAll(ctx *fiber.Ctx) error {
	user, err := serverutils.CurrentUser(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.GetAll(ctx.UserContext(), user)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get all project", res))
}

func (c *projectController) Show(ctx *fiber.Ctx) error {
	user, err := serverutils.CurrentUser(ctx)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return apperror.Wrap(apperror.ErrBadRequest, err)
	}

	res, err := c.service.Show(ctx.UserContext(), user, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show project", res))
}

func (c *projectController) AddCollaborators(ctx *fiber.Ctx) error {
	user, err := serverutils.CurrentUser(ctx)
	if err != nil {
		return err
	}

	var req dto.AddCollaboratorsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Wrap(apperror.ErrBadRequest, err)
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.AddCollaborators(ctx.UserContext(), user, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success add collaborators", res))
}

func (c *projectController) UpdateFileTree(ctx *fiber.Ctx) error {
	user, err := serverutils.CurrentUser(ctx)
	if err != nil {
		return err
	}

	var req dto.UpdateFileTreeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Wrap(apperror.ErrBadRequest, err)
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.UpdateFileTree(ctx.UserContext(), user, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update file tree", res))
}

func (c *projectController) UpsertFile(ctx *fiber.Ctx) error {
	user, err := serverutils.CurrentUser(ctx)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return apperror.Wrap(apperror.ErrBadRequest, err)
	}

	var req dto.UpsertFileRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Wrap(apperror.ErrBadRequest, err)
	}
	req.ProjectId = id
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.UpsertFile(ctx.UserContext(), user, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update file", res))
}
