package service

import (
	"context"
	"fmt"
	"time"

	"ai-collab-be/internal/dto"
	"ai-collab-be/internal/entity"
	"ai-collab-be/internal/pkg/apperror"
	"ai-collab-be/internal/pkg/logger"
	"ai-collab-be/internal/repository/specification"
	"ai-collab-be/internal/repository/unitofwork"
	"ai-collab-be/pkg/events"
	"ai-collab-be/pkg/filetree"

	"github.com/google/uuid"
)

type IProjectService interface {
	Create(ctx context.Context, user *entity.AuthUser, req *dto.CreateProjectRequest) (*dto.CreateProjectResponse, error)
	GetAll(ctx context.Context, user *entity.AuthUser) ([]*dto.ProjectResponse, error)
	Show(ctx context.Context, user *entity.AuthUser, id uuid.UUID) (*dto.ProjectResponse, error)
	AddCollaborators(ctx context.Context, user *entity.AuthUser, req *dto.AddCollaboratorsRequest) (*dto.ProjectResponse, error)
	UpdateFileTree(ctx context.Context, user *entity.AuthUser, req *dto.UpdateFileTreeRequest) (*dto.FileTreeResponse, error)
	UpsertFile(ctx context.Context, user *entity.AuthUser, req *dto.UpsertFileRequest) (*dto.FileTreeResponse, error)
}

type projectService struct {
	uowFactory unitofwork.RepositoryFactory
	fileTrees  IFileTreeService
	events     IEventPublisher
	logger     logger.ILogger
}

func NewProjectService(
	uowFactory unitofwork.RepositoryFactory,
	fileTrees IFileTreeService,
	events IEventPublisher,
	log logger.ILogger,
) IProjectService {
	return &projectService{
		uowFactory: uowFactory,
		fileTrees:  fileTrees,
		events:     events,
		logger:     log,
	}
}

func (s *projectService) Create(ctx context.Context, user *entity.AuthUser, req *dto.CreateProjectRequest) (*dto.CreateProjectResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	project := entity.Project{
		Id:        uuid.New(),
		Name:      req.Name,
		OwnerId:   user.Id,
		FileTree:  filetree.Tree{},
		CreatedAt: time.Now(),
	}
	if err := uow.ProjectRepository().Create(ctx, &project); err != nil {
		return nil, err
	}
	// owner is listed as a member so membership queries need no special case
	if err := uow.ProjectRepository().AddMembers(ctx, project.Id, []string{user.Id}); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("Project", "Project created", map[string]interface{}{
		"project_id": project.Id,
		"owner_id":   user.Id,
	})

	return &dto.CreateProjectResponse{
		Id: project.Id,
	}, nil
}

func (s *projectService) GetAll(ctx context.Context, user *entity.AuthUser) ([]*dto.ProjectResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	projects, err := uow.ProjectRepository().FindAll(ctx, specification.AccessibleBy{UserID: user.Id})
	if err != nil {
		return nil, err
	}

	result := make([]*dto.ProjectResponse, 0, len(projects))
	for _, project := range projects {
		result = append(result, toProjectResponse(project, project.FileTree))
	}
	return result, nil
}

func (s *projectService) Show(ctx context.Context, user *entity.AuthUser, id uuid.UUID) (*dto.ProjectResponse, error) {
	project, err := s.findAccessible(ctx, user, id)
	if err != nil {
		return nil, err
	}

	// the live tree may be ahead of the stored one
	tree, err := s.fileTrees.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	return toProjectResponse(project, tree), nil
}

func (s *projectService) AddCollaborators(ctx context.Context, user *entity.AuthUser, req *dto.AddCollaboratorsRequest) (*dto.ProjectResponse, error) {
	if _, err := s.findAccessible(ctx, user, req.ProjectId); err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ProjectRepository().AddMembers(ctx, req.ProjectId, req.Users); err != nil {
		return nil, err
	}

	project, err := uow.ProjectRepository().FindOne(ctx, specification.ByID{ID: req.ProjectId})
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, fmt.Errorf("project %s: %w", req.ProjectId, apperror.ErrNotFound)
	}

	if s.events != nil {
		evt := events.New(events.ProjectMembersAdded, map[string]interface{}{
			"project_id": req.ProjectId.String(),
			"added_by":   user.Id,
			"users":      req.Users,
		})
		if err := s.events.Publish(ctx, evt); err != nil {
			s.logger.Warn("Project", "Failed to publish members event", map[string]interface{}{
				"project_id": req.ProjectId,
				"error":      err.Error(),
			})
		}
	}

	return toProjectResponse(project, project.FileTree), nil
}

func (s *projectService) UpdateFileTree(ctx context.Context, user *entity.AuthUser, req *dto.UpdateFileTreeRequest) (*dto.FileTreeResponse, error) {
	if _, err := s.findAccessible(ctx, user, req.ProjectId); err != nil {
		return nil, err
	}

	tree, err := s.fileTrees.Replace(ctx, req.ProjectId, req.FileTree)
	if err != nil {
		return nil, err
	}

	return &dto.FileTreeResponse{ProjectId: req.ProjectId, FileTree: tree}, nil
}

func (s *projectService) UpsertFile(ctx context.Context, user *entity.AuthUser, req *dto.UpsertFileRequest) (*dto.FileTreeResponse, error) {
	if _, err := s.findAccessible(ctx, user, req.ProjectId); err != nil {
		return nil, err
	}

	tree, err := s.fileTrees.UpsertFile(ctx, req.ProjectId, req.Path, req.Contents)
	if err != nil {
		return nil, err
	}

	return &dto.FileTreeResponse{ProjectId: req.ProjectId, FileTree: tree}, nil
}

// findAccessible hides projects the user is not part of behind ErrNotFound.
func (s *projectService) findAccessible(ctx context.Context, user *entity.AuthUser, id uuid.UUID) (*entity.Project, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	project, err := uow.ProjectRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if project == nil || !project.HasMember(user.Id) {
		return nil, fmt.Errorf("project %s: %w", id, apperror.ErrNotFound)
	}
	return project, nil
}

func toProjectResponse(project *entity.Project, tree filetree.Tree) *dto.ProjectResponse {
	if tree == nil {
		tree = filetree.Tree{}
	}
	users := project.MemberIds
	if users == nil {
		users = []string{}
	}
	return &dto.ProjectResponse{
		Id:        project.Id,
		Name:      project.Name,
		OwnerId:   project.OwnerId,
		Users:     users,
		FileTree:  tree,
		CreatedAt: project.CreatedAt,
		UpdatedAt: project.UpdatedAt,
	}
}
