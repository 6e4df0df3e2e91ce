package contract

import (
	"context"

	"ai-collab-be/internal/entity"
	"ai-collab-be/internal/repository/specification"
	"ai-collab-be/pkg/filetree"

	"github.com/google/uuid"
)

type ProjectRepository interface {
	Create(ctx context.Context, project *entity.Project) error
	// UpdateFileTree overwrites the stored tree in a single statement.
	UpdateFileTree(ctx context.Context, id uuid.UUID, tree filetree.Tree) error
	AddMembers(ctx context.Context, id uuid.UUID, userIds []string) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Project, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Project, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
