package implementation

import (
	"context"
	"errors"

	"ai-collab-be/internal/entity"
	"ai-collab-be/internal/mapper"
	"ai-collab-be/internal/model"
	"ai-collab-be/internal/pkg/apperror"
	"ai-collab-be/internal/repository/contract"
	"ai-collab-be/internal/repository/scope"
	"ai-collab-be/internal/repository/specification"
	"ai-collab-be/pkg/filetree"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProjectRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ProjectMapper
}

func NewProjectRepository(db *gorm.DB) contract.ProjectRepository {
	return &ProjectRepositoryImpl{
		db:     db,
		mapper: mapper.NewProjectMapper(),
	}
}

func (r *ProjectRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ProjectRepositoryImpl) Create(ctx context.Context, project *entity.Project) error {
	m, err := r.mapper.ToModel(project)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	created, err := r.mapper.ToEntity(m)
	if err != nil {
		return err
	}
	*project = *created
	return nil
}

func (r *ProjectRepositoryImpl) UpdateFileTree(ctx context.Context, id uuid.UUID, tree filetree.Tree) error {
	data, err := tree.Marshal()
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).
		Model(&model.Project{}).
		Where("id = ?", id).
		Update("file_tree", datatypes.JSON(data))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperror.ErrNotFound
	}
	return nil
}

func (r *ProjectRepositoryImpl) AddMembers(ctx context.Context, id uuid.UUID, userIds []string) error {
	if len(userIds) == 0 {
		return nil
	}

	members := make([]model.ProjectMember, 0, len(userIds))
	for _, userId := range userIds {
		members = append(members, model.ProjectMember{ProjectId: id, UserId: userId})
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&members).Error
}

func (r *ProjectRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Project, error) {
	var m model.Project
	query := r.applySpecifications(r.db.WithContext(ctx).Scopes(scope.WithMembers), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m)
}

func (r *ProjectRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Project, error) {
	var models []*model.Project
	// newest first unless a specification orders otherwise
	query := r.applySpecifications(r.db.WithContext(ctx).Scopes(scope.WithMembers), specs...)
	if err := query.Scopes(scope.OrderByCreatedDesc).Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models)
}

func (r *ProjectRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Project{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
