package mapper

import (
	"fmt"
	"time"

	"ai-collab-be/internal/entity"
	"ai-collab-be/internal/model"
	"ai-collab-be/pkg/filetree"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ProjectMapper struct{}

func NewProjectMapper() *ProjectMapper {
	return &ProjectMapper{}
}

func (m *ProjectMapper) ToEntity(p *model.Project) (*entity.Project, error) {
	if p == nil {
		return nil, nil
	}

	tree, err := filetree.Parse(p.FileTree)
	if err != nil {
		return nil, fmt.Errorf("decode file tree of project %s: %w", p.Id, err)
	}

	var deletedAt *time.Time
	if p.DeletedAt.Valid {
		t := p.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !p.UpdatedAt.IsZero() {
		t := p.UpdatedAt
		updatedAt = &t
	}

	memberIds := make([]string, 0, len(p.Members))
	for _, member := range p.Members {
		memberIds = append(memberIds, member.UserId)
	}

	return &entity.Project{
		Id:        p.Id,
		Name:      p.Name,
		OwnerId:   p.OwnerId,
		MemberIds: memberIds,
		FileTree:  tree,
		CreatedAt: p.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
		IsDeleted: p.DeletedAt.Valid,
	}, nil
}

func (m *ProjectMapper) ToModel(p *entity.Project) (*model.Project, error) {
	if p == nil {
		return nil, nil
	}

	tree, err := p.FileTree.Marshal()
	if err != nil {
		return nil, fmt.Errorf("encode file tree of project %s: %w", p.Id, err)
	}

	var deletedAt gorm.DeletedAt
	if p.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *p.DeletedAt, Valid: true}
	} else if p.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if p.UpdatedAt != nil {
		updatedAt = *p.UpdatedAt
	}

	members := make([]model.ProjectMember, 0, len(p.MemberIds))
	for _, userId := range p.MemberIds {
		members = append(members, model.ProjectMember{ProjectId: p.Id, UserId: userId})
	}

	return &model.Project{
		Id:        p.Id,
		Name:      p.Name,
		OwnerId:   p.OwnerId,
		FileTree:  datatypes.JSON(tree),
		Members:   members,
		CreatedAt: p.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
	}, nil
}

func (m *ProjectMapper) ToEntities(projects []*model.Project) ([]*entity.Project, error) {
	entities := make([]*entity.Project, len(projects))
	for i, p := range projects {
		e, err := m.ToEntity(p)
		if err != nil {
			return nil, err
		}
		entities[i] = e
	}
	return entities, nil
}
