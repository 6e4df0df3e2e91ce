package entity

import (
	"time"

	"ai-collab-be/pkg/filetree"

	"github.com/google/uuid"
)

type Project struct {
	Id        uuid.UUID
	Name      string
	OwnerId   string
	MemberIds []string
	FileTree  filetree.Tree
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
	IsDeleted bool
}

// HasMember reports whether userId is the owner or a listed collaborator.
func (p *Project) HasMember(userId string) bool {
	if p.OwnerId == userId {
		return true
	}
	for _, id := range p.MemberIds {
		if id == userId {
			return true
		}
	}
	return false
}
