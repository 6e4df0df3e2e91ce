package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Project struct {
	Id        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Name      string          `gorm:"type:varchar(255);not null"`
	OwnerId   string          `gorm:"type:varchar(64);not null;index"`
	FileTree  datatypes.JSON  `gorm:"not null"`
	Members   []ProjectMember `gorm:"foreignKey:ProjectId;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time       `gorm:"autoCreateTime"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt  `gorm:"index"`
}

func (Project) TableName() string {
	return "projects"
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.Id == uuid.Nil {
		p.Id = uuid.New()
	}
	if len(p.FileTree) == 0 {
		p.FileTree = datatypes.JSON("{}")
	}
	return nil
}

type ProjectMember struct {
	ProjectId uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId    string    `gorm:"type:varchar(64);primaryKey;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (ProjectMember) TableName() string {
	return "project_members"
}
