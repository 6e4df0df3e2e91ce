package dto

import (
	"time"

	"ai-collab-be/pkg/filetree"

	"github.com/google/uuid"
)

type CreateProjectRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

type CreateProjectResponse struct {
	Id uuid.UUID `json:"id"`
}

type ProjectResponse struct {
	Id        uuid.UUID     `json:"id"`
	Name      string        `json:"name"`
	OwnerId   string        `json:"owner_id"`
	Users     []string      `json:"users"`
	FileTree  filetree.Tree `json:"fileTree"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt *time.Time    `json:"updated_at"`
}

type AddCollaboratorsRequest struct {
	ProjectId uuid.UUID `json:"projectId" validate:"required"`
	Users     []string  `json:"users" validate:"required,min=1,dive,required"`
}

type UpdateFileTreeRequest struct {
	ProjectId uuid.UUID     `json:"projectId" validate:"required"`
	FileTree  filetree.Tree `json:"fileTree" validate:"required"`
}

type UpsertFileRequest struct {
	ProjectId uuid.UUID
	Path      string `json:"path" validate:"required"`
	Contents  string `json:"contents"`
}

type FileTreeResponse struct {
	ProjectId uuid.UUID     `json:"projectId"`
	FileTree  filetree.Tree `json:"fileTree"`
}

// PublishGeneratedFileTreeMessage is the in-process job emitted when an AI
// reply carries a file tree for a project.
type PublishGeneratedFileTreeMessage struct {
	ProjectId uuid.UUID     `json:"project_id"`
	FileTree  filetree.Tree `json:"file_tree"`
}
