package specification

import (
	"gorm.io/gorm"
)

// AccessibleBy matches projects owned by the user or listing them as a collaborator.
type AccessibleBy struct {
	UserID string
}

func (s AccessibleBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where(
		"owner_id = ? OR EXISTS (SELECT 1 FROM project_members pm WHERE pm.project_id = projects.id AND pm.user_id = ?)",
		s.UserID, s.UserID,
	)
}
