package scope

import "gorm.io/gorm"

func OrderByCreatedDesc(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC")
}

// WithMembers loads the collaborator rows of a project.
func WithMembers(db *gorm.DB) *gorm.DB {
	return db.Preload("Members")
}
