package main

import (
	"log"

	"ai-collab-be/internal/config"
	"ai-collab-be/internal/model"
	"ai-collab-be/pkg/database"
)

func main() {
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, false)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	// gen_random_uuid for rows inserted outside the app
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		log.Printf("Warn: pgcrypto unavailable: %v. Continuing...", err)
	}

	log.Println("Migrating project tables...")
	if err := db.AutoMigrate(&model.Project{}, &model.ProjectMember{}); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	steps := []struct {
		name string
		sql  string
	}{
		{"projects id default", `ALTER TABLE projects ALTER COLUMN id SET DEFAULT gen_random_uuid();`},
		{"file tree default", `ALTER TABLE projects ALTER COLUMN file_tree SET DEFAULT '{}'::jsonb;`},
		// membership checks always list the owner, including rows created before members existed
		{"owner backfill", `INSERT INTO project_members (project_id, user_id, created_at)
			SELECT id, owner_id, created_at FROM projects
			ON CONFLICT DO NOTHING;`},
	}
	for _, step := range steps {
		if err := db.Exec(step.sql).Error; err != nil {
			log.Printf("Warn: %s failed: %v", step.name, err)
		}
	}

	log.Println("Success: project tables migrated.")
}
