package main

import (
	"log"
	"os"

	"research-assistant-be/internal/model"
	"research-assistant-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}
	driver := os.Getenv("DB_DRIVER")
	if driver == "" {
		driver = database.DriverPostgres
	}

	// 2. Connect using the shared GORM helpers
	db, err := database.Open(driver, dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Step 1: Running AutoMigrate for research store tables...")
	if err := db.AutoMigrate(model.All()...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 3. Post-migration views (Postgres only)
	if driver != database.DriverPostgres {
		log.Println("Success: Database migration completed (views skipped for " + driver + ")")
		return
	}

	log.Println("Step 2: Creating views...")
	postMigrationSQL := []string{
		// View: review_queue, pending approvals in reviewer order
		`CREATE OR REPLACE VIEW review_queue AS
		 SELECT a.id AS approval_id, a.session_id, a.researcher_id, a.content_type, a.priority,
		        a.confidence, a.escalated, a.created_at, s.project_id, s.disease_focus
		 FROM approval_requests a
		 JOIN research_sessions s ON s.id = a.session_id
		 WHERE a.status = 'pending'
		 ORDER BY CASE a.priority WHEN 'urgent' THEN 0 WHEN 'high' THEN 1 WHEN 'medium' THEN 2 ELSE 3 END, a.created_at;`,

		// View: project_activity, stored findings per project
		`CREATE OR REPLACE VIEW project_activity AS
		 SELECT p.project_id, p.researcher_id, p.disease_focus, p.query_count, p.last_updated,
		        (SELECT COUNT(*) FROM literature_summaries l WHERE l.project_id = p.project_id) AS summary_count,
		        (SELECT COUNT(*) FROM treatment_comparisons t WHERE t.project_id = p.project_id) AS comparison_count
		 FROM research_projects p;`,
	}

	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("Success: Database migration completed via GORM.")
}
