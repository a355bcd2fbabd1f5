package repositories

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/MisterKayCodes/MisterTodo/backend/internal/models"
	"gorm.io/gorm"
)

type MigrationConfig struct {
	MaxRetries int
	RetryDelay time.Duration
}

func DefaultMigrationConfig() *MigrationConfig {
	return &MigrationConfig{
		MaxRetries: 3,
		RetryDelay: 2 * time.Second,
	}
}

// optionalColumns were added after the first release. EnsureSchema adds any
// that are missing without touching existing data, so re-running it against a
// current schema is a no-op.
var optionalColumns = []string{"tags", "priority", "project"}

// EnsureSchema brings the tasks table to the current column set. The check is
// idempotent and strictly additive: columns are only ever added, never
// altered or dropped.
func EnsureSchema(db *gorm.DB, config *MigrationConfig) error {
	if config == nil {
		config = DefaultMigrationConfig()
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := waitForDatabase(sqlDB, config.MaxRetries, config.RetryDelay); err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}

	migrator := db.Migrator()

	if !migrator.HasTable(&models.Task{}) {
		log.Println("📋 Tasks table missing, creating")
		if err := migrator.CreateTable(&models.Task{}); err != nil {
			return fmt.Errorf("failed to create tasks table: %w", err)
		}
		log.Println("✅ Tasks table created with current schema")
		return nil
	}

	added := 0
	for _, column := range optionalColumns {
		if migrator.HasColumn(&models.Task{}, column) {
			continue
		}
		log.Printf("🔄 Adding missing column %q to tasks table", column)
		if err := migrator.AddColumn(&models.Task{}, column); err != nil {
			return fmt.Errorf("failed to add column %q: %w", column, err)
		}
		added++
	}

	// Rows that predate the priority column get the default instead of NULL.
	result := db.Model(&models.Task{}).
		Where("priority IS NULL OR priority = ''").
		Update("priority", models.PriorityMedium)
	if result.Error != nil {
		return fmt.Errorf("failed to backfill priority default: %w", result.Error)
	}

	if added == 0 && result.RowsAffected == 0 {
		log.Println("✅ Database schema is up to date - no changes needed")
	} else {
		log.Printf("✅ Schema updated: %d column(s) added, %d row(s) backfilled", added, result.RowsAffected)
	}

	return nil
}

func waitForDatabase(db *sql.DB, maxRetries int, retryDelay time.Duration) error {
	for i := 0; i < maxRetries; i++ {
		if err := db.Ping(); err == nil {
			return nil
		}
		if i < maxRetries-1 {
			log.Printf("⏳ Database not ready, retrying in %v... (attempt %d/%d)", retryDelay, i+1, maxRetries)
			time.Sleep(retryDelay)
		}
	}
	return fmt.Errorf("database not ready after %d attempts", maxRetries)
}
