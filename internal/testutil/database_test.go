package testutil

import (
	"testing"

	"expenseflow/internal/models"
)

// Background workers (audit, notifications) query the same *gorm.DB as the
// test goroutine, so the pool can open more than one sqlite connection.
// Every connection must see the migrated schema, not a fresh empty database.
func TestSetupTestDB(t *testing.T) {
	t.Run("schema_visible_on_additional_connections", func(t *testing.T) {
		db := SetupTestDB(t)
		defer TeardownTestDB(t, db)

		// Pin the first connection inside a transaction, forcing the
		// follow-up query onto a second pool connection.
		tx := db.Begin()
		if tx.Error != nil {
			t.Fatalf("failed to begin transaction: %v", tx.Error)
		}
		defer tx.Rollback()

		var count int64
		if err := db.Model(&models.Role{}).Count(&count).Error; err != nil {
			t.Fatalf("schema not visible outside pinned connection: %v", err)
		}
		if count != int64(len(models.AllRoles)) {
			t.Errorf("expected %d seeded roles, got %d", len(models.AllRoles), count)
		}
	})

	t.Run("seeds_all_roles", func(t *testing.T) {
		db := SetupTestDB(t)
		defer TeardownTestDB(t, db)

		for _, name := range models.AllRoles {
			var role models.Role
			if err := db.Where("name = ?", name).First(&role).Error; err != nil {
				t.Errorf("role %s not seeded: %v", name, err)
			}
		}
	})
}
