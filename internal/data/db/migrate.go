package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/storefront-backend/internal/domain"
)

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	if err := AutoMigrate(s.db); err != nil {
		return err
	}
	s.log.Info("Postgres tables migrated")
	return nil
}

// AutoMigrate creates or updates every table. Shared with the sqlite test harness.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(domain.AllModels()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
