package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/tnahs/hlts/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.Models()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Running auto migrations", "driver", s.driver)
	return AutoMigrateAll(s.db)
}
