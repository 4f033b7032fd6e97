package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"reportdesk/internal/domain"
)

// Migrate creates or updates the schema for every persisted entity.
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&domain.User{}, "Roles", &domain.UserRole{}); err != nil {
		return fmt.Errorf("setup join table: %w", err)
	}
	return db.AutoMigrate(
		&domain.Role{},
		&domain.User{},
		&domain.UserRole{},
		&domain.UserToken{},
		&domain.Report{},
	)
}

// Seed inserts the well-known roles that are missing. Existing rows are left alone.
func Seed(ctx context.Context, db *gorm.DB) error {
	for _, name := range domain.SeedRoles {
		err := db.WithContext(ctx).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
			Create(&domain.Role{Name: name}).Error
		if err != nil {
			return fmt.Errorf("seed role %s: %w", name, err)
		}
	}
	return nil
}
