package config

import (
	"context"
	"log/slog"

	"loantracker/internal/adapters/persistence/models"
	"loantracker/internal/core/domain"
	"loantracker/internal/pkg/password"

	"gorm.io/gorm"
)

// Default bootstrap account. The password must be changed after first login.
const (
	DefaultAdminUsername    = "admin"
	DefaultAdminPassword    = "password"
	DefaultAdminDisplayName = "Administrator"
)

// Seeder handles database seeding
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// Run executes all seeders
func (s *Seeder) Run(ctx context.Context) error {
	slog.Info("🌱 Running database seeders...")

	if _, err := s.SeedAdmin(ctx); err != nil {
		return err
	}

	slog.Info("✅ Database seeding completed")
	return nil
}

// SeedAdmin creates the default admin account when the users table is
// empty. It reports whether an account was created.
func (s *Seeder) SeedAdmin(ctx context.Context) (bool, error) {
	created := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		hashedPassword, err := password.Hash(DefaultAdminPassword)
		if err != nil {
			return err
		}

		admin := &models.User{
			Username:     DefaultAdminUsername,
			PasswordHash: hashedPassword,
			DisplayName:  DefaultAdminDisplayName,
			Role:         domain.RoleAdmin,
			IsActive:     true,
		}
		if err := tx.Create(admin).Error; err != nil {
			return err
		}

		created = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if created {
		slog.Warn("⚠️ Default admin user created, change its password", "username", DefaultAdminUsername)
	}
	return created, nil
}
