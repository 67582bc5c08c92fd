// Package testutil opens throwaway databases for package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"loantracker/internal/adapters/persistence/models"
	"loantracker/internal/config"
	"loantracker/internal/core/domain"
	"loantracker/internal/pkg/password"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDB opens a migrated SQLite database in a temp dir. The database is
// closed when the test ends.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	password.Cost = bcrypt.MinCost

	path := filepath.Join(t.TempDir(), "loantracker.db")
	db, err := config.Open(sqlite.Open(config.SQLiteDSN(path)), logger.Silent)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// CreateUser inserts an active user with the given password
func CreateUser(t *testing.T, db *gorm.DB, username, plain string, role domain.Role) *models.User {
	t.Helper()

	hash, err := password.Hash(plain)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: hash,
		DisplayName:  username,
		Role:         role,
		IsActive:     true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}
