package testutil

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rise171/system-control-defects/internal/auth"
	"github.com/rise171/system-control-defects/internal/database"
	"github.com/rise171/system-control-defects/internal/models"
)

// NewInMemoryDB creates an in-memory SQLite DB with foreign keys on and runs migrations.
// The pool is pinned to one connection so every query sees the same memory database.
func NewInMemoryDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// SeedUser inserts a user with a real bcrypt hash of password.
func SeedUser(t *testing.T, db *gorm.DB, email, password string, role models.Role) models.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	u := models.User{Email: email, PasswordHash: hash, Name: "User " + email, Role: role}
	require.NoError(t, db.Create(&u).Error)
	return u
}

// SeedProject inserts a project managed by managerID.
func SeedProject(t *testing.T, db *gorm.DB, name string, managerID uint) models.Project {
	t.Helper()
	p := models.Project{Name: name, ManagerID: managerID, IsActive: true}
	require.NoError(t, db.Create(&p).Error)
	return p
}

// SeedDefect inserts a defect in projectID created by creatorID.
func SeedDefect(t *testing.T, db *gorm.DB, title string, projectID, creatorID uint) models.Defect {
	t.Helper()
	d := models.Defect{
		Title:       title,
		Status:      models.StatusNew,
		Priority:    models.PriorityMedium,
		ProjectID:   projectID,
		CreatedByID: creatorID,
	}
	require.NoError(t, db.Create(&d).Error)
	return d
}
