package database

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/rise171/system-control-defects/internal/auth"
	"github.com/rise171/system-control-defects/internal/config"
	"github.com/rise171/system-control-defects/internal/models"
)

func TestSQLiteDSN(t *testing.T) {
	require.Equal(t, "defects.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate", sqliteDSN(""))
	require.Equal(t, "x.db?_pragma=busy_timeout(100)&_pragma=foreign_keys(1)&_txlock=immediate", sqliteDSN("x.db?_pragma=busy_timeout(100)"))
	require.Equal(t, "x.db?_pragma=foreign_keys(0)&_txlock=deferred&_pragma=busy_timeout(5000)", sqliteDSN("x.db?_pragma=foreign_keys(0)&_txlock=deferred"))
}

func TestOpenMigrateSeed(t *testing.T) {
	cfg := config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "test.db"), LogLevel: "silent"}
	db, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	require.NoError(t, Migrate(db))

	admin := config.AdminConfig{Email: " Root@Example.com ", Password: "password123", Name: "Root"}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()
	require.NoError(t, SeedAdmin(ctx, db, admin, logger))
	require.NoError(t, SeedAdmin(ctx, db, admin, logger))

	var admins []models.User
	require.NoError(t, db.Where("role = ?", models.RoleAdmin).Find(&admins).Error)
	require.Len(t, admins, 1)
	require.Equal(t, "root@example.com", admins[0].Email)
	require.True(t, auth.VerifyPassword("password123", admins[0].PasswordHash))

	dup := models.User{Email: "root@example.com", PasswordHash: "x", Name: "Dup", Role: models.RoleReader}
	err = db.Create(&dup).Error
	require.Error(t, err)
	require.True(t, IsUniqueViolation(err))

	orphan := models.Project{Name: "Orphan", ManagerID: 4242, IsActive: true}
	err = db.Create(&orphan).Error
	require.Error(t, err)
	require.True(t, IsForeignKeyViolation(err))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "oracle"})
	require.Error(t, err)
}

func TestConstraintClassification(t *testing.T) {
	require.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	require.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	require.True(t, IsForeignKeyViolation(&pgconn.PgError{Code: "23503"}))
	require.False(t, IsUniqueViolation(errors.New("boom")))
	require.False(t, IsUniqueViolation(nil))
}
