// Package testutil builds throwaway databases and fixtures for tests.
package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"github.com/taskboard-dev/taskboard/db"
	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/store"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewStore returns a store backed by a migrated SQLite file under t.TempDir.
func NewStore(t *testing.T) *store.Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "taskboard.db")

	gdb, err := gorm.Open(sqlite.Open(path+"?_pragma=foreign_keys(1)"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.MigrateDatabase(gdb))

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return store.New(gdb)
}

// CreateUser inserts a verified user whose username is derived from email.
func CreateUser(t *testing.T, s store.UserStore, email string) *models.User {
	t.Helper()

	user := &models.User{
		Email:        email,
		Username:     strings.Split(email, "@")[0],
		PasswordHash: "x",
		IsVerified:   true,
	}
	require.NoError(t, s.CreateUser(context.Background(), user))

	return user
}

// CreateUsers inserts n verified users named user0@example.com, user1@...
func CreateUsers(t *testing.T, s store.UserStore, n int) []*models.User {
	t.Helper()

	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		users = append(users, CreateUser(t, s, fmt.Sprintf("user%d@example.com", i)))
	}

	return users
}
