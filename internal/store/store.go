// Package store persists users, projects, project roles and tasks with GORM.
//
// Store methods translate gorm.ErrRecordNotFound into errs.NotFound so the
// layers above never depend on gorm. Cascades (project → roles/tasks,
// user → created projects, roles, assignments) are performed explicitly in
// transactions instead of relying on database foreign key actions.
package store

import (
	"context"
	"errors"

	"github.com/taskboard-dev/taskboard/internal/errs"
	"github.com/taskboard-dev/taskboard/internal/models"
	"gorm.io/gorm"
)

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	UserByID(ctx context.Context, id uint) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UserExists(ctx context.Context, email, username string) (emailTaken, usernameTaken bool, err error)
	// MarkVerified flips the verified flag. It reports false if the user was
	// already verified.
	MarkVerified(ctx context.Context, id uint) (bool, error)
	DeleteUser(ctx context.Context, id uint) error
}

type ProjectStore interface {
	CreateProject(ctx context.Context, project *models.Project) error
	ProjectByID(ctx context.Context, id uint) (*models.Project, error)
	SaveProject(ctx context.Context, project *models.Project) error
	DeleteProject(ctx context.Context, id uint) error
	ListProjectsForUser(ctx context.Context, userID uint) ([]models.Project, error)
}

type RoleStore interface {
	// GetRole returns models.NoRole without error when no row exists.
	GetRole(ctx context.Context, projectID, userID uint) (models.Role, error)
	SetRole(ctx context.Context, projectID, userID uint, role models.Role) error
	RemoveRole(ctx context.Context, projectID, userID uint) error
	ListRoles(ctx context.Context, projectID uint) ([]models.ProjectRole, error)
	CountRole(ctx context.Context, projectID uint, role models.Role) (int64, error)
}

type TaskStore interface {
	CreateTask(ctx context.Context, task *models.Task) error
	TaskByID(ctx context.Context, id uint) (*models.Task, error)
	SaveTask(ctx context.Context, task *models.Task) error
	DeleteTask(ctx context.Context, id uint) error
	ListTasks(ctx context.Context, projectID uint) ([]models.Task, error)
}

type Repository interface {
	UserStore
	ProjectStore
	RoleStore
	TaskStore

	// WithinTx runs fn against a repository bound to one transaction. The
	// transaction commits if fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(Repository) error) error
}

type Store struct {
	db *gorm.DB
}

var _ Repository = (*Store)(nil)

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) WithinTx(ctx context.Context, fn func(Repository) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func notFound(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.NotFound(resource)
	}

	return err
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.PingContext(ctx)
}
