package store

import (
	"context"
	"fmt"

	"github.com/taskboard-dev/taskboard/internal/errs"
	"github.com/taskboard-dev/taskboard/internal/models"
	"gorm.io/gorm"
)

func (s *Store) CreateProject(ctx context.Context, project *models.Project) error {
	if err := s.db.WithContext(ctx).Create(project).Error; err != nil {
		return fmt.Errorf("create project: %w", err)
	}

	return nil
}

func (s *Store) ProjectByID(ctx context.Context, id uint) (*models.Project, error) {
	var project models.Project

	if err := s.db.WithContext(ctx).First(&project, id).Error; err != nil {
		return nil, notFound(err, "project")
	}

	return &project, nil
}

func (s *Store) SaveProject(ctx context.Context, project *models.Project) error {
	if err := s.db.WithContext(ctx).Omit("Creator", "Roles", "Tasks").Save(project).Error; err != nil {
		return fmt.Errorf("save project: %w", err)
	}

	return nil
}

// DeleteProject removes the project together with its tasks and roles.
func (s *Store) DeleteProject(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return err
		}

		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectRole{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Project{}, id)

		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			return errs.NotFound("project")
		}

		return nil
	})
}

// ListProjectsForUser returns the projects where userID holds any role.
func (s *Store) ListProjectsForUser(ctx context.Context, userID uint) ([]models.Project, error) {
	projects := []models.Project{}

	err := s.db.WithContext(ctx).
		Joins("JOIN project_roles ON project_roles.project_id = projects.id").
		Where("project_roles.user_id = ?", userID).
		Order("projects.id").
		Find(&projects).Error

	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	return projects, nil
}
