package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/taskboard-dev/taskboard/internal/errs"
	"github.com/taskboard-dev/taskboard/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *Store) GetRole(ctx context.Context, projectID, userID uint) (models.Role, error) {
	var pr models.ProjectRole

	err := s.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Take(&pr).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NoRole, nil
	}

	if err != nil {
		return models.NoRole, fmt.Errorf("get role: %w", err)
	}

	return pr.Role, nil
}

// SetRole inserts or replaces the role for (projectID, userID).
func (s *Store) SetRole(ctx context.Context, projectID, userID uint, role models.Role) error {
	now := time.Now()

	pr := models.ProjectRole{
		BaseModel: models.BaseModel{CreatedAt: now, UpdatedAt: now},
		ProjectID: projectID,
		UserID:    userID,
		Role:      role,
	}

	err := s.db.WithContext(ctx).
		Omit("Project", "User").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "project_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"role", "updated_at"}),
		}).
		Create(&pr).Error

	if err != nil {
		return fmt.Errorf("set role: %w", err)
	}

	return nil
}

func (s *Store) RemoveRole(ctx context.Context, projectID, userID uint) error {
	result := s.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&models.ProjectRole{})

	if result.Error != nil {
		return fmt.Errorf("remove role: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return errs.NotFound("role")
	}

	return nil
}

func (s *Store) ListRoles(ctx context.Context, projectID uint) ([]models.ProjectRole, error) {
	roles := []models.ProjectRole{}

	if err := s.db.WithContext(ctx).Where("project_id = ?", projectID).Order("id").Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}

	return roles, nil
}

func (s *Store) CountRole(ctx context.Context, projectID uint, role models.Role) (int64, error) {
	var n int64

	err := s.db.WithContext(ctx).Model(&models.ProjectRole{}).
		Where("project_id = ? AND role = ?", projectID, role).
		Count(&n).Error

	return n, err
}
