package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/taskboard-dev/taskboard/internal/errs"
	"github.com/taskboard-dev/taskboard/internal/models"
	"gorm.io/gorm"
)

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	err := s.db.WithContext(ctx).Create(user).Error

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errs.Conflict("A user with this email or username already exists")
	}

	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (s *Store) UserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User

	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err, "user")
	}

	return &user, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User

	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err, "user")
	}

	return &user, nil
}

func (s *Store) UserExists(ctx context.Context, email, username string) (bool, bool, error) {
	var emails, usernames int64

	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&emails).Error; err != nil {
		return false, false, err
	}

	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&usernames).Error; err != nil {
		return false, false, err
	}

	return emails > 0, usernames > 0, nil
}

func (s *Store) MarkVerified(ctx context.Context, id uint) (bool, error) {
	now := time.Now().UTC()

	result := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND is_verified = ?", id, false).
		Updates(map[string]interface{}{"is_verified": true, "verified_at": now})

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

// DeleteUser removes the user, the projects they created (with those
// projects' roles and tasks), their remaining roles, and clears their task
// assignments.
func (s *Store) DeleteUser(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User

		if err := tx.First(&user, id).Error; err != nil {
			return notFound(err, "user")
		}

		owned := tx.Model(&models.Project{}).Select("id").Where("creator_id = ?", id)

		if err := tx.Where("project_id IN (?)", owned).Delete(&models.Task{}).Error; err != nil {
			return err
		}

		if err := tx.Where("project_id IN (?)", owned).Delete(&models.ProjectRole{}).Error; err != nil {
			return err
		}

		if err := tx.Where("creator_id = ?", id).Delete(&models.Project{}).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Task{}).Where("assigned_to_id = ?", id).Update("assigned_to_id", nil).Error; err != nil {
			return err
		}

		if err := tx.Where("user_id = ?", id).Delete(&models.ProjectRole{}).Error; err != nil {
			return err
		}

		return tx.Delete(&user).Error
	})
}
