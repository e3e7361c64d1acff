package store

import (
	"context"
	"fmt"

	"github.com/taskboard-dev/taskboard/internal/errs"
	"github.com/taskboard-dev/taskboard/internal/models"
)

func (s *Store) CreateTask(ctx context.Context, task *models.Task) error {
	if err := s.db.WithContext(ctx).Omit("AssignedTo", "Project").Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}

	return nil
}

func (s *Store) TaskByID(ctx context.Context, id uint) (*models.Task, error) {
	var task models.Task

	if err := s.db.WithContext(ctx).First(&task, id).Error; err != nil {
		return nil, notFound(err, "task")
	}

	return &task, nil
}

// SaveTask writes every column of task, including a nil assignee.
func (s *Store) SaveTask(ctx context.Context, task *models.Task) error {
	if err := s.db.WithContext(ctx).Omit("AssignedTo", "Project").Save(task).Error; err != nil {
		return fmt.Errorf("save task: %w", err)
	}

	return nil
}

func (s *Store) DeleteTask(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&models.Task{}, id)

	if result.Error != nil {
		return fmt.Errorf("delete task: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return errs.NotFound("task")
	}

	return nil
}

func (s *Store) ListTasks(ctx context.Context, projectID uint) ([]models.Task, error) {
	tasks := []models.Task{}

	if err := s.db.WithContext(ctx).Where("project_id = ?", projectID).Order("id").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	return tasks, nil
}
