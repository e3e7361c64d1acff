package services

import (
	"context"

	"github.com/taskboard-dev/taskboard/internal/authz"
	"github.com/taskboard-dev/taskboard/internal/errs"
	"github.com/taskboard-dev/taskboard/internal/models"
)

type TaskInput struct {
	Title        string
	Description  string
	Status       models.TaskStatus
	AssignedToID *uint
}

func (m *Manager) CreateTask(ctx context.Context, actorID, projectID uint, in TaskInput) (*models.Task, error) {
	project, err := m.authorizeProjectTasks(ctx, actorID, projectID, authz.TaskCreate)

	if err != nil {
		return nil, err
	}

	title, err := validateTitle(in.Title)

	if err != nil {
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = models.StatusTodo
	}

	if !status.Valid() {
		return nil, errs.Validation("status", "\""+string(status)+"\" is not a valid choice")
	}

	if in.AssignedToID != nil {
		if _, err := m.repo.UserByID(ctx, *in.AssignedToID); err != nil {
			if errs.KindOf(err) == errs.KindNotFound {
				return nil, errs.Validation("assigned_to", "Invalid pk - object does not exist")
			}
			return nil, err
		}
	}

	task := &models.Task{
		Title:        title,
		Description:  in.Description,
		Status:       status,
		AssignedToID: in.AssignedToID,
		ProjectID:    project.ID,
	}

	if err := m.repo.CreateTask(ctx, task); err != nil {
		return nil, err
	}

	return task, nil
}

func (m *Manager) ListTasks(ctx context.Context, actorID, projectID uint) ([]models.Task, error) {
	project, err := m.authorizeProjectTasks(ctx, actorID, projectID, authz.TaskList)

	if err != nil {
		return nil, err
	}

	return m.repo.ListTasks(ctx, project.ID)
}

func (m *Manager) GetTask(ctx context.Context, actorID, projectID, taskID uint) (*models.Task, error) {
	return m.authorizeTask(ctx, actorID, projectID, taskID, authz.TaskRetrieve)
}

// UpdateTask authorizes the patch against the actor's role on the task's
// project, including the MEMBER status-only restriction, then merges it.
// A rejected patch changes nothing.
func (m *Manager) UpdateTask(ctx context.Context, actorID, projectID, taskID uint, patch TaskPatch) (*models.Task, error) {
	task, role, err := m.loadTask(ctx, actorID, projectID, taskID)

	if err != nil {
		return nil, err
	}

	if err := authz.AuthorizeTaskUpdate(role, patch.Fields()); err != nil {
		return nil, err
	}

	updated, err := patch.apply(ctx, m.repo, *task)

	if err != nil {
		return nil, err
	}

	if err := m.repo.SaveTask(ctx, &updated); err != nil {
		return nil, err
	}

	return &updated, nil
}

func (m *Manager) DeleteTask(ctx context.Context, actorID, projectID, taskID uint) error {
	task, err := m.authorizeTask(ctx, actorID, projectID, taskID, authz.TaskDestroy)

	if err != nil {
		return err
	}

	return m.repo.DeleteTask(ctx, task.ID)
}

func (m *Manager) AssignTask(ctx context.Context, actorID, projectID, taskID, targetID uint) (*models.Task, error) {
	task, err := m.authorizeTask(ctx, actorID, projectID, taskID, authz.TaskAssign)

	if err != nil {
		return nil, err
	}

	if _, err := m.repo.UserByID(ctx, targetID); err != nil {
		return nil, err
	}

	task.AssignedToID = &targetID

	if err := m.repo.SaveTask(ctx, task); err != nil {
		return nil, err
	}

	return task, nil
}

// UnassignTask clears the assignee. An unassigned task is returned as is.
func (m *Manager) UnassignTask(ctx context.Context, actorID, projectID, taskID uint) (*models.Task, error) {
	task, err := m.authorizeTask(ctx, actorID, projectID, taskID, authz.TaskUnassign)

	if err != nil {
		return nil, err
	}

	if task.AssignedToID == nil {
		return task, nil
	}

	task.AssignedToID = nil

	if err := m.repo.SaveTask(ctx, task); err != nil {
		return nil, err
	}

	return task, nil
}
