package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/taskboard-dev/taskboard/internal/authz"
	"github.com/taskboard-dev/taskboard/internal/errs"
	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/store"
)

const maxTitleLength = 255

// Manager applies project, role and task mutations after authorizing the
// acting user. Every method takes the authenticated actor's user id; zero
// means no actor.
type Manager struct {
	repo store.Repository
	log  zerolog.Logger
}

func NewManager(repo store.Repository, log zerolog.Logger) *Manager {
	return &Manager{repo: repo, log: log.With().Str("component", "manager").Logger()}
}

func requireActor(actorID uint) error {
	if actorID == 0 {
		return errs.Unauthenticated("Authentication credentials were not provided")
	}

	return nil
}

// authorizeProject loads the project, resolves the actor's role on it and
// applies the project-level decision.
func (m *Manager) authorizeProject(ctx context.Context, actorID, projectID uint, action authz.ProjectAction) (*models.Project, models.Role, error) {
	if err := requireActor(actorID); err != nil {
		return nil, models.NoRole, err
	}

	project, err := m.repo.ProjectByID(ctx, projectID)

	if err != nil {
		return nil, models.NoRole, err
	}

	role, err := m.repo.GetRole(ctx, project.ID, actorID)

	if err != nil {
		return nil, models.NoRole, err
	}

	if err := authz.DecideProjectAction(role, action).Err(); err != nil {
		return nil, role, err
	}

	return project, role, nil
}

// authorizeProjectTasks is the check for task actions addressed at the
// project's task collection (list, create).
func (m *Manager) authorizeProjectTasks(ctx context.Context, actorID, projectID uint, action authz.TaskAction) (*models.Project, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}

	project, err := m.repo.ProjectByID(ctx, projectID)

	if err != nil {
		return nil, err
	}

	role, err := m.repo.GetRole(ctx, project.ID, actorID)

	if err != nil {
		return nil, err
	}

	if err := authz.DecideTaskAction(role, action).Err(); err != nil {
		return nil, err
	}

	return project, nil
}

// loadTask fetches a task addressed as /projects/{projectID}/tasks/{taskID}
// and resolves the actor's role from the task's own project. A task that
// lives in another project is reported as missing.
func (m *Manager) loadTask(ctx context.Context, actorID, projectID, taskID uint) (*models.Task, models.Role, error) {
	if err := requireActor(actorID); err != nil {
		return nil, models.NoRole, err
	}

	task, err := m.repo.TaskByID(ctx, taskID)

	if err != nil {
		return nil, models.NoRole, err
	}

	if task.ProjectID != projectID {
		return nil, models.NoRole, errs.NotFound("task")
	}

	role, err := m.repo.GetRole(ctx, task.ProjectID, actorID)

	if err != nil {
		return nil, models.NoRole, err
	}

	return task, role, nil
}

func (m *Manager) authorizeTask(ctx context.Context, actorID, projectID, taskID uint, action authz.TaskAction) (*models.Task, error) {
	task, role, err := m.loadTask(ctx, actorID, projectID, taskID)

	if err != nil {
		return nil, err
	}

	if err := authz.DecideTaskAction(role, action).Err(); err != nil {
		return nil, err
	}

	return task, nil
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)

	if title == "" {
		return "", errs.Validation("title", "This field may not be blank")
	}

	if len(title) > maxTitleLength {
		return "", errs.Validation("title", "Ensure this field has no more than 255 characters")
	}

	return title, nil
}
