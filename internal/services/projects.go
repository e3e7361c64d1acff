package services

import (
	"context"
	"fmt"

	"github.com/taskboard-dev/taskboard/internal/authz"
	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/store"
)

type ProjectInput struct {
	Title       string
	Description string
}

type ProjectPatch struct {
	Title       *string
	Description *string
}

// CreateProject stores the project and grants its creator ADMIN in the same
// transaction.
func (m *Manager) CreateProject(ctx context.Context, actorID uint, in ProjectInput) (*models.Project, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}

	title, err := validateTitle(in.Title)

	if err != nil {
		return nil, err
	}

	project := &models.Project{
		Title:       title,
		Description: in.Description,
		CreatorID:   actorID,
	}

	err = m.repo.WithinTx(ctx, func(tx store.Repository) error {
		if err := tx.CreateProject(ctx, project); err != nil {
			return err
		}

		if err := tx.SetRole(ctx, project.ID, actorID, models.RoleAdmin); err != nil {
			return fmt.Errorf("seed creator role: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	m.log.Info().Uint("project_id", project.ID).Uint("creator_id", actorID).Msg("project created")

	return project, nil
}

func (m *Manager) GetProject(ctx context.Context, actorID, projectID uint) (*models.Project, error) {
	project, _, err := m.authorizeProject(ctx, actorID, projectID, authz.ProjectRetrieve)
	return project, err
}

// ListProjects returns exactly the projects where the actor holds a role.
func (m *Manager) ListProjects(ctx context.Context, actorID uint) ([]models.Project, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}

	return m.repo.ListProjectsForUser(ctx, actorID)
}

func (m *Manager) UpdateProject(ctx context.Context, actorID, projectID uint, patch ProjectPatch) (*models.Project, error) {
	project, _, err := m.authorizeProject(ctx, actorID, projectID, authz.ProjectUpdate)

	if err != nil {
		return nil, err
	}

	updated := *project

	if patch.Title != nil {
		title, err := validateTitle(*patch.Title)

		if err != nil {
			return nil, err
		}

		updated.Title = title
	}

	if patch.Description != nil {
		updated.Description = *patch.Description
	}

	if err := m.repo.SaveProject(ctx, &updated); err != nil {
		return nil, err
	}

	return &updated, nil
}

func (m *Manager) DeleteProject(ctx context.Context, actorID, projectID uint) error {
	project, _, err := m.authorizeProject(ctx, actorID, projectID, authz.ProjectDelete)

	if err != nil {
		return err
	}

	if err := m.repo.DeleteProject(ctx, project.ID); err != nil {
		return err
	}

	m.log.Info().Uint("project_id", project.ID).Uint("actor_id", actorID).Msg("project deleted")

	return nil
}
