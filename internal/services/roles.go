package services

import (
	"context"

	"github.com/taskboard-dev/taskboard/internal/authz"
	"github.com/taskboard-dev/taskboard/internal/models"
)

// AssignRole validates the role value before anything is looked up, then
// upserts the target's role on the project.
func (m *Manager) AssignRole(ctx context.Context, actorID, projectID, targetID uint, value string) error {
	if err := requireActor(actorID); err != nil {
		return err
	}

	role, err := authz.ParseRole(value)

	if err != nil {
		return err
	}

	project, _, err := m.authorizeProject(ctx, actorID, projectID, authz.ProjectAssignRole)

	if err != nil {
		return err
	}

	if _, err := m.repo.UserByID(ctx, targetID); err != nil {
		return err
	}

	if err := m.repo.SetRole(ctx, project.ID, targetID, role); err != nil {
		return err
	}

	m.log.Info().
		Uint("project_id", project.ID).
		Uint("user_id", targetID).
		Str("role", string(role)).
		Msg("role assigned")

	return nil
}

// RemoveRole deletes the target's role. Removing the last ADMIN is allowed
// but leaves the project without anyone able to manage it.
func (m *Manager) RemoveRole(ctx context.Context, actorID, projectID, targetID uint) error {
	project, _, err := m.authorizeProject(ctx, actorID, projectID, authz.ProjectRemoveRole)

	if err != nil {
		return err
	}

	if _, err := m.repo.UserByID(ctx, targetID); err != nil {
		return err
	}

	if err := m.repo.RemoveRole(ctx, project.ID, targetID); err != nil {
		return err
	}

	m.log.Info().Uint("project_id", project.ID).Uint("user_id", targetID).Msg("role removed")

	admins, err := m.repo.CountRole(ctx, project.ID, models.RoleAdmin)

	if err != nil {
		m.log.Error().Err(err).Uint("project_id", project.ID).Msg("count admins")
		return nil
	}

	if admins == 0 {
		m.log.Warn().Uint("project_id", project.ID).Msg("project has no admin left")
	}

	return nil
}

func (m *Manager) ListRoles(ctx context.Context, actorID, projectID uint) ([]models.ProjectRole, error) {
	project, _, err := m.authorizeProject(ctx, actorID, projectID, authz.ProjectListRoles)

	if err != nil {
		return nil, err
	}

	return m.repo.ListRoles(ctx, project.ID)
}

// RoleOf returns the actor's role on a project they can see.
func (m *Manager) RoleOf(ctx context.Context, actorID, projectID uint) (models.Role, error) {
	_, role, err := m.authorizeProject(ctx, actorID, projectID, authz.ProjectRetrieve)
	return role, err
}
