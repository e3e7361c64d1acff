package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskboard-dev/taskboard/internal/errs"
	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/store"
	"github.com/taskboard-dev/taskboard/internal/testutil"
)

func newProject(t *testing.T, s *store.Store, creator *models.User) *models.Project {
	t.Helper()

	project := &models.Project{Title: "Roadmap", CreatorID: creator.ID}
	require.NoError(t, s.CreateProject(context.Background(), project))
	require.NoError(t, s.SetRole(context.Background(), project.ID, creator.ID, models.RoleAdmin))

	return project
}

func TestSetRoleUpserts(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)
	users := testutil.CreateUsers(t, s, 2)
	project := newProject(t, s, users[0])

	require.NoError(t, s.SetRole(ctx, project.ID, users[1].ID, models.RoleViewer))
	require.NoError(t, s.SetRole(ctx, project.ID, users[1].ID, models.RoleMember))
	require.NoError(t, s.SetRole(ctx, project.ID, users[1].ID, models.RoleMember))

	role, err := s.GetRole(ctx, project.ID, users[1].ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleMember, role)

	roles, err := s.ListRoles(ctx, project.ID)
	require.NoError(t, err)
	assert.Len(t, roles, 2)
}

func TestGetRoleAbsent(t *testing.T) {
	s := testutil.NewStore(t)
	users := testutil.CreateUsers(t, s, 2)
	project := newProject(t, s, users[0])

	role, err := s.GetRole(context.Background(), project.ID, users[1].ID)
	require.NoError(t, err)
	assert.Equal(t, models.NoRole, role)
}

func TestRemoveRole(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)
	users := testutil.CreateUsers(t, s, 2)
	project := newProject(t, s, users[0])

	err := s.RemoveRole(ctx, project.ID, users[1].ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrNotFound))

	require.NoError(t, s.SetRole(ctx, project.ID, users[1].ID, models.RoleViewer))
	require.NoError(t, s.RemoveRole(ctx, project.ID, users[1].ID))

	role, err := s.GetRole(ctx, project.ID, users[1].ID)
	require.NoError(t, err)
	assert.Equal(t, models.NoRole, role)
}

func TestListProjectsForUser(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)
	users := testutil.CreateUsers(t, s, 3)

	p1 := newProject(t, s, users[0])
	p2 := newProject(t, s, users[0])
	newProject(t, s, users[1])

	require.NoError(t, s.SetRole(ctx, p2.ID, users[2].ID, models.RoleViewer))

	projects, err := s.ListProjectsForUser(ctx, users[0].ID)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, p1.ID, projects[0].ID)
	assert.Equal(t, p2.ID, projects[1].ID)

	projects, err = s.ListProjectsForUser(ctx, users[2].ID)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, p2.ID, projects[0].ID)
}

func TestDeleteProjectCascades(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)
	users := testutil.CreateUsers(t, s, 2)
	project := newProject(t, s, users[0])
	other := newProject(t, s, users[0])

	require.NoError(t, s.SetRole(ctx, project.ID, users[1].ID, models.RoleMember))
	task := &models.Task{Title: "Write docs", Status: models.StatusTodo, ProjectID: project.ID}
	require.NoError(t, s.CreateTask(ctx, task))
	kept := &models.Task{Title: "Keep me", Status: models.StatusTodo, ProjectID: other.ID}
	require.NoError(t, s.CreateTask(ctx, kept))

	require.NoError(t, s.DeleteProject(ctx, project.ID))

	_, err := s.ProjectByID(ctx, project.ID)
	assert.True(t, errors.Is(err, errs.ErrNotFound))

	_, err = s.TaskByID(ctx, task.ID)
	assert.True(t, errors.Is(err, errs.ErrNotFound))

	roles, err := s.ListRoles(ctx, project.ID)
	require.NoError(t, err)
	assert.Empty(t, roles)

	_, err = s.TaskByID(ctx, kept.ID)
	assert.NoError(t, err)

	err = s.DeleteProject(ctx, project.ID)
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}

func TestDeleteUserClearsAssignments(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)
	users := testutil.CreateUsers(t, s, 2)
	owner, assignee := users[0], users[1]

	project := newProject(t, s, owner)
	require.NoError(t, s.SetRole(ctx, project.ID, assignee.ID, models.RoleMember))

	theirs := newProject(t, s, assignee)

	task := &models.Task{Title: "Ship", Status: models.StatusTodo, ProjectID: project.ID, AssignedToID: &assignee.ID}
	require.NoError(t, s.CreateTask(ctx, task))

	require.NoError(t, s.DeleteUser(ctx, assignee.ID))

	got, err := s.TaskByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, got.AssignedToID)

	role, err := s.GetRole(ctx, project.ID, assignee.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NoRole, role)

	_, err = s.ProjectByID(ctx, theirs.ID)
	assert.True(t, errors.Is(err, errs.ErrNotFound))

	_, err = s.UserByID(ctx, assignee.ID)
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}

func TestMarkVerifiedOnce(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)

	user := &models.User{Email: "new@example.com", Username: "new", PasswordHash: "x"}
	require.NoError(t, s.CreateUser(ctx, user))

	changed, err := s.MarkVerified(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = s.MarkVerified(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, changed)

	got, err := s.UserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, got.IsVerified)
	assert.NotNil(t, got.VerifiedAt)
}

func TestWithinTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)
	creator := testutil.CreateUser(t, s, "a@example.com")

	var projectID uint
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(r store.Repository) error {
		project := &models.Project{Title: "Doomed", CreatorID: creator.ID}
		if err := r.CreateProject(ctx, project); err != nil {
			return err
		}
		projectID = project.ID
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.NotZero(t, projectID)

	_, err = s.ProjectByID(ctx, projectID)
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}
