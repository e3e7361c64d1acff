package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskboard-dev/taskboard/internal/errs"
	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/services"
	"github.com/taskboard-dev/taskboard/internal/store"
	"github.com/taskboard-dev/taskboard/internal/testutil"
)

type fixture struct {
	store   *store.Store
	manager *services.Manager
	users   []*models.User
}

func newFixture(t *testing.T, users int) *fixture {
	t.Helper()

	s := testutil.NewStore(t)

	return &fixture{
		store:   s,
		manager: services.NewManager(s, zerolog.Nop()),
		users:   testutil.CreateUsers(t, s, users),
	}
}

func (f *fixture) project(t *testing.T, creator *models.User) *models.Project {
	t.Helper()

	project, err := f.manager.CreateProject(context.Background(), creator.ID, services.ProjectInput{Title: "Launch"})
	require.NoError(t, err)

	return project
}

func (f *fixture) task(t *testing.T, admin *models.User, project *models.Project) *models.Task {
	t.Helper()

	task, err := f.manager.CreateTask(context.Background(), admin.ID, project.ID, services.TaskInput{Title: "Write docs"})
	require.NoError(t, err)

	return task
}

func assertKind(t *testing.T, err error, kind errs.Kind) {
	t.Helper()

	require.Error(t, err)
	assert.Equal(t, kind, errs.KindOf(err), "unexpected error: %v", err)
}

// failingRoles wraps a repository so that role writes inside a transaction
// fail after the project row has been inserted.
type failingRoles struct {
	store.Repository
}

func (r failingRoles) WithinTx(ctx context.Context, fn func(store.Repository) error) error {
	return r.Repository.WithinTx(ctx, func(tx store.Repository) error {
		return fn(failingRoles{tx})
	})
}

func (r failingRoles) SetRole(context.Context, uint, uint, models.Role) error {
	return errors.New("role table unavailable")
}

func TestCreateProjectSeedsAdmin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1)

	project := f.project(t, f.users[0])
	assert.Equal(t, f.users[0].ID, project.CreatorID)
	assert.Equal(t, "Launch", project.Title)

	role, err := f.store.GetRole(ctx, project.ID, f.users[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, role)
}

func TestCreateProjectIsAtomic(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1)
	manager := services.NewManager(failingRoles{f.store}, zerolog.Nop())

	_, err := manager.CreateProject(ctx, f.users[0].ID, services.ProjectInput{Title: "Launch"})
	require.Error(t, err)

	var count int64
	require.NoError(t, f.store.DB().Model(&models.Project{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateProjectValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1)

	_, err := f.manager.CreateProject(ctx, f.users[0].ID, services.ProjectInput{Title: "   "})
	assertKind(t, err, errs.KindValidation)
	assert.Equal(t, "title", errs.FieldOf(err))

	_, err = f.manager.CreateProject(ctx, 0, services.ProjectInput{Title: "Launch"})
	assertKind(t, err, errs.KindUnauthenticated)
}

func TestProjectVisibility(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 3)
	a, b, c := f.users[0], f.users[1], f.users[2]

	p1 := f.project(t, a)
	p2 := f.project(t, a)
	f.project(t, c)

	require.NoError(t, f.manager.AssignRole(ctx, a.ID, p2.ID, b.ID, "VIEWER"))

	projects, err := f.manager.ListProjects(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, p1.ID, projects[0].ID)
	assert.Equal(t, p2.ID, projects[1].ID)

	projects, err = f.manager.ListProjects(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, p2.ID, projects[0].ID)

	_, err = f.manager.GetProject(ctx, b.ID, p1.ID)
	assertKind(t, err, errs.KindForbidden)

	_, err = f.manager.GetProject(ctx, b.ID, 9999)
	assertKind(t, err, errs.KindNotFound)
}

func TestUpdateAndDeleteProjectRequireAdmin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 2)
	a, b := f.users[0], f.users[1]
	project := f.project(t, a)
	task := f.task(t, a, project)

	require.NoError(t, f.manager.AssignRole(ctx, a.ID, project.ID, b.ID, "MEMBER"))

	title := "Renamed"
	_, err := f.manager.UpdateProject(ctx, b.ID, project.ID, services.ProjectPatch{Title: &title})
	assertKind(t, err, errs.KindForbidden)

	updated, err := f.manager.UpdateProject(ctx, a.ID, project.ID, services.ProjectPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)

	assertKind(t, f.manager.DeleteProject(ctx, b.ID, project.ID), errs.KindForbidden)
	require.NoError(t, f.manager.DeleteProject(ctx, a.ID, project.ID))

	_, err = f.store.TaskByID(ctx, task.ID)
	assertKind(t, err, errs.KindNotFound)

	role, err := f.store.GetRole(ctx, project.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NoRole, role)
}

func TestAssignRole(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 3)
	a, b, c := f.users[0], f.users[1], f.users[2]
	project := f.project(t, a)

	require.NoError(t, f.manager.AssignRole(ctx, a.ID, project.ID, b.ID, "MEMBER"))
	require.NoError(t, f.manager.AssignRole(ctx, a.ID, project.ID, b.ID, "MEMBER"))

	roles, err := f.manager.ListRoles(ctx, b.ID, project.ID)
	require.NoError(t, err)
	assert.Len(t, roles, 2)

	require.NoError(t, f.manager.AssignRole(ctx, a.ID, project.ID, b.ID, "VIEWER"))
	role, err := f.manager.RoleOf(ctx, b.ID, project.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleViewer, role)

	err = f.manager.AssignRole(ctx, b.ID, project.ID, c.ID, "VIEWER")
	assertKind(t, err, errs.KindForbidden)

	err = f.manager.AssignRole(ctx, a.ID, project.ID, 9999, "VIEWER")
	assertKind(t, err, errs.KindNotFound)
}

func TestAssignRoleRejectsInvalidRoleFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1)

	// The project does not exist; the role value is still reported first.
	err := f.manager.AssignRole(ctx, f.users[0].ID, 9999, f.users[0].ID, "OWNER")
	assertKind(t, err, errs.KindValidation)
	assert.Equal(t, "role", errs.FieldOf(err))
}

func TestRemoveRole(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 2)
	a, b := f.users[0], f.users[1]
	project := f.project(t, a)

	assertKind(t, f.manager.RemoveRole(ctx, a.ID, project.ID, b.ID), errs.KindNotFound)

	require.NoError(t, f.manager.AssignRole(ctx, a.ID, project.ID, b.ID, "VIEWER"))
	assertKind(t, f.manager.RemoveRole(ctx, b.ID, project.ID, b.ID), errs.KindForbidden)
	require.NoError(t, f.manager.RemoveRole(ctx, a.ID, project.ID, b.ID))

	_, err := f.manager.GetProject(ctx, b.ID, project.ID)
	assertKind(t, err, errs.KindForbidden)
}

func TestRemoveLastAdminIsAllowed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1)
	a := f.users[0]
	project := f.project(t, a)

	require.NoError(t, f.manager.RemoveRole(ctx, a.ID, project.ID, a.ID))

	count, err := f.store.CountRole(ctx, project.ID, models.RoleAdmin)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = f.manager.GetProject(ctx, a.ID, project.ID)
	assertKind(t, err, errs.KindForbidden)
}
