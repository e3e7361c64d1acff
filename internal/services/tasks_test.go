package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskboard-dev/taskboard/internal/errs"
	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/services"
)

func TestMemberAssignmentWorkflow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 2)
	a, b := f.users[0], f.users[1]

	project := f.project(t, a)
	role, err := f.manager.RoleOf(ctx, a.ID, project.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, role)

	require.NoError(t, f.manager.AssignRole(ctx, a.ID, project.ID, b.ID, "MEMBER"))
	task := f.task(t, a, project)

	updated, err := f.manager.UpdateTask(ctx, b.ID, project.ID, task.ID, services.TaskPatch{"status": "INPROGRESS"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, updated.Status)

	_, err = f.manager.UpdateTask(ctx, b.ID, project.ID, task.ID, services.TaskPatch{"title": "new"})
	assertKind(t, err, errs.KindForbidden)

	stored, err := f.store.TaskByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Write docs", stored.Title)
	assert.Equal(t, models.StatusInProgress, stored.Status)

	assigned, err := f.manager.AssignTask(ctx, a.ID, project.ID, task.ID, b.ID)
	require.NoError(t, err)
	require.NotNil(t, assigned.AssignedToID)
	assert.Equal(t, b.ID, *assigned.AssignedToID)

	for i := 0; i < 2; i++ {
		unassigned, err := f.manager.UnassignTask(ctx, a.ID, project.ID, task.ID)
		require.NoError(t, err)
		assert.Nil(t, unassigned.AssignedToID)
	}

	stored, err = f.store.TaskByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.AssignedToID)
}

func TestMemberPatchWithExtraFieldIsRefused(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 2)
	a, b := f.users[0], f.users[1]
	project := f.project(t, a)
	task := f.task(t, a, project)
	require.NoError(t, f.manager.AssignRole(ctx, a.ID, project.ID, b.ID, "MEMBER"))

	patches := []services.TaskPatch{
		{"status": "COMPLETED", "title": "sneaky"},
		{"status": "COMPLETED", "id": 42},
		{"assigned_to": nil},
	}

	for _, patch := range patches {
		_, err := f.manager.UpdateTask(ctx, b.ID, project.ID, task.ID, patch)
		assertKind(t, err, errs.KindForbidden)
	}

	stored, err := f.store.TaskByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusTodo, stored.Status)
}

func TestViewerCannotChangeTasks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 2)
	a, v := f.users[0], f.users[1]
	project := f.project(t, a)
	task := f.task(t, a, project)
	require.NoError(t, f.manager.AssignRole(ctx, a.ID, project.ID, v.ID, "VIEWER"))

	tasks, err := f.manager.ListTasks(ctx, v.ID, project.ID)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)

	_, err = f.manager.GetTask(ctx, v.ID, project.ID, task.ID)
	require.NoError(t, err)

	_, err = f.manager.UpdateTask(ctx, v.ID, project.ID, task.ID, services.TaskPatch{"status": "COMPLETED"})
	assertKind(t, err, errs.KindForbidden)

	_, err = f.manager.CreateTask(ctx, v.ID, project.ID, services.TaskInput{Title: "more"})
	assertKind(t, err, errs.KindForbidden)

	_, err = f.manager.AssignTask(ctx, v.ID, project.ID, task.ID, v.ID)
	assertKind(t, err, errs.KindForbidden)

	assertKind(t, f.manager.DeleteTask(ctx, v.ID, project.ID, task.ID), errs.KindForbidden)
}

func TestOutsiderCannotSeeTasks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 2)
	a, o := f.users[0], f.users[1]
	project := f.project(t, a)
	task := f.task(t, a, project)

	_, err := f.manager.ListTasks(ctx, o.ID, project.ID)
	assertKind(t, err, errs.KindForbidden)

	_, err = f.manager.GetTask(ctx, o.ID, project.ID, task.ID)
	assertKind(t, err, errs.KindForbidden)

	_, err = f.manager.GetTask(ctx, 0, project.ID, task.ID)
	assertKind(t, err, errs.KindUnauthenticated)
}

func TestTaskAddressedUnderOtherProject(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1)
	a := f.users[0]
	p1 := f.project(t, a)
	p2 := f.project(t, a)
	task := f.task(t, a, p1)

	_, err := f.manager.GetTask(ctx, a.ID, p2.ID, task.ID)
	assertKind(t, err, errs.KindNotFound)

	_, err = f.manager.GetTask(ctx, a.ID, p1.ID, 9999)
	assertKind(t, err, errs.KindNotFound)
}

func TestAdminTaskUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 2)
	a, b := f.users[0], f.users[1]
	project := f.project(t, a)
	task := f.task(t, a, project)

	updated, err := f.manager.UpdateTask(ctx, a.ID, project.ID, task.ID, services.TaskPatch{
		"title":       "Ship it",
		"description": "today",
		"assigned_to": float64(b.ID),
		"project":     float64(12345),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ship it", updated.Title)
	assert.Equal(t, "today", updated.Description)
	assert.Equal(t, project.ID, updated.ProjectID)
	require.NotNil(t, updated.AssignedToID)
	assert.Equal(t, b.ID, *updated.AssignedToID)

	_, err = f.manager.UpdateTask(ctx, a.ID, project.ID, task.ID, services.TaskPatch{"status": "DONE"})
	assertKind(t, err, errs.KindValidation)
	assert.Equal(t, "status", errs.FieldOf(err))

	_, err = f.manager.UpdateTask(ctx, a.ID, project.ID, task.ID, services.TaskPatch{"assigned_to": float64(9999)})
	assertKind(t, err, errs.KindValidation)
	assert.Equal(t, "assigned_to", errs.FieldOf(err))
}

func TestCreateTaskDefaultsAndValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1)
	a := f.users[0]
	project := f.project(t, a)

	task := f.task(t, a, project)
	assert.Equal(t, models.StatusTodo, task.Status)
	assert.Nil(t, task.AssignedToID)

	_, err := f.manager.CreateTask(ctx, a.ID, project.ID, services.TaskInput{Title: "x", Status: "LATER"})
	assertKind(t, err, errs.KindValidation)

	missing := uint(9999)
	_, err = f.manager.CreateTask(ctx, a.ID, project.ID, services.TaskInput{Title: "x", AssignedToID: &missing})
	assertKind(t, err, errs.KindValidation)

	_, err = f.manager.CreateTask(ctx, a.ID, 9999, services.TaskInput{Title: "x"})
	assertKind(t, err, errs.KindNotFound)
}

func TestAssignTaskToUnknownUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1)
	a := f.users[0]
	project := f.project(t, a)
	task := f.task(t, a, project)

	_, err := f.manager.AssignTask(ctx, a.ID, project.ID, task.ID, 9999)
	assertKind(t, err, errs.KindNotFound)
}

func TestDeleteTask(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1)
	a := f.users[0]
	project := f.project(t, a)
	task := f.task(t, a, project)

	require.NoError(t, f.manager.DeleteTask(ctx, a.ID, project.ID, task.ID))
	assertKind(t, f.manager.DeleteTask(ctx, a.ID, project.ID, task.ID), errs.KindNotFound)
}
