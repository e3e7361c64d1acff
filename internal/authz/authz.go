// Package authz holds the role-based decision rules for projects and tasks.
//
// Decisions are pure: they take the caller's already resolved role (or
// models.NoRole) and an action. Looking the role up is the caller's job, and
// for task actions it must be resolved against the task's owning project.
package authz

import (
	"github.com/taskboard-dev/taskboard/internal/errs"
	"github.com/taskboard-dev/taskboard/internal/models"
)

type ProjectAction string

const (
	ProjectRetrieve   ProjectAction = "retrieve"
	ProjectList       ProjectAction = "list"
	ProjectListRoles  ProjectAction = "list_roles"
	ProjectUpdate     ProjectAction = "update"
	ProjectDelete     ProjectAction = "delete"
	ProjectAssignRole ProjectAction = "assign_role"
	ProjectRemoveRole ProjectAction = "remove_role"
)

// ReadOnly reports whether the action only reads project state.
func (a ProjectAction) ReadOnly() bool {
	switch a {
	case ProjectRetrieve, ProjectList, ProjectListRoles:
		return true
	}

	return false
}

type TaskAction string

const (
	TaskList     TaskAction = "list"
	TaskRetrieve TaskAction = "retrieve"
	TaskCreate   TaskAction = "create"
	TaskUpdate   TaskAction = "update"
	TaskDestroy  TaskAction = "destroy"
	TaskAssign   TaskAction = "assign"
	TaskUnassign TaskAction = "unassign"
)

// TaskActions lists every task action in the permission table.
var TaskActions = []TaskAction{TaskList, TaskRetrieve, TaskCreate, TaskUpdate, TaskDestroy, TaskAssign, TaskUnassign}

// FieldStatus is the only task field a MEMBER may write.
const FieldStatus = "status"

// Decision is the outcome of an action-level check. Fields, when non-nil,
// narrows an allowed update to the listed payload fields.
type Decision struct {
	Allowed bool
	Fields  []string
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Reason: reason}
}

// Err converts a denial into a Forbidden error.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}

	return errs.Forbidden(d.Reason)
}

// Permits checks a payload's field set against the decision. The whole set is
// rejected if any single field falls outside Fields.
func (d Decision) Permits(fields []string) error {
	if err := d.Err(); err != nil {
		return err
	}

	if d.Fields == nil {
		return nil
	}

	allowed := make(map[string]struct{}, len(d.Fields))
	for _, f := range d.Fields {
		allowed[f] = struct{}{}
	}

	for _, f := range fields {
		if _, ok := allowed[f]; !ok {
			return errs.Forbidden("Members can only update task status")
		}
	}

	return nil
}

const (
	reasonNoRole    = "You do not have a role in this project"
	reasonAdminOnly = "Only project admins can perform this action"
)

func DecideProjectAction(role models.Role, action ProjectAction) Decision {
	if !role.Valid() {
		return deny(reasonNoRole)
	}

	if action.ReadOnly() {
		return allow()
	}

	if role == models.RoleAdmin {
		return allow()
	}

	return deny(reasonAdminOnly)
}

func DecideTaskAction(role models.Role, action TaskAction) Decision {
	if !role.Valid() {
		return deny(reasonNoRole)
	}

	switch action {
	case TaskList, TaskRetrieve:
		return allow()
	case TaskCreate, TaskDestroy, TaskAssign, TaskUnassign:
		if role == models.RoleAdmin {
			return allow()
		}
		return deny(reasonAdminOnly)
	case TaskUpdate:
		switch role {
		case models.RoleAdmin:
			return allow()
		case models.RoleMember:
			return Decision{Allowed: true, Fields: []string{FieldStatus}}
		}
		return deny("Viewers cannot update tasks")
	}

	return deny("Unknown task action")
}

// AuthorizeTaskUpdate applies both update checks: the action table and the
// field restriction.
func AuthorizeTaskUpdate(role models.Role, fields []string) error {
	return DecideTaskAction(role, TaskUpdate).Permits(fields)
}

// ParseRole validates a role value supplied by a client.
func ParseRole(value string) (models.Role, error) {
	role := models.Role(value)
	if !role.Valid() {
		return models.NoRole, errs.Validation("role", "Invalid role")
	}

	return role, nil
}
