package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/taskboard-dev/taskboard/internal/errs"
	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/store"
)

// TaskPatch is a partial task update keyed by wire field name, as decoded
// from a JSON object. Values are typed only after the update is authorized,
// so a MEMBER sending a malformed title is refused for the field, not for
// its value.
type TaskPatch map[string]any

// Fields returns the payload's field names in sorted order.
func (p TaskPatch) Fields() []string {
	fields := make([]string, 0, len(p))
	for k := range p {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	return fields
}

// apply validates every value and merges the patch into a copy of task.
// Read-only fields (id, project) and unknown fields are ignored. The task is
// left untouched if any field fails.
func (p TaskPatch) apply(ctx context.Context, users store.UserStore, task models.Task) (models.Task, error) {
	for _, field := range p.Fields() {
		value := p[field]

		switch field {
		case "title":
			s, ok := value.(string)
			if !ok {
				return task, errs.Validation("title", "Not a valid string")
			}
			title, err := validateTitle(s)
			if err != nil {
				return task, err
			}
			task.Title = title
		case "description":
			s, ok := value.(string)
			if !ok {
				return task, errs.Validation("description", "Not a valid string")
			}
			task.Description = s
		case "status":
			status, err := parseStatus(value)
			if err != nil {
				return task, err
			}
			task.Status = status
		case "assigned_to":
			if value == nil {
				task.AssignedToID = nil
				continue
			}
			id, err := parseID(value)
			if err != nil {
				return task, errs.Validation("assigned_to", "Incorrect type. Expected pk value")
			}
			if _, err := users.UserByID(ctx, id); err != nil {
				if errs.KindOf(err) == errs.KindNotFound {
					return task, errs.Validation("assigned_to", fmt.Sprintf("Invalid pk %q - object does not exist", fmt.Sprint(id)))
				}
				return task, err
			}
			task.AssignedToID = &id
		}
	}

	return task, nil
}

func parseStatus(value any) (models.TaskStatus, error) {
	s, ok := value.(string)
	status := models.TaskStatus(s)

	if !ok || !status.Valid() {
		return "", errs.Validation("status", fmt.Sprintf("%q is not a valid choice", fmt.Sprint(value)))
	}

	return status, nil
}

func parseID(value any) (uint, error) {
	switch v := value.(type) {
	case float64:
		if v <= 0 || v != math.Trunc(v) || v > math.MaxUint32 {
			return 0, fmt.Errorf("invalid id %v", v)
		}
		return uint(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid id %v", v)
		}
		return uint(n), nil
	case int:
		if v <= 0 {
			return 0, fmt.Errorf("invalid id %d", v)
		}
		return uint(v), nil
	case uint:
		if v == 0 {
			return 0, fmt.Errorf("invalid id 0")
		}
		return v, nil
	}

	return 0, fmt.Errorf("invalid id %v", value)
}
