package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskboard-dev/taskboard/internal/errs"
	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/realtime"
	"github.com/taskboard-dev/taskboard/internal/services"
	"github.com/taskboard-dev/taskboard/internal/types"
	"github.com/taskboard-dev/taskboard/internal/utils"
)

type CreateTaskRequest struct {
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	Status       models.TaskStatus `json:"status"`
	AssignedToID *uint             `json:"assigned_to"`
}

type AssignTaskRequest struct {
	UserID *uint `json:"user_id"`
}

func taskParams(ctx *gin.Context) (uint, uint, uint, bool) {
	userID, projectID, ok := projectParams(ctx)

	if !ok {
		return 0, 0, 0, false
	}

	taskID, err := utils.ParamID(ctx, "task_id", "task")

	if err != nil {
		respondError(ctx, err)
		return 0, 0, 0, false
	}

	return userID, projectID, taskID, true
}

func (h *Handler) broadcastTask(kind string, task *models.Task) types.TaskResponse {
	response := types.NewTaskResponse(task)
	h.hub.Broadcast(realtime.Event{Type: kind, ProjectID: task.ProjectID, Data: response})

	return response
}

func (h *Handler) CreateTask(ctx *gin.Context) {
	userID, projectID, ok := projectParams(ctx)

	if !ok {
		return
	}

	var body CreateTaskRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		invalidRequest(ctx)
		return
	}

	task, err := h.manager.CreateTask(ctx.Request.Context(), userID, projectID, services.TaskInput{
		Title:        body.Title,
		Description:  body.Description,
		Status:       body.Status,
		AssignedToID: body.AssignedToID,
	})

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, h.broadcastTask(realtime.EventTaskCreate, task))
}

func (h *Handler) ListTasks(ctx *gin.Context) {
	userID, projectID, ok := projectParams(ctx)

	if !ok {
		return
	}

	tasks, err := h.manager.ListTasks(ctx.Request.Context(), userID, projectID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	response := make([]types.TaskResponse, 0, len(tasks))

	for i := range tasks {
		response = append(response, types.NewTaskResponse(&tasks[i]))
	}

	ctx.JSON(http.StatusOK, response)
}

func (h *Handler) GetTask(ctx *gin.Context) {
	userID, projectID, taskID, ok := taskParams(ctx)

	if !ok {
		return
	}

	task, err := h.manager.GetTask(ctx.Request.Context(), userID, projectID, taskID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, types.NewTaskResponse(task))
}

// UpdateTask accepts any JSON object; which keys the caller may send depends
// on their role.
func (h *Handler) UpdateTask(ctx *gin.Context) {
	userID, projectID, taskID, ok := taskParams(ctx)

	if !ok {
		return
	}

	var patch services.TaskPatch

	if err := ctx.ShouldBindJSON(&patch); err != nil || patch == nil {
		invalidRequest(ctx)
		return
	}

	task, err := h.manager.UpdateTask(ctx.Request.Context(), userID, projectID, taskID, patch)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, h.broadcastTask(realtime.EventTaskUpdate, task))
}

func (h *Handler) DeleteTask(ctx *gin.Context) {
	userID, projectID, taskID, ok := taskParams(ctx)

	if !ok {
		return
	}

	if err := h.manager.DeleteTask(ctx.Request.Context(), userID, projectID, taskID); err != nil {
		respondError(ctx, err)
		return
	}

	h.hub.Broadcast(realtime.Event{Type: realtime.EventTaskDelete, ProjectID: projectID, Data: gin.H{"id": taskID}})

	ctx.Status(http.StatusNoContent)
}

func (h *Handler) AssignTask(ctx *gin.Context) {
	userID, projectID, taskID, ok := taskParams(ctx)

	if !ok {
		return
	}

	var body AssignTaskRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		invalidRequest(ctx)
		return
	}

	if body.UserID == nil {
		respondError(ctx, errs.Validation("user_id", "This field is required"))
		return
	}

	task, err := h.manager.AssignTask(ctx.Request.Context(), userID, projectID, taskID, *body.UserID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	h.broadcastTask(realtime.EventTaskUpdate, task)

	ctx.JSON(http.StatusOK, gin.H{"message": "Task assigned"})
}

func (h *Handler) UnassignTask(ctx *gin.Context) {
	userID, projectID, taskID, ok := taskParams(ctx)

	if !ok {
		return
	}

	task, err := h.manager.UnassignTask(ctx.Request.Context(), userID, projectID, taskID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	h.broadcastTask(realtime.EventTaskUpdate, task)

	ctx.JSON(http.StatusOK, gin.H{"message": "Task unassigned"})
}
