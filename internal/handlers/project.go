package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskboard-dev/taskboard/internal/errs"
	"github.com/taskboard-dev/taskboard/internal/realtime"
	"github.com/taskboard-dev/taskboard/internal/services"
	"github.com/taskboard-dev/taskboard/internal/types"
	"github.com/taskboard-dev/taskboard/internal/utils"
)

type CreateProjectRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type UpdateProjectRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

type AssignRoleRequest struct {
	UserID *uint  `json:"user_id"`
	Role   string `json:"role"`
}

type RemoveRoleRequest struct {
	UserID *uint `json:"user_id"`
}

// projectParams resolves the actor and the :project_id path segment.
func projectParams(ctx *gin.Context) (uint, uint, bool) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		respondError(ctx, err)
		return 0, 0, false
	}

	projectID, err := utils.ParamID(ctx, "project_id", "project")

	if err != nil {
		respondError(ctx, err)
		return 0, 0, false
	}

	return userID, projectID, true
}

func (h *Handler) CreateProject(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		respondError(ctx, err)
		return
	}

	var body CreateProjectRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		invalidRequest(ctx)
		return
	}

	project, err := h.manager.CreateProject(ctx.Request.Context(), userID, services.ProjectInput{
		Title:       body.Title,
		Description: body.Description,
	})

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, types.NewProjectResponse(project))
}

func (h *Handler) ListProjects(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		respondError(ctx, err)
		return
	}

	projects, err := h.manager.ListProjects(ctx.Request.Context(), userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	response := make([]types.ProjectResponse, 0, len(projects))

	for i := range projects {
		response = append(response, types.NewProjectResponse(&projects[i]))
	}

	ctx.JSON(http.StatusOK, response)
}

func (h *Handler) GetProject(ctx *gin.Context) {
	userID, projectID, ok := projectParams(ctx)

	if !ok {
		return
	}

	project, err := h.manager.GetProject(ctx.Request.Context(), userID, projectID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, types.NewProjectResponse(project))
}

func (h *Handler) UpdateProject(ctx *gin.Context) {
	userID, projectID, ok := projectParams(ctx)

	if !ok {
		return
	}

	var body UpdateProjectRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		invalidRequest(ctx)
		return
	}

	project, err := h.manager.UpdateProject(ctx.Request.Context(), userID, projectID, services.ProjectPatch{
		Title:       body.Title,
		Description: body.Description,
	})

	if err != nil {
		respondError(ctx, err)
		return
	}

	response := types.NewProjectResponse(project)

	h.hub.Broadcast(realtime.Event{Type: realtime.EventProjectUpdate, ProjectID: project.ID, Data: response})

	ctx.JSON(http.StatusOK, response)
}

func (h *Handler) DeleteProject(ctx *gin.Context) {
	userID, projectID, ok := projectParams(ctx)

	if !ok {
		return
	}

	if err := h.manager.DeleteProject(ctx.Request.Context(), userID, projectID); err != nil {
		respondError(ctx, err)
		return
	}

	h.hub.Broadcast(realtime.Event{Type: realtime.EventProjectDelete, ProjectID: projectID})
	h.hub.Close(projectID)

	ctx.Status(http.StatusNoContent)
}

func (h *Handler) ListRoles(ctx *gin.Context) {
	userID, projectID, ok := projectParams(ctx)

	if !ok {
		return
	}

	roles, err := h.manager.ListRoles(ctx.Request.Context(), userID, projectID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	response := make([]types.RoleResponse, 0, len(roles))

	for i := range roles {
		response = append(response, types.NewRoleResponse(&roles[i]))
	}

	ctx.JSON(http.StatusOK, response)
}

func (h *Handler) AssignRole(ctx *gin.Context) {
	userID, projectID, ok := projectParams(ctx)

	if !ok {
		return
	}

	var body AssignRoleRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		invalidRequest(ctx)
		return
	}

	if body.UserID == nil {
		respondError(ctx, errs.Validation("user_id", "This field is required"))
		return
	}

	if err := h.manager.AssignRole(ctx.Request.Context(), userID, projectID, *body.UserID, body.Role); err != nil {
		respondError(ctx, err)
		return
	}

	h.hub.Broadcast(realtime.Event{
		Type:      realtime.EventRoleChange,
		ProjectID: projectID,
		Data:      gin.H{"user_id": *body.UserID, "role": body.Role},
	})

	ctx.JSON(http.StatusOK, gin.H{"message": "Role assigned/updated"})
}

func (h *Handler) RemoveRole(ctx *gin.Context) {
	userID, projectID, ok := projectParams(ctx)

	if !ok {
		return
	}

	var body RemoveRoleRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		invalidRequest(ctx)
		return
	}

	if body.UserID == nil {
		respondError(ctx, errs.Validation("user_id", "This field is required"))
		return
	}

	if err := h.manager.RemoveRole(ctx.Request.Context(), userID, projectID, *body.UserID); err != nil {
		respondError(ctx, err)
		return
	}

	h.hub.Disconnect(projectID, *body.UserID)

	h.hub.Broadcast(realtime.Event{
		Type:      realtime.EventRoleChange,
		ProjectID: projectID,
		Data:      gin.H{"user_id": *body.UserID, "role": nil},
	})

	ctx.JSON(http.StatusOK, gin.H{"message": "Role removed"})
}
