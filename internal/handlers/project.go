package handlers

import (
	"github.com/carlos-juma/branch.it-IMY220/internal/middleware"
	"github.com/carlos-juma/branch.it-IMY220/internal/services"
	"github.com/carlos-juma/branch.it-IMY220/pkg/response"
	"github.com/gin-gonic/gin"
)

type ProjectHandler struct {
	projectService *services.ProjectService
}

func NewProjectHandler(projectService *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

// List returns public projects
// GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	var req services.ProjectListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.projectService.ListPublicProjects(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// GetByID returns a project with its owner and collaborators
// GET /api/projects/:id
func (h *ProjectHandler) GetByID(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	project, err := h.projectService.GetProject(c.Request.Context(), id, middleware.CallerFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, project)
}

// Create creates a project owned by the caller
// POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req services.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.CreateProject(c.Request.Context(), middleware.CallerFrom(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, project)
}

// Update edits project metadata; owner only
// PUT /api/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.UpdateProject(c.Request.Context(), id, middleware.CallerFrom(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, project)
}

// Delete removes a project and everything it owns
// DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.projectService.DeleteProject(c.Request.Context(), id, middleware.CallerFrom(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// ListCollaborators
// GET /api/projects/:id/collaborators
func (h *ProjectHandler) ListCollaborators(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	users, err := h.projectService.ListCollaborators(c.Request.Context(), id, middleware.CallerFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, users)
}

// AddCollaborator
// POST /api/projects/:id/collaborators/:userId
func (h *ProjectHandler) AddCollaborator(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	userID, ok := paramID(c, "userId")
	if !ok {
		return
	}

	collaborator, err := h.projectService.AddCollaborator(c.Request.Context(), id, middleware.CallerFrom(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, collaborator)
}

// RemoveCollaborator
// DELETE /api/projects/:id/collaborators/:userId
func (h *ProjectHandler) RemoveCollaborator(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	userID, ok := paramID(c, "userId")
	if !ok {
		return
	}

	if err := h.projectService.RemoveCollaborator(c.Request.Context(), id, middleware.CallerFrom(c), userID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
