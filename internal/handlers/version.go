package handlers

import (
	"github.com/carlos-juma/branch.it-IMY220/internal/middleware"
	"github.com/carlos-juma/branch.it-IMY220/internal/services"
	"github.com/carlos-juma/branch.it-IMY220/pkg/response"
	"github.com/gin-gonic/gin"
)

// VersionHandler serves the files and commits of a project.
type VersionHandler struct {
	versionService  *services.VersionService
	activityService *services.ActivityService
}

func NewVersionHandler(versionService *services.VersionService, activityService *services.ActivityService) *VersionHandler {
	return &VersionHandler{versionService: versionService, activityService: activityService}
}

// ListFiles
// GET /api/projects/:id/files
func (h *VersionHandler) ListFiles(c *gin.Context) {
	projectID, ok := paramID(c, "id")
	if !ok {
		return
	}

	files, err := h.versionService.ListFiles(c.Request.Context(), projectID, middleware.CallerFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, files)
}

// UploadFile
// POST /api/projects/:id/files
func (h *VersionHandler) UploadFile(c *gin.Context) {
	projectID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req services.UploadFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	file, err := h.versionService.UploadFile(c.Request.Context(), projectID, middleware.CallerFrom(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, file)
}

// GetFile
// GET /api/projects/:id/files/:fileId
func (h *VersionHandler) GetFile(c *gin.Context) {
	projectID, ok := paramID(c, "id")
	if !ok {
		return
	}
	fileID, ok := paramID(c, "fileId")
	if !ok {
		return
	}

	file, err := h.versionService.GetFile(c.Request.Context(), projectID, fileID, middleware.CallerFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, file)
}

// UpdateFile overwrites content in place
// PUT /api/projects/:id/files/:fileId
func (h *VersionHandler) UpdateFile(c *gin.Context) {
	projectID, ok := paramID(c, "id")
	if !ok {
		return
	}
	fileID, ok := paramID(c, "fileId")
	if !ok {
		return
	}

	var req services.UpdateFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	file, err := h.versionService.UpdateFile(c.Request.Context(), projectID, fileID, middleware.CallerFrom(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, file)
}

// DeleteFile
// DELETE /api/projects/:id/files/:fileId
func (h *VersionHandler) DeleteFile(c *gin.Context) {
	projectID, ok := paramID(c, "id")
	if !ok {
		return
	}
	fileID, ok := paramID(c, "fileId")
	if !ok {
		return
	}

	if err := h.versionService.DeleteFile(c.Request.Context(), projectID, fileID, middleware.CallerFrom(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// ListCommits
// GET /api/projects/:id/commits
func (h *VersionHandler) ListCommits(c *gin.Context) {
	projectID, ok := paramID(c, "id")
	if !ok {
		return
	}

	commits, err := h.versionService.ListCommits(c.Request.Context(), projectID, middleware.CallerFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, commits)
}

// CreateCommit records a commit and announces it on the live feed
// POST /api/projects/:id/commits
func (h *VersionHandler) CreateCommit(c *gin.Context) {
	projectID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req services.CreateCommitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	commit, err := h.versionService.CreateCommit(c.Request.Context(), projectID, middleware.CallerFrom(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.activityService.PublishCommit(c.Request.Context(), commit)
	response.Created(c, commit)
}

// GetCommit returns a commit with its changed files
// GET /api/projects/:id/commits/:commitId
func (h *VersionHandler) GetCommit(c *gin.Context) {
	projectID, ok := paramID(c, "id")
	if !ok {
		return
	}
	commitID, ok := paramID(c, "commitId")
	if !ok {
		return
	}

	detail, err := h.versionService.GetCommit(c.Request.Context(), projectID, commitID, middleware.CallerFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, detail)
}

// ProjectActivity returns the project's most recent commits
// GET /api/projects/:id/activity
func (h *VersionHandler) ProjectActivity(c *gin.Context) {
	projectID, ok := paramID(c, "id")
	if !ok {
		return
	}

	commits, err := h.versionService.ProjectActivity(c.Request.Context(), projectID, middleware.CallerFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, commits)
}
