package handlers

import (
	"strings"

	"github.com/carlos-juma/branch.it-IMY220/internal/middleware"
	"github.com/carlos-juma/branch.it-IMY220/internal/services"
	"github.com/carlos-juma/branch.it-IMY220/pkg/response"
	"github.com/gin-gonic/gin"
)

// SearchHandler exposes substring search over users, projects and commits.
type SearchHandler struct {
	searchService *services.SearchService
}

func NewSearchHandler(searchService *services.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// Users
// GET /api/search/users?query=
func (h *SearchHandler) Users(c *gin.Context) {
	users, err := h.searchService.Users(c.Request.Context(), c.Query("query"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, users)
}

// Projects searches public projects; tags may repeat or be comma separated
// GET /api/search/projects?query=&type=&tags=
func (h *SearchHandler) Projects(c *gin.Context) {
	var req services.ProjectSearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	req.Tags = splitList(req.Tags)

	projects, err := h.searchService.Projects(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, projects)
}

// Commits
// GET /api/search/commits?query=&projectType=&hashtags=
func (h *SearchHandler) Commits(c *gin.Context) {
	var req services.CommitSearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	req.Hashtags = splitList(req.Hashtags)

	commits, err := h.searchService.Commits(c.Request.Context(), middleware.CallerFrom(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, commits)
}

// All
// GET /api/search/all?query=
func (h *SearchHandler) All(c *gin.Context) {
	result, err := h.searchService.All(c.Request.Context(), middleware.CallerFrom(c), c.Query("query"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// splitList flattens "a,b"-style query values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
