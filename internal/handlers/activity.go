package handlers

import (
	"github.com/carlos-juma/branch.it-IMY220/internal/middleware"
	"github.com/carlos-juma/branch.it-IMY220/internal/services"
	"github.com/carlos-juma/branch.it-IMY220/pkg/response"
	"github.com/gin-gonic/gin"
)

type ActivityHandler struct {
	activityService *services.ActivityService
}

func NewActivityHandler(activityService *services.ActivityService) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

// PersonalFeed covers the caller and their friends
// GET /api/activity/feed
func (h *ActivityHandler) PersonalFeed(c *gin.Context) {
	feed, err := h.activityService.PersonalFeed(c.Request.Context(), middleware.CallerFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, feed)
}

// GlobalFeed
// GET /api/activity/global
func (h *ActivityHandler) GlobalFeed(c *gin.Context) {
	feed, err := h.activityService.GlobalFeed(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, feed)
}

// UserFeed
// GET /api/activity/user/:userId
func (h *ActivityHandler) UserFeed(c *gin.Context) {
	userID, ok := paramID(c, "userId")
	if !ok {
		return
	}

	feed, err := h.activityService.UserFeed(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, feed)
}

// CreateMessage posts a message on a project
// POST /api/activity
func (h *ActivityHandler) CreateMessage(c *gin.Context) {
	var req services.CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	msg, err := h.activityService.CreateMessage(c.Request.Context(), middleware.CallerFrom(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, msg)
}
