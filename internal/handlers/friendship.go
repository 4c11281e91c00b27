package handlers

import (
	"github.com/carlos-juma/branch.it-IMY220/internal/middleware"
	"github.com/carlos-juma/branch.it-IMY220/internal/services"
	"github.com/carlos-juma/branch.it-IMY220/pkg/response"
	"github.com/gin-gonic/gin"
)

type FriendshipHandler struct {
	friendshipService *services.FriendshipService
}

func NewFriendshipHandler(friendshipService *services.FriendshipService) *FriendshipHandler {
	return &FriendshipHandler{friendshipService: friendshipService}
}

// SendRequest
// POST /api/friendships/request
func (h *FriendshipHandler) SendRequest(c *gin.Context) {
	var req services.FriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	friendship, err := h.friendshipService.SendRequest(c.Request.Context(), middleware.CallerFrom(c), req.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, friendship)
}

// ListReceived returns pending requests addressed to the caller
// GET /api/friendships/requests
func (h *FriendshipHandler) ListReceived(c *gin.Context) {
	requests, err := h.friendshipService.ListReceived(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, requests)
}

// ListSent returns pending requests the caller sent
// GET /api/friendships/requests/sent
func (h *FriendshipHandler) ListSent(c *gin.Context) {
	requests, err := h.friendshipService.ListSent(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, requests)
}

// Accept
// PUT /api/friendships/accept/:requestId
func (h *FriendshipHandler) Accept(c *gin.Context) {
	h.respond(c, true)
}

// Decline
// DELETE /api/friendships/decline/:requestId
func (h *FriendshipHandler) Decline(c *gin.Context) {
	h.respond(c, false)
}

func (h *FriendshipHandler) respond(c *gin.Context, accept bool) {
	requestID, ok := paramID(c, "requestId")
	if !ok {
		return
	}

	friendship, err := h.friendshipService.Respond(c.Request.Context(), middleware.CallerFrom(c), requestID, accept)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !accept {
		response.Success(c, nil)
		return
	}
	response.Success(c, friendship)
}

// ListFriends
// GET /api/friendships
func (h *FriendshipHandler) ListFriends(c *gin.Context) {
	friends, err := h.friendshipService.ListFriends(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, friends)
}

// Unfriend
// DELETE /api/friendships/:friendId
func (h *FriendshipHandler) Unfriend(c *gin.Context) {
	friendID, ok := paramID(c, "friendId")
	if !ok {
		return
	}

	if err := h.friendshipService.Unfriend(c.Request.Context(), middleware.CallerFrom(c), friendID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// Status reports the relation between the caller and another user
// GET /api/friendships/status/:userId
func (h *FriendshipHandler) Status(c *gin.Context) {
	userID, ok := paramID(c, "userId")
	if !ok {
		return
	}

	view, err := h.friendshipService.Status(c.Request.Context(), middleware.CallerFrom(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, view)
}
