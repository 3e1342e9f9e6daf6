package server

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	errs "github.com/AmanSingh2427/Chat-app/errors"
	"github.com/AmanSingh2427/Chat-app/models"
	"github.com/AmanSingh2427/Chat-app/server/response"
)

func (s *Server) handleSendMessage() gin.HandlerFunc {
	return func(c *gin.Context) {
		senderID, ok := userIDFromCtx(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.New("Unauthorized", http.StatusUnauthorized))
			return
		}

		request := &models.SendMessageRequest{}
		if err := c.ShouldBindJSON(request); err != nil {
			response.JSON(c, "Receiver ID and message are required", http.StatusBadRequest, nil, err)
			return
		}

		msg, apiErr := s.MessageService.SendDirectMessage(senderID, request)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}

		response.JSON(c, "Message sent successfully", http.StatusCreated, msg, nil)
	}
}

func (s *Server) handleSendGroupMessage() gin.HandlerFunc {
	return func(c *gin.Context) {
		senderID, ok := userIDFromCtx(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.New("Unauthorized", http.StatusUnauthorized))
			return
		}

		request := &models.SendGroupMessageRequest{}
		if err := c.ShouldBindJSON(request); err != nil {
			response.JSON(c, "Group ID and message are required", http.StatusBadRequest, nil, err)
			return
		}

		msg, apiErr := s.MessageService.SendGroupMessage(senderID, request)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}

		response.JSON(c, "Message sent successfully", http.StatusCreated, msg, nil)
	}
}

// handleGetConversation returns the two-sided history with the peer in
// the path. No messages yet means an empty list, not a 404.
func (s *Server) handleGetConversation() gin.HandlerFunc {
	return func(c *gin.Context) {
		viewerID, ok := userIDFromCtx(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.New("Unauthorized", http.StatusUnauthorized))
			return
		}

		peerID, err := strconv.ParseUint(c.Param("peerID"), 10, 32)
		if err != nil {
			response.JSON(c, "invalid peer ID", http.StatusBadRequest, nil, err)
			return
		}

		messages, apiErr := s.MessageService.GetConversation(viewerID, uint(peerID))
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}

		response.JSON(c, "Messages retrieved successfully", http.StatusOK, messages, nil)
	}
}

func (s *Server) handleGetGroupConversation() gin.HandlerFunc {
	return func(c *gin.Context) {
		viewerID, ok := userIDFromCtx(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.New("Unauthorized", http.StatusUnauthorized))
			return
		}

		groupID, err := strconv.ParseUint(c.Param("groupID"), 10, 32)
		if err != nil {
			response.JSON(c, "invalid group ID", http.StatusBadRequest, nil, err)
			return
		}

		messages, apiErr := s.MessageService.GetGroupConversation(viewerID, uint(groupID))
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}

		response.JSON(c, "Messages retrieved successfully", http.StatusOK, messages, nil)
	}
}

// handleMarkRead marks every unread message from the given peer as
// read. Invoked when the viewer opens the conversation, not when a
// message arrives.
func (s *Server) handleMarkRead() gin.HandlerFunc {
	return func(c *gin.Context) {
		viewerID, ok := userIDFromCtx(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.New("Unauthorized", http.StatusUnauthorized))
			return
		}

		request := &models.MarkReadRequest{}
		if err := c.ShouldBindJSON(request); err != nil {
			response.JSON(c, "user ID is required", http.StatusBadRequest, nil, err)
			return
		}

		if apiErr := s.MessageService.MarkRead(viewerID, request.UserID); apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}

		response.JSON(c, "Messages marked as read", http.StatusOK, nil, nil)
	}
}

// handleGetUsers returns the directory: every other user and the
// viewer's groups, annotated with unread counts and recency and ordered
// most-recent first.
func (s *Server) handleGetUsers() gin.HandlerFunc {
	return func(c *gin.Context) {
		viewerID, ok := userIDFromCtx(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.New("Unauthorized", http.StatusUnauthorized))
			return
		}

		summaries, err := s.MessageService.Directory(viewerID)
		if err != nil {
			log.Printf("handleGetUsers error: %v", err)
			response.JSON(c, "Error fetching users", http.StatusInternalServerError, nil, err)
			return
		}

		response.JSON(c, "Users retrieved successfully", http.StatusOK, summaries, nil)
	}
}
