package server

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	errs "github.com/AmanSingh2427/Chat-app/errors"
	"github.com/AmanSingh2427/Chat-app/models"
	"github.com/AmanSingh2427/Chat-app/server/response"
)

// handleCreateGroup creates a group with the caller as creator and
// implicit member. Group plus membership rows commit atomically.
func (s *Server) handleCreateGroup() gin.HandlerFunc {
	return func(c *gin.Context) {
		creatorID, ok := userIDFromCtx(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.New("Unauthorized", http.StatusUnauthorized))
			return
		}

		request := &models.CreateGroupRequest{}
		if err := c.ShouldBindJSON(request); err != nil {
			response.JSON(c, "Group name and members are required", http.StatusBadRequest, nil, err)
			return
		}

		group, apiErr := s.GroupService.CreateGroup(creatorID, request)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}

		response.JSON(c, "Group created successfully", http.StatusCreated, group, nil)
	}
}

func (s *Server) handleGetGroups() gin.HandlerFunc {
	return func(c *gin.Context) {
		viewerID, ok := userIDFromCtx(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.New("Unauthorized", http.StatusUnauthorized))
			return
		}

		groups, err := s.GroupService.ListGroups(viewerID)
		if err != nil {
			log.Printf("handleGetGroups error: %v", err)
			response.JSON(c, "Error fetching groups", http.StatusInternalServerError, nil, err)
			return
		}

		response.JSON(c, "Groups retrieved successfully", http.StatusOK, groups, nil)
	}
}
