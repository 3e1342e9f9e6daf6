package server

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	errs "github.com/AmanSingh2427/Chat-app/errors"
	"github.com/AmanSingh2427/Chat-app/models"
	"github.com/AmanSingh2427/Chat-app/server/response"
)

func (s *Server) handleSignup() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := &models.User{
			Username: c.PostForm("username"),
			Email:    c.PostForm("email"),
			Password: c.PostForm("password"),
		}
		if user.Username == "" || user.Email == "" || user.Password == "" {
			response.JSON(c, "All fields are required", http.StatusBadRequest, nil, errs.New("All fields are required", http.StatusBadRequest))
			return
		}

		createdUser, err := s.AuthService.SignupUser(user)
		if err != nil {
			if apiErr, ok := err.(*errs.Error); ok {
				response.JSON(c, "", apiErr.Status, nil, apiErr)
				return
			}
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		// Avatar is optional; when present it is thumbnailed and stored
		// on disk after the user row exists.
		if fileHeader, fErr := c.FormFile("image"); fErr == nil && fileHeader != nil {
			filename, mErr := s.MediaService.StoreAvatar(createdUser.ID, fileHeader)
			if mErr != nil {
				log.Printf("handleSignup avatar error: %v", mErr)
				response.JSON(c, "Error storing avatar image", http.StatusBadRequest, nil, mErr)
				return
			}
			createdUser.Image = filename
		}

		response.JSON(c, "User registered successfully", http.StatusCreated, createdUser.ToUserResponse(), nil)
	}
}

func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		loginRequest := &models.LoginRequest{}
		if err := c.ShouldBindJSON(loginRequest); err != nil {
			response.JSON(c, "Email and password are required", http.StatusBadRequest, nil, err)
			return
		}

		userResponse, apiErr := s.AuthService.LoginUser(loginRequest)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}

		response.JSON(c, "Login successful", http.StatusOK, userResponse, nil)
	}
}

// handleShowProfile returns the viewer's own record with their total
// unread message count, the badge the client shows before any
// conversation is opened.
func (s *Server) handleShowProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := userIDFromCtx(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.New("Unauthorized", http.StatusUnauthorized))
			return
		}

		profile, err := s.AuthService.GetUserProfile(userID)
		if err != nil {
			log.Printf("handleShowProfile error: %v", err)
			response.JSON(c, "Error fetching user details", http.StatusInternalServerError, nil, err)
			return
		}

		response.JSON(c, "User profile retrieved successfully", http.StatusOK, profile, nil)
	}
}

func (s *Server) handleUpdateUserImage() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := userIDFromCtx(c)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, errs.New("Unauthorized", http.StatusUnauthorized))
			return
		}

		fileHeader, err := c.FormFile("image")
		if err != nil {
			response.JSON(c, "image file is required", http.StatusBadRequest, nil, err)
			return
		}

		filename, err := s.MediaService.StoreAvatar(userID, fileHeader)
		if err != nil {
			log.Printf("handleUpdateUserImage error: %v", err)
			response.JSON(c, "Error storing avatar image", http.StatusBadRequest, nil, err)
			return
		}

		response.JSON(c, "Avatar updated successfully", http.StatusOK, gin.H{"image": filename}, nil)
	}
}
