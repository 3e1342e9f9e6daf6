package services

import (
	"errors"
	"log"
	"net/http"

	"github.com/AmanSingh2427/Chat-app/config"
	"github.com/AmanSingh2427/Chat-app/db"
	apiError "github.com/AmanSingh2427/Chat-app/errors"
	"github.com/AmanSingh2427/Chat-app/models"
	"github.com/AmanSingh2427/Chat-app/services/jwt"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService interface
type AuthService interface {
	SignupUser(request *models.User) (*models.User, error)
	LoginUser(loginRequest *models.LoginRequest) (*models.LoginResponse, *apiError.Error)
	GetUserProfile(userID uint) (*models.ProfileResponse, error)
}

// authService struct
type authService struct {
	Config      *config.Config
	authRepo    db.AuthRepository
	messageRepo db.MessageRepository
}

// NewAuthService instantiate an authService
func NewAuthService(authRepo db.AuthRepository, messageRepo db.MessageRepository, conf *config.Config) AuthService {
	return &authService{
		Config:      conf,
		authRepo:    authRepo,
		messageRepo: messageRepo,
	}
}

func (s *authService) SignupUser(user *models.User) (*models.User, error) {
	if user == nil {
		log.Println("SignupUser error: user is nil")
		return nil, errors.New("user is nil")
	}

	if err := models.ValidateWhiteSpaces(user); err != nil {
		log.Printf("SignupUser conform error: %v", err)
		return nil, err
	}

	if user.Email == "" {
		log.Println("SignupUser error: email is empty")
		return nil, errors.New("email is empty")
	}

	if err := models.ValidatePassword(user.Password); err != nil {
		return nil, err
	}

	// Check if the email already exists
	err := s.authRepo.IsEmailExist(user.Email)
	if err != nil {
		log.Printf("SignupUser error: %v", err)
		return nil, apiError.GetUniqueContraintError(err)
	}

	// Hash the password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("SignupUser error hashing password: %v", err)
		return nil, apiError.ErrInternalServerError
	}
	user.HashedPassword = string(hashedPassword)
	user.Password = "" // Clear the plain password

	user, err = s.authRepo.CreateUser(user)
	if err != nil {
		log.Printf("SignupUser error creating user: %v", err)
		return nil, apiError.ErrInternalServerError
	}

	return user, nil
}

func (s *authService) LoginUser(loginRequest *models.LoginRequest) (*models.LoginResponse, *apiError.Error) {
	if err := models.ValidateWhiteSpaces(loginRequest); err != nil {
		return nil, apiError.New("invalid login request", http.StatusBadRequest)
	}

	user, err := s.authRepo.FindUserByEmail(loginRequest.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apiError.New("invalid credentials", http.StatusUnauthorized)
		}
		log.Printf("LoginUser error: %v", err)
		return nil, apiError.ErrInternalServerError
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(loginRequest.Password)); err != nil {
		return nil, apiError.New("invalid credentials", http.StatusUnauthorized)
	}

	accessToken, err := jwt.GenerateToken(user.ID, user.Email, s.Config.JWTSecret)
	if err != nil {
		log.Printf("LoginUser error generating token: %v", err)
		return nil, apiError.ErrInternalServerError
	}

	return &models.LoginResponse{
		UserResponse: user.ToUserResponse(),
		AccessToken:  accessToken,
	}, nil
}

// GetUserProfile returns the viewer's own record along with their total
// unread direct-message count, recomputed from the message rows.
func (s *authService) GetUserProfile(userID uint) (*models.ProfileResponse, error) {
	user, err := s.authRepo.FindUserByID(userID)
	if err != nil {
		return nil, err
	}

	unread, err := s.messageRepo.CountUnread(userID)
	if err != nil {
		return nil, err
	}

	return &models.ProfileResponse{
		UserResponse:   user.ToUserResponse(),
		UnreadMessages: unread,
	}, nil
}
