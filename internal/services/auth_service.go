package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"alumnihub_backend/internal/auth"
	"alumnihub_backend/internal/logger"
	"alumnihub_backend/internal/models"
	"alumnihub_backend/internal/repositories"
	"alumnihub_backend/pkg/apperrors"
)

// AuthService authenticates staff and admin users for the management API.
type AuthService struct {
	users *repositories.UserRepository
}

func NewAuthService(users *repositories.UserRepository) *AuthService {
	return &AuthService{users: users}
}

// Login verifies credentials and returns a signed bearer token. Lookup and
// password failures return the same error so a caller cannot probe which
// emails exist.
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (string, *models.User, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, apperrors.InternalError(err)
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		logger.CtxWarn(ctx, "login rejected", "email", req.Email)
		return "", nil, apperrors.ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(user)
	if err != nil {
		return "", nil, apperrors.InternalError(err)
	}
	return token, user, nil
}

func (s *AuthService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound(err)
	}
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return user, nil
}
