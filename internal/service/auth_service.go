package service

import (
	"errors"

	"github.com/finora/finora-backend/internal/domain"
	"github.com/rs/zerolog/log"
)

// AuthService handles authentication-related business logic
type AuthService struct {
	userRepo domain.UserRepository
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo domain.UserRepository) *AuthService {
	return &AuthService{userRepo: userRepo}
}

// AuthResult represents the result of an authentication operation
type AuthResult struct {
	User      *domain.User
	IsNewUser bool
}

// AuthenticateUser provisions the local user for an Auth0 identity on first login
func (s *AuthService) AuthenticateUser(auth0ID, email string, name *string) (*AuthResult, error) {
	isNew := false
	if _, err := s.userRepo.GetByAuth0ID(auth0ID); err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			log.Error().Err(err).Str("auth0_id", auth0ID).Msg("Failed to look up user")
			return nil, err
		}
		isNew = true
	}

	user, err := s.userRepo.CreateOrGetByAuth0ID(auth0ID, email, name)
	if err != nil {
		log.Error().Err(err).Str("auth0_id", auth0ID).Msg("Failed to create or get user")
		return nil, err
	}

	if isNew {
		log.Info().Int32("user_id", user.ID).Msg("Created new user")
	} else {
		log.Info().Int32("user_id", user.ID).Msg("Existing user authenticated")
	}
	return &AuthResult{User: user, IsNewUser: isNew}, nil
}

// GetUserByID retrieves a user by their ID
func (s *AuthService) GetUserByID(id int32) (*domain.User, error) {
	return s.userRepo.GetByID(id)
}

// GetUserByAuth0ID retrieves a user by their Auth0 ID
func (s *AuthService) GetUserByAuth0ID(auth0ID string) (*domain.User, error) {
	return s.userRepo.GetByAuth0ID(auth0ID)
}

// GetUserIDByAuth0ID resolves the local user ID of an Auth0 subject
func (s *AuthService) GetUserIDByAuth0ID(auth0ID string) (int32, error) {
	user, err := s.userRepo.GetByAuth0ID(auth0ID)
	if err != nil {
		return 0, err
	}
	return user.ID, nil
}
