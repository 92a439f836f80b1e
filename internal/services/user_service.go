package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"akra-backend/internal/auth"
	"akra-backend/internal/cache"
	"akra-backend/internal/models"
	"akra-backend/internal/repositories"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username is already taken")
)

type UserService struct {
	users      *repositories.UserRepository
	jwtManager *auth.JWTManager
}

func NewUserService(users *repositories.UserRepository, jwtManager *auth.JWTManager) *UserService {
	return &UserService{users: users, jwtManager: jwtManager}
}

// Signup registers a new player account with a zero balance.
func (s *UserService) Signup(ctx context.Context, req *models.SignupRequest) (*models.AuthResponse, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	if username == "" || len(req.Password) < 6 {
		return nil, errors.New("username and a password of at least 6 characters are required")
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         "player",
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	user.IsActive = true

	token, err := s.jwtManager.GenerateToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &models.AuthResponse{Token: token, User: user}, nil
}

// Login authenticates a user and issues a JWT.
func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, errors.New("account suspended")
	}

	token, err := s.jwtManager.GenerateToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &models.AuthResponse{Token: token, User: user}, nil
}

// CreateUser is the admin path for adding accounts with a role and an
// opening balance.
func (s *UserService) CreateUser(ctx context.Context, req *models.CreateUserRequest) (*models.User, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	if username == "" || len(req.Password) < 6 {
		return nil, errors.New("username and a password of at least 6 characters are required")
	}
	if req.Role != "admin" && req.Role != "player" {
		return nil, errors.New("role must be admin or player")
	}
	if req.Balance < 0 {
		return nil, errors.New("opening balance cannot be negative")
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         req.Role,
		Balance:      req.Balance,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	user.IsActive = true
	cache.InvalidateUserCaches(ctx)
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id int) (*models.User, error) {
	return s.users.Get(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	return s.users.List(ctx)
}

// UpdateUser applies admin edits; a blank password keeps the old one.
func (s *UserService) UpdateUser(ctx context.Context, id int, req *models.UpdateUserRequest) (*models.User, error) {
	user, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("user %d not found: %w", id, err)
	}
	if req.Role != "admin" && req.Role != "player" {
		return nil, errors.New("role must be admin or player")
	}

	user.Name = req.Name
	user.Role = req.Role
	user.IsActive = req.IsActive
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	cache.InvalidateUserCaches(ctx)
	return user, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id int) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user %d: %w", id, err)
	}
	cache.InvalidateUserCaches(ctx)
	return nil
}
