package services

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"loantracker/internal/adapters/persistence/models"
	"loantracker/internal/adapters/persistence/repositories"
	"loantracker/internal/core/domain"
	"loantracker/internal/pkg/clock"
	"loantracker/internal/pkg/password"

	"gorm.io/gorm"
)

// DefaultPassword is given to every new or reset account
const DefaultPassword = "password"

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// UserService handles user management business logic
type UserService struct {
	userRepo    repositories.UserRepository
	sessionRepo repositories.SessionRepository
	clock       clock.Clock
}

// NewUserService creates a new user service
func NewUserService(
	userRepo repositories.UserRepository,
	sessionRepo repositories.SessionRepository,
	clk clock.Clock,
) *UserService {
	return &UserService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		clock:       clk,
	}
}

// CreateUserInput represents create user input (admin)
type CreateUserInput struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

func (in *CreateUserInput) validate() (string, string, domain.Role, error) {
	username := strings.TrimSpace(in.Username)
	displayName := strings.TrimSpace(in.DisplayName)

	switch n := utf8.RuneCountInString(username); {
	case n < 3:
		return "", "", "", domain.NewValidationError("Username must be at least 3 characters")
	case n > 50:
		return "", "", "", domain.NewValidationError("Username must be at most 50 characters")
	}
	if !usernamePattern.MatchString(username) {
		return "", "", "", domain.NewValidationError("Username can only contain letters, numbers, and underscores")
	}

	switch n := utf8.RuneCountInString(displayName); {
	case n == 0:
		return "", "", "", domain.NewValidationError("Display name is required")
	case n > 100:
		return "", "", "", domain.NewValidationError("Display name must be at most 100 characters")
	}

	role, ok := domain.ParseRole(in.Role)
	if !ok {
		return "", "", "", domain.NewValidationError("Role must be admin or user")
	}

	return strings.ToLower(username), displayName, role, nil
}

// CreateUser creates a user with the default password
func (s *UserService) CreateUser(ctx context.Context, input *CreateUserInput) (*models.UserResponse, error) {
	username, displayName, role, err := input.validate()
	if err != nil {
		return nil, err
	}

	exists, err := s.userRepo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrUserAlreadyExists
	}

	hash, err := password.Hash(DefaultPassword)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	user := &models.User{
		Username:     username,
		PasswordHash: hash,
		DisplayName:  displayName,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	slog.Info("✅ User created", "username", user.Username, "role", user.Role)
	return user.ToResponse(), nil
}

// ResetPassword sets the default password and signs the user out everywhere
func (s *UserService) ResetPassword(ctx context.Context, userID uint) error {
	hash, err := password.Hash(DefaultPassword)
	if err != nil {
		return err
	}

	if err := s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{
		"password_hash": hash,
		"updated_at":    s.clock.Now(),
	}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	if _, err := s.sessionRepo.DeleteByUserID(ctx, userID); err != nil {
		return err
	}

	slog.Info("✅ Password reset", "user_id", userID)
	return nil
}

// ToggleUserStatus flips a user's active flag. Disabling a user deletes all
// of their sessions.
func (s *UserService) ToggleUserStatus(ctx context.Context, actorID, userID uint) (*models.UserResponse, error) {
	if actorID == userID {
		return nil, domain.ErrCannotDisableSelf
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	active := !user.IsActive
	now := s.clock.Now()
	if err := s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{
		"is_active":  active,
		"updated_at": now,
	}); err != nil {
		return nil, err
	}

	if !active {
		if _, err := s.sessionRepo.DeleteByUserID(ctx, userID); err != nil {
			return nil, err
		}
	}

	user.IsActive = active
	user.UpdatedAt = now

	slog.Info("✅ User status changed", "user_id", userID, "active", active)
	return user.ToResponse(), nil
}

// ListUsers lists all users, newest first
func (s *UserService) ListUsers(ctx context.Context) ([]*models.UserResponse, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]*models.UserResponse, len(users))
	for i, u := range users {
		responses[i] = u.ToResponse()
	}
	return responses, nil
}

// GetUser gets a user by ID
func (s *UserService) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
