package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"loantracker/internal/adapters/persistence/models"
	"loantracker/internal/adapters/persistence/repositories"
	"loantracker/internal/config"
	"loantracker/internal/core/domain"
	"loantracker/internal/pkg/clock"
	"loantracker/internal/pkg/metrics"
	"loantracker/internal/pkg/password"

	"gorm.io/gorm"
)

// AuthService handles login, sessions and password changes
type AuthService struct {
	userRepo    repositories.UserRepository
	sessionRepo repositories.SessionRepository
	cfg         *config.Config
	clock       clock.Clock
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repositories.UserRepository,
	sessionRepo repositories.SessionRepository,
	cfg *config.Config,
	clk clock.Clock,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		cfg:         cfg,
		clock:       clk,
	}
}

// LoginInput represents login input
type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ChangePasswordInput represents change password input
type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Authenticate checks credentials and opens a session. Every failure after
// input validation returns ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, input *LoginInput) (*domain.Session, error) {
	username := strings.ToLower(strings.TrimSpace(input.Username))
	if username == "" {
		return nil, domain.NewValidationError("Username is required")
	}
	if input.Password == "" {
		return nil, domain.NewValidationError("Password is required")
	}

	// 1. Find user by username
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			password.VerifyDummy(input.Password)
			metrics.LoginAttempts.WithLabelValues("rejected").Inc()
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	// 2. Inactive accounts look exactly like bad credentials, timing included
	matched := password.Verify(input.Password, user.PasswordHash)
	if !user.IsActive || !matched {
		metrics.LoginAttempts.WithLabelValues("rejected").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	// 3. Update last login
	now := s.clock.Now()
	if err := s.userRepo.UpdateFields(ctx, user.ID, map[string]interface{}{
		"last_login_at": now,
		"updated_at":    now,
	}); err != nil {
		return nil, err
	}

	// 4. Open session
	session, err := s.CreateSession(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	session.Actor = user.ToActor()

	metrics.LoginAttempts.WithLabelValues("accepted").Inc()
	slog.Info("✅ User logged in", "username", user.Username)

	return session, nil
}

// CreateSession issues a new random session token for the user. Only the
// token hash is stored.
func (s *AuthService) CreateSession(ctx context.Context, userID uint) (*domain.Session, error) {
	token, err := password.GenerateToken()
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	session := &models.Session{
		ID:        password.HashToken(token),
		UserID:    userID,
		ExpiresAt: now.Add(s.cfg.SessionDuration()),
		CreatedAt: now,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	return &domain.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// ResolveSession returns the session for a raw token if it is unexpired and
// its owner is still active
func (s *AuthService) ResolveSession(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, domain.ErrSessionInvalid
	}

	stored, err := s.sessionRepo.GetValid(ctx, password.HashToken(token), s.clock.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSessionInvalid
		}
		return nil, err
	}

	return &domain.Session{
		Token:     token,
		UserID:    stored.UserID,
		ExpiresAt: stored.ExpiresAt,
		Actor:     stored.User.ToActor(),
	}, nil
}

// DestroySession deletes the session behind a raw token. Unknown tokens are
// ignored.
func (s *AuthService) DestroySession(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessionRepo.Delete(ctx, password.HashToken(token)); err != nil {
		return err
	}

	slog.Info("✅ User logged out")
	return nil
}

// InvalidateAllSessionsForUser deletes every session of a user
func (s *AuthService) InvalidateAllSessionsForUser(ctx context.Context, userID uint) (int64, error) {
	n, err := s.sessionRepo.DeleteByUserID(ctx, userID)
	if err != nil {
		return 0, err
	}

	slog.Info("✅ All sessions revoked", "user_id", userID, "count", n)
	return n, nil
}

// GetUserByID gets a user by ID
func (s *AuthService) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// ChangePassword changes the caller's own password after verifying the
// current one
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, input *ChangePasswordInput) error {
	if input.CurrentPassword == "" {
		return domain.NewValidationError("Current password is required")
	}
	if !password.ValidatePassword(input.NewPassword) {
		return domain.NewValidationError("Password must be at least 8 characters")
	}
	if input.NewPassword != input.ConfirmPassword {
		return domain.NewValidationError("Passwords don't match")
	}

	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if !password.Verify(input.CurrentPassword, user.PasswordHash) {
		return domain.ErrWrongPassword
	}

	hash, err := password.Hash(input.NewPassword)
	if err != nil {
		return err
	}

	if err := s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{
		"password_hash": hash,
		"updated_at":    s.clock.Now(),
	}); err != nil {
		return err
	}

	slog.Info("✅ Password changed", "user_id", userID)
	return nil
}
