package handlers

import (
	"time"

	"loantracker/internal/adapters/http/middleware"
	"loantracker/internal/config"
	"loantracker/internal/core/domain"
	"loantracker/internal/core/services"
	"loantracker/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *services.AuthService
	cfg         *config.Config
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cfg:         cfg,
	}
}

// LoginRequest represents login request body
type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// ChangePasswordRequest represents change password request body
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" form:"currentPassword"`
	NewPassword     string `json:"new_password" form:"newPassword"`
	ConfirmPassword string `json:"confirm_password" form:"confirmPassword"`
}

// ActorResponse is the signed-in user as seen by the client
type ActorResponse struct {
	ID          uint        `json:"id"`
	Username    string      `json:"username"`
	DisplayName string      `json:"display_name"`
	Role        domain.Role `json:"role"`
	IsAdmin     bool        `json:"is_admin"`
}

func toActorResponse(a *domain.Actor) *ActorResponse {
	return &ActorResponse{
		ID:          a.UserID,
		Username:    a.Username,
		DisplayName: a.DisplayName,
		Role:        a.Role,
		IsAdmin:     a.IsAdmin(),
	}
}

// Login handles user login
// @Summary Login user
// @Description Check credentials, open a session and set the session cookie
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Login credentials"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 429 {object} response.Response
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	session, err := h.authService.Authenticate(c.Context(), &services.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return handleServiceError(c, err, "Failed to login")
	}

	middleware.SetSessionCookie(c, h.cfg, session.Token, session.ExpiresAt)

	return response.Success(c, "Login successful", fiber.Map{
		"user":       toActorResponse(&session.Actor),
		"expires_at": session.ExpiresAt.Format(time.RFC3339),
	})
}

// Logout handles user logout
// @Summary Logout user
// @Description Delete the current session and clear the session cookie
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Response
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.authService.DestroySession(c.Context(), c.Cookies(middleware.SessionCookieName)); err != nil {
		return handleServiceError(c, err, "Failed to logout")
	}

	middleware.ClearSessionCookie(c, h.cfg)

	if middleware.WantsHTML(c) {
		return c.Redirect(middleware.LoginPath, fiber.StatusFound)
	}
	return response.Success(c, "Logout successful", nil)
}

// Me returns the current user
// @Summary Current user
// @Description Get the signed-in user
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Security SessionCookie
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Authentication required")
	}

	return response.Success(c, "User retrieved successfully", toActorResponse(actor))
}

// ChangePassword handles password change for the current user
// @Summary Change password
// @Description Change own password after confirming the current one
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body ChangePasswordRequest true "Password change"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Security SessionCookie
// @Router /auth/password [put]
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Authentication required")
	}

	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.authService.ChangePassword(c.Context(), actor.UserID, &services.ChangePasswordInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	}); err != nil {
		return handleServiceError(c, err, "Failed to change password")
	}

	return response.Success(c, "Password changed successfully", nil)
}
