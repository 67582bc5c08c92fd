package handlers

import (
	"loantracker/internal/adapters/http/middleware"
	"loantracker/internal/core/services"
	"loantracker/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles user management endpoints (Admin only)
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// CreateUserRequest represents create user request body
type CreateUserRequest struct {
	Username    string `json:"username" form:"username"`
	DisplayName string `json:"display_name" form:"displayName"`
	Role        string `json:"role" form:"role"`
}

// ListUsers handles listing all users (Admin only)
// @Summary List all users
// @Description List every user, newest first (Admin only)
// @Tags Users
// @Produce json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Security SessionCookie
// @Router /users [get]
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.userService.ListUsers(c.Context())
	if err != nil {
		return handleServiceError(c, err, "Failed to list users")
	}

	return response.Success(c, "Users retrieved successfully", users)
}

// GetUser handles getting a user by ID (Admin only)
// @Summary Get user by ID
// @Description Get a specific user by ID (Admin only)
// @Tags Users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Security SessionCookie
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid user ID")
	}

	user, err := h.userService.GetUser(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err, "Failed to get user")
	}

	return response.Success(c, "User retrieved successfully", user.ToResponse())
}

// CreateUser handles user creation (Admin only)
// @Summary Create user
// @Description Create a user with the default password (Admin only)
// @Tags Users
// @Accept json
// @Produce json
// @Param body body CreateUserRequest true "User data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Security SessionCookie
// @Router /users [post]
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var req CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	user, err := h.userService.CreateUser(c.Context(), &services.CreateUserInput{
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Role:        req.Role,
	})
	if err != nil {
		return handleServiceError(c, err, "Failed to create user")
	}

	return response.Created(c, "User created successfully", user)
}

// ResetPassword handles resetting a user's password (Admin only)
// @Summary Reset user password
// @Description Reset to the default password and sign the user out everywhere (Admin only)
// @Tags Users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Security SessionCookie
// @Router /users/{id}/reset-password [post]
func (h *UserHandler) ResetPassword(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid user ID")
	}

	if err := h.userService.ResetPassword(c.Context(), id); err != nil {
		return handleServiceError(c, err, "Failed to reset password")
	}

	return response.Success(c, "Password reset successfully", nil)
}

// ToggleUserStatus handles enabling or disabling a user (Admin only)
// @Summary Toggle user status
// @Description Enable or disable a user; disabling ends all their sessions (Admin only)
// @Tags Users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Security SessionCookie
// @Router /users/{id}/toggle-status [post]
func (h *UserHandler) ToggleUserStatus(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid user ID")
	}

	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Authentication required")
	}

	user, err := h.userService.ToggleUserStatus(c.Context(), actor.UserID, id)
	if err != nil {
		return handleServiceError(c, err, "Failed to change user status")
	}

	return response.Success(c, "User status updated successfully", user)
}
