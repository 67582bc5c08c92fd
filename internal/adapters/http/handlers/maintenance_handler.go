package handlers

import (
	"loantracker/internal/core/services"
	"loantracker/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// MaintenanceHandler handles storage housekeeping endpoints (Admin only)
type MaintenanceHandler struct {
	maintenanceService *services.MaintenanceService
}

// NewMaintenanceHandler creates a new maintenance handler
func NewMaintenanceHandler(maintenanceService *services.MaintenanceService) *MaintenanceHandler {
	return &MaintenanceHandler{
		maintenanceService: maintenanceService,
	}
}

// StorageStats handles storage statistics
// @Summary Storage statistics
// @Description Loan counts by status and how many loans cleanup would delete (Admin only)
// @Tags Maintenance
// @Produce json
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Security SessionCookie
// @Router /maintenance/stats [get]
func (h *MaintenanceHandler) StorageStats(c *fiber.Ctx) error {
	stats, err := h.maintenanceService.StorageStats(c.Context())
	if err != nil {
		return handleServiceError(c, err, "Failed to get storage stats")
	}

	return response.Success(c, "Storage stats retrieved successfully", stats)
}

// Cleanup handles the retention cleanup
// @Summary Cleanup old loans
// @Description Delete released and cancelled loans past their retention period (Admin only)
// @Tags Maintenance
// @Produce json
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 500 {object} response.Response
// @Security SessionCookie
// @Router /maintenance/cleanup [post]
func (h *MaintenanceHandler) Cleanup(c *fiber.Ctx) error {
	result, err := h.maintenanceService.Cleanup(c.Context())
	if err != nil {
		// partial counts still tell the admin what was removed
		return c.Status(fiber.StatusInternalServerError).JSON(response.Response{
			Success: false,
			Error:   "Cleanup did not finish",
			Data:    result,
		})
	}

	return response.Success(c, "Cleanup completed", result)
}

// CleanupSessions handles purging expired sessions
// @Summary Cleanup expired sessions
// @Description Delete sessions whose expiry has passed (Admin only)
// @Tags Maintenance
// @Produce json
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Security SessionCookie
// @Router /maintenance/sessions/cleanup [post]
func (h *MaintenanceHandler) CleanupSessions(c *fiber.Ctx) error {
	n, err := h.maintenanceService.CleanupExpiredSessions(c.Context())
	if err != nil {
		return handleServiceError(c, err, "Failed to cleanup sessions")
	}

	return response.Success(c, "Expired sessions deleted", fiber.Map{
		"deleted_count": n,
	})
}
