package handlers

import (
	"loantracker/internal/adapters/http/middleware"
	"loantracker/internal/core/services"
	"loantracker/internal/pkg/currency"
	"loantracker/internal/pkg/pagination"
	"loantracker/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// LoanHandler handles loan, status and note endpoints
type LoanHandler struct {
	loanService *services.LoanService
}

// NewLoanHandler creates a new loan handler
func NewLoanHandler(loanService *services.LoanService) *LoanHandler {
	return &LoanHandler{
		loanService: loanService,
	}
}

// CreateLoanRequest represents create loan request body
type CreateLoanRequest struct {
	ApplicantName   string `json:"applicant_name" form:"applicantName"`
	ApplicationDate string `json:"application_date" form:"applicationDate"`
	Amount          string `json:"amount" form:"amount"`
}

// UpdateLoanRequest represents a partial loan edit; omitted fields are kept
type UpdateLoanRequest struct {
	ApplicantName   *string `json:"applicant_name"`
	ApplicationDate *string `json:"application_date"`
	Amount          *string `json:"amount"`
}

// ChangeStatusRequest represents status change request body
type ChangeStatusRequest struct {
	Status       string  `json:"status" form:"status"`
	Notes        *string `json:"notes" form:"notes"`
	MaturityDate *string `json:"maturity_date" form:"maturityDate"`
}

// AddNoteRequest represents add note request body
type AddNoteRequest struct {
	Content string `json:"content" form:"content"`
}

// SummaryResponse is the released-amount summary
type SummaryResponse struct {
	TotalReleased          string               `json:"total_released"`
	TotalReleasedFormatted string               `json:"total_released_formatted"`
	Breakdown              []services.YearTotal `json:"breakdown"`
}

func listInputFromQuery(c *fiber.Ctx) *services.ListLoansInput {
	params := pagination.GetParams(c)
	return &services.ListLoansInput{
		Status:            c.Query("status"),
		Search:            c.Query("search"),
		StartDate:         c.Query("startDate"),
		EndDate:           c.Query("endDate"),
		MaturityStartDate: c.Query("maturityStartDate"),
		MaturityEndDate:   c.Query("maturityEndDate"),
		SortOrder:         c.Query("sortOrder", "desc"),
		Limit:             params.Limit,
		Offset:            params.Offset,
	}
}

// ListLoans handles listing loans
// @Summary List loans
// @Description List loans with filters, newest application first by default
// @Tags Loans
// @Produce json
// @Param status query string false "Status filter"
// @Param search query string false "Applicant name contains"
// @Param startDate query string false "Application date from (YYYY-MM-DD)"
// @Param endDate query string false "Application date to, inclusive (YYYY-MM-DD)"
// @Param maturityStartDate query string false "Maturity date from (YYYY-MM-DD)"
// @Param maturityEndDate query string false "Maturity date to, inclusive (YYYY-MM-DD)"
// @Param sortOrder query string false "asc or desc" default(desc)
// @Param limit query int false "Page size, 0 for all" default(0)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Security SessionCookie
// @Router /loans [get]
func (h *LoanHandler) ListLoans(c *fiber.Ctx) error {
	input := listInputFromQuery(c)

	loans, total, err := h.loanService.List(c.Context(), input)
	if err != nil {
		return handleServiceError(c, err, "Failed to list loans")
	}

	params := pagination.Params{Limit: input.Limit, Offset: input.Offset}
	return response.Success(c, "Loans retrieved successfully", pagination.NewResponse(loans, params, total))
}

// Summary handles the released-amount summary
// @Summary Released summary
// @Description Total released amount and per-year/month breakdown; status filter is ignored
// @Tags Loans
// @Produce json
// @Param search query string false "Applicant name contains"
// @Param startDate query string false "Application date from (YYYY-MM-DD)"
// @Param endDate query string false "Application date to, inclusive (YYYY-MM-DD)"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Security SessionCookie
// @Router /loans/summary [get]
func (h *LoanHandler) Summary(c *fiber.Ctx) error {
	input := listInputFromQuery(c)

	total, err := h.loanService.TotalReleasedAmount(c.Context(), input)
	if err != nil {
		return handleServiceError(c, err, "Failed to compute released total")
	}

	breakdown, err := h.loanService.ReleasedBreakdown(c.Context(), input)
	if err != nil {
		return handleServiceError(c, err, "Failed to compute released breakdown")
	}

	return response.Success(c, "Summary retrieved successfully", &SummaryResponse{
		TotalReleased:          total,
		TotalReleasedFormatted: currency.FormatPHP(total),
		Breakdown:              breakdown,
	})
}

// CreateLoan handles loan creation
// @Summary Create loan
// @Description Create a loan application in status applied
// @Tags Loans
// @Accept json
// @Produce json
// @Param body body CreateLoanRequest true "Loan data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Security SessionCookie
// @Router /loans [post]
func (h *LoanHandler) CreateLoan(c *fiber.Ctx) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Authentication required")
	}

	var req CreateLoanRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	loan, err := h.loanService.Create(c.Context(), actor.UserID, &services.CreateLoanInput{
		ApplicantName:   req.ApplicantName,
		ApplicationDate: req.ApplicationDate,
		Amount:          req.Amount,
	})
	if err != nil {
		return handleServiceError(c, err, "Failed to create loan")
	}

	return response.Created(c, "Loan created successfully", loan)
}

// GetLoan handles getting a loan by ID
// @Summary Get loan
// @Description Get a loan with its status history and notes
// @Tags Loans
// @Produce json
// @Param id path int true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Security SessionCookie
// @Router /loans/{id} [get]
func (h *LoanHandler) GetLoan(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid loan ID")
	}

	loan, err := h.loanService.GetByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err, "Failed to get loan")
	}

	return response.Success(c, "Loan retrieved successfully", loan)
}

// UpdateLoan handles editing loan details (Admin only)
// @Summary Update loan
// @Description Edit applicant name, application date or amount (Admin only)
// @Tags Loans
// @Accept json
// @Produce json
// @Param id path int true "Loan ID"
// @Param body body UpdateLoanRequest true "Fields to change"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Security SessionCookie
// @Router /loans/{id} [patch]
func (h *LoanHandler) UpdateLoan(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid loan ID")
	}

	var req UpdateLoanRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	loan, err := h.loanService.Update(c.Context(), id, &services.UpdateLoanInput{
		ApplicantName:   req.ApplicantName,
		ApplicationDate: req.ApplicationDate,
		Amount:          req.Amount,
	})
	if err != nil {
		return handleServiceError(c, err, "Failed to update loan")
	}

	return response.Success(c, "Loan updated successfully", loan)
}

// DeleteLoan handles loan deletion (Admin only)
// @Summary Delete loan
// @Description Delete a loan with its history and notes (Admin only)
// @Tags Loans
// @Produce json
// @Param id path int true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Security SessionCookie
// @Router /loans/{id} [delete]
func (h *LoanHandler) DeleteLoan(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid loan ID")
	}

	if err := h.loanService.Delete(c.Context(), id); err != nil {
		return handleServiceError(c, err, "Failed to delete loan")
	}

	return response.Success(c, "Loan deleted successfully", nil)
}

// ChangeStatus handles a loan status change
// @Summary Change loan status
// @Description Move a loan to any status; encoded requires a maturity date
// @Tags Loans
// @Accept json
// @Produce json
// @Param id path int true "Loan ID"
// @Param body body ChangeStatusRequest true "New status"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Security SessionCookie
// @Router /loans/{id}/status [post]
func (h *LoanHandler) ChangeStatus(c *fiber.Ctx) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Authentication required")
	}

	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid loan ID")
	}

	var req ChangeStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	loan, err := h.loanService.ChangeStatus(c.Context(), actor.UserID, id, &services.ChangeStatusInput{
		Status:       req.Status,
		Notes:        req.Notes,
		MaturityDate: req.MaturityDate,
	})
	if err != nil {
		return handleServiceError(c, err, "Failed to change loan status")
	}

	return response.Success(c, "Loan status updated successfully", loan)
}

// AddNote handles adding a note to a loan
// @Summary Add loan note
// @Description Append a note (1 to 1000 characters) to a loan
// @Tags Loans
// @Accept json
// @Produce json
// @Param id path int true "Loan ID"
// @Param body body AddNoteRequest true "Note"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Security SessionCookie
// @Router /loans/{id}/notes [post]
func (h *LoanHandler) AddNote(c *fiber.Ctx) error {
	actor := middleware.GetActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Authentication required")
	}

	id, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid loan ID")
	}

	var req AddNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	note, err := h.loanService.AddNote(c.Context(), actor.UserID, id, req.Content)
	if err != nil {
		return handleServiceError(c, err, "Failed to add note")
	}

	return response.Created(c, "Note added successfully", note)
}
