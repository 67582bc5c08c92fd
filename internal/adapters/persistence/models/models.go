package models

import (
	"time"

	"loantracker/internal/core/domain"
	"loantracker/internal/pkg/currency"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ============================================================
// Auth & User Tables
// ============================================================

// User represents users table
type User struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	Username     string      `gorm:"uniqueIndex;size:50;not null" json:"username"`
	PasswordHash string      `gorm:"size:255;not null" json:"-"`
	DisplayName  string      `gorm:"size:100;not null" json:"display_name"`
	Role         domain.Role `gorm:"size:20;not null;default:'user'" json:"role"`
	IsActive     bool        `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
	LastLoginAt  *time.Time  `json:"last_login_at"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID          uint        `json:"id"`
	Username    string      `json:"username"`
	DisplayName string      `json:"display_name"`
	Role        domain.Role `json:"role"`
	IsActive    bool        `json:"is_active"`
	CreatedAt   time.Time   `json:"created_at"`
	LastLoginAt *time.Time  `json:"last_login_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		IsActive:    u.IsActive,
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
	}
}

// ToActor converts the user into the request actor
func (u *User) ToActor() domain.Actor {
	return domain.Actor{
		UserID:      u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Role:        u.Role,
	}
}

// Session represents sessions table
type Session struct {
	ID        string    `gorm:"primaryKey;size:64" json:"-"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Session) TableName() string {
	return "sessions"
}

// ============================================================
// Loan Tables
// ============================================================

// Loan represents loans table
type Loan struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	ApplicantName   string            `gorm:"size:255;not null;index" json:"applicant_name"`
	ApplicationDate time.Time         `gorm:"not null;index" json:"application_date"`
	Amount          decimal.Decimal   `gorm:"type:decimal(15,2);not null" json:"amount"`
	Status          domain.LoanStatus `gorm:"size:20;not null;default:'applied';index" json:"status"`
	CreatedByID     uint              `gorm:"not null;index" json:"created_by_id"`
	MaturityDate    *time.Time        `gorm:"index" json:"maturity_date"`
	CreatedAt       time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"autoUpdateTime;index" json:"updated_at"`

	// Relations
	CreatedBy     *User                `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	StatusHistory []StatusHistoryEntry `gorm:"foreignKey:LoanID;constraint:OnDelete:CASCADE" json:"status_history,omitempty"`
	Notes         []LoanNote           `gorm:"foreignKey:LoanID;constraint:OnDelete:CASCADE" json:"notes,omitempty"`
}

func (Loan) TableName() string {
	return "loans"
}

// StatusHistoryEntry represents status_history table (append-only)
type StatusHistoryEntry struct {
	ID             uint               `gorm:"primaryKey" json:"id"`
	LoanID         uint               `gorm:"not null;index" json:"loan_id"`
	PreviousStatus *domain.LoanStatus `gorm:"size:20" json:"previous_status"`
	NewStatus      domain.LoanStatus  `gorm:"size:20;not null" json:"new_status"`
	ChangedByID    uint               `gorm:"not null" json:"changed_by_id"`
	ChangedAt      time.Time          `gorm:"not null;index" json:"changed_at"`
	Notes          *string            `gorm:"type:text" json:"notes"`

	ChangedBy *User `gorm:"foreignKey:ChangedByID" json:"changed_by,omitempty"`
}

func (StatusHistoryEntry) TableName() string {
	return "status_history"
}

// LoanNote represents loan_notes table (append-only)
type LoanNote struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	LoanID      uint      `gorm:"not null;index" json:"loan_id"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	CreatedByID uint      `gorm:"not null" json:"created_by_id"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	CreatedBy *User `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
}

func (LoanNote) TableName() string {
	return "loan_notes"
}

// ============================================================
// Response DTOs
// ============================================================

// UserRef is the minimal user shape embedded in loan responses
type UserRef struct {
	ID          uint   `json:"id"`
	DisplayName string `json:"display_name"`
}

func userRef(id uint, u *User) UserRef {
	ref := UserRef{ID: id}
	if u != nil {
		ref.DisplayName = u.DisplayName
	}
	return ref
}

// StatusHistoryResponse DTO
type StatusHistoryResponse struct {
	ID             uint               `json:"id"`
	PreviousStatus *domain.LoanStatus `json:"previous_status"`
	NewStatus      domain.LoanStatus  `json:"new_status"`
	NewStatusLabel string             `json:"new_status_label"`
	ChangedBy      UserRef            `json:"changed_by"`
	ChangedAt      time.Time          `json:"changed_at"`
	Notes          *string            `json:"notes"`
}

// LoanNoteResponse DTO
type LoanNoteResponse struct {
	ID        uint      `json:"id"`
	Content   string    `json:"content"`
	CreatedBy UserRef   `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// ToResponse converts a note into its DTO
func (n *LoanNote) ToResponse() *LoanNoteResponse {
	return &LoanNoteResponse{
		ID:        n.ID,
		Content:   n.Content,
		CreatedBy: userRef(n.CreatedByID, n.CreatedBy),
		CreatedAt: n.CreatedAt,
	}
}

// LoanResponse DTO
type LoanResponse struct {
	ID              uint                     `json:"id"`
	ApplicantName   string                   `json:"applicant_name"`
	ApplicationDate time.Time                `json:"application_date"`
	Amount          string                   `json:"amount"`
	AmountFormatted string                   `json:"amount_formatted"`
	Status          domain.LoanStatus        `json:"status"`
	StatusLabel     string                   `json:"status_label"`
	MaturityDate    *time.Time               `json:"maturity_date"`
	CreatedBy       UserRef                  `json:"created_by"`
	StatusHistory   []*StatusHistoryResponse `json:"status_history"`
	Notes           []*LoanNoteResponse      `json:"notes"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
}

func (l *Loan) ToResponse() *LoanResponse {
	amount := l.Amount.StringFixed(2)
	resp := &LoanResponse{
		ID:              l.ID,
		ApplicantName:   l.ApplicantName,
		ApplicationDate: l.ApplicationDate,
		Amount:          amount,
		AmountFormatted: currency.FormatPHP(amount),
		Status:          l.Status,
		StatusLabel:     l.Status.Label(),
		MaturityDate:    l.MaturityDate,
		CreatedBy:       userRef(l.CreatedByID, l.CreatedBy),
		StatusHistory:   make([]*StatusHistoryResponse, 0, len(l.StatusHistory)),
		Notes:           make([]*LoanNoteResponse, 0, len(l.Notes)),
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}

	for i := range l.StatusHistory {
		h := &l.StatusHistory[i]
		resp.StatusHistory = append(resp.StatusHistory, &StatusHistoryResponse{
			ID:             h.ID,
			PreviousStatus: h.PreviousStatus,
			NewStatus:      h.NewStatus,
			NewStatusLabel: h.NewStatus.Label(),
			ChangedBy:      userRef(h.ChangedByID, h.ChangedBy),
			ChangedAt:      h.ChangedAt,
			Notes:          h.Notes,
		})
	}
	for i := range l.Notes {
		resp.Notes = append(resp.Notes, l.Notes[i].ToResponse())
	}

	return resp
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Session{},
		&Loan{},
		&StatusHistoryEntry{},
		&LoanNote{},
	)
}
