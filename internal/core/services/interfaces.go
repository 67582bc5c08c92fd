package services

import (
	"context"

	"loantracker/internal/core/domain"
)

// Note: AuthService implementation is in auth_service.go
// Note: LoanService implementation is in loan_service.go

// SessionResolver resolves a raw session token into a valid session
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*domain.Session, error)
}

var _ SessionResolver = (*AuthService)(nil)
