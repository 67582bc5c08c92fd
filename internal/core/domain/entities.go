package domain

import "time"

// Role represents user role in the system
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ParseRole converts a stored or submitted role into a Role
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleUser:
		return RoleUser, true
	}
	return "", false
}

// LoanStatus is the workflow position of a loan
type LoanStatus string

const (
	StatusApplied   LoanStatus = "applied"
	StatusVerified  LoanStatus = "verified"
	StatusApproved  LoanStatus = "approved"
	StatusEncoded   LoanStatus = "encoded"
	StatusVouchered LoanStatus = "vouchered"
	StatusReleased  LoanStatus = "released"
	StatusCancelled LoanStatus = "cancelled"
)

// LoanStatuses lists every status in workflow order
var LoanStatuses = []LoanStatus{
	StatusApplied,
	StatusVerified,
	StatusApproved,
	StatusEncoded,
	StatusVouchered,
	StatusReleased,
	StatusCancelled,
}

var loanStatusLabels = map[LoanStatus]string{
	StatusApplied:   "Applied",
	StatusVerified:  "Verified",
	StatusApproved:  "Approved",
	StatusEncoded:   "Encoded",
	StatusVouchered: "Vouchered",
	StatusReleased:  "Released",
	StatusCancelled: "Cancelled",
}

// Valid reports whether s is one of the known statuses
func (s LoanStatus) Valid() bool {
	_, ok := loanStatusLabels[s]
	return ok
}

// Label returns the display label of the status
func (s LoanStatus) Label() string {
	return loanStatusLabels[s]
}

// Actor is the authenticated user behind a request
type Actor struct {
	UserID      uint
	Username    string
	DisplayName string
	Role        Role
}

// IsAdmin reports whether the actor holds the admin role
func (a *Actor) IsAdmin() bool {
	if a == nil {
		return false
	}
	switch a.Role {
	case RoleAdmin:
		return true
	case RoleUser:
		return false
	}
	return false
}

// Session is a resolved, still-valid login session
type Session struct {
	Token     string
	UserID    uint
	ExpiresAt time.Time
	Actor     Actor
}
