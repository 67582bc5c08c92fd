package services_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"loantracker/internal/core/domain"
	"loantracker/internal/core/services"
	"loantracker/internal/testutil"
)

var tokenPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

func TestAuthService_Authenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.CreateUser(t, f.db, "maria", "secret123", domain.RoleUser)

	session, err := f.auth.Authenticate(ctx, &services.LoginInput{Username: "  MARIA ", Password: "secret123"})
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if !tokenPattern.MatchString(session.Token) {
		t.Errorf("token %q is not 64 hex chars", session.Token)
	}
	if want := testNow.Add(7 * 24 * time.Hour); !session.ExpiresAt.Equal(want) {
		t.Errorf("expires at %v, want %v", session.ExpiresAt, want)
	}
	if session.Actor.Username != "maria" || session.Actor.Role != domain.RoleUser {
		t.Errorf("actor = %+v", session.Actor)
	}

	resolved, err := f.auth.ResolveSession(ctx, session.Token)
	if err != nil {
		t.Fatalf("ResolveSession: %v", err)
	}
	if resolved.UserID != session.UserID || resolved.Actor.DisplayName != "maria" {
		t.Errorf("resolved = %+v", resolved)
	}

	user, err := f.auth.GetUserByID(ctx, session.UserID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if user.LastLoginAt == nil || !user.LastLoginAt.Equal(testNow) {
		t.Errorf("last login = %v, want %v", user.LastLoginAt, testNow)
	}
}

func TestAuthService_AuthenticateGenericError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.CreateUser(t, f.db, "maria", "secret123", domain.RoleUser)
	disabled := testutil.CreateUser(t, f.db, "pedro", "secret123", domain.RoleUser)
	f.db.Model(disabled).Update("is_active", false)

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "maria", "not-it"},
		{"unknown user", "nobody", "secret123"},
		{"inactive user", "pedro", "secret123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.auth.Authenticate(ctx, &services.LoginInput{Username: tt.username, Password: tt.password})
			if !errors.Is(err, domain.ErrInvalidCredentials) {
				t.Fatalf("err = %v, want ErrInvalidCredentials", err)
			}
			if err.Error() != "Invalid username or password" {
				t.Errorf("message = %q", err.Error())
			}
		})
	}
}

func TestAuthService_SessionExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "maria", "secret123", domain.RoleUser)

	session, err := f.auth.CreateSession(ctx, user.ID)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	f.clock.Advance(7*24*time.Hour - time.Second)
	if _, err := f.auth.ResolveSession(ctx, session.Token); err != nil {
		t.Fatalf("session should still be valid: %v", err)
	}

	f.clock.Advance(time.Second)
	if _, err := f.auth.ResolveSession(ctx, session.Token); !errors.Is(err, domain.ErrSessionInvalid) {
		t.Errorf("err = %v, want ErrSessionInvalid", err)
	}
}

func TestAuthService_DestroySession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "maria", "secret123", domain.RoleUser)

	session, err := f.auth.CreateSession(ctx, user.ID)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := f.auth.DestroySession(ctx, session.Token); err != nil {
			t.Fatalf("DestroySession #%d: %v", i+1, err)
		}
	}
	if _, err := f.auth.ResolveSession(ctx, session.Token); !errors.Is(err, domain.ErrSessionInvalid) {
		t.Errorf("err = %v, want ErrSessionInvalid", err)
	}
}

func TestAuthService_InvalidateAllSessionsForUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	maria := testutil.CreateUser(t, f.db, "maria", "secret123", domain.RoleUser)
	pedro := testutil.CreateUser(t, f.db, "pedro", "secret123", domain.RoleUser)

	var tokens []string
	for i := 0; i < 3; i++ {
		s, err := f.auth.CreateSession(ctx, maria.ID)
		if err != nil {
			t.Fatalf("CreateSession: %v", err)
		}
		tokens = append(tokens, s.Token)
	}
	other, err := f.auth.CreateSession(ctx, pedro.ID)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	n, err := f.auth.InvalidateAllSessionsForUser(ctx, maria.ID)
	if err != nil {
		t.Fatalf("InvalidateAllSessionsForUser: %v", err)
	}
	if n != 3 {
		t.Errorf("deleted = %d, want 3", n)
	}
	for _, token := range tokens {
		if _, err := f.auth.ResolveSession(ctx, token); err == nil {
			t.Error("session survived invalidation")
		}
	}
	if _, err := f.auth.ResolveSession(ctx, other.Token); err != nil {
		t.Errorf("other user's session was touched: %v", err)
	}
}

func TestAuthService_ChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, "maria", "secret123", domain.RoleUser)

	tests := []struct {
		name    string
		input   services.ChangePasswordInput
		wantErr error
		wantMsg string
	}{
		{"too short", services.ChangePasswordInput{CurrentPassword: "secret123", NewPassword: "short", ConfirmPassword: "short"}, nil, "Password must be at least 8 characters"},
		{"mismatch", services.ChangePasswordInput{CurrentPassword: "secret123", NewPassword: "newsecret1", ConfirmPassword: "newsecret2"}, nil, "Passwords don't match"},
		{"wrong current", services.ChangePasswordInput{CurrentPassword: "nope", NewPassword: "newsecret1", ConfirmPassword: "newsecret1"}, domain.ErrWrongPassword, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.auth.ChangePassword(ctx, user.ID, &tt.input)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantMsg != "" && (!domain.IsValidation(err) || err.Error() != tt.wantMsg) {
				t.Errorf("err = %v, want validation %q", err, tt.wantMsg)
			}
		})
	}

	if err := f.auth.ChangePassword(ctx, user.ID, &services.ChangePasswordInput{
		CurrentPassword: "secret123",
		NewPassword:     "newsecret1",
		ConfirmPassword: "newsecret1",
	}); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := f.auth.Authenticate(ctx, &services.LoginInput{Username: "maria", Password: "newsecret1"}); err != nil {
		t.Errorf("login with new password: %v", err)
	}
}
