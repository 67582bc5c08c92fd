package services_test

import (
	"context"
	"errors"
	"testing"

	"loantracker/internal/core/domain"
	"loantracker/internal/core/services"
	"loantracker/internal/testutil"
)

func TestUserService_CreateUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.users.CreateUser(ctx, &services.CreateUserInput{
		Username:    "Ana_Santos",
		DisplayName: "Ana Santos",
		Role:        "user",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if created.Username != "ana_santos" || !created.IsActive || created.Role != domain.RoleUser {
		t.Errorf("created = %+v", created)
	}

	// new accounts log in with the default password
	if _, err := f.auth.Authenticate(ctx, &services.LoginInput{Username: "ana_santos", Password: services.DefaultPassword}); err != nil {
		t.Errorf("login with default password: %v", err)
	}

	_, err = f.users.CreateUser(ctx, &services.CreateUserInput{Username: "ANA_SANTOS", DisplayName: "Again", Role: "user"})
	if !errors.Is(err, domain.ErrUserAlreadyExists) {
		t.Errorf("duplicate err = %v, want ErrUserAlreadyExists", err)
	}
}

func TestUserService_CreateUserValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input services.CreateUserInput
		want  string
	}{
		{"short username", services.CreateUserInput{Username: "ab", DisplayName: "A", Role: "user"}, "Username must be at least 3 characters"},
		{"bad characters", services.CreateUserInput{Username: "ana santos", DisplayName: "A", Role: "user"}, "Username can only contain letters, numbers, and underscores"},
		{"missing display name", services.CreateUserInput{Username: "ana", DisplayName: "  ", Role: "user"}, "Display name is required"},
		{"unknown role", services.CreateUserInput{Username: "ana", DisplayName: "Ana", Role: "owner"}, "Role must be admin or user"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.users.CreateUser(ctx, &tt.input)
			if !domain.IsValidation(err) || err.Error() != tt.want {
				t.Errorf("err = %v, want validation %q", err, tt.want)
			}
		})
	}
}

func TestUserService_ToggleUserStatusKillsSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := testutil.CreateUser(t, f.db, "admin", "secret123", domain.RoleAdmin)
	maria := testutil.CreateUser(t, f.db, "maria", "secret123", domain.RoleUser)

	var tokens []string
	for i := 0; i < 2; i++ {
		s, err := f.auth.Authenticate(ctx, &services.LoginInput{Username: "maria", Password: "secret123"})
		if err != nil {
			t.Fatalf("Authenticate: %v", err)
		}
		tokens = append(tokens, s.Token)
	}

	updated, err := f.users.ToggleUserStatus(ctx, admin.ID, maria.ID)
	if err != nil {
		t.Fatalf("ToggleUserStatus: %v", err)
	}
	if updated.IsActive {
		t.Fatal("user still active")
	}

	for _, token := range tokens {
		if _, err := f.auth.ResolveSession(ctx, token); !errors.Is(err, domain.ErrSessionInvalid) {
			t.Errorf("session still valid after disable: %v", err)
		}
	}
	if _, err := f.auth.Authenticate(ctx, &services.LoginInput{Username: "maria", Password: "secret123"}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("disabled login err = %v", err)
	}

	updated, err = f.users.ToggleUserStatus(ctx, admin.ID, maria.ID)
	if err != nil {
		t.Fatalf("ToggleUserStatus: %v", err)
	}
	if !updated.IsActive {
		t.Error("user not re-enabled")
	}

	if _, err := f.users.ToggleUserStatus(ctx, admin.ID, admin.ID); !errors.Is(err, domain.ErrCannotDisableSelf) {
		t.Errorf("self toggle err = %v", err)
	}
	if _, err := f.users.ToggleUserStatus(ctx, admin.ID, 999); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("missing user err = %v", err)
	}
}

func TestUserService_ResetPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	maria := testutil.CreateUser(t, f.db, "maria", "secret123", domain.RoleUser)

	session, err := f.auth.Authenticate(ctx, &services.LoginInput{Username: "maria", Password: "secret123"})
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	if err := f.users.ResetPassword(ctx, maria.ID); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if _, err := f.auth.ResolveSession(ctx, session.Token); err == nil {
		t.Error("session survived password reset")
	}
	if _, err := f.auth.Authenticate(ctx, &services.LoginInput{Username: "maria", Password: services.DefaultPassword}); err != nil {
		t.Errorf("login with default password: %v", err)
	}

	if err := f.users.ResetPassword(ctx, 999); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("missing user err = %v", err)
	}
}

func TestUserService_ListUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.CreateUser(t, f.db, "first", "secret123", domain.RoleUser)
	testutil.CreateUser(t, f.db, "second", "secret123", domain.RoleUser)

	users, err := f.users.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("users = %d, want 2", len(users))
	}
	if users[0].Username != "second" {
		t.Errorf("first listed = %s, want newest (second)", users[0].Username)
	}
}
