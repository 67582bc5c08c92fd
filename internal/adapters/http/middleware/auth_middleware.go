package middleware

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"loantracker/internal/config"
	"loantracker/internal/core/domain"
	"loantracker/internal/core/services"
	"loantracker/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const (
	// SessionCookieName is the cookie carrying the raw session token
	SessionCookieName = "session"

	// LoginPath and DashboardPath are where page loads are sent when the
	// guard rejects them
	LoginPath     = "/login"
	DashboardPath = "/dashboard"

	actorKey = "actor"
)

// RequireAuth resolves the session cookie and stores the actor in locals.
// Page loads without a valid session are redirected to the login page; API
// calls get 401.
func RequireAuth(resolver services.SessionResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// 1. Resolve session from cookie
		session, err := resolver.ResolveSession(c.Context(), c.Cookies(SessionCookieName))
		if err != nil {
			if !errors.Is(err, domain.ErrSessionInvalid) {
				slog.Error("❌ Session lookup failed", "error", err)
				return response.InternalServerError(c, "Failed to verify session")
			}

			// 2. No valid session
			if WantsHTML(c) {
				return c.Redirect(LoginPath, fiber.StatusFound)
			}
			return response.Unauthorized(c, "Authentication required")
		}

		// 3. Set actor in context
		actor := session.Actor
		c.Locals(actorKey, &actor)

		return c.Next()
	}
}

// RequireAdmin allows only admins. It must run after RequireAuth.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := GetActor(c)
		if actor == nil {
			if WantsHTML(c) {
				return c.Redirect(LoginPath, fiber.StatusFound)
			}
			return response.Unauthorized(c, "Authentication required")
		}

		switch actor.Role {
		case domain.RoleAdmin:
			return c.Next()
		case domain.RoleUser:
		}

		if WantsHTML(c) {
			return c.Redirect(DashboardPath, fiber.StatusFound)
		}
		return response.Forbidden(c, "Admin access required")
	}
}

// GetActor returns the authenticated actor, or nil outside RequireAuth
func GetActor(c *fiber.Ctx) *domain.Actor {
	actor, _ := c.Locals(actorKey).(*domain.Actor)
	return actor
}

// SetSessionCookie writes the session cookie
func SetSessionCookie(c *fiber.Ctx, cfg *config.Config, token string, expiresAt time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Domain:   cfg.Cookie.Domain,
		Expires:  expiresAt,
		Secure:   cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: cfg.Cookie.SameSite,
	})
}

// ClearSessionCookie expires the session cookie
func ClearSessionCookie(c *fiber.Ctx, cfg *config.Config) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   cfg.Cookie.Domain,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Secure:   cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: cfg.Cookie.SameSite,
	})
}

// WantsHTML reports whether the request is a browser page load
func WantsHTML(c *fiber.Ctx) bool {
	return strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMETextHTML)
}
