// Package middleware provides authentication, logging, tracing and rate limiting for the HTTP layer.
package middleware

import (
	"context"
	"strings"

	"nextfilm/internal/auth"
	"nextfilm/internal/models"

	"github.com/gofiber/fiber/v2"
)

// SessionCookie is the cookie carrying the session token for browser clients.
const SessionCookie = "nextfilm_access_token"

const (
	localsUserID   = "userID"
	localsIdentity = "identity"
	localsToken    = "sessionToken"
)

// IdentityResolver turns a raw token into an identity, or nil when it is absent or invalid.
type IdentityResolver interface {
	ResolveIdentity(token string) *auth.Identity
}

// RevocationChecker reports whether a token id was revoked at sign-out.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) bool
}

// ExtractToken returns the session token from the Authorization bearer header,
// falling back to the session cookie. The header wins when both are present.
func ExtractToken(c *fiber.Ctx) string {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if token := strings.TrimSpace(parts[1]); token != "" {
				return token
			}
		}
	}
	return c.Cookies(SessionCookie)
}

// resolve runs the shared verification primitive and, on success, attaches the
// identity to the request.
func resolve(c *fiber.Ctx, resolver IdentityResolver, revoked RevocationChecker) *auth.Identity {
	token := ExtractToken(c)
	if token == "" {
		return nil
	}
	id := resolver.ResolveIdentity(token)
	if id == nil {
		return nil
	}
	if revoked != nil && id.TokenID != "" && revoked.IsRevoked(c.UserContext(), id.TokenID) {
		return nil
	}

	c.Locals(localsUserID, id.UserID)
	c.Locals(localsIdentity, id)
	c.Locals(localsToken, token)
	// Sync to UserContext for logging and downstream services
	ctx := context.WithValue(c.UserContext(), UserIDKey, id.UserID)
	c.SetUserContext(ctx)
	return id
}

// RequireIdentity rejects the request with 401 when no valid session is present.
func RequireIdentity(resolver IdentityResolver, revoked RevocationChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if resolve(c, resolver, revoked) == nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthenticatedError("Authentication required"))
		}
		return c.Next()
	}
}

// OptionalIdentity attaches an identity when a valid session is present and
// otherwise lets the request through anonymously.
func OptionalIdentity(resolver IdentityResolver, revoked RevocationChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		resolve(c, resolver, revoked)
		return c.Next()
	}
}

// IdentityFrom returns the identity attached by the auth middleware, or nil.
func IdentityFrom(c *fiber.Ctx) *auth.Identity {
	id, _ := c.Locals(localsIdentity).(*auth.Identity)
	return id
}

// UserIDFrom returns the authenticated user id; ok is false for anonymous requests.
func UserIDFrom(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals(localsUserID).(uint)
	return id, ok && id != 0
}

// SessionTokenFrom returns the raw token that authenticated the request.
func SessionTokenFrom(c *fiber.Ctx) string {
	token, _ := c.Locals(localsToken).(string)
	return token
}
