package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"cmsapi/internal/access"
)

// SessionLocalKey is the key of the caller's access.Session in Fiber's context locals.
const SessionLocalKey = "session"

// Authenticator resolves a bearer token to a session.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (access.Session, error)
}

// Authenticate reads an optional "Authorization: Bearer <token>" header. A
// valid token stores the session in locals; an invalid one is rejected with
// 401. Requests without the header continue anonymously.
func Authenticate(a Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return c.Next()
		}
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "malformed authorization header")
		}
		s, err := a.Authenticate(c.UserContext(), token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}
		c.Locals(SessionLocalKey, s)
		return c.Next()
	}
}

// RequireSession rejects anonymous requests with 401.
func RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if SessionFrom(c).Anonymous() {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
		}
		return c.Next()
	}
}

// SessionFrom returns the caller's session, or the anonymous session.
func SessionFrom(c *fiber.Ctx) access.Session {
	s, _ := c.Locals(SessionLocalKey).(access.Session)
	return s
}
