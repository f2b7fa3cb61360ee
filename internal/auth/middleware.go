package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/campusdesk/student-portal/internal/domain"
	apperrors "github.com/campusdesk/student-portal/pkg/util"
)

const (
	identityKey = "auth_identity"
	tokenKey    = "auth_token"
)

// AuthMiddleware validates bearer tokens (header or cookie) and stores the caller identity.
type AuthMiddleware struct {
	tokens     *TokenManager
	cookieName string
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, cookieName: cookieName}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	raw, err := m.rawToken(c)
	if err != nil {
		return err
	}

	claims, err := m.tokens.ParseToken(raw)
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	identity := claims.Identity()
	c.Locals(identityKey, &identity)
	c.Locals(tokenKey, raw)
	return c.Next()
}

func (m *AuthMiddleware) rawToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		if m.cookieName != "" {
			if cookie := c.Cookies(m.cookieName); cookie != "" {
				return cookie, nil
			}
		}
		return "", apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", apperrors.NewUnauthorized("invalid authorization header")
	}
	return parts[1], nil
}

// IdentityFromContext retrieves the authenticated student.
func IdentityFromContext(c *fiber.Ctx) (domain.Identity, bool) {
	identity, ok := c.Locals(identityKey).(*domain.Identity)
	if !ok || identity == nil {
		return domain.Identity{}, false
	}
	return *identity, true
}

// TokenFromContext returns the raw token the caller authenticated with.
func TokenFromContext(c *fiber.Ctx) string {
	token, _ := c.Locals(tokenKey).(string)
	return token
}
