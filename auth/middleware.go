package auth

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"strings"

	"github.com/labstack/echo/v4"
)

const identityKey = "identity"

// BearerToken extracts the token of an "Authorization: Bearer <token>" header.
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// Middleware rejects requests without a valid bearer token and stores the
// verified identity in the echo context.
func Middleware(verifier contract.TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return errors.ErrUnauthenticated
			}
			identity, err := verifier.Verify(token)
			if err != nil {
				return err
			}
			c.Set(identityKey, identity)
			return next(c)
		}
	}
}

// IdentityFrom returns the identity stored by Middleware.
func IdentityFrom(c echo.Context) (domain.Identity, error) {
	identity, ok := c.Get(identityKey).(domain.Identity)
	if !ok || identity == "" {
		return "", errors.ErrUnauthenticated
	}
	return identity, nil
}
