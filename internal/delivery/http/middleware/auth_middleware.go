package middleware

import (
	"strings"

	domainerrors "authd/internal/domain/errors"
	"authd/internal/domain/service"

	"github.com/labstack/echo/v4"
)

// ContextKeyUserID is the echo.Context key holding the authenticated user's id.
const ContextKeyUserID = "userID"

// AuthMiddleware provides middleware for JWT access token authentication.
type AuthMiddleware struct {
	tokenSvc service.TokenService
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(tokenSvc service.TokenService) *AuthMiddleware {
	return &AuthMiddleware{tokenSvc: tokenSvc}
}

// Authenticate validates the Bearer access token and stores the caller's user
// id on the context. An expired token is the routine end of every session, so
// it is rejected the same way as a missing one, without error logging.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if authHeader == "" {
			return domainerrors.ErrUnauthorized
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return domainerrors.ErrUnauthorized
		}

		payload, err := m.tokenSvc.Verify(tokenString)
		if err != nil {
			return domainerrors.ErrUnauthorized
		}

		c.Set(ContextKeyUserID, payload.UserID)

		return next(c)
	}
}
