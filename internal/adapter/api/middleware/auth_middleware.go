package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"communityhub/internal/infrastructure/firebase"
)

const uidKey = "uid"

type AuthMiddleware struct {
	verifier firebase.TokenVerifier
}

func NewAuthMiddleware(verifier firebase.TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
	}
}

// Authenticate requires a Firebase ID token in the Authorization header.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header is required")
		}

		idToken, ok := bearerToken(authHeader)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization format")
		}

		return m.verify(c, idToken, next)
	}
}

// AuthenticateQuery also accepts the token as ?token=, since browsers
// cannot set headers on a WebSocket handshake.
func (m *AuthMiddleware) AuthenticateQuery(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if idToken, ok := bearerToken(c.Request().Header.Get("Authorization")); ok {
			return m.verify(c, idToken, next)
		}

		idToken := c.QueryParam("token")
		if idToken == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Authentication token is required")
		}
		return m.verify(c, idToken, next)
	}
}

func (m *AuthMiddleware) verify(c echo.Context, idToken string, next echo.HandlerFunc) error {
	uid, err := m.verifier.VerifyToken(c.Request().Context(), idToken)
	if err != nil || uid == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
	}

	c.Set(uidKey, uid)
	return next(c)
}

func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// UserID returns the authenticated uid, or "" outside Authenticate.
func UserID(c echo.Context) string {
	uid, _ := c.Get(uidKey).(string)
	return uid
}
