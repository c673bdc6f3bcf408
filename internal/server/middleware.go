package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sourabhgrover/org-user-rag/internal/domain"
)

// userContextKey is where requireAuth stores the authenticated user.
const userContextKey = "authenticated_user"

// requireAuth verifies the bearer token and loads the user it names. The
// user record, not any client-supplied field, is the source of the
// organization scope used downstream.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
		}

		userID, err := s.tokens.Verify(token)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		user, err := s.store.GetUser(c.Request().Context(), userID)
		if err != nil {
			s.log.Warn("token for unknown user", zap.String("user_id", userID))
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		c.Set(userContextKey, user)
		return next(c)
	}
}

// currentUser returns the user stored by requireAuth.
func currentUser(c echo.Context) domain.User {
	user, _ := c.Get(userContextKey).(domain.User)
	return user
}
