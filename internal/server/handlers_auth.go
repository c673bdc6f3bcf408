package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sourabhgrover/org-user-rag/internal/auth"
	"github.com/sourabhgrover/org-user-rag/internal/domain"
)

// handleToken exchanges credentials for a bearer token. Unknown user and
// wrong password produce the same response, so usernames cannot be probed.
func (s *Server) handleToken(c echo.Context) error {
	var req tokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	user, err := s.store.GetUserByUsername(c.Request().Context(), req.Username)
	if err != nil || !auth.VerifyPassword(user.HashedPassword, req.Password) {
		return echo.NewHTTPError(http.StatusUnauthorized, "incorrect username or password")
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.log.Error("issuing token", zap.Error(err))
		return httpError(err)
	}
	return c.JSON(http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (s *Server) handleCreateOrganization(c echo.Context) error {
	var req createOrganizationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Name) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	org, err := s.store.CreateOrganization(c.Request().Context(), strings.TrimSpace(req.Name))
	if err != nil {
		return echo.NewHTTPError(http.StatusConflict, "organization already exists")
	}
	return c.JSON(http.StatusCreated, org)
}

func (s *Server) handleListOrganizations(c echo.Context) error {
	orgs, err := s.store.ListOrganizations(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	if orgs == nil {
		orgs = []domain.Organization{}
	}
	return c.JSON(http.StatusOK, orgs)
}

func (s *Server) handleCreateUser(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Username == "" || req.Email == "" || req.Password == "" || req.OrganizationID == "" {
		return echo.NewHTTPError(http.StatusBadRequest,
			"username, email, password and organization_id are required")
	}

	ctx := c.Request().Context()
	if _, err := s.store.GetOrganization(ctx, req.OrganizationID); err != nil {
		return httpError(err)
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return httpError(err)
	}
	user, err := s.store.CreateUser(ctx, domain.User{
		Username:       req.Username,
		Email:          req.Email,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		HashedPassword: hashed,
		IsAdmin:        req.IsAdmin,
		OrganizationID: req.OrganizationID,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusConflict, "username or email already taken")
	}
	return c.JSON(http.StatusCreated, user)
}

// handleListUsers lists only the caller's own organization's users.
func (s *Server) handleListUsers(c echo.Context) error {
	user := currentUser(c)
	users, err := s.store.ListUsers(c.Request().Context(), user.OrganizationID)
	if err != nil {
		return httpError(err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return c.JSON(http.StatusOK, users)
}

func (s *Server) handleCurrentUser(c echo.Context) error {
	return c.JSON(http.StatusOK, currentUser(c))
}
