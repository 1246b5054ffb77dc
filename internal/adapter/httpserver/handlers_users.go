package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/saucecodee/praise/internal/domain"
	apperrors "github.com/saucecodee/praise/internal/platform/errors"
)

func (s *Server) handleMe(c echo.Context) error {
	user, err := callerUser(c)
	if err != nil {
		return err
	}
	return writeJSON(c, http.StatusOK, newUserResponse(*user))
}

func (s *Server) handleListQuantifiers(c echo.Context) error {
	users, err := s.app.ListQuantifiers(c.Request().Context())
	if err != nil {
		return err
	}
	return writeJSON(c, http.StatusOK, convertAll(users, newUserResponse))
}

func (s *Server) handleCreateUser(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	roles := make([]domain.Role, 0, len(req.Roles))
	for _, name := range req.Roles {
		role, err := parseRole(name)
		if err != nil {
			return err
		}
		roles = append(roles, role)
	}

	user, err := s.app.CreateUser(c.Request().Context(), req.Name, roles)
	if err != nil {
		return err
	}
	return writeJSON(c, http.StatusCreated, newUserResponse(*user))
}

func (s *Server) handleGetUser(c echo.Context) error {
	userID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	user, err := s.app.GetUser(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return writeJSON(c, http.StatusOK, newUserResponse(*user))
}

func (s *Server) handleAddRole(c echo.Context) error {
	userID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req roleRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	role, err := parseRole(req.Role)
	if err != nil {
		return err
	}

	user, err := s.app.AddRole(c.Request().Context(), userID, role)
	if err != nil {
		return err
	}
	return writeJSON(c, http.StatusOK, newUserResponse(*user))
}

func (s *Server) handleRemoveRole(c echo.Context) error {
	userID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	role, err := parseRole(c.Param("role"))
	if err != nil {
		return err
	}

	user, err := s.app.RemoveRole(c.Request().Context(), userID, role)
	if err != nil {
		return err
	}
	return writeJSON(c, http.StatusOK, newUserResponse(*user))
}

func (s *Server) handleSetDeactivated(c echo.Context) error {
	userID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req deactivateRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	ctx := c.Request().Context()
	if err := s.app.SetUserDeactivated(ctx, userID, req.Deactivated); err != nil {
		return err
	}
	user, err := s.app.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	return writeJSON(c, http.StatusOK, newUserResponse(*user))
}

func parseRole(name string) (domain.Role, error) {
	role, ok := domain.ParseRole(name)
	if !ok {
		return "", apperrors.ValidationError("unknown role").WithContext("role", name)
	}
	return role, nil
}
