package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "github.com/saucecodee/praise/internal/platform/errors"
)

func (s *Server) handleListSettings(c echo.Context) error {
	settings, err := s.app.ListSettings(c.Request().Context())
	if err != nil {
		return err
	}
	return writeJSON(c, http.StatusOK, newSettingResponses(settings))
}

func (s *Server) handleSetSetting(c echo.Context) error {
	var req settingValueRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	setting, err := s.app.SetSetting(c.Request().Context(), c.Param("key"), req.Value)
	if err != nil {
		return err
	}
	return writeJSON(c, http.StatusOK, newSettingResponse(*setting))
}

func (s *Server) handleListPeriodSettings(c echo.Context) error {
	periodID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	settings, err := s.app.ListPeriodSettings(c.Request().Context(), periodID)
	if err != nil {
		return err
	}
	return writeJSON(c, http.StatusOK, newSettingResponses(settings))
}

func (s *Server) handleGetPeriodSetting(c echo.Context) error {
	periodID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	setting, err := s.app.GetPeriodSetting(c.Request().Context(), periodID, c.Param("key"))
	if err != nil {
		return err
	}
	return writeJSON(c, http.StatusOK, newSettingResponse(*setting))
}

func (s *Server) handleSetPeriodSetting(c echo.Context) error {
	periodID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req settingValueRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	setting, err := s.app.SetPeriodSetting(c.Request().Context(), periodID, c.Param("key"), req.Value)
	if err != nil {
		return err
	}
	return writeJSON(c, http.StatusOK, newSettingResponse(*setting))
}
