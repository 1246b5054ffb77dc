package httpserver

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/saucecodee/praise/internal/domain"
	apperrors "github.com/saucecodee/praise/internal/platform/errors"
)

func (s *Server) handleListPeriods(c echo.Context) error {
	periods, err := s.app.ListPeriods(c.Request().Context())
	if err != nil {
		return err
	}
	return writeJSON(c, http.StatusOK, convertAll(periods, newPeriodResponse))
}

func (s *Server) handleCreatePeriod(c echo.Context) error {
	var req periodRequest
	if err := bindPeriodRequest(c, &req); err != nil {
		return err
	}

	period, err := s.app.CreatePeriod(c.Request().Context(), req.Name, req.EndDate)
	if err != nil {
		return err
	}
	return writeJSON(c, http.StatusCreated, newPeriodResponse(*period))
}

func (s *Server) handleGetPeriod(c echo.Context) error {
	periodID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	period, err := s.app.GetPeriod(c.Request().Context(), periodID)
	if err != nil {
		return err
	}
	return writeJSON(c, http.StatusOK, newPeriodResponse(*period))
}

func (s *Server) handleUpdatePeriod(c echo.Context) error {
	periodID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req periodRequest
	if err := bindPeriodRequest(c, &req); err != nil {
		return err
	}

	period, err := s.app.UpdatePeriod(c.Request().Context(), periodID, req.Name, req.EndDate)
	if err != nil {
		return err
	}
	return writeJSON(c, http.StatusOK, newPeriodResponse(*period))
}

func (s *Server) handleVerifyPoolSize(c echo.Context) error {
	periodID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	pool, err := s.app.VerifyPoolSize(c.Request().Context(), periodID)
	if err != nil {
		return err
	}
	return writeJSON(c, http.StatusOK, poolSizeResponse{
		QuantifierPoolSize: pool.QuantifierPoolSize,
		RequiredPoolSize:   pool.RequiredPoolSize,
		Sufficient:         pool.Sufficient(),
	})
}

func (s *Server) handleAssignQuantifiers(c echo.Context) error {
	periodID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := s.app.AssignQuantifiers(ctx, periodID); err != nil {
		return err
	}
	return s.respondPeriod(c, periodID)
}

func (s *Server) handleClosePeriod(c echo.Context) error {
	periodID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	if err := s.app.ClosePeriod(c.Request().Context(), periodID); err != nil {
		return err
	}
	return s.respondPeriod(c, periodID)
}

func (s *Server) respondPeriod(c echo.Context, periodID uuid.UUID) error {
	period, err := s.app.GetPeriod(c.Request().Context(), periodID)
	if err != nil {
		return err
	}
	return writeJSON(c, http.StatusOK, newPeriodResponse(*period))
}

func (s *Server) handlePeriodDetails(c echo.Context) error {
	periodID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	caller, err := callerID(c)
	if err != nil {
		return err
	}
	details, err := s.app.GetPeriodDetails(c.Request().Context(), periodID, caller)
	if err != nil {
		return err
	}
	return writeJSON(c, http.StatusOK, newPeriodDetailsResponse(*details))
}

func (s *Server) handlePeriodAnalytics(c echo.Context) error {
	periodID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	report, err := s.app.PeriodAnalytics(c.Request().Context(), periodID)
	if err != nil {
		return err
	}
	return writeJSON(c, http.StatusOK, newAnalyticsResponse(*report))
}

func (s *Server) handleReceiverPraise(c echo.Context) error {
	periodID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	receiverID, err := uuidParam(c, "receiverId")
	if err != nil {
		return err
	}
	caller, err := callerID(c)
	if err != nil {
		return err
	}

	praise, err := s.app.ListReceiverPraise(c.Request().Context(), periodID, receiverID, caller)
	if err != nil {
		return err
	}
	return writeJSON(c, http.StatusOK, newPraiseResponses(praise))
}

// handleQuantifierPraise lists a quantifier's assignments. Only the quantifier
// themself or an admin may look.
func (s *Server) handleQuantifierPraise(c echo.Context) error {
	periodID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	quantifierID, err := uuidParam(c, "quantifierId")
	if err != nil {
		return err
	}
	user, err := callerUser(c)
	if err != nil {
		return err
	}
	if user.ID != quantifierID && !user.HasRole(domain.RoleAdmin) {
		return apperrors.ForbiddenError("cannot view another quantifier's assignments").
			WithContext("quantifier_id", quantifierID.String())
	}

	assigned, err := s.app.ListQuantifierPraise(c.Request().Context(), periodID, quantifierID)
	if err != nil {
		return err
	}
	return writeJSON(c, http.StatusOK, convertAll(assigned, newAssignedPraiseResponse))
}

func bindPeriodRequest(c echo.Context, req *periodRequest) error {
	if err := c.Bind(req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return apperrors.ValidationError("name is required")
	}
	if req.EndDate.IsZero() {
		return apperrors.ValidationError("end_date is required")
	}
	return nil
}

func writeJSON(c echo.Context, status int, body any) error {
	if err := c.JSON(status, body); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
