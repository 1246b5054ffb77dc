package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/saucecodee/praise/internal/app"
	"github.com/saucecodee/praise/internal/domain"
	apperrors "github.com/saucecodee/praise/internal/platform/errors"
)

// handleCreatePraise records praise from the caller, or forwards it on behalf of
// giver_id when that differs from the caller.
func (s *Server) handleCreatePraise(c echo.Context) error {
	caller, err := callerID(c)
	if err != nil {
		return err
	}

	var req createPraiseRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	in := app.PraiseInput{
		GiverID:     caller,
		ReceiverIDs: req.ReceiverIDs,
		Reason:      req.Reason,
		SourceID:    req.SourceID,
		SourceName:  req.SourceName,
	}
	if req.GiverID != nil && *req.GiverID != caller {
		in.GiverID = *req.GiverID
		in.ForwarderID = domain.ValidID(caller)
	}

	res, err := s.app.CreatePraise(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return writeJSON(c, http.StatusCreated, createPraiseResponse{
		Praise:            newPraiseResponses(res.Praise),
		SelfPraiseSkipped: res.SelfPraiseSkipped,
	})
}

func (s *Server) handleGetPraise(c echo.Context) error {
	praiseID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	caller, err := callerID(c)
	if err != nil {
		return err
	}

	p, err := s.app.GetPraise(c.Request().Context(), praiseID, caller)
	if err != nil {
		return err
	}
	return writeJSON(c, http.StatusOK, newPraiseResponse(*p))
}

func (s *Server) handleQuantify(c echo.Context) error {
	praiseID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	caller, err := callerID(c)
	if err != nil {
		return err
	}

	var req quantifyRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	q, err := s.app.SubmitQuantification(c.Request().Context(), praiseID, caller, req.outcome())
	if err != nil {
		return err
	}
	return writeJSON(c, http.StatusOK, newQuantificationResponse(*q))
}
