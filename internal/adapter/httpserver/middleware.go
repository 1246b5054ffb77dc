package httpserver

import (
	"errors"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/saucecodee/praise/internal/domain"
	"github.com/saucecodee/praise/internal/platform/correlation"
	apperrors "github.com/saucecodee/praise/internal/platform/errors"
)

// Context keys set by requireAuth.
const (
	ctxKeyUserID = "userID"
	ctxKeyUser   = "user"
)

func correlationMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := correlation.FromHeader(c.Request().Header.Get(correlation.Header))
		ctx := correlation.WithID(c.Request().Context(), id)
		c.SetRequest(c.Request().WithContext(ctx))
		c.Response().Header().Set(correlation.Header, id)
		return next(c)
	}
}

// requireRole rejects callers that do not hold role. It must run after requireAuth.
func (s *Server) requireRole(role domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := c.Get(ctxKeyUser).(*domain.User)
			if !ok {
				return apperrors.UnauthorizedError("authentication required")
			}
			if user.Deactivated || !user.HasRole(role) {
				return apperrors.ForbiddenError("requires role " + string(role)).
					WithContext("user_id", user.ID.String())
			}
			return next(c)
		}
	}
}

func callerUser(c echo.Context) (*domain.User, error) {
	user, ok := c.Get(ctxKeyUser).(*domain.User)
	if !ok {
		return nil, apperrors.InternalError("missing user in context", nil)
	}
	return user, nil
}

func callerID(c echo.Context) (uuid.UUID, error) {
	id, ok := c.Get(ctxKeyUserID).(uuid.UUID)
	if !ok {
		return uuid.Nil, apperrors.InternalError("missing user ID in context", nil)
	}
	return id, nil
}

func uuidParam(c echo.Context, name string) (uuid.UUID, error) {
	raw := c.Param(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.ValidationError("invalid UUID format").WithContext(name, raw)
	}
	return id, nil
}

// translateError maps domain errors onto HTTP error types. Errors it does not
// recognise become internal errors.
func translateError(err error) *apperrors.Error {
	var incomplete *domain.IncompleteError
	if errors.As(err, &incomplete) {
		ids := make([]string, len(incomplete.QuantifierIDs))
		for i, id := range incomplete.QuantifierIDs {
			ids[i] = id.String()
		}
		return apperrors.Wrap(apperrors.TypeConflict, "quantification incomplete", err).
			WithContext("quantifier_ids", ids)
	}

	var pool *domain.PoolSizeError
	if errors.As(err, &pool) {
		return apperrors.Wrap(apperrors.TypeConflict, "insufficient quantifier pool", err).
			WithContext("quantifier_pool_size", pool.PoolSize.QuantifierPoolSize).
			WithContext("required_pool_size", pool.PoolSize.RequiredPoolSize)
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return apperrors.Wrap(apperrors.TypeNotFound, err.Error(), err)
	case errors.Is(err, domain.ErrForbidden),
		errors.Is(err, domain.ErrNotAssigned):
		return apperrors.Wrap(apperrors.TypeForbidden, err.Error(), err)
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrPeriodNotOpen),
		errors.Is(err, domain.ErrPeriodNotQuantifying),
		errors.Is(err, domain.ErrPeriodOverlap),
		errors.Is(err, domain.ErrPeriodPraiseChanged):
		return apperrors.Wrap(apperrors.TypeConflict, err.Error(), err)
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidOutcome),
		errors.Is(err, domain.ErrInvalidScoreValue),
		errors.Is(err, domain.ErrInvalidDuplicateTarget),
		errors.Is(err, domain.ErrDuplicateCycleDetected),
		errors.Is(err, domain.ErrInvalidSettingValue),
		errors.Is(err, domain.ErrSelfPraise),
		errors.Is(err, domain.ErrPeriodNotClosed):
		return apperrors.Wrap(apperrors.TypeValidation, err.Error(), err)
	}
	return nil
}
