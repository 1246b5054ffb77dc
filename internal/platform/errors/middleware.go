package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// Translator maps errors returned by handlers onto structured errors.
// Returning nil falls back to AsStructuredError.
type Translator func(err error) *Error

// Middleware converts errors returned by handlers into JSON responses.
// errorsTotal, when set, is incremented with the error type label.
func Middleware(translate Translator, errorsTotal *prometheus.CounterVec) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			// Echo errors (router 404/405, binder, limiter) keep their status
			// and go through Echo's error handler.
			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) {
				count(errorsTotal, WrapHTTPError(httpErr).Type)
				return err
			}

			return respond(c, toStructured(translate, err), errorsTotal)
		}
	}
}

// HandleError writes err as a structured response from inside a handler.
func HandleError(c echo.Context, err error, translate Translator) error {
	if err == nil {
		return nil
	}
	return respond(c, toStructured(translate, err), nil)
}

func toStructured(translate Translator, err error) *Error {
	var structured *Error
	if errors.As(err, &structured) {
		return structured
	}
	if translate != nil {
		if structured := translate(err); structured != nil {
			return structured
		}
	}
	return AsStructuredError(err)
}

func respond(c echo.Context, err *Error, errorsTotal *prometheus.CounterVec) error {
	count(errorsTotal, err.Type)
	logError(c, err)
	if jsonErr := c.JSON(err.HTTPStatus(), err.ToResponse()); jsonErr != nil {
		return fmt.Errorf("failed to write error response: %w", jsonErr)
	}
	return nil
}

func count(errorsTotal *prometheus.CounterVec, t ErrorType) {
	if errorsTotal != nil {
		errorsTotal.WithLabelValues(string(t)).Inc()
	}
}

func logError(c echo.Context, err *Error) {
	ctx := c.Request().Context()
	attrs := []any{
		"error_type", err.Type,
		"message", err.Message,
		"path", c.Request().URL.Path,
		"method", c.Request().Method,
		"status", err.HTTPStatus(),
	}
	for k, v := range err.Context {
		attrs = append(attrs, k, v)
	}
	if userID := c.Get("userID"); userID != nil {
		attrs = append(attrs, "user_id", userID)
	}

	switch err.Type {
	case TypeValidation, TypeNotFound, TypeUnauthorized, TypeForbidden, TypeRateLimited:
		slog.InfoContext(ctx, "Request rejected", attrs...)
	case TypeConflict:
		slog.WarnContext(ctx, "Conflict", attrs...)
	default:
		if err.Cause != nil {
			attrs = append(attrs, "error", err.Cause)
		}
		slog.ErrorContext(ctx, "Request failed", attrs...)
	}
}

// WrapHTTPError converts an Echo HTTPError into a structured error.
func WrapHTTPError(httpErr *echo.HTTPError) *Error {
	message := http.StatusText(httpErr.Code)
	if msg, ok := httpErr.Message.(string); ok {
		message = msg
	}

	var errType ErrorType
	switch httpErr.Code {
	case http.StatusBadRequest, http.StatusUnsupportedMediaType:
		errType = TypeValidation
	case http.StatusUnauthorized:
		errType = TypeUnauthorized
	case http.StatusForbidden:
		errType = TypeForbidden
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		errType = TypeNotFound
	case http.StatusConflict:
		errType = TypeConflict
	case http.StatusTooManyRequests:
		errType = TypeRateLimited
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		errType = TypeExternal
	default:
		errType = TypeInternal
	}

	err := newError(errType, message, nil)
	if httpErr.Internal != nil {
		err.Cause = httpErr.Internal
	}
	return err
}
