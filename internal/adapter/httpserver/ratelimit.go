package httpserver

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	apperrors "github.com/saucecodee/praise/internal/platform/errors"
)

const rateLimiterExpiry = 5 * time.Minute

// newRateLimiter limits per authenticated user, falling back to the client IP.
func newRateLimiter(ratePerSecond float64, burst int) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(
		middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(ratePerSecond),
			Burst:     burst,
			ExpiresIn: rateLimiterExpiry,
		},
	)
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		IdentifierExtractor: func(c echo.Context) (string, error) {
			if id, ok := c.Get(ctxKeyUserID).(uuid.UUID); ok {
				return "user:" + id.String(), nil
			}
			return "ip:" + c.RealIP(), nil
		},
		Store: store,
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return apperrors.RateLimitedError("rate limit exceeded")
		},
	})
}
