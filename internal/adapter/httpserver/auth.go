package httpserver

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/saucecodee/praise/internal/domain"
	apperrors "github.com/saucecodee/praise/internal/platform/errors"
)

const tokenIssuer = "praise"

// SignToken issues an HS256 bearer token whose subject is userID.
func SignToken(secret []byte, userID uuid.UUID, now time.Time, ttl time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// ParseToken verifies a bearer token and returns the user ID it carries.
func ParseToken(secret []byte, token string) (uuid.UUID, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid token: %w", err)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid token subject: %w", err)
	}
	return userID, nil
}

// requireAuth resolves the bearer token to an active user and stores it on the
// echo context.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			return apperrors.UnauthorizedError("missing bearer token")
		}

		userID, err := ParseToken([]byte(s.config.JWTSecret), strings.TrimSpace(raw))
		if err != nil {
			return apperrors.Wrap(apperrors.TypeUnauthorized, "invalid bearer token", err)
		}

		user, err := s.app.GetUser(c.Request().Context(), userID)
		if errors.Is(err, domain.ErrUserNotFound) {
			return apperrors.UnauthorizedError("unknown user").WithContext("user_id", userID.String())
		}
		if err != nil {
			return apperrors.InternalError("failed to load user", err)
		}
		if user.Deactivated {
			return apperrors.ForbiddenError("user is deactivated").WithContext("user_id", userID.String())
		}

		c.Set(ctxKeyUserID, userID)
		c.Set(ctxKeyUser, user)
		return next(c)
	}
}
