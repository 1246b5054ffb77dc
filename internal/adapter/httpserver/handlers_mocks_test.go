package httpserver

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/saucecodee/praise/internal/app"
	"github.com/saucecodee/praise/internal/domain"
	"github.com/saucecodee/praise/internal/platform/config"
)

const testJWTSecret = "test-secret-key-that-is-32-bytes!"

// --- Mock implementations ---

// mockAppService resolves users from a map; other methods dispatch to the
// function fields. Calling an unset method panics through the nil embedded
// interface.
type mockAppService struct {
	appService

	users map[uuid.UUID]*domain.User

	createPeriodFn         func(ctx context.Context, name string, endDate time.Time) (*domain.Period, error)
	getPeriodFn            func(ctx context.Context, periodID uuid.UUID) (*domain.Period, error)
	verifyPoolSizeFn       func(ctx context.Context, periodID uuid.UUID) (domain.PoolSize, error)
	assignQuantifiersFn    func(ctx context.Context, periodID uuid.UUID) error
	closePeriodFn          func(ctx context.Context, periodID uuid.UUID) error
	getPeriodDetailsFn     func(ctx context.Context, periodID, callerID uuid.UUID) (*domain.PeriodDetails, error)
	listQuantifierPraiseFn func(ctx context.Context, periodID, quantifierID uuid.UUID) ([]app.AssignedPraise, error)
	createPraiseFn         func(ctx context.Context, in app.PraiseInput) (*app.CreatePraiseResult, error)
	submitFn               func(ctx context.Context, praiseID, quantifierID uuid.UUID, outcome domain.Outcome) (*domain.Quantification, error)
	setSettingFn           func(ctx context.Context, key, value string) (*domain.Setting, error)
	addRoleFn              func(ctx context.Context, userID uuid.UUID, role domain.Role) (*domain.User, error)
}

func (m *mockAppService) GetUser(_ context.Context, userID uuid.UUID) (*domain.User, error) {
	if u, ok := m.users[userID]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *mockAppService) CreatePeriod(ctx context.Context, name string, endDate time.Time) (*domain.Period, error) {
	return m.createPeriodFn(ctx, name, endDate)
}

func (m *mockAppService) GetPeriod(ctx context.Context, periodID uuid.UUID) (*domain.Period, error) {
	if m.getPeriodFn != nil {
		return m.getPeriodFn(ctx, periodID)
	}
	return nil, domain.ErrPeriodNotFound
}

func (m *mockAppService) VerifyPoolSize(ctx context.Context, periodID uuid.UUID) (domain.PoolSize, error) {
	return m.verifyPoolSizeFn(ctx, periodID)
}

func (m *mockAppService) AssignQuantifiers(ctx context.Context, periodID uuid.UUID) error {
	return m.assignQuantifiersFn(ctx, periodID)
}

func (m *mockAppService) ClosePeriod(ctx context.Context, periodID uuid.UUID) error {
	return m.closePeriodFn(ctx, periodID)
}

func (m *mockAppService) GetPeriodDetails(ctx context.Context, periodID, callerID uuid.UUID) (*domain.PeriodDetails, error) {
	return m.getPeriodDetailsFn(ctx, periodID, callerID)
}

func (m *mockAppService) ListQuantifierPraise(ctx context.Context, periodID, quantifierID uuid.UUID) ([]app.AssignedPraise, error) {
	return m.listQuantifierPraiseFn(ctx, periodID, quantifierID)
}

func (m *mockAppService) CreatePraise(ctx context.Context, in app.PraiseInput) (*app.CreatePraiseResult, error) {
	return m.createPraiseFn(ctx, in)
}

func (m *mockAppService) SubmitQuantification(ctx context.Context, praiseID, quantifierID uuid.UUID, outcome domain.Outcome) (*domain.Quantification, error) {
	return m.submitFn(ctx, praiseID, quantifierID, outcome)
}

func (m *mockAppService) SetSetting(ctx context.Context, key, value string) (*domain.Setting, error) {
	return m.setSettingFn(ctx, key, value)
}

func (m *mockAppService) AddRole(ctx context.Context, userID uuid.UUID, role domain.Role) (*domain.User, error) {
	return m.addRoleFn(ctx, userID, role)
}

// --- Test helpers ---

func newTestServer(t *testing.T, app appService, opts ...func(*Server)) *Server {
	t.Helper()

	srv := &Server{
		echo: newEcho(),
		config: &config.Config{
			JWTSecret:           testJWTSecret,
			SubmitRatePerSecond: 100,
			SubmitRateBurst:     100,
		},
		app:       app,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(srv)
	}
	srv.registerRoutes()
	return srv
}

func withHealthChecks(checks ...HealthCheck) func(*Server) {
	return func(s *Server) {
		s.healthChecks = checks
	}
}

func withSubmitRate(perSecond float64, burst int) func(*Server) {
	return func(s *Server) {
		s.config.SubmitRatePerSecond = perSecond
		s.config.SubmitRateBurst = burst
	}
}

// newUser registers a user with the mock and returns it.
func (m *mockAppService) newUser(name string, roles ...domain.Role) *domain.User {
	if m.users == nil {
		m.users = make(map[uuid.UUID]*domain.User)
	}
	u := &domain.User{ID: uuid.New(), Name: name, Roles: roles}
	m.users[u.ID] = u
	return u
}

func bearer(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token, err := SignToken([]byte(testJWTSecret), userID, time.Now(), time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

// do sends a request through the full middleware stack.
func do(t *testing.T, srv *Server, method, path string, user *domain.User, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		req.Header.Set("Authorization", bearer(t, user.ID))
	}
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}
