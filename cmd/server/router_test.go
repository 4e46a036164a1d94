package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/vocab-api/internal/config"
	"github.com/phrazzld/vocab-api/internal/mocks"
	"github.com/phrazzld/vocab-api/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newRouterTestApp() (*application, *mocks.JWTService) {
	jwtSvc := &mocks.JWTService{}
	app := &application{
		config:         &config.Config{Auth: config.AuthConfig{TokenLifetimeMinutes: 15}},
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		userStore:      &mocks.UserStore{},
		jwtService:     jwtSvc,
		passwordHasher: auth.NewBcryptHasher(4),
	}
	return app, jwtSvc
}

func TestRouterHealth(t *testing.T) {
	t.Parallel()

	app, _ := newRouterTestApp()
	rec := httptest.NewRecorder()
	app.setupRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Trace-ID"))
}

func TestRouterRequiresAuthentication(t *testing.T) {
	t.Parallel()

	app, _ := newRouterTestApp()
	router := app.setupRouter()

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/items"},
		{http.MethodPost, "/api/sessions"},
		{http.MethodPost, "/api/sessions/" + uuid.NewString() + "/answers"},
		{http.MethodGet, "/api/progress"},
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(route.method, route.path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, route.path)
	}
}

func TestRouterAuthenticatedRoute(t *testing.T) {
	t.Parallel()

	app, jwtSvc := newRouterTestApp()
	jwtSvc.On("ValidateToken", mock.Anything, "good").Return(&auth.Claims{UserID: uuid.New()}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/items/not-a-uuid", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	app.setupRouter().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	jwtSvc.AssertExpectations(t)
}

func TestRouterPublicAuthRoutes(t *testing.T) {
	t.Parallel()

	app, _ := newRouterTestApp()
	rec := httptest.NewRecorder()
	app.setupRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))

	// reaches the handler, which rejects the empty body
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
