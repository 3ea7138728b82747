package router

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	_ "github.com/noah-isme/siap-api/api/swagger"
	"github.com/noah-isme/siap-api/internal/handler"
	"github.com/noah-isme/siap-api/internal/middleware"
	"github.com/noah-isme/siap-api/internal/models"
	"github.com/noah-isme/siap-api/internal/service"
	"github.com/noah-isme/siap-api/pkg/config"
	appErrors "github.com/noah-isme/siap-api/pkg/errors"
)

type tokenTable map[string]*models.JWTClaims

func (t tokenTable) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := t[token]; ok {
		return claims, nil
	}
	return nil, appErrors.ErrUnauthorized
}

func testEngine() http.Handler {
	return limitedEngine(nil, middleware.NewIPRateLimiter(0, 0))
}

func limitedEngine(trustedProxies []string, limiter *middleware.IPRateLimiter) http.Handler {
	metrics := service.NewMetricsService()
	return New(Deps{
		Config: &config.Config{Env: config.EnvDevelopment, APIPrefix: "/api", TrustedProxies: trustedProxies},
		Logger: zap.NewNop(),
		Tokens: tokenTable{
			"user":  {UserID: "u-1"},
			"admin": {UserID: "a-1", IsAdmin: true},
		},
		AuthLimiter: limiter,
		Metrics:     metrics,
		Handlers: Handlers{
			Auth:      handler.NewAuthHandler(nil),
			Users:     handler.NewUserHandler(nil, false),
			Documents: handler.NewDocumentHandler(nil, nil, 0),
			Stats:     handler.NewStatsHandler(nil),
			Files:     handler.NewFileHandler(nil),
			Metrics:   handler.NewMetricsHandler(metrics),
		},
	})
}

func TestRouterGuards(t *testing.T) {
	engine := testEngine()

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{name: "health is public", method: http.MethodGet, path: "/health", status: http.StatusOK},
		{name: "ready without db", method: http.MethodGet, path: "/ready", status: http.StatusOK},
		{name: "documents need a token", method: http.MethodGet, path: "/api/documents", status: http.StatusUnauthorized},
		{name: "stats need a token", method: http.MethodGet, path: "/api/stats/summary", status: http.StatusUnauthorized},
		{name: "me needs a token", method: http.MethodGet, path: "/api/auth/me", status: http.StatusUnauthorized},
		{name: "admin routes reject users", method: http.MethodGet, path: "/api/admin/users", token: "user", status: http.StatusForbidden},
		{name: "document delete rejects users", method: http.MethodDelete, path: "/api/documents/doc-1", token: "user", status: http.StatusForbidden},
		{name: "unknown route", method: http.MethodGet, path: "/api/unknown", token: "admin", status: http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rec := httptest.NewRecorder()
			engine.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestRouterSwaggerOnlyOutsideProduction(t *testing.T) {
	rec := httptest.NewRecorder()
	testEngine().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/docs/doc.json", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "SIAP API")
}

func loginFrom(engine http.Handler, remoteAddr, forwardedFor string) int {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = remoteAddr
	req.Header.Set("X-Forwarded-For", forwardedFor)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec.Code
}

func TestRouterRateLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	engine := limitedEngine(nil, middleware.NewIPRateLimiter(0.01, 1))

	assert.Equal(t, http.StatusBadRequest, loginFrom(engine, "203.0.113.7:40000", "198.51.100.1"))
	for i := 2; i <= 4; i++ {
		status := loginFrom(engine, "203.0.113.7:40000", fmt.Sprintf("198.51.100.%d", i))
		assert.Equal(t, http.StatusTooManyRequests, status, "attempt %d", i)
	}
}

func TestRouterRateLimitKeysOnClientBehindTrustedProxy(t *testing.T) {
	engine := limitedEngine([]string{"10.0.0.1"}, middleware.NewIPRateLimiter(0.01, 1))

	assert.Equal(t, http.StatusBadRequest, loginFrom(engine, "10.0.0.1:5000", "198.51.100.1"))
	assert.Equal(t, http.StatusBadRequest, loginFrom(engine, "10.0.0.1:5000", "198.51.100.2"))
	assert.Equal(t, http.StatusTooManyRequests, loginFrom(engine, "10.0.0.1:5000", "198.51.100.1"))
}

func TestRouterInvalidTrustedProxiesTrustNone(t *testing.T) {
	engine := limitedEngine([]string{"not-an-address"}, middleware.NewIPRateLimiter(0.01, 1))

	assert.Equal(t, http.StatusBadRequest, loginFrom(engine, "203.0.113.7:40000", "198.51.100.1"))
	assert.Equal(t, http.StatusTooManyRequests, loginFrom(engine, "203.0.113.7:40000", "198.51.100.2"))
}
