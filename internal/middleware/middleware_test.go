package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"invoice-backend/internal/auth"
	"invoice-backend/internal/config"
	"invoice-backend/internal/models"
)

type fakeResolver map[string]*models.User

func (f fakeResolver) CurrentUser(_ context.Context, token string) (*models.User, error) {
	if u, ok := f[token]; ok {
		return u, nil
	}
	return nil, errors.New("bad token")
}

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestAuthTiers(t *testing.T) {
	m := NewAuthMiddleware(fakeResolver{
		"admin":    {Base: models.Base{ID: 1}, IsActive: true, IsAdmin: true},
		"user":     {Base: models.Base{ID: 2}, IsActive: true},
		"inactive": {Base: models.Base{ID: 3}, IsActive: false},
	})
	adminOnly := m.Authenticate(RequireTier(auth.TierAdmin)(ok))
	activeOnly := m.Authenticate(RequireTier(auth.TierActiveUser)(ok))

	cases := []struct {
		handler http.Handler
		header  string
		want    int
	}{
		{adminOnly, "Bearer admin", http.StatusNoContent},
		{adminOnly, "Bearer user", http.StatusForbidden},
		{activeOnly, "Bearer user", http.StatusNoContent},
		{activeOnly, "bearer user", http.StatusNoContent},
		{activeOnly, "Bearer inactive", http.StatusForbidden},
		{activeOnly, "Bearer nope", http.StatusUnauthorized},
		{activeOnly, "Basic abc", http.StatusUnauthorized},
		{activeOnly, "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		tc.handler.ServeHTTP(rec, req)
		assert.Equal(t, tc.want, rec.Code, tc.header)
	}
}

func TestUserFromContext(t *testing.T) {
	m := NewAuthMiddleware(fakeResolver{"t": {Base: models.Base{ID: 9}, IsActive: true}})
	var seen int
	h := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserIDFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer t")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, 9, seen)
	assert.Zero(t, UserIDFromContext(context.Background()))
}

func TestPanicRecovery(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	h := PanicRecovery(zap.New(core))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"detail":"Internal server error"}`, rec.Body.String())
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestRequestLoggerAssignsID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	var seen string
	h := RequestLogger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, int64(http.StatusTeapot), logs.All()[0].ContextMap()["status"])

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc", rec.Header().Get(RequestIDHeader))
	assert.Equal(t, 1, logs.Len(), "health checks are not logged")
}

func TestRateLimiter(t *testing.T) {
	l := NewRateLimiter(1, 2, nil)
	h := l.Handler(ok)
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		// A rotating forwarded address from an untrusted peer must not earn a fresh bucket.
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i+1))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "192.168.1.5:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRateLimiterBehindTrustedProxy(t *testing.T) {
	proxies, err := ParseTrustedProxies([]string{"10.1.0.0/16"})
	require.NoError(t, err)
	h := NewRateLimiter(1, 1, proxies).Handler(ok)

	send := func(forwarded string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.1.2.3:443"
		req.Header.Set("X-Forwarded-For", forwarded)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusNoContent, send("203.0.113.7"))
	assert.Equal(t, http.StatusTooManyRequests, send("203.0.113.7"))
	assert.Equal(t, http.StatusNoContent, send("198.51.100.9"))
	// A spoofed leftmost entry is ignored; the proxy appended the real caller.
	assert.Equal(t, http.StatusTooManyRequests, send("1.1.1.1, 203.0.113.7"))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "[::1]:8080"
	req.Header.Set("X-Real-IP", "1.2.3.4")
	req.Header.Set("X-Forwarded-For", "5.6.7.8")
	assert.Equal(t, "::1", ClientIP(req))

	var none TrustedProxies
	assert.Equal(t, "::1", none.ClientIP(req))

	proxies, err := ParseTrustedProxies([]string{"::1", " 10.0.0.0/8 "})
	require.NoError(t, err)
	assert.Equal(t, "5.6.7.8", proxies.ClientIP(req))

	req.Header.Set("X-Forwarded-For", "5.6.7.8, 10.0.0.4")
	assert.Equal(t, "5.6.7.8", proxies.ClientIP(req))

	req.Header.Del("X-Forwarded-For")
	assert.Equal(t, "1.2.3.4", proxies.ClientIP(req))

	_, err = ParseTrustedProxies([]string{"not-an-ip"})
	assert.Error(t, err)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	r := mux.NewRouter()
	r.Use(MetricsMiddleware)
	var tpl string
	r.HandleFunc("/invoices/{id}", func(w http.ResponseWriter, req *http.Request) {
		tpl = routeTemplate(req)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/invoices/42", nil))
	assert.Equal(t, "/invoices/{id}", tpl)
}

func TestCORSPreflight(t *testing.T) {
	h := NewCORS(config.ServerConfig{
		CorsAllowedOrigins: []string{"http://localhost:2004"},
		CorsAllowedMethods: []string{"GET", "POST"},
		CorsAllowedHeaders: []string{"Authorization", "Content-Type"},
	})(ok)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/clients", nil)
	req.Header.Set("Origin", "http://localhost:2004")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:2004", rec.Header().Get("Access-Control-Allow-Origin"))
}
