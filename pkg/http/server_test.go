package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ADRFeed/pkg/http/middleware"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingHandler struct{}

func (pingHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ping", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]bool{"ok": true})
	})
	e.GET("/boom", func(c echo.Context) error {
		panic("boom")
	})
}

func serve(s *Server, method, target, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if origin != "" {
		req.Header.Set(echo.HeaderOrigin, origin)
	}
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func restricted() ServerOption {
	return WithCORS(middleware.CORSConfig{
		AllowOrigins: []string{"http://localhost:3000"},
		AllowMethods: "GET, POST, OPTIONS",
		AllowHeaders: "Content-Type",
	})
}

func TestServerGETHeaders(t *testing.T) {
	s := NewServer(pingHandler{}, nil)

	rec := serve(s, http.MethodGet, "/ping", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Equal(t, "GET, POST, OPTIONS", rec.Header().Get(echo.HeaderAccessControlAllowMethods))
	assert.Equal(t, "Content-Type", rec.Header().Get(echo.HeaderAccessControlAllowHeaders))
	assert.Equal(t, "application/json", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, "no-cache, no-store, must-revalidate", rec.Header().Get(echo.HeaderCacheControl))
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}

func TestServerWildcardEchoesOrigin(t *testing.T) {
	s := NewServer(pingHandler{}, nil)

	rec := serve(s, http.MethodGet, "/ping", "https://anywhere.example")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://anywhere.example", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}

func TestServerRejectedOriginKeepsBody(t *testing.T) {
	s := NewServer(pingHandler{}, nil, restricted())

	rec := serve(s, http.MethodGet, "/ping", "https://evil.example")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "null", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())

	rec = serve(s, http.MethodGet, "/ping", "http://localhost:3000")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}

func TestServerPreflight(t *testing.T) {
	s := NewServer(pingHandler{}, nil, restricted())

	rec := serve(s, http.MethodOptions, "/anything/at/all", "http://localhost:3000")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, "http://localhost:3000", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Equal(t, "GET, POST, OPTIONS", rec.Header().Get(echo.HeaderAccessControlAllowMethods))
	assert.Equal(t, "Content-Type", rec.Header().Get(echo.HeaderAccessControlAllowHeaders))

	rec = serve(s, http.MethodOptions, "/ping", "https://evil.example")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}

func TestServerUnknownPath(t *testing.T) {
	s := NewServer(pingHandler{}, nil)

	rec := serve(s, http.MethodGet, "/api/unknown", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"error":"Endpoint not found"}`, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Equal(t, "GET, POST, OPTIONS", rec.Header().Get(echo.HeaderAccessControlAllowMethods))
}

func TestServerMethodNotAllowed(t *testing.T) {
	s := NewServer(pingHandler{}, nil)

	rec := serve(s, http.MethodPost, "/ping", "")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Body.String(), "ERR_METHOD_NOT_ALLOWED")
}

func TestServerRecoversPanics(t *testing.T) {
	s := NewServer(pingHandler{}, nil)

	rec := serve(s, http.MethodGet, "/boom", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal Server Error")
}

func TestServerMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewServer(pingHandler{}, nil, WithMetrics(reg, "/metrics", 0))

	require.Equal(t, http.StatusOK, serve(s, http.MethodGet, "/ping", "").Code)

	rec := serve(s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `http_requests_total{method="GET",route="/ping",status="200"} 1`), body)
}

func TestServerAddr(t *testing.T) {
	s := NewServer(nil, nil, WithHost("127.0.0.1"), WithPort(5050))
	assert.Equal(t, "127.0.0.1:5050", s.Addr())
}
