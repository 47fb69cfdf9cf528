package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ossy/internal/adapters/config"
	"ossy/internal/agents"
	"ossy/internal/api/health"
	"ossy/internal/api/web"
	"ossy/internal/metrics"
	"ossy/internal/tools"
	"ossy/pkg/logger"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	metrics.Init()

	registry := tools.NewRegistry()
	orchestrator := agents.NewOrchestrator(agents.NewStaticPlanner(nil), registry)
	webHandler := web.NewHandler(orchestrator, nil, nil)

	s, err := NewServer(config.HTTPConfig{Addr: ":0"}, webHandler, health.New(logger.NewNop(), "ossy", "test"), logger.NewNop())
	require.NoError(t, err)
	return s
}

func get(s *Server, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestServer_Routes(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusOK, get(s, "/health/live").Code)
	assert.Equal(t, http.StatusOK, get(s, "/health/ready").Code)
	assert.Equal(t, http.StatusOK, get(s, "/api/strategies").Code)

	index := get(s, "/")
	assert.Equal(t, http.StatusOK, index.Code)
	assert.Contains(t, index.Header().Get(echo.HeaderContentType), "text/html")

	assert.Equal(t, http.StatusNotFound, get(s, "/nope").Code)

	scrape := get(s, "/metrics")
	require.Equal(t, http.StatusOK, scrape.Code)
	assert.Contains(t, scrape.Body.String(), `ossy_http_requests_total{code="200",method="GET",route="/api/strategies"}`)
}

func TestServer_RecoversFromPanics(t *testing.T) {
	s := newTestServer(t)
	s.echo.GET("/boom", func(echo.Context) error { panic("boom") })

	rec := get(s, "/boom")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal Server Error")
}
