package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/api/blogs/{id}")
	req := httptest.NewRequest(http.MethodGet, "/api/blogs/abc", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusTeapot, rr.Code)

	body := scrape(t, metrics)
	require.Contains(t, body, `inkwell_http_requests_total{code="418",route="/api/blogs/{id}"} 1`)
	require.Contains(t, body, `inkwell_http_request_duration_seconds_bucket{route="/api/blogs/{id}"`)
}

func TestDomainCounters(t *testing.T) {
	metrics := NewMetrics()
	metrics.AuthRejected("missing")
	metrics.AuthRejected("missing")
	metrics.AuthRejected("invalid")
	metrics.PostMutated("delete")

	body := scrape(t, metrics)
	require.Contains(t, body, `inkwell_auth_rejections_total{reason="missing"} 2`)
	require.Contains(t, body, `inkwell_auth_rejections_total{reason="invalid"} 1`)
	require.Contains(t, body, `inkwell_post_mutations_total{action="delete"} 1`)
	require.False(t, strings.Contains(body, `action="create"`))
}

func TestNilMetricsAreInert(t *testing.T) {
	var metrics *Metrics
	metrics.AuthRejected("missing")
	metrics.PostMutated("create")

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	require.NotNil(t, metrics.Middleware(next))

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
