package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/inkwell-blog/inkwell/internal/auth"
	"github.com/inkwell-blog/inkwell/internal/blog"
	"github.com/inkwell-blog/inkwell/internal/observability"
	"github.com/inkwell-blog/inkwell/internal/token"
	"github.com/inkwell-blog/inkwell/jobs"
	_ "github.com/inkwell-blog/inkwell/testing"
)

func newTestRouter(t *testing.T, cfg *Config) (http.Handler, *observability.Metrics) {
	t.Helper()
	metrics := observability.NewMetrics()
	tokens, err := token.NewService("router-secret")
	require.NoError(t, err)
	authService := auth.NewService(auth.NewMemoryRepository(), tokens, auth.ServiceConfig{HashCost: bcrypt.MinCost})
	guard := auth.NewGuard(tokens, authService, nil, metrics)
	blogService := blog.NewService(blog.NewMemoryRepository(), blog.ServiceConfig{Recorder: metrics})

	router := NewRouter(RouterParams{
		Config:      cfg,
		AuthHandler: auth.NewHandler(nil, authService, guard),
		BlogHandler: blog.NewHandler(nil, blogService, guard.Require),
		JobHandler:  jobs.NewHandler(nil, nil),
		Metrics:     metrics,
	})
	return router, metrics
}

func serve(h http.Handler, method, path, body, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthAndOpsEndpoints(t *testing.T) {
	router, _ := newTestRouter(t, &Config{})

	res := serve(router, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, res.Code)
	require.JSONEq(t, `{"status":"ok"}`, res.Body.String())
	require.Equal(t, "nosniff", res.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", res.Header().Get("X-Frame-Options"))
	require.NotEmpty(t, res.Header().Get("Content-Security-Policy"))

	res = serve(router, http.MethodGet, "/jobs/health", "", "")
	require.Equal(t, http.StatusOK, res.Code)

	res = serve(router, http.MethodGet, "/nope", "", "")
	require.Equal(t, http.StatusNotFound, res.Code)
	require.Equal(t, "application/problem+json", res.Header().Get("Content-Type"))

	res = serve(router, http.MethodPatch, "/api/blogs", "", "")
	require.Equal(t, http.StatusMethodNotAllowed, res.Code)
}

func TestRouterWiresAuthAndBlogs(t *testing.T) {
	router, _ := newTestRouter(t, &Config{})

	res := serve(router, http.MethodPost, "/api/auth/register", `{"name":"Ann","email":"ann@x.com","password":"pw1"}`, "")
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	var session struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &session))

	require.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/profile", "", session.Token).Code)
	require.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, "/api/profile", "", "").Code)
	require.Equal(t, http.StatusUnauthorized, serve(router, http.MethodPost, "/api/blogs", `{"title":"a","content":"b"}`, "garbage").Code)
	require.Equal(t, http.StatusCreated, serve(router, http.MethodPost, "/api/blogs", `{"title":"a","content":"b"}`, session.Token).Code)

	res = serve(router, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, res.Code)
	body := res.Body.String()
	require.Contains(t, body, `inkwell_post_mutations_total{action="create"} 1`)
	require.Contains(t, body, `inkwell_auth_rejections_total{reason="missing"} 1`)
	require.Contains(t, body, `inkwell_auth_rejections_total{reason="invalid"} 1`)
	require.Contains(t, body, `inkwell_http_requests_total{code="201"`)
}

func TestRateLimitOutsideTestMode(t *testing.T) {
	t.Cleanup(RefreshTestMode)
	t.Setenv(testModeEnv, "0")
	RefreshTestMode()

	router, _ := newTestRouter(t, &Config{RateLimitPerMin: 2})
	require.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/healthz", "", "").Code)
	require.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/healthz", "", "").Code)
	res := serve(router, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusTooManyRequests, res.Code)
	require.Equal(t, "application/problem+json", res.Header().Get("Content-Type"))
}
