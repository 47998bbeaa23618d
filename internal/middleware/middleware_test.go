package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teahouse/internal/model"
	"teahouse/pkg/apierror"
)

type fakeAuthenticator struct {
	valid string
	user  model.User
}

func (f fakeAuthenticator) Authenticate(_ context.Context, token string) (model.User, error) {
	if token != f.valid {
		return model.User{}, apierror.Unauthorized("Invalid access token")
	}
	return f.user, nil
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()

	mw := NewAuthMiddleware(fakeAuthenticator{valid: "good", user: model.User{Username: "mira"}})
	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		require.True(t, ok)
		_, _ = w.Write([]byte(user.Username))
	}))

	cases := []struct {
		name   string
		setup  func(r *http.Request)
		status int
		body   string
	}{
		{name: "no token", setup: func(*http.Request) {}, status: http.StatusUnauthorized, body: "Unauthorized request"},
		{name: "cookie", setup: func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "good"})
		}, status: http.StatusOK, body: "mira"},
		{name: "bearer", setup: func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer good")
		}, status: http.StatusOK, body: "mira"},
		{name: "bad bearer", setup: func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer nope")
		}, status: http.StatusUnauthorized, body: "Invalid access token"},
		{name: "basic scheme", setup: func(r *http.Request) {
			r.Header.Set("Authorization", "Basic good")
		}, status: http.StatusUnauthorized, body: "Unauthorized request"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tc.setup(req)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.body)
		})
	}
}

func TestRecoveryWritesEnvelope(t *testing.T) {
	t.Parallel()

	handler := Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kettle boiled dry")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"statusCode":500,"data":null,"message":"Internal server error","success":false}`, rec.Body.String())
}

func TestLoggingSetsRequestID(t *testing.T) {
	t.Parallel()

	handler := Logging(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	SecurityHeaders(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestMetricsRecordsRoutePattern(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics("teas")
	r := chi.NewRouter()
	r.Use(metrics.Handler)
	r.Get("/teas/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Handle("/metrics", metrics.Exposition())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/teas/42", nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `http_requests_total{method="GET",route="/teas/{id}",service="teas",status="404"} 1`), body)
	assert.Contains(t, body, "http_request_duration_seconds_bucket")
}

func TestCORSAllowsCredentials(t *testing.T) {
	t.Parallel()

	handler := CORS([]string{"http://localhost:5173"})(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/users/login", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}
