package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/mocks"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func whoAmI(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user_id": middleware.ViewerID(c)})
}

func serve(router *gin.Engine, method, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	validator := new(mocks.MockAuthService)
	validator.On("ValidateToken", "good").Return(&types.TokenClaims{UserID: 7, Username: "cook"}, nil)
	validator.On("ValidateToken", "bad").Return(nil, errors.New("signature is invalid"))

	router := gin.New()
	router.Use(middleware.Authenticate(validator))
	router.GET("/public", whoAmI)
	router.GET("/private", middleware.RequireAuth(), whoAmI)

	cases := []struct {
		name   string
		path   string
		header string
		status int
		body   string
	}{
		{"anonymous public", "/public", "", http.StatusOK, `{"user_id":0}`},
		{"token scheme", "/public", "Token good", http.StatusOK, `{"user_id":7}`},
		{"bearer scheme", "/private", "Bearer good", http.StatusOK, `{"user_id":7}`},
		{"anonymous private", "/private", "", http.StatusUnauthorized, ""},
		{"unknown scheme", "/public", "Basic good", http.StatusUnauthorized, ""},
		{"invalid token", "/public", "Token bad", http.StatusUnauthorized, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := serve(router, http.MethodGet, tc.path, tc.header)
			assert.Equal(t, tc.status, w.Code)
			if tc.body != "" {
				assert.JSONEq(t, tc.body, w.Body.String())
			}
		})
	}
	validator.AssertExpectations(t)
}

func TestRequireActiveUser(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	user := testhelpers.CreateUser(t, db, "cook")

	validator := new(mocks.MockAuthService)
	validator.On("ValidateToken", "live").Return(&types.TokenClaims{UserID: user.ID}, nil)
	validator.On("ValidateToken", "ghost").Return(&types.TokenClaims{UserID: user.ID + 100}, nil)

	router := gin.New()
	router.Use(middleware.Authenticate(validator), middleware.RequireActiveUser(db, zaptest.NewLogger(t)))
	router.GET("/", whoAmI)

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/", "Token live").Code)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, "/", "Token ghost").Code)
}

func newLimitedRouter(t *testing.T, srv *miniredis.Miniredis, limit int) *gin.Engine {
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter := middleware.NewRateLimiter(client, middleware.RateLimitConfig{
		Window:    time.Hour,
		Limit:     limit,
		KeyPrefix: "test",
	}, zaptest.NewLogger(t))

	validator := new(mocks.MockAuthService)
	validator.On("ValidateToken", "one").Return(&types.TokenClaims{UserID: 1}, nil)
	validator.On("ValidateToken", "two").Return(&types.TokenClaims{UserID: 2}, nil)

	router := gin.New()
	router.Use(middleware.Authenticate(validator))
	router.POST("/recipes", limiter.PerUser(), whoAmI)
	router.PATCH("/recipes/:id", limiter.PerUserAndRecipe(), whoAmI)
	return router
}

func TestRateLimiter_PerUser(t *testing.T) {
	srv := miniredis.RunT(t)
	router := newLimitedRouter(t, srv, 2)

	first := serve(router, http.MethodPost, "/recipes", "Token one")
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, serve(router, http.MethodPost, "/recipes", "Token one").Code)

	blocked := serve(router, http.MethodPost, "/recipes", "Token one")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "0", blocked.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, serve(router, http.MethodPost, "/recipes", "Token two").Code, "limits are per user")
	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodPost, "/recipes", "").Code)
}

func TestRateLimiter_PerUserAndRecipe(t *testing.T) {
	srv := miniredis.RunT(t)
	router := newLimitedRouter(t, srv, 1)

	assert.Equal(t, http.StatusOK, serve(router, http.MethodPatch, "/recipes/1", "Token one").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(router, http.MethodPatch, "/recipes/1", "Token one").Code)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodPatch, "/recipes/2", "Token one").Code)
}

func TestRateLimiter_RemainingDoesNotCount(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	limiter := middleware.NewRateLimiter(client, middleware.RateLimitConfig{
		Window:    time.Hour,
		Limit:     3,
		KeyPrefix: "test",
	}, zaptest.NewLogger(t))
	ctx := context.Background()

	remaining, reset, err := limiter.Remaining(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, 3, remaining)
	assert.True(t, reset.After(time.Now()))

	_, _, _, err = limiter.IsAllowed(ctx, "7")
	require.NoError(t, err)

	remaining, _, err = limiter.Remaining(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, 2, remaining)
	remaining, _, err = limiter.Remaining(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, 2, remaining)
}

func TestRateLimiter_FailsOpenWhenRedisIsDown(t *testing.T) {
	srv := miniredis.RunT(t)
	router := newLimitedRouter(t, srv, 1)
	srv.Close()

	w := serve(router, http.MethodPost, "/recipes", "Token one")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "rate limit check failed", w.Header().Get("X-RateLimit-Error"))
}

func TestRecoveryAndRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)
	m := metrics.New()

	router := gin.New()
	router.Use(middleware.RequestLogger(logger, m), middleware.Recovery(logger))
	router.GET("/boom", func(c *gin.Context) { panic("kaboom") })
	router.GET("/ok", whoAmI)

	w := serve(router, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"detail":"Internal Server Error"}`, w.Body.String())

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/ok", "").Code)

	require.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
	requests := logs.FilterMessage("request").All()
	require.Len(t, requests, 2)
	assert.Equal(t, zapcore.ErrorLevel, requests[0].Level)
	assert.Equal(t, int64(500), requests[0].ContextMap()["status"])
	assert.Equal(t, zapcore.InfoLevel, requests[1].Level)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/boom", "GET", "500")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/ok", "GET", "200")))
}

func TestCORS(t *testing.T) {
	router := gin.New()
	router.Use(middleware.CORS([]string{"http://localhost:3000"}))
	router.GET("/", whoAmI)

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "PATCH")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
