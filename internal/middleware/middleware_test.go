package middleware_test

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/babcheck/babcheck/backend/internal/logger"
	"github.com/babcheck/babcheck/backend/internal/middleware"
	"github.com/babcheck/babcheck/backend/internal/mocks"
	"github.com/babcheck/babcheck/backend/internal/testhelpers"
	"github.com/babcheck/babcheck/backend/internal/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type admins map[string]bool

func (a admins) IsAdmin(uid string) bool { return a[uid] }

func whoami(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.Status(http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, gin.H{"uid": user.UserID, "name": user.Name})
}

func TestAuthMiddleware(t *testing.T) {
	validator := new(mocks.MockTokenValidator)
	validator.On("ValidateToken", "good").Return(&types.TokenClaims{UserID: "u1", Name: "지민"}, nil)
	validator.On("ValidateToken", "bad").Return(nil, errors.New("invalid token"))

	r := gin.New()
	r.GET("/me", middleware.AuthMiddleware(validator), whoami)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer good", http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"rejected", "Bearer bad", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.JSONEq(t, `{"uid":"u1","name":"지민"}`, w.Body.String())
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	r := gin.New()
	r.GET("/admin", func(c *gin.Context) {
		c.Set(middleware.ContextUserID, c.Query("uid"))
	}, middleware.RequireAdmin(admins{"teacher-1": true}), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	for uid, status := range map[string]int{
		"teacher-1": http.StatusNoContent,
		"student":   http.StatusForbidden,
		"":          http.StatusUnauthorized,
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin?uid="+uid, nil))
		assert.Equal(t, status, w.Code, uid)
	}
}

func TestRateLimiter(t *testing.T) {
	mr, rdb := testhelpers.NewRedis(t)
	rl := middleware.NewProxyRateLimiter(rdb, 2, time.Minute, logger.Discard())

	r := gin.New()
	r.GET("/limited", rl.Middleware(middleware.ByClientIP), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	call := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/limited", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, call().Code)
	w := call()
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, http.StatusTooManyRequests, call().Code)

	t.Run("fails open when redis is down", func(t *testing.T) {
		mr.Close()
		w := call()
		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Error"))
	})
}

func TestRateLimiterSkipsAnonymous(t *testing.T) {
	_, rdb := testhelpers.NewRedis(t)
	rl := middleware.NewChatRateLimiter(rdb, 1, time.Minute, logger.Discard())

	r := gin.New()
	r.GET("/chat", rl.Middleware(middleware.ByUser), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/chat", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRecoveryAndRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.JSONFormatter{})

	r := gin.New()
	r.Use(middleware.RequestLogger(log), middleware.Recovery(log))
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, w.Body.String())
	assert.Contains(t, buf.String(), "Recovered from panic")

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(middleware.RequestIDHeader))
	require.True(t, strings.Contains(buf.String(), `"request_id":"req-123"`))
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(middleware.CORS([]string{"https://babcheck.example"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://babcheck.example")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://babcheck.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
