package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"caseintake/internal/auth"
)

type memCounter struct {
	counts map[string]int64
	err    error
}

func (m *memCounter) Incr(ctx context.Context, key string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if m.err != nil {
		cmd.SetErr(m.err)
		return cmd
	}
	m.counts[key]++
	cmd.SetVal(m.counts[key])
	return cmd
}

func (m *memCounter) Expire(ctx context.Context, _ string, _ time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx)
	cmd.SetVal(true)
	return cmd
}

type stubValidator struct{}

func (stubValidator) Validate(token string) (*auth.OperatorClaims, error) {
	if token != "good" {
		return nil, errors.New("bad token")
	}
	return &auth.OperatorClaims{OperatorID: 7, Username: "maria"}, nil
}

func TestRateLimitByIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	counter := &memCounter{counts: map[string]int64{}}
	r := gin.New()
	r.POST("/x", RateLimitByIP(counter, "intake", 2, time.Hour), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimitByIP_FailsOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/x", RateLimitByIP(&memCounter{err: errors.New("down")}, "intake", 1, time.Hour), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOperatorAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/a", OperatorAuthMiddleware(stubValidator{}), func(c *gin.Context) {
		id, ok := OperatorID(c)
		assert.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": id})
	})

	for _, tc := range []struct {
		header string
		want   int
	}{
		{"", http.StatusUnauthorized},
		{"Bearer", http.StatusUnauthorized},
		{"Basic good", http.StatusUnauthorized},
		{"Bearer bad", http.StatusUnauthorized},
		{"bearer good", http.StatusOK},
	} {
		req := httptest.NewRequest(http.MethodGet, "/a", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, tc.want, w.Code, "header %q", tc.header)
	}
}

func TestCorrelationIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CorrelationIDMiddleware())
	r.GET("/c", func(c *gin.Context) { c.String(http.StatusOK, GetCorrelationID(c)) })

	req := httptest.NewRequest(http.MethodGet, "/c", nil)
	req.Header.Set("X-Correlation-ID", "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get("X-Correlation-ID"))

	req = httptest.NewRequest(http.MethodGet, "/c", nil)
	req.Header.Set("X-Correlation-ID", strings.Repeat("x", 200))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Len(t, w.Body.String(), 36)
}
