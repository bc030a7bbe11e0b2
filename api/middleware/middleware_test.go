package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	"github.com/wagamachi/meiten/internal/auth"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	goleak.VerifyTestMain(m)
}

type stubParser struct{}

func (stubParser) ParseToken(token string) (*auth.TokenClaims, error) {
	if token != "good" {
		return nil, errors.New("bad token")
	}
	claims := &auth.TokenClaims{Email: "taro@example.com"}
	claims.Subject = "u1"
	return claims, nil
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, GetUserID(c))
	})
	return r
}

func do(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	r := newEngine(RequireAuth(stubParser{}))

	w := do(r, "Bearer good")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, do(r, "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, "good").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, "Basic good").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "Bearer bad").Code)
}

func TestOptionalAuth(t *testing.T) {
	r := newEngine(OptionalAuth(stubParser{}))

	assert.Equal(t, "u1", do(r, "Bearer good").Body.String())
	assert.Equal(t, "", do(r, "Bearer bad").Body.String())
	assert.Equal(t, "", do(r, "").Body.String())
}

func TestIPRateLimiter(t *testing.T) {
	rl := NewIPRateLimiter(1, 2, time.Minute)
	defer rl.StopCleanup()

	r := newEngine(rl.Middleware())

	assert.Equal(t, http.StatusOK, do(r, "").Code)
	assert.Equal(t, http.StatusOK, do(r, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, "").Code)
}

func TestIPRateLimiter_ConcurrentAllow(t *testing.T) {
	rl := NewIPRateLimiter(0.001, 10, time.Minute)
	defer rl.StopCleanup()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.Allow("10.0.0.1") {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, allowed)
	assert.True(t, rl.Allow("10.0.0.2"))
}

func TestIPRateLimiter_Evict(t *testing.T) {
	rl := NewIPRateLimiter(1, 1, time.Minute)
	defer rl.StopCleanup()

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))

	rl.evict(time.Now().Add(2 * time.Minute))
	assert.True(t, rl.Allow("10.0.0.1"))
}

func TestIPRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewIPRateLimiter(1, 1, time.Minute)
	rl.StopCleanup()
	rl.StopCleanup()
}

func TestMaxBytesReader(t *testing.T) {
	r := gin.New()
	r.Use(MaxBytesReader(4))
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("too long")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("ok")))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestMetrics(t *testing.T) {
	ResetMetrics()
	r := newEngine(Metrics())
	do(r, "")
	do(r, "")

	m := GetMetrics()
	assert.Equal(t, int64(2), m["request_count"])
	assert.Equal(t, int64(0), m["error_count"])
}
