package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"AidLink/internal/models"
	"AidLink/internal/testutil"
	constants "AidLink/pkg/constant"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	prom "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

func do(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.CreateUser(t, db, models.RoleVolunteer)

	r := gin.New()
	r.Use(Authenticate(db))
	r.GET("/me", func(c *gin.Context) {
		cur := models.CurrentUser(c)
		c.String(http.StatusOK, c.GetString(constants.UserField)+"|"+cur.Role)
	})

	w := do(r, http.MethodGet, "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodGet, "/me", map[string]string{constants.UserIDHeader: "ghost"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodGet, "/me", map[string]string{constants.UserIDHeader: u.ID})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, u.ID+"|volunteer", w.Body.String())
}

func TestRateLimiterLimitsPerUser(t *testing.T) {
	obs := NewPrometheusObserver(prometheus.NewRegistry())
	rl := NewRateLimiter(RateLimiterConfig{Rate: "2-M", Methods: []string{"post"}, AddHeaders: true}, nil).WithObserver(obs)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if uid := c.GetHeader(constants.UserIDHeader); uid != "" {
			c.Set(constants.UserField, uid)
		}
	}, rl.Middleware())
	r.POST("/alerts", func(c *gin.Context) { c.Status(http.StatusCreated) })
	r.GET("/alerts", func(c *gin.Context) { c.Status(http.StatusOK) })

	alice := map[string]string{constants.UserIDHeader: "alice"}
	assert.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/alerts", alice).Code)
	w := do(r, http.MethodPost, "/alerts", alice)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = do(r, http.MethodPost, "/alerts", alice)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/alerts", map[string]string{constants.UserIDHeader: "bob"}).Code)
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/alerts", alice).Code)
	}

	assert.Equal(t, 1.0, prom.ToFloat64(obs.deny.WithLabelValues("/alerts")))
	assert.Equal(t, 3.0, prom.ToFloat64(obs.allow.WithLabelValues("/alerts")))
}

func TestRateLimiterPerRouteAndWhitelist(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Rate:           "100-M",
		PerRouteRates:  map[string]string{"/requests/:id/accept": "1-M"},
		WhitelistCIDRs: []string{"10.0.0.0/8"},
		SkipPaths:      []string{"/health"},
	}, nil)
	r := gin.New()
	r.Use(rl.Middleware())
	r.POST("/requests/:id/accept", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/requests/1/accept", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, http.MethodPost, "/requests/2/accept", nil).Code)
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health", nil).Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/requests/3/accept", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestIdempotencyRejectsReplayedKey(t *testing.T) {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(constants.UserField, c.GetHeader(constants.UserIDHeader))
	}, IdempotencyMiddleware(IdempotencyConfig{}))
	calls := 0
	r.POST("/requests", func(c *gin.Context) {
		calls++
		c.Status(http.StatusCreated)
	})

	h := map[string]string{constants.UserIDHeader: "alice", "Idempotency-Key": "k1"}
	assert.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/requests", h).Code)
	assert.Equal(t, http.StatusConflict, do(r, http.MethodPost, "/requests", h).Code)

	other := map[string]string{constants.UserIDHeader: "bob", "Idempotency-Key": "k1"}
	assert.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/requests", other).Code)

	noKey := map[string]string{constants.UserIDHeader: "alice"}
	assert.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/requests", noKey).Code)
	assert.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/requests", noKey).Code)
	assert.Equal(t, 4, calls)
}

func TestIdempotencyReleasesKeyOnFailure(t *testing.T) {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(constants.UserField, c.GetHeader(constants.UserIDHeader))
	}, IdempotencyMiddleware(IdempotencyConfig{}))
	calls := 0
	r.POST("/alerts", func(c *gin.Context) {
		calls++
		if calls == 1 {
			c.Status(http.StatusServiceUnavailable)
			return
		}
		c.Status(http.StatusCreated)
	})

	h := map[string]string{constants.UserIDHeader: "alice", "Idempotency-Key": "k2"}
	assert.Equal(t, http.StatusServiceUnavailable, do(r, http.MethodPost, "/alerts", h).Code)
	assert.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/alerts", h).Code)
	assert.Equal(t, http.StatusConflict, do(r, http.MethodPost, "/alerts", h).Code)
	assert.Equal(t, 2, calls)
}
