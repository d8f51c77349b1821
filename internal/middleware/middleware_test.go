package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/cleaning-api/pkg/logger"
	"github.com/jwalitptl/cleaning-api/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		assert.Equal(t, c.GetString(ContextRequestID), RequestIDFromContext(c.Request.Context()))
		c.String(http.StatusOK, c.GetString(ContextRequestID))
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(HeaderXRequestID)
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderXRequestID, "abc-123")
	w = serve(r, req)
	assert.Equal(t, "abc-123", w.Header().Get(HeaderXRequestID))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderXRequestID, strings.Repeat("a", 500))
	w = serve(r, req)
	assert.Len(t, w.Header().Get(HeaderXRequestID), 36)
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewLogger(&logger.Config{Level: logger.InfoLevel, Output: &buf})

	r := gin.New()
	r.Use(RequestID(), Recovery(log))
	r.GET("/boom", func(c *gin.Context) { panic("nil catalog") })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
	assert.NotContains(t, w.Body.String(), "nil catalog")
	assert.Contains(t, buf.String(), "Request panic recovered")
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewLogger(&logger.Config{Level: logger.InfoLevel, Output: &buf})

	r := gin.New()
	r.Use(RequestID(), Logger(log))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	serve(r, httptest.NewRequest(http.MethodGet, "/ok?x=1", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/bad", nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"level":"info"`)
	assert.Contains(t, lines[0], `"path":"/ok?x=1"`)
	assert.Contains(t, lines[1], `"level":"warn"`)
}

func TestRateLimit(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: rate.Limit(0.001), Burst: 2})
	r := gin.New()
	r.Use(rl.RateLimit())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := func(ip string) int {
		rq := httptest.NewRequest(http.MethodGet, "/", nil)
		rq.RemoteAddr = ip + ":1234"
		return serve(r, rq).Code
	}
	assert.Equal(t, http.StatusOK, req("10.0.0.1"))
	assert.Equal(t, http.StatusOK, req("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, req("10.0.0.1"))
	assert.Equal(t, http.StatusOK, req("10.0.0.2"))
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	m := metrics.NewMetrics("test", prometheus.NewRegistry())
	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/bookings/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, httptest.NewRequest(http.MethodGet, "/bookings/1", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/bookings/2", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, float64(2), testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/bookings/:id", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "unmatched", "404")))
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS(DefaultCORSConfig([]string{"https://app.example.com"})))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := serve(r, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSizeLimit(t *testing.T) {
	r := gin.New()
	r.Use(SizeLimit(16))
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"ok":true}`)))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 64))))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
