package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/cleaning-api/internal/middleware"
	"github.com/jwalitptl/cleaning-api/pkg/logger"
	"github.com/jwalitptl/cleaning-api/pkg/metrics"
)

type routeHandler struct {
	method, path string
}

func (h routeHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.Handle(h.method, h.path, func(c *gin.Context) { c.Status(http.StatusOK) })
}

func newTestRouter(config RouterConfig) *gin.Engine {
	r := NewRouter(Handlers{
		Health:  routeHandler{http.MethodGet, "/health/live"},
		Price:   routeHandler{http.MethodPost, "/pricing/calculate"},
		Booking: routeHandler{http.MethodGet, "/bookings"},
		Metrics: func(c *gin.Context) { c.String(http.StatusOK, "metrics") },
	}, metrics.NewMetrics("test", prometheus.NewRegistry()), logger.Nop(), config)
	r.Setup()
	return r.Engine()
}

func TestRoutesMountedUnderAPIPrefix(t *testing.T) {
	engine := newTestRouter(RouterConfig{Mode: gin.TestMode, CORSConfig: middleware.DefaultCORSConfig([]string{"*"})})

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/api/v1/health/live", http.StatusOK},
		{http.MethodGet, "/api/v1/health/metrics", http.StatusOK},
		{http.MethodPost, "/api/v1/pricing/calculate", http.StatusOK},
		{http.MethodGet, "/api/v1/bookings", http.StatusOK},
		{http.MethodGet, "/bookings", http.StatusNotFound},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
		assert.Equal(t, tt.want, w.Code, tt.path)
		if tt.want == http.StatusOK {
			assert.NotEmpty(t, w.Header().Get(middleware.HeaderXRequestID))
			assert.Equal(t, "1.0", w.Header().Get("X-API-Version"))
		}
	}
}

func TestRateLimitToggle(t *testing.T) {
	engine := newTestRouter(RouterConfig{
		Mode:             gin.TestMode,
		RateLimitEnabled: true,
		RateLimit:        rate.Limit(0.001),
		RateBurst:        1,
	})

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}
