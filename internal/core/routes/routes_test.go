package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"equiphouse/internal/config"
	"equiphouse/internal/core/container"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, err := container.NewAppContainer(context.Background(), &config.Config{
		StoreDriver:        config.StoreMemory,
		CacheBackend:       config.CacheMemory,
		EquipmentCacheTTL:  5 * time.Minute,
		TaxonomyCacheTTL:   10 * time.Minute,
		MigrationBatchSize: 500,
		AdminRateLimit:     2,
		AdminRateWindow:    time.Minute,
		RequestTimeout:     time.Second,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(c.Close)

	return NewRouter(c)
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestUtilityRoutes(t *testing.T) {
	router := newTestRouter(t)

	assert.Equal(t, http.StatusOK, get(router, "/health").Code)

	get(router, "/equipment")
	w := get(router, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "equiphouse_cache_requests_total"))
}

func TestAdminRoutesAreRateLimited(t *testing.T) {
	router := newTestRouter(t)

	assert.Equal(t, http.StatusOK, get(router, "/admin/restructure/status").Code)
	assert.Equal(t, http.StatusOK, get(router, "/admin/restructure/status").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(router, "/admin/restructure/status").Code)
}

func TestReportRouteWithoutSpreadsheet(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/reports/equipment", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
