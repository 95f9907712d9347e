package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareCountsByRouteTemplate(t *testing.T) {
	e := echo.New()
	m := &HTTPMetrics{ServiceName: "metrics-test"}
	e.Use(m.Middleware())
	e.GET("/s/:slug", func(c echo.Context) error {
		return c.String(http.StatusOK, c.Param("slug"))
	})
	e.GET("/boom", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "down")
	})

	for _, path := range []string{"/s/cafe-x", "/s/cafe-y", "/boom"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(RequestCounter.WithLabelValues("metrics-test", "GET", "/s/:slug", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(RequestCounter.WithLabelValues("metrics-test", "GET", "/boom", "503")))
	assert.Equal(t, 1.0, testutil.ToFloat64(StatusCodeCategoryCounter.WithLabelValues("metrics-test", "5xx", "GET")))
}

func TestStatusCategory(t *testing.T) {
	assert.Equal(t, "2xx", statusCategory(204))
	assert.Equal(t, "3xx", statusCategory(302))
	assert.Equal(t, "4xx", statusCategory(422))
	assert.Equal(t, "5xx", statusCategory(503))
	assert.Equal(t, "", statusCategory(101))
}

func TestDomainRecorders(t *testing.T) {
	RecordCacheLookup("tenant", true)
	RecordCacheLookup("tenant", false)
	RecordCacheLookup("tenant", false)
	assert.Equal(t, 1.0, testutil.ToFloat64(SnapshotCacheCounter.WithLabelValues("tenant", "hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(SnapshotCacheCounter.WithLabelValues("tenant", "miss")))

	RecordCartRejection("capability_disabled")
	assert.Equal(t, 1.0, testutil.ToFloat64(CartRejectionCounter.WithLabelValues("capability_disabled")))

	before := testutil.ToFloat64(StaleFetchCounter)
	RecordStaleFetch()
	assert.Equal(t, before+1, testutil.ToFloat64(StaleFetchCounter))

	RecordBackendRequest("fetch_tenant", time.Now(), errors.New("x"))
	assert.Equal(t, 1, testutil.CollectAndCount(BackendRequestDuration))
}
