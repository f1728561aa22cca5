package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sicali-client/pkg/metrics"
)

func gatewayPaths(t *testing.T, m *metrics.Metrics) map[string]uint64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)

	counts := map[string]uint64{}
	for _, fam := range families {
		if fam.GetName() != "sicali_gateway_request_duration_seconds" {
			continue
		}
		for _, metric := range fam.GetMetric() {
			labels := map[string]string{}
			for _, l := range metric.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			counts[labels["path"]+" "+labels["status"]] += metric.GetHistogram().GetSampleCount()
		}
	}
	return counts
}

func TestMetricsRecordsRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := metrics.New()
	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/exports/:token", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	for _, target := range []string{"/exports/abc", "/exports/def", "/nowhere"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	}

	counts := gatewayPaths(t, m)
	assert.Equal(t, uint64(2), counts["/exports/:token 404"])
	assert.Equal(t, uint64(1), counts["unmatched 404"])
}

func TestMetricsWithoutCollector(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics(nil))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
