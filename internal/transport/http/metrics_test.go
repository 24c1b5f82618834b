package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_LabelsByRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /markets/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	handler := Metrics(mux, reg, "test")

	for _, path := range []string{"/markets/a", "/markets/b", "/nowhere"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	assert.Equal(t, "test_request_duration_seconds", families[0].GetName())

	counts := map[string]uint64{}
	for _, m := range families[0].GetMetric() {
		var path, code string
		for _, l := range m.GetLabel() {
			switch l.GetName() {
			case "path":
				path = l.GetValue()
			case "code":
				code = l.GetValue()
			}
		}
		counts[path+" "+code] = m.GetHistogram().GetSampleCount()
	}
	assert.Equal(t, map[string]uint64{
		"GET /markets/{id} 418": 2,
		"unmatched 404":         1,
	}, counts)
}

func TestMetrics_ReusesRegisteredCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	first := Metrics(ok, reg, "test")
	second := Metrics(ok, reg, "test")
	first.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	second.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	count, err := testutil.GatherAndCount(reg, "test_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
