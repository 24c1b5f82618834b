package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const requestDurationName = "request_duration_seconds"

var defaultBuckets = []float64{
	0.0005,
	0.001, // 1ms
	0.002,
	0.005,
	0.01, // 10ms
	0.02,
	0.05,
	0.1, // 100ms
	0.2,
	0.5,
	1.0, // 1s
	2.0,
	5.0,
}

// Metrics observes request latency labelled by status code, method and route pattern.
// Unmatched requests share one label to keep cardinality bounded.
func Metrics(next http.Handler, reg prometheus.Registerer, namespace string) http.Handler {
	hist := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      requestDurationName,
		Help:      "Time spent processing a route",
		Buckets:   defaultBuckets,
	}, []string{"code", "method", "path"})

	if err := reg.Register(hist); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			panic(err)
		}
		hist = are.ExistingCollector.(*prometheus.HistogramVec)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		path := r.Pattern
		if path == "" || path == "/" {
			path = "unmatched"
		}
		hist.WithLabelValues(strconv.Itoa(rec.status), r.Method, path).Observe(time.Since(start).Seconds())
	})
}
