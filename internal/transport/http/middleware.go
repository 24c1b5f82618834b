package http

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// RequestLogger logs method, route, status, caller and latency of every request.
func RequestLogger(next http.Handler, logger *zap.SugaredLogger) http.Handler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		args := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"latency_ms", time.Since(start).Milliseconds(),
		}
		if caller := callerFrom(r); caller != "" {
			args = append(args, "caller", caller)
		}
		switch {
		case rec.status >= http.StatusInternalServerError:
			logger.Errorw("request", args...)
		case rec.status >= http.StatusBadRequest:
			logger.Warnw("request", args...)
		default:
			logger.Infow("request", args...)
		}
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
