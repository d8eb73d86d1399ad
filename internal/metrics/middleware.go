package metrics

import (
	"net/http"
	"strconv"
	"time"
)

// statusRecorder captures the status code and body size written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.written += n
	return n, err
}

// Middleware records the status, latency and response size of every request
// served by next under endpointPath.
func Middleware(next http.Handler, endpointPath string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		EndpointResponses.WithLabelValues(endpointPath, strconv.Itoa(rec.status)).Inc()
		EndpointDuration.WithLabelValues(endpointPath).Observe(time.Since(start).Seconds())
		EndpointResponseBytes.WithLabelValues(endpointPath).Add(float64(rec.written))
	})
}
