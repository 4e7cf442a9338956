package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// statusRecorder captures the status code and body size of a response.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += int64(n)
	return n, err
}

// Logger writes one access record per request. Successful requests log at
// debug since scrapers poll these endpoints continuously.
func Logger(log zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			requestID, _ := r.Context().Value(RequestIDKey).(string)

			var evt *zerolog.Event
			switch {
			case rec.status >= 500:
				evt = log.Error()
			case rec.status >= 400:
				evt = log.Warn()
			default:
				evt = log.Debug()
			}

			evt.
				Str("request_id", requestID).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("remote_addr", r.RemoteAddr).
				Int("status", rec.status).
				Int64("bytes", rec.bytes).
				Dur("latency", time.Since(start)).
				Msg("http_request")
		})
	}
}
