package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/simple-clinic/clinic-sync/pkg/common/logger"
)

const RequestIDHeader = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logging tags every request with an id, echoed back to the caller, and
// logs it once the handler returns.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := r.Header.Get(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.New().String()
		}
		r.Header.Set(RequestIDHeader, reqID)
		w.Header().Set(RequestIDHeader, reqID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		entry := logger.Log.WithFields(map[string]interface{}{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"remote_addr": r.RemoteAddr,
			"request_id":  reqID,
			"duration":    time.Since(start).Milliseconds(),
		})
		if rec.status >= http.StatusInternalServerError {
			entry.Warn("HTTP request")
			return
		}
		entry.Info("HTTP request")
	})
}

// Standard is the chain every service router uses. Logging wraps Recovery so
// a recovered panic is still logged with its 500 status.
func Standard(next http.Handler) http.Handler {
	return Logging(Recovery(next))
}

func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger.Log.WithFields(map[string]interface{}{
					"error":      err,
					"request_id": r.Header.Get(RequestIDHeader),
				}).Error("Panic recovered")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
