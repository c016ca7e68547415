package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/clinicops/clinic-assistant/pkg/logging"
)

// RequestLogger emits structured logs for every HTTP request. When the
// caller carries a chat session cookie, the session id is attached to
// both records so a conversation can be traced across requests.
func RequestLogger(logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := r.Header.Get("X-Request-ID")
			if reqID == "" {
				reqID = uuid.NewString()
			}
			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"request_id", reqID,
			}
			if cookie, err := r.Cookie("session_id"); err == nil && cookie.Value != "" {
				attrs = append(attrs, "session_id", cookie.Value)
			}
			logger.Info("request started", append(attrs, "remote_ip", r.RemoteAddr)...)
			next.ServeHTTP(w, r)
			logger.Info("request completed", append(attrs, "duration_ms", time.Since(start).Milliseconds())...)
		})
	}
}
