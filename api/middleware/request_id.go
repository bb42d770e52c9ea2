package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/Blazious/fun-learning-system/pkg/logger"
)

const requestIDHeader = "X-Request-Id"

// RequestID ensures every request carries an identifier and threads it into
// the logging context so downstream log lines correlate.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
			if requestID == "" {
				requestID = uuid.NewString()
			}

			w.Header().Set(requestIDHeader, requestID)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, requestID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
