package middleware

import (
	"context"
	"net/http"
	"time"
)

// Timeout bounds JSON API handlers. The response is buffered until the
// handler returns, so it must not wrap file serving.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	message := `{"statusCode":503,"data":null,"message":"Request timed out","success":false}`

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, message)
	}
}

// StreamingTimeout bounds file responses without buffering them: it sets the
// connection write deadline and cancels the request context at the limit.
func StreamingTimeout(maxDuration time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxDuration <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), maxDuration)
			defer cancel()

			_ = http.NewResponseController(w).SetWriteDeadline(time.Now().Add(maxDuration))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
