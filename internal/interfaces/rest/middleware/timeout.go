package middleware

import (
	"context"
	"net/http"
	"time"
)

// Timeout bounds every request. The deadline reaches handlers through the
// request context, so outbound calls to the consent store and the database
// are cancelled along with the response.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			r = r.WithContext(ctx)

			timeoutHandler := http.TimeoutHandler(
				next,
				timeout,
				`{"Code":"408 Request Timeout","Message":"Request timed out","Errors":[{"ErrorCode":"UK.OBIE.UnexpectedError","Message":"Request timed out"}]}`,
			)

			timeoutHandler.ServeHTTP(w, r)
		})
	}
}
