package middleware

import (
	"net/http"
	"time"

	"telehealth-service/pkg/response"

	"github.com/go-chi/httprate"
)

// BookingRateLimit caps booking requests per client IP per minute
func BookingRateLimit(requestsPerMinute int) func(http.Handler) http.Handler {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 30
	}
	return httprate.Limit(
		requestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			response.TooManyRequests(w, "Too many booking requests, try again later")
		}),
	)
}
