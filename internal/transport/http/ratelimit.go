package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/trudify/trudify-core/pkg/logger/sl"
	"github.com/ulule/limiter/v3"
)

// NewWriteLimiter builds the per-user limiter for write routes from a
// formatted rate such as "30-M".
func NewWriteLimiter(rate string, store limiter.Store) (*limiter.Limiter, error) {
	const op = "internal.transport.http.NewWriteLimiter"

	r, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid rate %q: %w", op, rate, err)
	}

	return limiter.New(store, r), nil
}

// rateLimit counts requests per authenticated user, falling back to the
// remote address.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	if s.writeLimiter == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const op = "internal.transport.http.rateLimit"

		key := userIDFrom(r.Context())
		if key == "" {
			key = r.RemoteAddr
		}

		lctx, err := s.writeLimiter.Get(r.Context(), key)
		if err != nil {
			s.log.Error("rate limiter failed", slog.String("op", op), sl.Err(err))
			s.respondAPIError(w, http.StatusInternalServerError, codeInternal, "internal server error")

			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

		if lctx.Reached {
			s.respondAPIError(w, http.StatusTooManyRequests, codeRateLimited, "too many requests, try again later")
			return
		}

		next.ServeHTTP(w, r)
	})
}
