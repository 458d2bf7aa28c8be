package middleware

import (
	"net/http"

	apiContext "boardflow/internal/api/context"
	"boardflow/internal/engine/ratelimit"
	"boardflow/internal/pkg/errors"
	"boardflow/internal/pkg/metrics"
	"boardflow/internal/platform/auth"
	"boardflow/internal/platform/config"
)

type RateLimitMiddleware struct {
	limiter *ratelimit.Limiter
	cfg     config.RateLimitConfig
}

func NewRateLimitMiddleware(limiter *ratelimit.Limiter, cfg config.RateLimitConfig) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: limiter, cfg: cfg}
}

// Handle enforces the per-user fixed-window limit for one named action.
// Unauthenticated routes fall back to the remote address as the subject.
func (m *RateLimitMiddleware) Handle(action string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			subject := r.RemoteAddr
			if claims, ok := r.Context().Value(apiContext.Claims).(*auth.Claims); ok {
				subject = claims.UserID
			}

			limit := ratelimit.Limit{Max: m.cfg.LimitFor(action), Window: m.cfg.Window}
			res := m.limiter.Check(subject, action, limit)
			if !res.Allowed {
				metrics.RateLimitRejections.WithLabelValues(action).Inc()
				errors.WriteRateLimited(w, res.ResetIn)
				return
			}

			next(w, r)
		}
	}
}
