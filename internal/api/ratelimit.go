package api

import (
	"net"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/bookhaven/bookhaven-server/internal/errors"
	"github.com/bookhaven/bookhaven-server/internal/ratelimit"
)

const (
	defaultAuthRatePerMinute = 20
	defaultAuthRateBurst     = 10
)

func newAuthRateLimiter(perMinute, burst int) *ratelimit.KeyedRateLimiter {
	if perMinute <= 0 {
		perMinute = defaultAuthRatePerMinute
	}
	if burst <= 0 {
		burst = defaultAuthRateBurst
	}
	return ratelimit.PerMinute(perMinute, burst)
}

// rateLimited limits credential operations by client IP.
// Returns 429 Too Many Requests when the limit is exceeded.
func (s *Server) rateLimited(ctx huma.Context, next func(huma.Context)) {
	key := clientIP(ctx.RemoteAddr())
	if !s.authRateLimiter.Allow(key) {
		s.logger.Warn("Rate limit exceeded", "ip", key, "path", ctx.URL().Path)
		_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests, domainerrors.ErrRateLimited.Message, domainerrors.ErrRateLimited)
		return
	}
	next(ctx)
}

// clientIP strips the port from a remote address. middleware.RealIP has
// already applied X-Forwarded-For and X-Real-IP.
func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
