// Package middleware, HTTP request pipeline'ına eklenen ara katmanları barındırır.
//
// Go'da middleware bir fonksiyondur:
//
//	func(next http.Handler) http.Handler
//
// Middleware kendi işini yapar, sonra next'i çağırır. Reddederse next
// çağrılmaz ve request burada durur.
package middleware

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/akinalp/syncwave/pkg"
	"github.com/akinalp/syncwave/pkg/ratelimit"
)

// RateLimitMiddleware, REST yazma endpoint'lerini IP bazlı sınırlar.
type RateLimitMiddleware struct {
	limiter *ratelimit.IPRateLimiter
	log     *zap.SugaredLogger
}

// NewRateLimitMiddleware, constructor.
func NewRateLimitMiddleware(limiter *ratelimit.IPRateLimiter, log *zap.SugaredLogger) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: limiter, log: log}
}

// Limit, limit aşıldığında 429 + Retry-After döner.
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ratelimit.ExtractIP(r)
		if !m.limiter.Allow(ip) {
			retry := m.limiter.RetryAfterSeconds(ip)
			m.log.Debugw("request rate limited", "ip", ip, "path", r.URL.Path, "retry_after", retry)

			w.Header().Set("Retry-After", strconv.Itoa(retry))
			pkg.Error(w, pkg.ErrRateLimited)
			return
		}

		next.ServeHTTP(w, r)
	})
}
