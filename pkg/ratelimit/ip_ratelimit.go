package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// ipBucket, bir IP adresi için istek sayacı ve pencere başlangıcı.
type ipBucket struct {
	count       int
	windowStart time.Time
}

// IPRateLimiter, REST yazma endpoint'leri için IP bazlı sabit pencere limiti.
//
// Pencere içinde maxRequests aşılırsa istek reddedilir; pencere dolunca
// sayaç sıfırlanır. Süresi dolmuş bucket'lar arka planda temizlenir.
//
//	limiter := NewIPRateLimiter(clock.New(), 20, time.Minute)
//	defer limiter.Close()
//	if !limiter.Allow(ExtractIP(r)) { return 429 }
type IPRateLimiter struct {
	mu          sync.Mutex
	buckets     map[string]*ipBucket
	maxRequests int
	window      time.Duration
	clock       clock.Clock
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

// NewIPRateLimiter, limiter oluşturur ve temizleme goroutine'ini başlatır.
func NewIPRateLimiter(clk clock.Clock, maxRequests int, window time.Duration) *IPRateLimiter {
	rl := &IPRateLimiter{
		buckets:     make(map[string]*ipBucket),
		maxRequests: maxRequests,
		window:      window,
		clock:       clk,
		stopCleanup: make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Allow, IP'nin şu an istek yapıp yapamayacağını döner ve sayacı artırır.
func (rl *IPRateLimiter) Allow(ip string) bool {
	now := rl.clock.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, exists := rl.buckets[ip]
	if !exists || now.Sub(b.windowStart) >= rl.window {
		rl.buckets[ip] = &ipBucket{count: 1, windowStart: now}
		return true
	}

	b.count++
	return b.count <= rl.maxRequests
}

// RetryAfterSeconds, pencerenin bitmesine kalan süre (Retry-After header'ı için).
func (rl *IPRateLimiter) RetryAfterSeconds(ip string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, exists := rl.buckets[ip]
	if !exists {
		return 0
	}

	remaining := rl.window - rl.clock.Since(b.windowStart)
	if remaining <= 0 {
		return 0
	}
	return int(remaining.Seconds()) + 1
}

// Close, temizleme goroutine'ini durdurur.
func (rl *IPRateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stopCleanup) })
}

func (rl *IPRateLimiter) cleanupLoop() {
	ticker := rl.clock.Ticker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *IPRateLimiter) cleanup() {
	now := rl.clock.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, b := range rl.buckets {
		if now.Sub(b.windowStart) >= rl.window {
			delete(rl.buckets, ip)
		}
	}
}

// ExtractIP, request'ten client IP adresini çıkarır.
//
// Öncelik: X-Forwarded-For (ilk değer), X-Real-IP, RemoteAddr.
// Reverse proxy arkasında RemoteAddr her zaman proxy'nin adresidir.
func ExtractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
