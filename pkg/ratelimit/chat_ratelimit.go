// Package ratelimit: party chat için kullanıcı bazlı flood koruması.
//
// Davranış:
//   - window içinde maxMessages mesaja izin verilir.
//   - Limit aşıldığında cooldown başlar; cooldown bitene kadar tüm mesajlar düşer.
//   - Cooldown bitince pencere sıfırlanır.
//
// WebSocket chat'inde reddedilen mesaj gönderene bildirilmez, sessizce düşer.
package ratelimit

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// chatBucket, bir kullanıcı için sayaç ve cooldown bilgisi tutar.
type chatBucket struct {
	count         int
	windowStart   time.Time
	cooldownUntil time.Time // zero value = cooldown yok
}

// ChatRateLimiter, kullanıcı bazlı chat spam koruması.
//
//	limiter := NewChatRateLimiter(clock.New(), 5, 5*time.Second, 15*time.Second)
//	defer limiter.Close()
//	if !limiter.Allow(userID) { return }
type ChatRateLimiter struct {
	mu          sync.Mutex
	buckets     map[string]*chatBucket
	maxMessages int
	window      time.Duration
	cooldown    time.Duration
	clock       clock.Clock
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

// NewChatRateLimiter, limiter oluşturur ve arka plan temizleme goroutine'ini başlatır.
func NewChatRateLimiter(clk clock.Clock, maxMessages int, window, cooldown time.Duration) *ChatRateLimiter {
	rl := &ChatRateLimiter{
		buckets:     make(map[string]*chatBucket),
		maxMessages: maxMessages,
		window:      window,
		cooldown:    cooldown,
		clock:       clk,
		stopCleanup: make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Allow, kullanıcının şu an mesaj gönderip gönderemeyeceğini döner ve sayacı günceller.
//
// Akış:
//  1. Cooldown'daysa → false.
//  2. Cooldown yeni bittiyse veya window dolmuşsa → yeni pencere.
//  3. Window içindeyse → count artır, max aşıldıysa cooldown başlat.
func (rl *ChatRateLimiter) Allow(userID string) bool {
	now := rl.clock.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, exists := rl.buckets[userID]
	if !exists {
		rl.buckets[userID] = &chatBucket{count: 1, windowStart: now}
		return true
	}

	if !b.cooldownUntil.IsZero() {
		if now.Before(b.cooldownUntil) {
			return false
		}
		b.count = 1
		b.windowStart = now
		b.cooldownUntil = time.Time{}
		return true
	}

	if now.Sub(b.windowStart) > rl.window {
		b.count = 1
		b.windowStart = now
		return true
	}

	b.count++
	if b.count > rl.maxMessages {
		b.cooldownUntil = now.Add(rl.cooldown)
		return false
	}

	return true
}

// Forget, kullanıcının bucket'ını siler (hesap silindiğinde).
func (rl *ChatRateLimiter) Forget(userID string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.buckets, userID)
}

// Close, temizleme goroutine'ini durdurur.
func (rl *ChatRateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stopCleanup) })
}

// cleanupLoop, her 30 saniyede bir süresi dolmuş bucket'ları temizler.
func (rl *ChatRateLimiter) cleanupLoop() {
	ticker := rl.clock.Ticker(30 * time.Second)
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

// cleanup, hem window'u geçmiş hem cooldown'ı bitmiş bucket'ları siler.
func (rl *ChatRateLimiter) cleanup() {
	now := rl.clock.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for userID, b := range rl.buckets {
		windowExpired := now.Sub(b.windowStart) > rl.window
		cooldownExpired := b.cooldownUntil.IsZero() || now.After(b.cooldownUntil)

		if windowExpired && cooldownExpired {
			delete(rl.buckets, userID)
		}
	}
}
