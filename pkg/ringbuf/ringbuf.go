// Package ringbuf, sabit kapasiteli generic dairesel buffer sağlar.
// Party chat geçmişi (son N mesaj) bununla tutulur.
package ringbuf

import "sync"

// RingBuffer, sabit kapasiteli dairesel buffer. Doluyken Push en eski
// elemanın üzerine yazar. Tüm metodlar eşzamanlı kullanıma uygundur.
type RingBuffer[T any] struct {
	mu    sync.RWMutex
	buf   []T
	head  int
	count int
}

// New, verilen kapasitede bir buffer oluşturur. capacity < 1 ise 1 kullanılır.
func New[T any](capacity int) *RingBuffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &RingBuffer[T]{buf: make([]T, capacity)}
}

// Push, elemanı ekler; buffer doluysa en eskisini düşürür.
func (r *RingBuffer[T]) Push(item T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := (r.head + r.count) % len(r.buf)
	r.buf[idx] = item
	if r.count == len(r.buf) {
		r.head = (r.head + 1) % len(r.buf)
	} else {
		r.count++
	}
}

// Snapshot, elemanların eskiden yeniye kopyasını döner. Boşsa boş slice (nil değil).
func (r *RingBuffer[T]) Snapshot() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]T, r.count)
	for i := 0; i < r.count; i++ {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}

// Len, saklanan eleman sayısını döner.
func (r *RingBuffer[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}
