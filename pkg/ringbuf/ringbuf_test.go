package ringbuf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingBuffer(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		push     []int
		want     []int
	}{
		{"empty", 3, nil, []int{}},
		{"partial", 3, []int{1, 2}, []int{1, 2}},
		{"exactly full", 3, []int{1, 2, 3}, []int{1, 2, 3}},
		{"overwrites oldest", 3, []int{1, 2, 3, 4, 5}, []int{3, 4, 5}},
		{"zero capacity clamps to one", 0, []int{1, 2}, []int{2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New[int](tt.capacity)
			for _, v := range tt.push {
				r.Push(v)
			}
			assert.Equal(t, tt.want, r.Snapshot())
			assert.Equal(t, len(tt.want), r.Len())
		})
	}
}
