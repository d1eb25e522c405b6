package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeSweepTarget, her çağrıda behave'i çalıştırır ve staleAfter'ı kanala yazar.
type fakeSweepTarget struct {
	calls  chan time.Duration
	n      atomic.Int32
	behave func(call int32) (int, error)
}

func newFakeSweepTarget(behave func(call int32) (int, error)) *fakeSweepTarget {
	return &fakeSweepTarget{calls: make(chan time.Duration, 16), behave: behave}
}

func (f *fakeSweepTarget) SweepStale(_ context.Context, staleAfter time.Duration) (int, error) {
	call := f.n.Add(1)
	f.calls <- staleAfter
	return f.behave(call)
}

var testSweeperConfig = SweeperConfig{
	Interval:   2 * time.Second,
	StaleAfter: 5 * time.Second,
	Backoff:    3 * time.Second,
}

// advanceUntilCall, bir sweep çağrısı görülene kadar mock clock'u ilerletir.
func advanceUntilCall(t *testing.T, clk *clock.Mock, calls <-chan time.Duration) time.Duration {
	t.Helper()
	var got time.Duration
	require.Eventually(t, func() bool {
		clk.Add(time.Second)
		select {
		case got = <-calls:
			return true
		default:
			return false
		}
	}, 2*time.Second, 5*time.Millisecond)
	return got
}

func TestStalenessSweeper_SweepsOnInterval(t *testing.T) {
	clk := clock.NewMock()
	target := newFakeSweepTarget(func(int32) (int, error) { return 1, nil })

	sw := NewStalenessSweeper(target, clk, testSweeperConfig, zap.NewNop().Sugar())
	sw.Start()
	defer sw.Stop()

	assert.Equal(t, 5*time.Second, advanceUntilCall(t, clk, target.calls))
	assert.Equal(t, 5*time.Second, advanceUntilCall(t, clk, target.calls))
}

func TestStalenessSweeper_SurvivesErrorsAndPanics(t *testing.T) {
	clk := clock.NewMock()
	target := newFakeSweepTarget(func(call int32) (int, error) {
		switch call {
		case 1:
			return 0, errors.New("loop busy")
		case 2:
			panic("boom")
		default:
			return 0, nil
		}
	})

	sw := NewStalenessSweeper(target, clk, testSweeperConfig, zap.NewNop().Sugar())
	sw.Start()
	defer sw.Stop()

	for i := 0; i < 3; i++ {
		advanceUntilCall(t, clk, target.calls)
	}
	assert.GreaterOrEqual(t, target.n.Load(), int32(3))
}

func TestStalenessSweeper_StopIsIdempotent(t *testing.T) {
	clk := clock.NewMock()
	target := newFakeSweepTarget(func(int32) (int, error) { return 0, nil })

	sw := NewStalenessSweeper(target, clk, testSweeperConfig, zap.NewNop().Sugar())
	sw.Start()
	sw.Stop()
	sw.Stop()

	clk.Add(10 * time.Second)
	assert.Zero(t, target.n.Load())
}

func TestStalenessSweeper_ReleasesDemocraticLock(t *testing.T) {
	h := newHarness(t, func(o *SyncOptions) { o.Debounce = 10 * time.Second })
	partyID := h.partyWithQueue()
	h.joinParty("bob", "Bob", partyID)
	h.send("alice", `{"type":"set_mode","payload":{"mode":"democratic"}}`)
	h.clock.Add(time.Minute)
	h.send("bob", `{"type":"player_action","payload":{"action":"pause"}}`)

	sw := NewStalenessSweeper(h.svc, h.clock, testSweeperConfig, zap.NewNop().Sugar())
	sw.Start()
	defer sw.Stop()

	require.Eventually(t, func() bool {
		h.clock.Add(time.Second)
		var held bool
		h.inLoop(func() { _, _, held = h.svc.parties[partyID].LastAction() })
		return !held
	}, 2*time.Second, 5*time.Millisecond)

	h.send("alice", `{"type":"player_action","payload":{"action":"play"}}`)
	assert.True(t, h.snapshot(partyID).IsPlaying)
}
