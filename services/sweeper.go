// Package services: StalenessSweeper, periyodik bookkeeping temizleyicisi.
//
// Democratic modda sessizce düşen bir kullanıcının debounce kilidini süresiz
// tutmasını engeller: her SweepInterval'da, son kabul edilen aksiyonu
// StaleAfter'dan eski olan party'lerin bookkeeping'i temizlenir.
//
// Goroutine pattern: clock ticker + select + stopCh. Bir sweep hata verir
// veya panic ederse loglanır, SweepBackoff kadar beklenir ve döngü devam eder.
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// BookkeepingSweeper, sweeper'ın temizliği devrettiği hedef.
// SyncService bu arayüzü karşılar.
type BookkeepingSweeper interface {
	SweepStale(ctx context.Context, staleAfter time.Duration) (int, error)
}

// SweeperConfig, sweeper zamanlamaları.
type SweeperConfig struct {
	Interval   time.Duration
	StaleAfter time.Duration
	Backoff    time.Duration
}

// StalenessSweeper, periyodik arka plan temizleme interface'i.
type StalenessSweeper interface {
	// Start, sweeper goroutine'ini başlatır.
	Start()
	// Stop, sweeper goroutine'ini durdurur ve bitmesini bekler.
	Stop()
}

type stalenessSweeper struct {
	target BookkeepingSweeper
	clock  clock.Clock
	cfg    SweeperConfig
	log    *zap.SugaredLogger

	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewStalenessSweeper, constructor.
func NewStalenessSweeper(target BookkeepingSweeper, clk clock.Clock, cfg SweeperConfig, log *zap.SugaredLogger) StalenessSweeper {
	return &stalenessSweeper{
		target: target,
		clock:  clk,
		cfg:    cfg,
		log:    log,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (s *stalenessSweeper) Start() {
	s.log.Infow("starting", "interval", s.cfg.Interval, "stale_after", s.cfg.StaleAfter)

	// Ticker goroutine'den önce oluşturulur; mock clock ile Add çağrısı
	// ticker kaydından önce gelirse tick kaybolmaz.
	ticker := s.clock.Ticker(s.cfg.Interval)

	go func() {
		defer close(s.done)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := s.sweepOnce(); err != nil {
					s.log.Errorw("sweep failed, backing off", "backoff", s.cfg.Backoff, "error", err)
					select {
					case <-s.clock.After(s.cfg.Backoff):
					case <-s.stopCh:
						return
					}
				}
			case <-s.stopCh:
				s.log.Info("stopped")
				return
			}
		}
	}()
}

func (s *stalenessSweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	<-s.done
}

// sweepOnce, tek bir temizlik turu çalıştırır. Hedefteki panic error'a çevrilir.
func (s *stalenessSweeper) sweepOnce() (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("sweep panicked: %v", p)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Interval)
	defer cancel()

	cleared, err := s.target.SweepStale(ctx, s.cfg.StaleAfter)
	if err != nil {
		return err
	}
	if cleared > 0 {
		s.log.Debugw("stale bookkeeping cleared", "parties", cleared)
	}
	return nil
}
