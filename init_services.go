// Package main: Service katmanı başlatma.
//
// initServices, tüm service implementasyonlarını ve arka plan
// bileşenlerini oluşturur. Sıralama kuralları:
//  1. catalogService → syncService'ten ÖNCE (track/playlist lookup)
//  2. syncService → userService ve sweeper'dan ÖNCE (presence + sweep hedefi)
package main

import (
	"database/sql"
	"math/rand"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/akinalp/syncwave/config"
	"github.com/akinalp/syncwave/pkg/cache"
	"github.com/akinalp/syncwave/pkg/markup"
	"github.com/akinalp/syncwave/pkg/ratelimit"
	"github.com/akinalp/syncwave/services"
	"github.com/akinalp/syncwave/ws"
)

// Services, tüm service instance'larını tutan container struct.
type Services struct {
	Catalog  services.CatalogService
	Sync     services.SyncService
	Sweeper  services.StalenessSweeper
	Watcher  services.LibraryWatcher
	Playlist services.PlaylistService
	User     services.UserService

	// WriteLimiter, REST yazma endpoint'lerinin IP bazlı limiti (middleware'a verilir).
	WriteLimiter *ratelimit.IPRateLimiter

	titles  *cache.TTLCache[int64, string]
	limiter *ratelimit.ChatRateLimiter
}

// initServices, tüm service'leri oluşturur. Hiçbir goroutine başlatmaz;
// bunun için Start çağrılır.
func initServices(db *sql.DB, repos *Repositories, hub *ws.Hub, cfg *config.Config, log *zap.SugaredLogger) *Services {
	clk := clock.New()

	// ─── Catalog ───
	titles := cache.New[int64, string](clk, cfg.Catalog.CacheTTL, time.Minute)
	catalogService := services.NewCatalogService(repos.Track, repos.Playlist, titles, log.Named("catalog"))

	// ─── Sync dispatcher ───
	limiter := ratelimit.NewChatRateLimiter(clk, cfg.Chat.RateMax, cfg.Chat.RateWindow, cfg.Chat.RateCooldown)
	syncService := services.NewSyncService(
		hub, catalogService, catalogService, repos.User, limiter, markup.NewRenderer(),
		clk, rand.New(rand.NewSource(time.Now().UnixNano())),
		services.SyncOptions{
			Debounce:        cfg.Sync.Debounce,
			ChatHistorySize: cfg.Chat.HistorySize,
			ChatMaxLength:   cfg.Chat.MaxLength,
		},
		log.Named("sync"),
	)

	sweeper := services.NewStalenessSweeper(syncService, clk, services.SweeperConfig{
		Interval:   cfg.Sync.SweepInterval,
		StaleAfter: cfg.Sync.StaleAfter,
		Backoff:    cfg.Sync.SweepBackoff,
	}, log.Named("sweeper"))

	// ─── Library ───
	watcher := services.NewLibraryWatcher(cfg.Media.Dir, catalogService, log.Named("watcher"))
	playlistService := services.NewPlaylistService(db, repos.Playlist, repos.Track, log.Named("playlist"))
	userService := services.NewUserService(repos.User, syncService, log.Named("user"))

	return &Services{
		Catalog:      catalogService,
		Sync:         syncService,
		Sweeper:      sweeper,
		Watcher:      watcher,
		Playlist:     playlistService,
		User:         userService,
		WriteLimiter: ratelimit.NewIPRateLimiter(clk, cfg.API.WriteRateMax, cfg.API.WriteRateWindow),
		titles:       titles,
		limiter:      limiter,
	}
}

// Start, arka plan bileşenlerini başlatır: dispatcher loop, sweeper, watcher.
func (s *Services) Start() error {
	s.Sync.Start()
	s.Sweeper.Start()
	return s.Watcher.Start()
}

// Stop, arka plan bileşenlerini ters sırada durdurur.
func (s *Services) Stop() {
	s.Watcher.Stop()
	s.Sweeper.Stop()
	s.Sync.Stop()
	s.WriteLimiter.Close()
	s.limiter.Close()
	s.titles.Close()
}
