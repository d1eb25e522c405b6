// Package main: Handler katmanı başlatma.
//
// Handler'lar "thin" dir: sadece HTTP parse + service call + response write.
package main

import (
	"go.uber.org/zap"

	"github.com/akinalp/syncwave/config"
	"github.com/akinalp/syncwave/handlers"
	"github.com/akinalp/syncwave/ws"
)

// Handlers, tüm handler instance'larını tutan container struct.
type Handlers struct {
	Health   *handlers.HealthHandler
	Library  *handlers.LibraryHandler
	Playlist *handlers.PlaylistHandler
	User     *handlers.UserHandler
	WS       *ws.Handler
}

// initHandlers, tüm HTTP ve WebSocket handler'larını oluşturur.
func initHandlers(svcs *Services, hub *ws.Hub, cfg *config.Config, log *zap.SugaredLogger) *Handlers {
	return &Handlers{
		Health:   handlers.NewHealthHandler(hub),
		Library:  handlers.NewLibraryHandler(svcs.Catalog),
		Playlist: handlers.NewPlaylistHandler(svcs.Playlist),
		User:     handlers.NewUserHandler(svcs.User),
		WS:       ws.NewHandler(svcs.Sync, cfg.Server.CORSOrigins, log.Named("ws")),
	}
}
