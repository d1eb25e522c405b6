// Package main: HTTP route registration.
//
// Kimlik doğrulama yoktur; kullanıcı kimliği /ws/{user_id} path'inden gelir.
package main

import (
	"net/http"

	"github.com/akinalp/syncwave/middleware"
)

// initRoutes, tüm endpoint'leri mux'a bağlar.
//
// Literal path'ler parametrik path'lerden ÖNCE tanımlanır
// ("/api/playlists/import" → "/api/playlists/{id}").
//
// Playlist oluşturma ve import IP bazlı limitlenir; diğer endpoint'ler serbesttir.
func initRoutes(mux *http.ServeMux, h *Handlers, writeLimit *middleware.RateLimitMiddleware) {
	mux.HandleFunc("GET /api/health", h.Health.Health)

	// Library
	mux.HandleFunc("GET /api/tracks", h.Library.ListTracks)

	// Playlists
	mux.HandleFunc("GET /api/playlists", h.Playlist.List)
	mux.Handle("POST /api/playlists", writeLimit.Limit(http.HandlerFunc(h.Playlist.Create)))
	mux.Handle("POST /api/playlists/import", writeLimit.Limit(http.HandlerFunc(h.Playlist.Import)))
	mux.HandleFunc("GET /api/playlists/{id}", h.Playlist.Get)
	mux.HandleFunc("DELETE /api/playlists/{id}", h.Playlist.Delete)
	mux.HandleFunc("GET /api/playlists/{id}/m3u8", h.Playlist.Export)

	// Users
	mux.HandleFunc("GET /api/users", h.User.List)
	mux.HandleFunc("PATCH /api/users/{id}", h.User.Update)
	mux.HandleFunc("DELETE /api/users/{id}", h.User.Delete)

	// WebSocket: path değeri kullanıcının kendi verdiği kimliktir.
	mux.HandleFunc("GET /ws/{user_id}", h.WS.HandleConnection)
}
