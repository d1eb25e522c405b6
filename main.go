// Package main, syncwave server'ının giriş noktasıdır.
//
// Bu dosyanın görevi: Dependency Injection "wire-up":
//  1. Config'i yükle
//  2. Logger'ı kur
//  3. Database'i başlat (embedded migration'lar)
//  4. Repository'leri oluştur
//  5. WebSocket Hub'ı oluştur
//  6. Service'leri oluştur ve arka plan bileşenlerini başlat
//  7. Handler'ları oluştur, route'ları bağla
//  8. CORS yapılandır
//  9. HTTP Server'ı başlat
//  10. Graceful shutdown
//
// Global değişken YOK: her şey bu fonksiyonda oluşturulup birbirine bağlanıyor.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/akinalp/syncwave/config"
	"github.com/akinalp/syncwave/database"
	"github.com/akinalp/syncwave/middleware"
	"github.com/akinalp/syncwave/pkg/logger"
	"github.com/akinalp/syncwave/ws"
)

func main() {
	// ─── 1. Config ───
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// ─── 2. Logger ───
	root, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync(root)
	log := root.Named("main")

	log.Infow("syncwave server starting", "addr", cfg.Server.Addr(), "media_dir", cfg.Media.Dir)

	// ─── 3. Database ───
	db, err := database.New(cfg.Database.Path, database.Migrations(), root.Named("database"))
	if err != nil {
		log.Fatalw("failed to initialize database", "error", err)
	}
	defer db.Close()

	// ─── 4. Repository Layer ───
	repos := initRepositories(db.Conn)

	// ─── 5. WebSocket Hub ───
	hub := ws.NewHub(root.Named("hub"))

	// ─── 6. Service Layer ───
	svcs := initServices(db.Conn, repos, hub, cfg, root)
	if err := svcs.Start(); err != nil {
		log.Fatalw("failed to start services", "error", err)
	}

	// ─── 7. Handlers + Routes ───
	h := initHandlers(svcs, hub, cfg, root)
	mux := http.NewServeMux()
	initRoutes(mux, h, middleware.NewRateLimitMiddleware(svcs.WriteLimiter, root.Named("ratelimit")))

	// ─── 8. CORS ───
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.Server.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})

	// ─── 9. HTTP Server ───
	// WriteTimeout yok: hijack edilen WebSocket bağlantıları kendi deadline'larını yönetir.
	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           corsHandler.Handler(mux),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// ─── 10. Graceful Shutdown ───
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Infow("server listening", "addr", cfg.Server.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server error", "error", err)
		}
	}()

	<-done
	log.Info("shutting down...")

	// Önce arka plan loop'ları durur, sonra WebSocket bağlantıları kapanır,
	// en son HTTP server yeni request kabul etmeyi bırakır.
	svcs.Stop()
	hub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("forced shutdown", "error", err)
		return
	}

	log.Info("server stopped gracefully")
}
