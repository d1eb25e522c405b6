// Package config, uygulamanın tüm konfigürasyonunu merkezi olarak yönetir.
// Environment variable'lardan okur, .env dosyasını da destekler.
//
// Config struct'ı tüm ayarları tek bir yerde toplar; her yerde ayrı ayrı
// os.Getenv() çağırmak yerine tek bir Config nesnesi taşınır.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config, uygulamanın tüm konfigürasyon değerlerini taşır.
// Her alt bölüm ayrı bir struct: her struct tek bir concern'ü temsil eder.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Media    MediaConfig
	Log      LogConfig
	Sync     SyncConfig
	Chat     ChatConfig
	Catalog  CatalogConfig
	API      APIConfig
}

// ServerConfig, HTTP server ayarları.
type ServerConfig struct {
	Host        string
	Port        int
	CORSOrigins []string // "*" → tüm origin'ler
}

// DatabaseConfig, SQLite database ayarları.
type DatabaseConfig struct {
	Path string // SQLite dosya yolu (ör: ./data/syncwave.db)
}

// MediaConfig, encoder çıktısının düştüğü kütüphane dizini.
type MediaConfig struct {
	Dir string
}

// LogConfig, zap logger ayarları.
type LogConfig struct {
	Level       string // debug | info | warn | error
	Development bool   // true → okunabilir console çıktısı
}

// SyncConfig, party governance ve sweeper zamanlamaları.
type SyncConfig struct {
	Debounce      time.Duration // democratic modda ikinci aktörün reddedildiği pencere
	SweepInterval time.Duration // sweeper tick aralığı
	StaleAfter    time.Duration // bu süreden eski bookkeeping temizlenir
	SweepBackoff  time.Duration // sweep hata verirse bir sonraki denemeye kadar bekleme
}

// ChatConfig, party chat sınırları ve flood koruması.
type ChatConfig struct {
	HistorySize  int
	MaxLength    int // rune cinsinden
	RateMax      int
	RateWindow   time.Duration
	RateCooldown time.Duration
}

// CatalogConfig, track başlık cache'i.
type CatalogConfig struct {
	CacheTTL time.Duration
}

// APIConfig, REST yazma endpoint'lerinin IP bazlı limiti.
type APIConfig struct {
	WriteRateMax    int
	WriteRateWindow time.Duration
}

// Load, environment variable'lardan Config oluşturur.
// .env dosyası varsa önce onu yükler.
func Load() (*Config, error) {
	// .env dosyası yoksa hata vermez, sessizce devam eder.
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("SERVER_PORT", "8000"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	logDev, err := strconv.ParseBool(getEnv("LOG_DEVELOPMENT", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_DEVELOPMENT: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			Port:        port,
			CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./data/syncwave.db"),
		},
		Media: MediaConfig{
			Dir: getEnv("MEDIA_DIR", "./media"),
		},
		Log: LogConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: logDev,
		},
	}
	// Süre değerleri milisaniye cinsinden okunur.
	durations := map[string]*time.Duration{
		"SYNC_DEBOUNCE_MS":         &cfg.Sync.Debounce,
		"SYNC_SWEEP_INTERVAL_MS":   &cfg.Sync.SweepInterval,
		"SYNC_STALE_AFTER_MS":      &cfg.Sync.StaleAfter,
		"SYNC_SWEEP_BACKOFF_MS":    &cfg.Sync.SweepBackoff,
		"CHAT_RATE_WINDOW_MS":      &cfg.Chat.RateWindow,
		"CHAT_RATE_COOLDOWN_MS":    &cfg.Chat.RateCooldown,
		"CATALOG_CACHE_TTL_MS":     &cfg.Catalog.CacheTTL,
		"API_WRITE_RATE_WINDOW_MS": &cfg.API.WriteRateWindow,
	}

	for key, dst := range durations {
		d, err := getEnvMillis(key, durationDefaults[key])
		if err != nil {
			return nil, err
		}
		*dst = d
	}

	ints := map[string]*int{
		"CHAT_HISTORY_SIZE":  &cfg.Chat.HistorySize,
		"CHAT_MAX_LENGTH":    &cfg.Chat.MaxLength,
		"CHAT_RATE_MAX":      &cfg.Chat.RateMax,
		"API_WRITE_RATE_MAX": &cfg.API.WriteRateMax,
	}
	for key, dst := range ints {
		n, err := strconv.Atoi(getEnv(key, intDefaults[key]))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", key, err)
		}
		if n <= 0 {
			return nil, fmt.Errorf("invalid %s: must be positive", key)
		}
		*dst = n
	}

	return cfg, nil
}

// Varsayılan değerler: string olarak tutulur çünkü getEnv fallback'i string'dir.
var durationDefaults = map[string]string{
	"SYNC_DEBOUNCE_MS":         "500",
	"SYNC_SWEEP_INTERVAL_MS":   "2000",
	"SYNC_STALE_AFTER_MS":      "5000",
	"SYNC_SWEEP_BACKOFF_MS":    "5000",
	"CHAT_RATE_WINDOW_MS":      "5000",
	"CHAT_RATE_COOLDOWN_MS":    "15000",
	"CATALOG_CACHE_TTL_MS":     "30000",
	"API_WRITE_RATE_WINDOW_MS": "60000",
}

var intDefaults = map[string]string{
	"CHAT_HISTORY_SIZE":  "100",
	"CHAT_MAX_LENGTH":    "500",
	"CHAT_RATE_MAX":      "5",
	"API_WRITE_RATE_MAX": "20",
}

// Addr, HTTP server'ın dinleyeceği adresi döner (ör: "0.0.0.0:8000").
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv, environment variable'ı okur, yoksa fallback değeri döner.
func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

// getEnvMillis, milisaniye cinsinden bir env değerini time.Duration'a çevirir.
func getEnvMillis(key, fallback string) (time.Duration, error) {
	ms, err := strconv.Atoi(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if ms <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// splitList, virgülle ayrılmış listeyi boşlukları kırparak böler.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
