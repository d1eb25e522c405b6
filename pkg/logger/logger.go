// Package logger, uygulama genelinde kullanılan zap logger'ını kurar.
//
// Global logger YOK: New() bir *zap.SugaredLogger döner, main.go bunu
// constructor'lara enjekte eder. Her bileşen kendi adıyla alt logger alır:
//
//	log := root.Named("sync")
//	log.Infow("party created", "party_id", id)
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New, seviye ve moda göre bir SugaredLogger oluşturur.
//
// development=false → JSON encoder, ISO8601 "timestamp" alanı (production).
// development=true  → renkli console encoder, stacktrace'ler warn seviyesinden itibaren.
func New(level string, development bool) (*zap.SugaredLogger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	if development {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return l.Sugar(), nil
}

// Sync, buffer'daki log kayıtlarını diske/stdout'a yazar.
// main.go'da defer ile çağrılır; stdout sync hatası yoksayılır.
func Sync(l *zap.SugaredLogger) {
	if l != nil {
		_ = l.Sync()
	}
}
