// Package models, kataloğun domain modellerini (veri yapıları) tanımlar.
//
// JSON tag'leri REST yanıtlarının şeklini belirler. Playback state burada
// DEĞİL, playback paketindedir: o kalıcı değildir.
package models

import (
	"path/filepath"
	"strings"
	"time"
)

// Track, kütüphanedeki tek bir ses dosyası.
// ID integer'dır: queue'lar track'leri bu id ile referanslar.
type Track struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Filename  string    `json:"filename"`
	SourceURL *string   `json:"source_url"` // import edilen kaynak, yoksa nil
	CreatedAt time.Time `json:"created_at"`
}

// AudioExtensions, kütüphaneye kabul edilen dosya uzantıları (küçük harf).
var AudioExtensions = map[string]bool{
	".m4a":  true,
	".mp3":  true,
	".ogg":  true,
	".flac": true,
	".wav":  true,
	".webm": true,
	".mp4":  true,
}

// IsAudioFile, dosya adının kabul edilen bir ses uzantısı taşıyıp taşımadığını döner.
func IsAudioFile(name string) bool {
	return AudioExtensions[strings.ToLower(filepath.Ext(name))]
}

// TitleFromFilename, uzantısız dosya adından okunabilir başlık türetir:
// "miles_davis-so_what.m4a" → "miles davis-so what".
func TitleFromFilename(name string) string {
	stem := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	stem = strings.ReplaceAll(stem, "_", " ")
	return strings.TrimSpace(stem)
}
