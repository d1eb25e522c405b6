package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Playlist, sıralı bir track listesi. TrackIDs sıralıdır, tekrar içerebilir.
type Playlist struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	TrackIDs  []int64   `json:"track_ids"`
	CreatedAt time.Time `json:"created_at"`
}

// CreatePlaylistRequest, POST /api/playlists gövdesi.
type CreatePlaylistRequest struct {
	Name     string  `json:"name"`
	TrackIDs []int64 `json:"track_ids"`
}

// Validate, isim ve track listesini kontrol eder.
//   - Name: 1-100 karakter (kırpıldıktan sonra)
//   - TrackIDs: pozitif id'ler
func (r *CreatePlaylistRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	if utf8.RuneCountInString(r.Name) > 100 {
		return fmt.Errorf("name must be at most 100 characters")
	}
	for _, id := range r.TrackIDs {
		if id <= 0 {
			return fmt.Errorf("invalid track id %d", id)
		}
	}
	return nil
}
