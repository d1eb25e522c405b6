package repository

import (
	"context"

	"github.com/akinalp/syncwave/models"
)

// PlaylistRepository, playlist ve sıralı playlist_tracks işlemleri.
//
// Create iki tabloya yazar; tutarlılık için çağıran taraf database.WithTx
// içinde *sql.Tx ile oluşturulmuş bir repo kullanmalıdır.
type PlaylistRepository interface {
	Create(ctx context.Context, playlist *models.Playlist) error
	GetByID(ctx context.Context, id int64) (*models.Playlist, error)
	List(ctx context.Context) ([]models.Playlist, error)
	Delete(ctx context.Context, id int64) error
	// TrackIDs, playlist'in sıralı track id'lerini döner; playlist yoksa pkg.ErrNotFound.
	TrackIDs(ctx context.Context, id int64) ([]int64, error)
}
