// Package repository, veritabanı erişim katmanıdır.
// Her repository bir interface + SQLite implementasyonundan oluşur;
// service'ler sadece interface'e bağımlıdır.
package repository

import (
	"context"

	"github.com/akinalp/syncwave/models"
)

// TrackRepository, kütüphane track'leri için veritabanı işlemleri.
type TrackRepository interface {
	Create(ctx context.Context, track *models.Track) error
	GetByID(ctx context.Context, id int64) (*models.Track, error)
	GetByFilename(ctx context.Context, filename string) (*models.Track, error)
	List(ctx context.Context) ([]models.Track, error)
	// DeleteByFilename, silinen track'in id'sini döner (cache invalidation için).
	DeleteByFilename(ctx context.Context, filename string) (int64, error)
}
