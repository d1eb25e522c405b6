package repository

import (
	"context"

	"github.com/akinalp/syncwave/models"
)

// UserRepository, nickname tabanlı kullanıcı kayıtları.
type UserRepository interface {
	// Upsert, kullanıcı yoksa oluşturur, varsa ismini ve last_seen'i günceller.
	Upsert(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	UpdateName(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
}
