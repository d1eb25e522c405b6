package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/akinalp/syncwave/models"
	"github.com/akinalp/syncwave/pkg"
	"github.com/akinalp/syncwave/repository"
)

// UserPresence, kullanıcı değişikliklerini canlı oturumlara yansıtan taraf.
// SyncService bunu karşılar.
type UserPresence interface {
	UpdateUserName(ctx context.Context, userID, name string) error
	DeleteUser(ctx context.Context, userID string) error
}

// UserService, kullanıcı kayıtları iş mantığı interface'i.
type UserService interface {
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, id string, req *models.UpdateUserRequest) (*models.User, error)
	Delete(ctx context.Context, id string) error
}

type userService struct {
	userRepo repository.UserRepository
	presence UserPresence
	log      *zap.SugaredLogger
}

func NewUserService(userRepo repository.UserRepository, presence UserPresence, log *zap.SugaredLogger) UserService {
	return &userService{
		userRepo: userRepo,
		presence: presence,
		log:      log,
	}
}

func (s *userService) List(ctx context.Context) ([]models.User, error) {
	return s.userRepo.List(ctx)
}

// Update, görünen ismi kalıcı olarak değiştirir ve bağlı oturumlara yayınlar.
func (s *userService) Update(ctx context.Context, id string, req *models.UpdateUserRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	if err := s.userRepo.UpdateName(ctx, id, req.Name); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.presence.UpdateUserName(ctx, id, user.Name); err != nil {
		s.log.Warnw("failed to publish name change", "user", id, "error", err)
	}
	return user, nil
}

// Delete, kullanıcı kaydını siler; canlı oturumdaki party üyeliği ve solo
// state de atılır.
func (s *userService) Delete(ctx context.Context, id string) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.presence.DeleteUser(ctx, id); err != nil {
		s.log.Warnw("failed to publish user deletion", "user", id, "error", err)
	}
	return nil
}
