package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/akinalp/syncwave/models"
	"github.com/akinalp/syncwave/pkg"
	"github.com/akinalp/syncwave/pkg/cache"
	"github.com/akinalp/syncwave/repository"
)

// TrackLookup, sync dispatcher'ın track bilgisi için kullandığı dar arayüz.
// Bulunamayan id'ler için pkg.ErrNotFound döner.
type TrackLookup interface {
	TrackTitle(ctx context.Context, id int64) (string, error)
	TrackExists(ctx context.Context, id int64) (bool, error)
}

// PlaylistLookup, playlist → sıralı track id listesi çözümlemesi.
// Bulunamayan playlist için pkg.ErrNotFound döner.
type PlaylistLookup interface {
	PlaylistTrackIDs(ctx context.Context, id int64) ([]int64, error)
}

// CatalogService, track kütüphanesi iş mantığı interface'i.
//
// Dispatcher'ın tükettiği TrackLookup ve PlaylistLookup'ı karşılar; ayrıca
// LibraryWatcher'ın dosya kayıt/silme işlemlerini ve REST listelemeyi sağlar.
type CatalogService interface {
	TrackLookup
	PlaylistLookup

	ListTracks(ctx context.Context) ([]models.Track, error)
	// RegisterFile, medya dizinindeki bir dosyayı track olarak kaydeder.
	// Dosya zaten kayıtlıysa mevcut track'i döner.
	RegisterFile(ctx context.Context, filename string) (*models.Track, error)
	// RemoveFile, dosyanın track kaydını siler ve başlık cache'ini temizler.
	RemoveFile(ctx context.Context, filename string) error
}

type catalogService struct {
	trackRepo    repository.TrackRepository
	playlistRepo repository.PlaylistRepository
	titles       *cache.TTLCache[int64, string]
	log          *zap.SugaredLogger
}

// NewCatalogService, constructor. titles cache'inin yaşam döngüsü (Close)
// çağırana aittir.
func NewCatalogService(
	trackRepo repository.TrackRepository,
	playlistRepo repository.PlaylistRepository,
	titles *cache.TTLCache[int64, string],
	log *zap.SugaredLogger,
) CatalogService {
	return &catalogService{
		trackRepo:    trackRepo,
		playlistRepo: playlistRepo,
		titles:       titles,
		log:          log,
	}
}

// TrackTitle, track başlığını cache'ten, yoksa veritabanından okur.
func (s *catalogService) TrackTitle(ctx context.Context, id int64) (string, error) {
	if title, ok := s.titles.Get(id); ok {
		return title, nil
	}

	track, err := s.trackRepo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	s.titles.Set(id, track.Title)
	return track.Title, nil
}

func (s *catalogService) TrackExists(ctx context.Context, id int64) (bool, error) {
	_, err := s.TrackTitle(ctx, id)
	if errors.Is(err, pkg.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *catalogService) PlaylistTrackIDs(ctx context.Context, id int64) ([]int64, error) {
	return s.playlistRepo.TrackIDs(ctx, id)
}

func (s *catalogService) ListTracks(ctx context.Context) ([]models.Track, error) {
	return s.trackRepo.List(ctx)
}

func (s *catalogService) RegisterFile(ctx context.Context, filename string) (*models.Track, error) {
	filename = filepath.Base(filename)
	if !models.IsAudioFile(filename) {
		return nil, fmt.Errorf("%w: not an audio file: %s", pkg.ErrBadRequest, filename)
	}

	existing, err := s.trackRepo.GetByFilename(ctx, filename)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, pkg.ErrNotFound) {
		return nil, err
	}

	track := &models.Track{
		Title:    models.TitleFromFilename(filename),
		Filename: filename,
	}
	if err := s.trackRepo.Create(ctx, track); err != nil {
		// Initial scan ile watcher event'i aynı dosyayı yarıştırabilir.
		if errors.Is(err, pkg.ErrAlreadyExists) {
			return s.trackRepo.GetByFilename(ctx, filename)
		}
		return nil, fmt.Errorf("failed to register track: %w", err)
	}

	s.titles.Set(track.ID, track.Title)
	s.log.Infow("track registered", "id", track.ID, "filename", filename)
	return track, nil
}

func (s *catalogService) RemoveFile(ctx context.Context, filename string) error {
	filename = filepath.Base(filename)

	id, err := s.trackRepo.DeleteByFilename(ctx, filename)
	if err != nil {
		return err
	}

	s.titles.Delete(id)
	s.log.Infow("track removed", "id", id, "filename", filename)
	return nil
}
