package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/etherlabsio/go-m3u8/m3u8"
	"go.uber.org/zap"

	"github.com/akinalp/syncwave/database"
	"github.com/akinalp/syncwave/models"
	"github.com/akinalp/syncwave/pkg"
	"github.com/akinalp/syncwave/repository"
)

// StreamPathPrefix, M3U8 export'undaki entry URI'lerinin öneki: /stream/{track_id}.
const StreamPathPrefix = "/stream/"

// unknownDuration, extended M3U'da süresi bilinmeyen entry için kullanılan değer.
const unknownDuration = -1

// PlaylistService, playlist iş mantığı interface'i.
type PlaylistService interface {
	List(ctx context.Context) ([]models.Playlist, error)
	GetByID(ctx context.Context, id int64) (*models.Playlist, error)
	Create(ctx context.Context, req *models.CreatePlaylistRequest) (*models.Playlist, error)
	Delete(ctx context.Context, id int64) error

	// ExportM3U8, playlist'i extended M3U metni olarak döner.
	ExportM3U8(ctx context.Context, id int64) (string, error)
	// ImportM3U8, bir M3U8 dokümanındaki entry'leri kütüphaneyle eşleştirip
	// yeni playlist oluşturur. Eşleşmeyen entry'ler atlanır.
	ImportM3U8(ctx context.Context, name string, r io.Reader) (*models.Playlist, error)
}

type playlistService struct {
	db           *sql.DB
	playlistRepo repository.PlaylistRepository
	trackRepo    repository.TrackRepository
	log          *zap.SugaredLogger
}

// NewPlaylistService, constructor. db, çok tablolu yazmaların transaction'ı için.
func NewPlaylistService(
	db *sql.DB,
	playlistRepo repository.PlaylistRepository,
	trackRepo repository.TrackRepository,
	log *zap.SugaredLogger,
) PlaylistService {
	return &playlistService{
		db:           db,
		playlistRepo: playlistRepo,
		trackRepo:    trackRepo,
		log:          log,
	}
}

func (s *playlistService) List(ctx context.Context) ([]models.Playlist, error) {
	return s.playlistRepo.List(ctx)
}

func (s *playlistService) GetByID(ctx context.Context, id int64) (*models.Playlist, error) {
	return s.playlistRepo.GetByID(ctx, id)
}

func (s *playlistService) Create(ctx context.Context, req *models.CreatePlaylistRequest) (*models.Playlist, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	for _, id := range req.TrackIDs {
		if _, err := s.trackRepo.GetByID(ctx, id); err != nil {
			if errors.Is(err, pkg.ErrNotFound) {
				return nil, fmt.Errorf("%w: unknown track id %d", pkg.ErrBadRequest, id)
			}
			return nil, err
		}
	}

	return s.create(ctx, req.Name, req.TrackIDs)
}

// create, playlist ve sıralı track'lerini tek transaction'da yazar.
func (s *playlistService) create(ctx context.Context, name string, trackIDs []int64) (*models.Playlist, error) {
	playlist := &models.Playlist{Name: name, TrackIDs: trackIDs}

	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return repository.NewSQLitePlaylistRepo(tx).Create(ctx, playlist)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create playlist: %w", err)
	}

	s.log.Infow("playlist created", "id", playlist.ID, "tracks", len(trackIDs))
	return playlist, nil
}

func (s *playlistService) Delete(ctx context.Context, id int64) error {
	return s.playlistRepo.Delete(ctx, id)
}

func (s *playlistService) ExportM3U8(ctx context.Context, id int64) (string, error) {
	playlist, err := s.playlistRepo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	out := m3u8.NewPlaylist()
	for _, trackID := range playlist.TrackIDs {
		track, err := s.trackRepo.GetByID(ctx, trackID)
		if err != nil {
			return "", fmt.Errorf("failed to resolve track %d: %w", trackID, err)
		}

		title := track.Title
		out.AppendItem(&m3u8.SegmentItem{
			Duration: unknownDuration,
			Segment:  StreamPathPrefix + strconv.FormatInt(track.ID, 10),
			Comment:  &title,
		})
	}

	return out.String(), nil
}

func (s *playlistService) ImportM3U8(ctx context.Context, name string, r io.Reader) (*models.Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", pkg.ErrBadRequest)
	}

	doc, err := m3u8.Read(r)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid m3u8: %v", pkg.ErrBadRequest, err)
	}

	var trackIDs []int64
	skipped := 0
	for _, item := range doc.Items {
		segment, ok := item.(*m3u8.SegmentItem)
		if !ok {
			continue
		}

		id, err := s.resolveEntry(ctx, segment.Segment)
		if err != nil {
			if errors.Is(err, pkg.ErrNotFound) {
				skipped++
				continue
			}
			return nil, err
		}
		trackIDs = append(trackIDs, id)
	}

	if len(trackIDs) == 0 {
		return nil, fmt.Errorf("%w: no entries matched the library", pkg.ErrBadRequest)
	}

	req := &models.CreatePlaylistRequest{Name: name, TrackIDs: trackIDs}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	playlist, err := s.create(ctx, req.Name, req.TrackIDs)
	if err != nil {
		return nil, err
	}
	s.log.Infow("playlist imported", "id", playlist.ID, "matched", len(trackIDs), "skipped", skipped)
	return playlist, nil
}

// resolveEntry, bir M3U entry URI'sini kütüphanedeki track id'sine çevirir.
//
// Önce /stream/{id} biçimi (bu server'ın kendi export'u), sonra URI'nin
// dosya adı kütüphane dosya adlarıyla eşleştirilir.
func (s *playlistService) resolveEntry(ctx context.Context, uri string) (int64, error) {
	p := uri
	if u, err := url.Parse(uri); err == nil && u.Path != "" {
		p = u.Path
	}

	if rest, ok := strings.CutPrefix(p, StreamPathPrefix); ok {
		if id, err := strconv.ParseInt(rest, 10, 64); err == nil {
			track, err := s.trackRepo.GetByID(ctx, id)
			if err != nil {
				return 0, err
			}
			return track.ID, nil
		}
	}

	base := path.Base(strings.ReplaceAll(p, "\\", "/"))
	if base == "." || base == "/" {
		return 0, pkg.ErrNotFound
	}

	track, err := s.trackRepo.GetByFilename(ctx, base)
	if err != nil {
		return 0, err
	}
	return track.ID, nil
}
