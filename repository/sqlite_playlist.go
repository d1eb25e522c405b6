package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/akinalp/syncwave/database"
	"github.com/akinalp/syncwave/models"
	"github.com/akinalp/syncwave/pkg"
)

// sqlitePlaylistRepo, PlaylistRepository interface'inin SQLite implementasyonu.
type sqlitePlaylistRepo struct {
	db database.TxQuerier
}

// NewSQLitePlaylistRepo, constructor: interface döner.
func NewSQLitePlaylistRepo(db database.TxQuerier) PlaylistRepository {
	return &sqlitePlaylistRepo{db: db}
}

func (r *sqlitePlaylistRepo) Create(ctx context.Context, playlist *models.Playlist) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO playlists (name) VALUES (?) RETURNING id, created_at`,
		playlist.Name,
	).Scan(&playlist.ID, &playlist.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create playlist: %w", err)
	}

	for pos, trackID := range playlist.TrackIDs {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO playlist_tracks (playlist_id, position, track_id) VALUES (?, ?, ?)`,
			playlist.ID, pos, trackID,
		); err != nil {
			return fmt.Errorf("failed to add track %d to playlist: %w", trackID, err)
		}
	}

	return nil
}

func (r *sqlitePlaylistRepo) GetByID(ctx context.Context, id int64) (*models.Playlist, error) {
	p := &models.Playlist{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM playlists WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist by id: %w", err)
	}

	p.TrackIDs, err = r.trackIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *sqlitePlaylistRepo) List(ctx context.Context) ([]models.Playlist, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, created_at FROM playlists ORDER BY name COLLATE NOCASE ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}

	playlists := []models.Playlist{}
	for rows.Next() {
		var p models.Playlist
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan playlist row: %w", err)
		}
		playlists = append(playlists, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	// Track sorguları ayrı bağlantı isteyebilir; önce cursor'ı kapat.
	rows.Close()

	for i := range playlists {
		ids, err := r.trackIDs(ctx, playlists[i].ID)
		if err != nil {
			return nil, err
		}
		playlists[i].TrackIDs = ids
	}
	return playlists, nil
}

func (r *sqlitePlaylistRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM playlists WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}
	return requireAffected(result)
}

func (r *sqlitePlaylistRepo) TrackIDs(ctx context.Context, id int64) ([]int64, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM playlists WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check playlist: %w", err)
	}
	return r.trackIDs(ctx, id)
}

// trackIDs, playlist_tracks satırlarını pozisyon sırasıyla okur.
func (r *sqlitePlaylistRepo) trackIDs(ctx context.Context, playlistID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT track_id FROM playlist_tracks WHERE playlist_id = ? ORDER BY position ASC`, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist tracks: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan playlist track: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
