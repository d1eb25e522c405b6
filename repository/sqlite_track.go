package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/akinalp/syncwave/database"
	"github.com/akinalp/syncwave/models"
	"github.com/akinalp/syncwave/pkg"
)

// sqliteTrackRepo, TrackRepository interface'inin SQLite implementasyonu.
type sqliteTrackRepo struct {
	db database.TxQuerier
}

// NewSQLiteTrackRepo, constructor: interface döner.
func NewSQLiteTrackRepo(db database.TxQuerier) TrackRepository {
	return &sqliteTrackRepo{db: db}
}

func (r *sqliteTrackRepo) Create(ctx context.Context, track *models.Track) error {
	query := `
		INSERT INTO tracks (title, filename, source_url)
		VALUES (?, ?, ?)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		track.Title,
		track.Filename,
		track.SourceURL,
	).Scan(&track.ID, &track.CreatedAt)

	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: track %q", pkg.ErrAlreadyExists, track.Filename)
		}
		return fmt.Errorf("failed to create track: %w", err)
	}

	return nil
}

func (r *sqliteTrackRepo) GetByID(ctx context.Context, id int64) (*models.Track, error) {
	query := `SELECT id, title, filename, source_url, created_at FROM tracks WHERE id = ?`

	t := &models.Track{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Title, &t.Filename, &t.SourceURL, &t.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get track by id: %w", err)
	}

	return t, nil
}

func (r *sqliteTrackRepo) GetByFilename(ctx context.Context, filename string) (*models.Track, error) {
	query := `SELECT id, title, filename, source_url, created_at FROM tracks WHERE filename = ?`

	t := &models.Track{}
	err := r.db.QueryRowContext(ctx, query, filename).Scan(
		&t.ID, &t.Title, &t.Filename, &t.SourceURL, &t.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get track by filename: %w", err)
	}

	return t, nil
}

func (r *sqliteTrackRepo) List(ctx context.Context) ([]models.Track, error) {
	query := `SELECT id, title, filename, source_url, created_at FROM tracks ORDER BY title COLLATE NOCASE ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracks: %w", err)
	}
	defer rows.Close()

	tracks := []models.Track{}
	for rows.Next() {
		var t models.Track
		if err := rows.Scan(&t.ID, &t.Title, &t.Filename, &t.SourceURL, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan track row: %w", err)
		}
		tracks = append(tracks, t)
	}

	return tracks, rows.Err()
}

func (r *sqliteTrackRepo) DeleteByFilename(ctx context.Context, filename string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`DELETE FROM tracks WHERE filename = ? RETURNING id`, filename,
	).Scan(&id)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, pkg.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to delete track: %w", err)
	}

	return id, nil
}
