package database

import (
	"context"
	"database/sql"
	"fmt"
)

// TxQuerier, hem *sql.DB hem *sql.Tx tarafından karşılanan interface.
//
// Repository'ler bunu alır: normal akışta *sql.DB, transaction içinde *sql.Tx
// geçilir. Örnek: playlist oluşturma playlists + playlist_tracks satırlarını
// tek transaction'da yazar.
type TxQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx, fn'i tek transaction içinde çalıştırır; fn hata dönerse veya
// panic ederse hiçbir yazma kalıcı olmaz.
//
//	err := database.WithTx(ctx, db, func(tx *sql.Tx) error {
//	    return repository.NewSQLitePlaylistRepo(tx).Create(ctx, p, trackIDs)
//	})
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	// Commit'ten sonra Rollback sql.ErrTxDone döner, yok sayılır.
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
