// Package database, SQLite bağlantısını ve migration sistemini yönetir.
//
// Track/playlist/kullanıcı kataloğu burada yaşar. Playback state (queue,
// pozisyon, party'ler) kalıcı DEĞİLDİR: process yeniden başlarsa kaybolur.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver: CGO gerekmez
)

// DB, veritabanı bağlantısını saran struct.
// *sql.DB thread-safe bir connection pool'dur.
type DB struct {
	Conn *sql.DB
	log  *zap.SugaredLogger
}

// New, yeni bir SQLite bağlantısı açar ve migration'ları çalıştırır.
//
// dbPath: SQLite dosya yolu (ör: "./data/syncwave.db")
// migrationsFS: *.sql dosyalarını içeren fs.FS (embed.FS alt dizini veya os.DirFS)
func New(dbPath string, migrationsFS fs.FS, log *zap.SugaredLogger) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// foreign_keys(1) → playlist_tracks ON DELETE CASCADE için şart (SQLite'ta varsayılan kapalı).
	// journal_mode(WAL) → watcher yazarken REST okumaları bloklanmaz.
	conn, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{Conn: conn, log: log}

	if err := db.runMigrations(migrationsFS); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Infow("connected and migrations applied", "path", dbPath)
	return db, nil
}

// Close, veritabanı bağlantısını kapatır.
func (db *DB) Close() error {
	return db.Conn.Close()
}

// runMigrations, *.sql dosyalarını isim sırasıyla (001_, 002_, ...) uygular.
// Her dosya ve onun schema_migrations kaydı tek transaction'dır: yarıda kalan
// bir dosya bir sonraki açılışta baştan çalışır.
func (db *DB) runMigrations(migrationsFS fs.FS) error {
	const ledger = `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename   TEXT PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := db.Conn.Exec(ledger); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	files, err := fs.Glob(migrationsFS, "*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	slices.Sort(files)

	ctx := context.Background()
	for _, file := range files {
		var done bool
		err := db.Conn.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE filename = ?)", file,
		).Scan(&done)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", file, err)
		}
		if done {
			continue
		}

		content, err := fs.ReadFile(migrationsFS, file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}

		err = WithTx(ctx, db.Conn, func(tx *sql.Tx) error {
			for i, stmt := range splitStatements(string(content)) {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("migration %s statement %d: %w", file, i+1, err)
				}
			}
			_, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", file)
			return err
		})
		if err != nil {
			return err
		}

		db.log.Infow("migration applied", "file", file)
	}

	return nil
}

// splitStatements, SQL metnini noktalı virgülden böler.
// Tek tırnaklı string literal içindeki noktalı virgül ve iki tek tırnakla
// yazılan kaçış bozulmaz; "--" ile başlayan satır yorumları atlanır.
func splitStatements(sql string) []string {
	var statements []string
	var current strings.Builder
	inString := false

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			statements = append(statements, s)
		}
		current.Reset()
	}

	for i := 0; i < len(sql); i++ {
		ch := sql[i]

		if !inString && ch == '-' && i+1 < len(sql) && sql[i+1] == '-' {
			for i < len(sql) && sql[i] != '\n' {
				i++
			}
			current.WriteByte('\n')
			continue
		}

		if ch == '\'' {
			if inString && i+1 < len(sql) && sql[i+1] == '\'' {
				current.WriteString("''")
				i++
				continue
			}
			inString = !inString
		}

		if ch == ';' && !inString {
			flush()
			continue
		}

		current.WriteByte(ch)
	}

	flush()
	return statements
}
