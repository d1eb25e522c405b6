package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"), Migrations(), zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNew_AppliesMigrationsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	log := zap.NewNop().Sugar()

	db, err := New(path, Migrations(), log)
	require.NoError(t, err)

	var count int
	require.NoError(t, db.Conn.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 1, count)
	require.NoError(t, db.Close())

	// İkinci açılış migration'ı tekrar çalıştırmamalı.
	db, err = New(path, Migrations(), log)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Conn.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestNew_FailedMigrationLeavesNoTrace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.db")
	migrations := fstest.MapFS{
		"001_ok.sql":     {Data: []byte("CREATE TABLE a (id INTEGER);")},
		"002_broken.sql": {Data: []byte("CREATE TABLE b (id INTEGER); INSERT INTO missing VALUES (1);")},
	}

	_, err := New(path, migrations, zap.NewNop().Sugar())
	require.Error(t, err)

	conn, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer conn.Close()

	var applied []string
	rows, err := conn.Query("SELECT filename FROM schema_migrations ORDER BY filename")
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var f string
		require.NoError(t, rows.Scan(&f))
		applied = append(applied, f)
	}
	assert.Equal(t, []string{"001_ok.sql"}, applied)

	var tables int
	require.NoError(t, conn.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'b'").Scan(&tables))
	assert.Zero(t, tables, "half-applied migration must roll back")
}

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"simple", "SELECT 1; SELECT 2;", []string{"SELECT 1", "SELECT 2"}},
		{"no trailing semicolon", "SELECT 1", []string{"SELECT 1"}},
		{"semicolon in literal", "INSERT INTO t VALUES ('a;b');", []string{"INSERT INTO t VALUES ('a;b')"}},
		{"escaped quote", "SELECT 'it''s';", []string{"SELECT 'it''s'"}},
		{"line comment", "-- note; here\nSELECT 1;", []string{"SELECT 1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitStatements(tt.in))
		})
	}
}

func TestWithTx(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	t.Run("commit", func(t *testing.T) {
		err := WithTx(ctx, db.Conn, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, "INSERT INTO playlists (name) VALUES ('kept')")
			return err
		})
		require.NoError(t, err)

		var n int
		require.NoError(t, db.Conn.QueryRow("SELECT COUNT(*) FROM playlists WHERE name = 'kept'").Scan(&n))
		assert.Equal(t, 1, n)
	})

	t.Run("rollback", func(t *testing.T) {
		boom := errors.New("boom")
		err := WithTx(ctx, db.Conn, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, "INSERT INTO playlists (name) VALUES ('dropped')"); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		var n int
		require.NoError(t, db.Conn.QueryRow("SELECT COUNT(*) FROM playlists WHERE name = 'dropped'").Scan(&n))
		assert.Equal(t, 0, n)
	})
}
