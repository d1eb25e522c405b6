package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akinalp/syncwave/database"
	"github.com/akinalp/syncwave/models"
	"github.com/akinalp/syncwave/pkg"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "repo.db"), database.Migrations(), zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedTracks(t *testing.T, repo TrackRepository, names ...string) []int64 {
	t.Helper()
	ids := make([]int64, 0, len(names))
	for _, name := range names {
		tr := &models.Track{Title: models.TitleFromFilename(name), Filename: name}
		require.NoError(t, repo.Create(context.Background(), tr))
		ids = append(ids, tr.ID)
	}
	return ids
}

func TestTrackRepo(t *testing.T) {
	db := openTestDB(t)
	repo := NewSQLiteTrackRepo(db.Conn)
	ctx := context.Background()

	ids := seedTracks(t, repo, "b_side.m4a", "a_side.m4a")

	t.Run("get by id", func(t *testing.T) {
		tr, err := repo.GetByID(ctx, ids[0])
		require.NoError(t, err)
		assert.Equal(t, "b side", tr.Title)
	})

	t.Run("list is title ordered", func(t *testing.T) {
		tracks, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, tracks, 2)
		assert.Equal(t, "a side", tracks[0].Title)
	})

	t.Run("duplicate filename", func(t *testing.T) {
		err := repo.Create(ctx, &models.Track{Title: "dup", Filename: "a_side.m4a"})
		assert.ErrorIs(t, err, pkg.ErrAlreadyExists)
	})

	t.Run("delete by filename", func(t *testing.T) {
		id, err := repo.DeleteByFilename(ctx, "b_side.m4a")
		require.NoError(t, err)
		assert.Equal(t, ids[0], id)

		_, err = repo.GetByID(ctx, ids[0])
		assert.ErrorIs(t, err, pkg.ErrNotFound)

		_, err = repo.DeleteByFilename(ctx, "b_side.m4a")
		assert.ErrorIs(t, err, pkg.ErrNotFound)
	})
}

func TestPlaylistRepo(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	ids := seedTracks(t, NewSQLiteTrackRepo(db.Conn), "one.mp3", "two.mp3", "three.mp3")

	playlist := &models.Playlist{Name: "Mix", TrackIDs: []int64{ids[2], ids[0], ids[2]}}
	err := database.WithTx(ctx, db.Conn, func(tx *sql.Tx) error {
		return NewSQLitePlaylistRepo(tx).Create(ctx, playlist)
	})
	require.NoError(t, err)

	repo := NewSQLitePlaylistRepo(db.Conn)

	got, err := repo.TrackIDs(ctx, playlist.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{ids[2], ids[0], ids[2]}, got, "order and duplicates preserved")

	_, err = repo.TrackIDs(ctx, 9999)
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Len(t, all[0].TrackIDs, 3)

	require.NoError(t, repo.Delete(ctx, playlist.ID))
	assert.ErrorIs(t, repo.Delete(ctx, playlist.ID), pkg.ErrNotFound)
}

func TestUserRepo(t *testing.T) {
	db := openTestDB(t)
	repo := NewSQLiteUserRepo(db.Conn)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &models.User{ID: "u1", Name: "alice"}))
	require.NoError(t, repo.Upsert(ctx, &models.User{ID: "u1", Name: "alice2"}))

	u, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice2", u.Name)

	require.NoError(t, repo.UpdateName(ctx, "u1", "al"))
	assert.ErrorIs(t, repo.UpdateName(ctx, "ghost", "x"), pkg.ErrNotFound)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "al", users[0].Name)

	require.NoError(t, repo.Delete(ctx, "u1"))
	_, err = repo.GetByID(ctx, "u1")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}
