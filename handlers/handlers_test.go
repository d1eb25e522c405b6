package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akinalp/syncwave/database"
	"github.com/akinalp/syncwave/models"
	"github.com/akinalp/syncwave/pkg/cache"
	"github.com/akinalp/syncwave/repository"
	"github.com/akinalp/syncwave/services"
)

type stubPresence struct{ deleted []string }

func (s *stubPresence) UpdateUserName(context.Context, string, string) error { return nil }
func (s *stubPresence) DeleteUser(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

type stubOnline int

func (s stubOnline) OnlineCount() int { return int(s) }

type apiFixture struct {
	mux     *http.ServeMux
	catalog services.CatalogService
	users   repository.UserRepository
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	log := zap.NewNop().Sugar()

	db, err := database.New(filepath.Join(t.TempDir(), "api.db"), database.Migrations(), log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	titles := cache.New[int64, string](clock.New(), time.Minute, time.Minute)
	t.Cleanup(titles.Close)

	trackRepo := repository.NewSQLiteTrackRepo(db.Conn)
	playlistRepo := repository.NewSQLitePlaylistRepo(db.Conn)
	userRepo := repository.NewSQLiteUserRepo(db.Conn)

	catalog := services.NewCatalogService(trackRepo, playlistRepo, titles, log)
	playlists := services.NewPlaylistService(db.Conn, playlistRepo, trackRepo, log)
	users := services.NewUserService(userRepo, &stubPresence{}, log)

	library := NewLibraryHandler(catalog)
	playlist := NewPlaylistHandler(playlists)
	user := NewUserHandler(users)
	health := NewHealthHandler(stubOnline(2))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", health.Health)
	mux.HandleFunc("GET /api/tracks", library.ListTracks)
	mux.HandleFunc("GET /api/playlists", playlist.List)
	mux.HandleFunc("POST /api/playlists", playlist.Create)
	mux.HandleFunc("POST /api/playlists/import", playlist.Import)
	mux.HandleFunc("GET /api/playlists/{id}", playlist.Get)
	mux.HandleFunc("DELETE /api/playlists/{id}", playlist.Delete)
	mux.HandleFunc("GET /api/playlists/{id}/m3u8", playlist.Export)
	mux.HandleFunc("GET /api/users", user.List)
	mux.HandleFunc("PATCH /api/users/{id}", user.Update)
	mux.HandleFunc("DELETE /api/users/{id}", user.Delete)

	return &apiFixture{mux: mux, catalog: catalog, users: userRepo}
}

func (f *apiFixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

// envelopeData, {success,data,error} gövdesini çözer ve data'yı out'a yazar.
func envelopeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.True(t, env.Success, "error: %s", env.Error)
	if out != nil {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
}

func TestHealth(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got HealthResponse
	envelopeData(t, rec, &got)
	assert.Equal(t, HealthResponse{Status: "ok", Online: 2}, got)
}

func TestLibraryHandler_ListTracks(t *testing.T) {
	f := newAPIFixture(t)
	_, err := f.catalog.RegisterFile(context.Background(), "so_what.m4a")
	require.NoError(t, err)

	rec := f.do(t, http.MethodGet, "/api/tracks", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var tracks []models.Track
	envelopeData(t, rec, &tracks)
	require.Len(t, tracks, 1)
	assert.Equal(t, "so what", tracks[0].Title)
}

func TestPlaylistHandler(t *testing.T) {
	f := newAPIFixture(t)
	ctx := context.Background()
	one, err := f.catalog.RegisterFile(ctx, "one.mp3")
	require.NoError(t, err)
	two, err := f.catalog.RegisterFile(ctx, "two.mp3")
	require.NoError(t, err)

	body := `{"name":"Mix","track_ids":[` + itoa(two.ID) + `,` + itoa(one.ID) + `]}`
	rec := f.do(t, http.MethodPost, "/api/playlists", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Playlist
	envelopeData(t, rec, &created)
	assert.Equal(t, []int64{two.ID, one.ID}, created.TrackIDs)
	path := "/api/playlists/" + itoa(created.ID)

	t.Run("get", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code)
		var got models.Playlist
		envelopeData(t, rec, &got)
		assert.Equal(t, "Mix", got.Name)
	})

	t.Run("export then import", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, path+"/m3u8", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, m3u8ContentType, rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "playlist-"+itoa(created.ID)+".m3u8")
		assert.Contains(t, rec.Body.String(), "/stream/"+itoa(two.ID))

		imp := f.do(t, http.MethodPost, "/api/playlists/import?name=Copy", rec.Body.String())
		require.Equal(t, http.StatusCreated, imp.Code)
		var copied models.Playlist
		envelopeData(t, imp, &copied)
		assert.Equal(t, "Copy", copied.Name)
		assert.Equal(t, created.TrackIDs, copied.TrackIDs)
	})

	t.Run("errors", func(t *testing.T) {
		tests := []struct {
			name   string
			method string
			target string
			body   string
			want   int
		}{
			{"malformed body", http.MethodPost, "/api/playlists", "{", http.StatusBadRequest},
			{"unknown track", http.MethodPost, "/api/playlists", `{"name":"x","track_ids":[999]}`, http.StatusBadRequest},
			{"bad id", http.MethodGet, "/api/playlists/abc", "", http.StatusBadRequest},
			{"missing", http.MethodGet, "/api/playlists/999", "", http.StatusNotFound},
			{"export missing", http.MethodGet, "/api/playlists/999/m3u8", "", http.StatusNotFound},
			{"import nothing matched", http.MethodPost, "/api/playlists/import?name=x", "#EXTM3U\n#EXTINF:1,a\nnope.mp3\n", http.StatusBadRequest},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				assert.Equal(t, tt.want, f.do(t, tt.method, tt.target, tt.body).Code)
			})
		}
	})

	t.Run("delete", func(t *testing.T) {
		require.Equal(t, http.StatusOK, f.do(t, http.MethodDelete, path, "").Code)
		assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodDelete, path, "").Code)
	})
}

func TestUserHandler(t *testing.T) {
	f := newAPIFixture(t)
	require.NoError(t, f.users.Upsert(context.Background(), &models.User{ID: "u1", Name: "Alice"}))

	rec := f.do(t, http.MethodPatch, "/api/users/u1", `{"name":"Alicia"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated models.User
	envelopeData(t, rec, &updated)
	assert.Equal(t, "Alicia", updated.Name)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPatch, "/api/users/u1", `{"name":""}`).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPatch, "/api/users/nobody", `{"name":"x"}`).Code)

	rec = f.do(t, http.MethodGet, "/api/users", "")
	var users []models.User
	envelopeData(t, rec, &users)
	require.Len(t, users, 1)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodDelete, "/api/users/u1", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodDelete, "/api/users/u1", "").Code)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
