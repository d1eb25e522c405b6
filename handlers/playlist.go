package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/akinalp/syncwave/models"
	"github.com/akinalp/syncwave/pkg"
	"github.com/akinalp/syncwave/services"
)

// maxImportSize, import edilen M3U8 gövdesinin üst sınırı (1 MB).
const maxImportSize = 1 << 20

// m3u8ContentType, extended M3U export'unun MIME tipi.
const m3u8ContentType = "application/vnd.apple.mpegurl"

// PlaylistHandler, playlist endpoint'lerini yöneten struct.
type PlaylistHandler struct {
	playlistService services.PlaylistService
}

// NewPlaylistHandler, constructor.
func NewPlaylistHandler(playlistService services.PlaylistService) *PlaylistHandler {
	return &PlaylistHandler{playlistService: playlistService}
}

// List godoc
// GET /api/playlists
func (h *PlaylistHandler) List(w http.ResponseWriter, r *http.Request) {
	playlists, err := h.playlistService.List(r.Context())
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, playlists)
}

// Get godoc
// GET /api/playlists/{id}
func (h *PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := playlistID(r)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	playlist, err := h.playlistService.GetByID(r.Context(), id)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, playlist)
}

// Create godoc
// POST /api/playlists
// Body: { "name": "Evening", "track_ids": [3, 1, 2] }
func (h *PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	playlist, err := h.playlistService.Create(r.Context(), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, playlist)
}

// Delete godoc
// DELETE /api/playlists/{id}
func (h *PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := playlistID(r)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	if err := h.playlistService.Delete(r.Context(), id); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]string{"message": "playlist deleted"})
}

// Export godoc
// GET /api/playlists/{id}/m3u8
//
// Envelope kullanılmaz; gövde doğrudan M3U8 metnidir.
func (h *PlaylistHandler) Export(w http.ResponseWriter, r *http.Request) {
	id, err := playlistID(r)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	doc, err := h.playlistService.ExportM3U8(r.Context(), id)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.Raw(w, http.StatusOK, m3u8ContentType, fmt.Sprintf("playlist-%d.m3u8", id), []byte(doc))
}

// Import godoc
// POST /api/playlists/import?name=...
// Body: M3U/M3U8 dokümanı
func (h *PlaylistHandler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)

	playlist, err := h.playlistService.ImportM3U8(r.Context(), r.URL.Query().Get("name"), r.Body)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, playlist)
}

func playlistID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid playlist id", pkg.ErrBadRequest)
	}
	return id, nil
}
