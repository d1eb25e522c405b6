package handlers

import (
	"net/http"

	"github.com/akinalp/syncwave/pkg"
	"github.com/akinalp/syncwave/services"
)

// LibraryHandler, track kütüphanesi endpoint'lerini yöneten struct.
type LibraryHandler struct {
	catalog services.CatalogService
}

// NewLibraryHandler, constructor.
func NewLibraryHandler(catalog services.CatalogService) *LibraryHandler {
	return &LibraryHandler{catalog: catalog}
}

// ListTracks godoc
// GET /api/tracks
func (h *LibraryHandler) ListTracks(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.catalog.ListTracks(r.Context())
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, tracks)
}
