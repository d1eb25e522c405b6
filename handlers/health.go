// Package handlers, HTTP request handler'larını içerir.
//
// HealthHandler, auth gerektirmeyen sağlık endpoint'ini yönetir.
// Process ayakta mı ve kaç WebSocket bağlantısı açık, onu döner.
package handlers

import (
	"net/http"

	"github.com/akinalp/syncwave/pkg"
)

// HealthResponse, sağlık endpoint'inin response formatı.
type HealthResponse struct {
	Status string `json:"status"`
	Online int    `json:"online"`
}

// OnlineCounter, açık bağlantı sayısını veren taraf. ws.Hub bunu karşılar.
type OnlineCounter interface {
	OnlineCount() int
}

// HealthHandler, sağlık endpoint'ini yöneten handler.
type HealthHandler struct {
	online OnlineCounter
}

// NewHealthHandler, constructor. main.go'da wire-up edilir.
func NewHealthHandler(online OnlineCounter) *HealthHandler {
	return &HealthHandler{online: online}
}

// Health godoc
// GET /api/health
// Response: { "success": true, "data": { "status": "ok", "online": 3 } }
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	pkg.JSON(w, http.StatusOK, HealthResponse{Status: "ok", Online: h.online.OnlineCount()})
}
