package ws

import (
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// maxUserIDLength, path'ten gelen kullanıcı kimliğinin üst sınırı.
const maxUserIDLength = 64

// Handler, WebSocket bağlantı isteklerini işleyen HTTP handler'ı.
type Handler struct {
	sink     Sink
	upgrader websocket.Upgrader
	log      *zap.SugaredLogger
}

// NewHandler, yeni bir WebSocket handler oluşturur.
//
// allowedOrigins, CORS ayarıyla aynı listedir; "*" içeriyorsa tüm origin'lere
// izin verilir. Origin header'ı olmayan istekler (tarayıcı dışı client'lar)
// her zaman kabul edilir.
func NewHandler(sink Sink, allowedOrigins []string, log *zap.SugaredLogger) *Handler {
	return &Handler{
		sink: sink,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		log: log,
	}
}

// originChecker, izin verilen origin listesinden bir CheckOrigin fonksiyonu üretir.
func originChecker(allowed []string) func(r *http.Request) bool {
	if slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if slices.Contains(allowed, origin) {
			return true
		}
		// Aynı host'tan gelen istek (statik frontend server'ın kendisinden)
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}

// HandleConnection godoc
// GET /ws/{user_id}
//
// HTTP bağlantısını WebSocket'e yükseltir. Kimlik, path'teki user_id'dir;
// kimlik doğrulama yoktur.
//
// Flow:
//  1. user_id doğrula
//  2. HTTP → WebSocket upgrade
//  3. Client oluştur, Sink'e Connect bildir
//  4. WritePump ayrı goroutine'de, ReadPump bu goroutine'de çalışır
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.PathValue("user_id"))
	if userID == "" || len(userID) > maxUserIDLength {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnw("upgrade failed", "user", userID, "error", err)
		return
	}

	client := NewClient(conn, userID, h.sink, h.log)

	// Connect, ReadPump başlamadan önce sıraya girer; böylece ilk mesaj
	// her zaman kayıttan sonra işlenir.
	h.sink.Connect(userID, client)

	go client.WritePump()
	client.ReadPump() // bağlantı kapanana kadar bloklar
}
