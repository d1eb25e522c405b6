package ws

import (
	"cmp"
	"encoding/json"
	"slices"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/akinalp/syncwave/playback"
)

// UnknownName, kayıtlı görünen ismi olmayan kullanıcılar için kullanılır.
const UnknownName = "Unknown"

// Hub, canlı bağlantıları, görünen isimleri ve solo playback state'leri tutan
// kayıttır (connection registry).
//
// Yazma işlemleri services.SyncService'in tek event loop goroutine'inden
// yapılır. Mutex, Shutdown ve okuma yapan HTTP handler'ları gibi loop dışı
// çağrılara karşı map'leri korur.
type Hub struct {
	// conns: userID → aktif transport. Kullanıcı başına tek bağlantı;
	// yeni bağlantı eskisinin yerini alır.
	conns map[string]Transport

	// names: userID → görünen isim. user_join ile set edilir,
	// disconnect'te silinir.
	names map[string]string

	// solo: userID → solo playback state. Disconnect'ten sonra da yaşar;
	// kullanıcı yeniden bağlanıp kaldığı yerden devam edebilir. Sadece
	// kullanıcı silindiğinde atılır.
	solo map[string]*playback.State

	mu sync.RWMutex

	// seq: Her outbound event'e verilen artan sayaç.
	seq atomic.Int64

	log *zap.SugaredLogger
}

// NewHub, yeni bir Hub oluşturur.
func NewHub(log *zap.SugaredLogger) *Hub {
	return &Hub{
		conns: make(map[string]Transport),
		names: make(map[string]string),
		solo:  make(map[string]*playback.State),
		log:   log,
	}
}

// ─── Bağlantı yaşam döngüsü ───

// Attach, kullanıcının transport'unu kaydeder ve solo state yoksa boş bir
// tane oluşturur. Kullanıcının önceki bir bağlantısı varsa kapatılır ve
// replaced true döner.
func (h *Hub) Attach(userID string, t Transport) (replaced bool) {
	h.mu.Lock()
	prev, had := h.conns[userID]
	h.conns[userID] = t
	if _, ok := h.solo[userID]; !ok {
		h.solo[userID] = playback.NewState()
	}
	total := len(h.conns)
	h.mu.Unlock()

	if had && prev != t {
		prev.Close()
		h.log.Infow("connection replaced", "user", userID)
		return true
	}
	h.log.Infow("client connected", "user", userID, "online", total)
	return false
}

// Detach, transport kullanıcının güncel bağlantısıysa onu ve görünen ismi
// kaldırır, true döner. Yerine yenisi geçmiş eski bir transport için hiçbir
// şey yapmaz ve false döner. Solo state korunur.
func (h *Hub) Detach(userID string, t Transport) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if cur, ok := h.conns[userID]; !ok || cur != t {
		return false
	}
	delete(h.conns, userID)
	delete(h.names, userID)

	h.log.Infow("client disconnected", "user", userID, "online", len(h.conns))
	return true
}

// IsCurrent, t'nin kullanıcının güncel transport'u olup olmadığını döner.
// Yerine yenisi geçmiş bir bağlantıdan gelen mesajlar bununla elenir.
func (h *Hub) IsCurrent(userID string, t Transport) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	cur, ok := h.conns[userID]
	return ok && cur == t
}

// IsConnected, kullanıcının canlı bir bağlantısı olup olmadığını döner.
func (h *Hub) IsConnected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.conns[userID]
	return ok
}

// ─── Görünen isimler ───

// SetName, kullanıcının görünen ismini kaydeder.
func (h *Hub) SetName(userID, name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.names[userID] = name
}

// HasName, kullanıcının kayıtlı bir görünen ismi olup olmadığını döner.
func (h *Hub) HasName(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.names[userID]
	return ok
}

// Name, kullanıcının görünen ismini döner; yoksa UnknownName.
func (h *Hub) Name(userID string) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.nameLocked(userID)
}

func (h *Hub) nameLocked(userID string) string {
	if name, ok := h.names[userID]; ok {
		return name
	}
	return UnknownName
}

// NamesFor, verilen id'leri sırayı koruyarak {id, name} listesine çevirir.
// Kayıtlı ismi olmayan id'ler UnknownName alır.
func (h *Hub) NamesFor(ids []string) []UserSummary {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]UserSummary, 0, len(ids))
	for _, id := range ids {
		out = append(out, UserSummary{ID: id, Name: h.nameLocked(id)})
	}
	return out
}

// Roster, görünen ismini kaydetmiş tüm bağlı kullanıcıları isme göre
// sıralı döner.
func (h *Hub) Roster() []UserSummary {
	h.mu.RLock()
	out := make([]UserSummary, 0, len(h.names))
	for id, name := range h.names {
		if _, online := h.conns[id]; online {
			out = append(out, UserSummary{ID: id, Name: name})
		}
	}
	h.mu.RUnlock()

	slices.SortFunc(out, func(a, b UserSummary) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out
}

// ─── Solo state ───

// Solo, kullanıcının solo state'ini döner; yoksa boş bir tane oluşturur.
// Dönen pointer sadece event loop'tan değiştirilmelidir.
func (h *Hub) Solo(userID string) *playback.State {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.solo[userID]
	if !ok {
		s = playback.NewState()
		h.solo[userID] = s
	}
	return s
}

// ResetSolo, kullanıcının solo state'ini boş bir state ile değiştirir.
func (h *Hub) ResetSolo(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.solo[userID] = playback.NewState()
}

// Forget, silinen bir kullanıcının solo state'ini ve görünen ismini atar.
// Canlı bağlantı varsa açık kalır; kullanıcı tekrar user_join gönderebilir.
func (h *Hub) Forget(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.solo, userID)
	delete(h.names, userID)
}

// ─── Gönderim ───

// encode, event'e sıradaki seq'i verir ve JSON'a çevirir.
func (h *Hub) encode(event Event) ([]byte, bool) {
	event.Seq = h.seq.Add(1)
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Errorw("failed to marshal event", "type", event.Type, "error", err)
		return nil, false
	}
	return data, true
}

// deliver, veriyi transport'a bloklamadan ekler. Buffer doluysa mesaj sadece
// bu bağlantı için düşer; diğer alıcılar etkilenmez.
func (h *Hub) deliver(userID string, t Transport, data []byte, eventType string) {
	if !t.Enqueue(data) {
		h.log.Warnw("send buffer full, message dropped", "user", userID, "type", eventType)
	}
}

// BroadcastGlobal, tüm bağlı kullanıcılara event gönderir (best-effort).
func (h *Hub) BroadcastGlobal(event Event) {
	data, ok := h.encode(event)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for userID, t := range h.conns {
		h.deliver(userID, t, data, event.Type)
	}
}

// SendToUser, tek bir kullanıcıya event gönderir. Bağlı değilse no-op.
func (h *Hub) SendToUser(userID string, event Event) {
	h.SendToUsers([]string{userID}, event)
}

// SendToUsers, verilen kullanıcılardan bağlı olanlara event gönderir.
// Event bir kez serileştirilir; tüm alıcılar aynı seq'i görür.
func (h *Hub) SendToUsers(userIDs []string, event Event) {
	data, ok := h.encode(event)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, userID := range userIDs {
		if t, online := h.conns[userID]; online {
			h.deliver(userID, t, data, event.Type)
		}
	}
}

// OnlineCount, bağlı kullanıcı sayısını döner.
func (h *Hub) OnlineCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Shutdown, tüm bağlantıları kapatır (graceful shutdown).
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, t := range h.conns {
		t.Close()
	}
	h.conns = make(map[string]Transport)
	h.log.Info("hub shut down, all connections closed")
}
