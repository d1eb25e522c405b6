// Package ws, WebSocket bağlantı yönetimi ve senkron dinleme mesajlarının
// taşınmasını sağlar.
//
// Mimari:
//   - Hub: Bağlı kullanıcıları, görünen isimleri ve solo playback state'leri
//     tutan kayıt (connection registry)
//   - Client: Her WebSocket bağlantısını temsil eder (read/write pump)
//   - Command: Client → Server mesajlarının kapalı (sealed) kümesi
//   - Event: Server → Client mesaj zarfı
//
// Mesaj akışı:
//  1. Client JSON mesaj gönderir → ReadPump → DecodeCommand
//  2. Çözülen Command, Sink'e (services.SyncService) sırayla teslim edilir
//  3. SyncService state'i değiştirir ve Hub üzerinden broadcast eder
//  4. Her client'ın WritePump'ı event'i WebSocket'e yazar
package ws

import "github.com/akinalp/syncwave/playback"

// Event, WebSocket üzerinden client'a iletilen bir mesajı temsil eder.
//
// Type: Event türü: "party_sync", "state_update" vb.
// Payload: Event'e özgü veri.
// Seq: Her outbound event'e verilen artan sayı. Frontend eksik event
// tespit etmek için takip eder.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
	Seq     int64  `json:"seq,omitempty"`
}

// ────────────────────────────────────────────
// Mesaj tipleri
// ────────────────────────────────────────────

// Client → Server mesaj tipleri
const (
	TypeUserJoin      = "user_join"
	TypeCreateParty   = "create_party"
	TypeJoinParty     = "join_party"
	TypeLeaveParty    = "leave_party"
	TypePlayerAction  = "player_action"
	TypeSyncUpdate    = "sync_update"
	TypeSetMode       = "set_mode"
	TypeQueueAction   = "queue_action"
	TypeToggleShuffle = "toggle_shuffle"
	TypeSetRepeatMode = "set_repeat_mode"
	TypeChatMessage   = "chat_message" // her iki yönde de kullanılır
	TypeSetPlaylist   = "set_playlist"
)

// Server → Client mesaj tipleri
const (
	TypeStateUpdate     = "state_update"      // global roster + party özetleri, herkese
	TypePartySync       = "party_sync"        // tam party state'i, sadece üyelere
	TypeSoloStateUpdate = "solo_state_update" // solo state, tek kullanıcıya
	TypeQueueUpdate     = "queue_update"      // queue yapısı değişti
	TypeChatHistory     = "chat_history"      // party'ye katılana chat geçmişi
	TypePartyDisbanded  = "party_disbanded"   // party dağıtıldı
	TypeUserUpdated     = "user_updated"      // görünen isim değişti
	TypeUserDeleted     = "user_deleted"      // kullanıcı silindi
)

// NothingPlaying, party'de çalan track yokken özette gösterilen başlık.
const NothingPlaying = "Nothing playing"

// ─── Payload Struct'ları ───

// UserSummary, roster'daki tek bir kullanıcı.
type UserSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PartySummary, state_update içinde her party için gönderilen özet.
type PartySummary struct {
	PartyID           string        `json:"party_id"`
	HostID            string        `json:"host_id"`
	HostName          string        `json:"host_name"`
	MemberCount       int           `json:"member_count"`
	CurrentTrackTitle string        `json:"current_track_title"`
	Mode              playback.Mode `json:"mode"`
}

// StateUpdateData, state_update event'inin payload'ı.
type StateUpdateData struct {
	Users   []UserSummary  `json:"users"`
	Parties []PartySummary `json:"parties"`
}

// PartySyncData, party_sync event'inin payload'ı.
// playback.Snapshot gömülüdür: queue, track_id, currentTime vb. alanlar
// payload'ın en üst seviyesinde yer alır.
type PartySyncData struct {
	PartyID string        `json:"party_id"`
	HostID  string        `json:"host_id"`
	Members []UserSummary `json:"members"`
	Mode    playback.Mode `json:"mode"`
	playback.Snapshot
}

// QueueUpdateData, queue_update event'inin payload'ı.
// Solo state için PartyID boştur.
type QueueUpdateData struct {
	PartyID      string  `json:"party_id,omitempty"`
	Queue        []int64 `json:"queue"`
	CurrentIndex int     `json:"current_index"`
	TrackID      *int64  `json:"track_id"`
	IsShuffled   bool    `json:"is_shuffled"`
}

// NewQueueUpdate, snapshot'tan queue_update payload'ı oluşturur.
func NewQueueUpdate(partyID string, snap playback.Snapshot) QueueUpdateData {
	return QueueUpdateData{
		PartyID:      partyID,
		Queue:        snap.Queue,
		CurrentIndex: snap.CurrentIndex,
		TrackID:      snap.TrackID,
		IsShuffled:   snap.IsShuffled,
	}
}

// ChatHistoryData, chat_history event'inin payload'ı.
type ChatHistoryData struct {
	PartyID  string                 `json:"party_id"`
	Messages []playback.ChatMessage `json:"messages"`
}

// PartyDisbandedData, party_disbanded event'inin payload'ı.
type PartyDisbandedData struct {
	PartyID string `json:"party_id"`
}

// UserDeletedData, user_deleted event'inin payload'ı.
type UserDeletedData struct {
	ID string `json:"id"`
}
