package ws

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/akinalp/syncwave/playback"
)

// Decode hataları. ReadPump bunları debug seviyesinde loglar ve mesajı düşürür;
// gönderene hiçbir hata dönülmez.
var (
	ErrUnknownType = errors.New("unknown message type")
	ErrMalformed   = errors.New("malformed message")
)

// Command, client'tan gelen çözülmüş bir kontrol mesajıdır.
//
// Kapalı (sealed) bir arayüzdür: isCommand unexported olduğu için sadece bu
// paketteki tipler Command olabilir. Dispatcher type switch ile dallanır;
// yeni bir mesaj tipi eklendiğinde tek değişiklik noktası DecodeCommand'dir.
type Command interface {
	isCommand()
}

// PlayerActionKind, player_action mesajının action alanı.
type PlayerActionKind string

const (
	ActionPlay        PlayerActionKind = "play"
	ActionPause       PlayerActionKind = "pause"
	ActionSeek        PlayerActionKind = "seek"
	ActionChangeTrack PlayerActionKind = "change_track"
	ActionNextTrack   PlayerActionKind = "next_track"
	ActionPrevTrack   PlayerActionKind = "prev_track"
)

// QueueActionKind, queue_action mesajının action alanı.
type QueueActionKind string

const (
	QueueAdd    QueueActionKind = "add"
	QueueRemove QueueActionKind = "remove"
	QueueClear  QueueActionKind = "clear"
)

// ─── Command tipleri ───

// UserJoin, kullanıcının görünen ismini kaydeder.
type UserJoin struct{ Name string }

// CreateParty, gönderenin solo state'inden yeni bir party oluşturur.
type CreateParty struct{}

// JoinParty, gönderenin bir party'ye katılmasını ister.
type JoinParty struct{ PartyID string }

// LeaveParty, gönderenin mevcut party'den ayrılmasını ister.
type LeaveParty struct{}

// PlayerAction, transport kontrolü (play/pause/seek/track değişimi).
// TrackID sadece change_track için zorunludur; CurrentTime seek için zorunlu,
// play/pause/prev_track için opsiyoneldir.
type PlayerAction struct {
	Action      PlayerActionKind
	TrackID     int64
	CurrentTime *float64
}

// SyncUpdate, çalan istemcinin periyodik pozisyon raporu.
type SyncUpdate struct {
	CurrentTime float64
	IsPlaying   bool
}

// SetMode, party kontrol modunu değiştirir (sadece host).
type SetMode struct{ Mode playback.Mode }

// QueueAction, queue'ya yapısal düzenleme. TrackID add için, Position
// remove için zorunludur.
type QueueAction struct {
	Action   QueueActionKind
	TrackID  int64
	Position int
}

// ToggleShuffle, shuffle'ı açar veya kapatır.
type ToggleShuffle struct{}

// SetRepeatMode, repeat modunu ayarlar.
type SetRepeatMode struct{ Mode playback.RepeatMode }

// SendChat, party chat'ine mesaj gönderir.
type SendChat struct{ Text string }

// SetPlaylist, bir playlist'i queue'ya toptan yükler.
type SetPlaylist struct{ PlaylistID int64 }

func (UserJoin) isCommand()      {}
func (CreateParty) isCommand()   {}
func (JoinParty) isCommand()     {}
func (LeaveParty) isCommand()    {}
func (PlayerAction) isCommand()  {}
func (SyncUpdate) isCommand()    {}
func (SetMode) isCommand()       {}
func (QueueAction) isCommand()   {}
func (ToggleShuffle) isCommand() {}
func (SetRepeatMode) isCommand() {}
func (SendChat) isCommand()      {}
func (SetPlaylist) isCommand()   {}

// ─── Decode ───

// inbound, client'tan gelen ham mesaj zarfı: { type, payload }.
type inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Wire payload'ları. Zorunlu alanların eksikliğini ayırt edebilmek için
// pointer kullanılır.
type (
	userJoinPayload struct {
		Name string `json:"name"`
	}
	joinPartyPayload struct {
		PartyID string `json:"party_id"`
	}
	playerActionPayload struct {
		Action      string   `json:"action"`
		TrackID     *int64   `json:"track_id"`
		CurrentTime *float64 `json:"currentTime"`
	}
	syncUpdatePayload struct {
		CurrentTime *float64 `json:"currentTime"`
		IsPlaying   *bool    `json:"is_playing"`
	}
	modePayload struct {
		Mode string `json:"mode"`
	}
	queueActionPayload struct {
		Action   string `json:"action"`
		TrackID  *int64 `json:"track_id"`
		Position *int   `json:"position"`
	}
	chatPayload struct {
		Text string `json:"text"`
	}
	setPlaylistPayload struct {
		PlaylistID *int64 `json:"playlist_id"`
	}
)

// DecodeCommand, ham bir WebSocket mesajını Command'e çevirir.
//
// Bilinmeyen tipler ErrUnknownType, eksik/geçersiz alanlar veya bilinmeyen
// action isimleri ErrMalformed ile sarılmış hata döner.
func DecodeCommand(raw []byte) (Command, error) {
	var msg inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch msg.Type {
	case TypeUserJoin:
		var p userJoinPayload
		if err := decodePayload(msg.Payload, &p); err != nil {
			return nil, err
		}
		return UserJoin{Name: p.Name}, nil

	case TypeCreateParty:
		return CreateParty{}, nil

	case TypeJoinParty:
		var p joinPartyPayload
		if err := decodePayload(msg.Payload, &p); err != nil {
			return nil, err
		}
		if p.PartyID == "" {
			return nil, fmt.Errorf("%w: join_party requires party_id", ErrMalformed)
		}
		return JoinParty{PartyID: p.PartyID}, nil

	case TypeLeaveParty:
		return LeaveParty{}, nil

	case TypePlayerAction:
		return decodePlayerAction(msg.Payload)

	case TypeSyncUpdate:
		var p syncUpdatePayload
		if err := decodePayload(msg.Payload, &p); err != nil {
			return nil, err
		}
		if p.CurrentTime == nil || p.IsPlaying == nil {
			return nil, fmt.Errorf("%w: sync_update requires currentTime and is_playing", ErrMalformed)
		}
		return SyncUpdate{CurrentTime: *p.CurrentTime, IsPlaying: *p.IsPlaying}, nil

	case TypeSetMode:
		var p modePayload
		if err := decodePayload(msg.Payload, &p); err != nil {
			return nil, err
		}
		mode := playback.Mode(p.Mode)
		if !mode.Valid() {
			return nil, fmt.Errorf("%w: invalid mode %q", ErrMalformed, p.Mode)
		}
		return SetMode{Mode: mode}, nil

	case TypeQueueAction:
		return decodeQueueAction(msg.Payload)

	case TypeToggleShuffle:
		return ToggleShuffle{}, nil

	case TypeSetRepeatMode:
		var p modePayload
		if err := decodePayload(msg.Payload, &p); err != nil {
			return nil, err
		}
		mode := playback.RepeatMode(p.Mode)
		if !mode.Valid() {
			return nil, fmt.Errorf("%w: invalid repeat mode %q", ErrMalformed, p.Mode)
		}
		return SetRepeatMode{Mode: mode}, nil

	case TypeChatMessage:
		var p chatPayload
		if err := decodePayload(msg.Payload, &p); err != nil {
			return nil, err
		}
		return SendChat{Text: p.Text}, nil

	case TypeSetPlaylist:
		var p setPlaylistPayload
		if err := decodePayload(msg.Payload, &p); err != nil {
			return nil, err
		}
		if p.PlaylistID == nil {
			return nil, fmt.Errorf("%w: set_playlist requires playlist_id", ErrMalformed)
		}
		return SetPlaylist{PlaylistID: *p.PlaylistID}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, msg.Type)
	}
}

func decodePlayerAction(raw json.RawMessage) (Command, error) {
	var p playerActionPayload
	if err := decodePayload(raw, &p); err != nil {
		return nil, err
	}
	cmd := PlayerAction{Action: PlayerActionKind(p.Action), CurrentTime: p.CurrentTime}
	switch cmd.Action {
	case ActionPlay, ActionPause, ActionNextTrack, ActionPrevTrack:
	case ActionSeek:
		if p.CurrentTime == nil {
			return nil, fmt.Errorf("%w: seek requires currentTime", ErrMalformed)
		}
	case ActionChangeTrack:
		if p.TrackID == nil {
			return nil, fmt.Errorf("%w: change_track requires track_id", ErrMalformed)
		}
		cmd.TrackID = *p.TrackID
	default:
		return nil, fmt.Errorf("%w: unknown player action %q", ErrMalformed, p.Action)
	}
	return cmd, nil
}

func decodeQueueAction(raw json.RawMessage) (Command, error) {
	var p queueActionPayload
	if err := decodePayload(raw, &p); err != nil {
		return nil, err
	}

	cmd := QueueAction{Action: QueueActionKind(p.Action)}
	switch cmd.Action {
	case QueueAdd:
		if p.TrackID == nil {
			return nil, fmt.Errorf("%w: add requires track_id", ErrMalformed)
		}
		cmd.TrackID = *p.TrackID
	case QueueRemove:
		if p.Position == nil {
			return nil, fmt.Errorf("%w: remove requires position", ErrMalformed)
		}
		cmd.Position = *p.Position
	case QueueClear:
	default:
		return nil, fmt.Errorf("%w: unknown queue action %q", ErrMalformed, p.Action)
	}
	return cmd, nil
}

// decodePayload, payload'ı hedef struct'a çözer. Payload yoksa hedef sıfır
// değerinde kalır; zorunlu alan kontrolü çağırana aittir.
func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}
