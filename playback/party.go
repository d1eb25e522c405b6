package playback

import (
	"errors"
	"slices"
	"time"

	"github.com/akinalp/syncwave/pkg/ringbuf"
)

// Mode, party'nin kontrol modunu belirler.
type Mode string

const (
	// ModeHost: sadece host playback ve queue'yu değiştirebilir.
	ModeHost Mode = "host"
	// ModeDemocratic: "last-action-wins with debounce": herhangi bir üye
	// değiştirebilir, ama başka bir aktörün kabul edilen aksiyonundan sonraki
	// debounce penceresi içinde gelen aksiyon reddedilir.
	ModeDemocratic Mode = "democratic"
)

// Valid, değerin geçerli bir mod olup olmadığını döner.
func (m Mode) Valid() bool {
	return m == ModeHost || m == ModeDemocratic
}

// Governance red sebepleri. Dispatcher bunları errors.Is ile ayırt eder;
// her ikisi de party'ye düzeltici bir sync yayınıyla sonuçlanır.
var (
	ErrNotHost   = errors.New("only the host may do this")
	ErrDebounced = errors.New("another member acted within the debounce window")
)

// Party, bir State'i üyelik ve governance kurallarıyla saran yapı.
//
// State'e dışarıdan doğrudan erişim yoktur: okuma Snapshot/CurrentTrack ile,
// yazma sadece Act/Sync üzerinden yapılır. Admission control bu iki
// giriş noktasında uygulanır.
type Party struct {
	ID     string
	HostID string

	state   *State
	members []string // katılma sırasıyla; host her zaman ilk eleman
	mode    Mode

	// Admission-control bookkeeping. lastActionAt sıfır değerse
	// "önceki aksiyon yok" demektir.
	lastActionAt   time.Time
	lastActionUser string
	debounce       time.Duration

	chat      *ringbuf.RingBuffer[ChatMessage]
	CreatedAt time.Time
}

// NewParty, hostID'nin host olduğu yeni bir party oluşturur.
// seed, host'un solo state'inin kopyasıdır; party bunun sahibi olur.
// Bookkeeping, oluşturma anı ve host ile başlatılır.
func NewParty(id, hostID string, seed *State, now time.Time, debounce time.Duration, chatSize int) *Party {
	if seed == nil {
		seed = NewState()
	}
	return &Party{
		ID:             id,
		HostID:         hostID,
		state:          seed,
		members:        []string{hostID},
		mode:           ModeHost,
		lastActionAt:   now,
		lastActionUser: hostID,
		debounce:       debounce,
		chat:           ringbuf.New[ChatMessage](chatSize),
		CreatedAt:      now,
	}
}

// ─── Üyelik ───

// Members, üye id'lerini katılma sırasıyla döner.
func (p *Party) Members() []string { return slices.Clone(p.members) }

// MemberCount, üye sayısını döner.
func (p *Party) MemberCount() int { return len(p.members) }

// IsMember, kullanıcının party'de olup olmadığını döner.
func (p *Party) IsMember(userID string) bool { return slices.Contains(p.members, userID) }

// Join, kullanıcıyı üyeliğe ekler. Zaten üyeyse false döner.
func (p *Party) Join(userID string) bool {
	if p.IsMember(userID) {
		return false
	}
	p.members = append(p.members, userID)
	return true
}

// Leave, kullanıcıyı üyelikten çıkarır. Party'nin dağıtılması gerekiyorsa
// (ayrılan host ise veya kimse kalmadıysa) true döner. Host devri yoktur.
func (p *Party) Leave(userID string) (disband bool) {
	if i := slices.Index(p.members, userID); i >= 0 {
		p.members = slices.Delete(p.members, i, i+1)
	}
	return userID == p.HostID || len(p.members) == 0
}

// ─── Governance ───

// Mode, mevcut kontrol modunu döner.
func (p *Party) Mode() Mode { return p.mode }

// SetMode, modu değiştirir. Sadece host; state ve bookkeeping'e dokunulmaz.
func (p *Party) SetMode(actor string, mode Mode) error {
	if actor != p.HostID {
		return ErrNotHost
	}
	p.mode = mode
	return nil
}

// admit, actor'ün şu an mutasyon yapıp yapamayacağına karar verir ve
// kabul edilirse bookkeeping'i günceller.
//
// host modu: sadece host, debounce yok.
// democratic modu: önceki aksiyon yoksa, debounce penceresi dolduysa veya
// actor son kabul edilen aktörün kendisiyse (sürükleyerek seek gibi devam
// eden girdi) kabul.
func (p *Party) admit(actor string, now time.Time) error {
	switch p.mode {
	case ModeHost:
		if actor != p.HostID {
			return ErrNotHost
		}
	default:
		if !p.lastActionAt.IsZero() &&
			actor != p.lastActionUser &&
			now.Sub(p.lastActionAt) < p.debounce {
			return ErrDebounced
		}
	}

	p.lastActionAt = now
	p.lastActionUser = actor
	return nil
}

// Act, governance kontrolünden geçen aksiyonu party state'ine uygular.
// Reddedilen aksiyonda mutate çağrılmaz ve state değişmez.
func (p *Party) Act(actor string, now time.Time, mutate func(s *State)) error {
	if err := p.admit(actor, now); err != nil {
		return err
	}
	mutate(p.state)
	return nil
}

// Sync, çalan istemcinin bildirdiği pozisyonu ve çalma durumunu uygular.
//
// Host'un raporu her modda kabul edilir ve bookkeeping'i değiştirmez
// (periyodik rapor bir "aksiyon" değildir). Democratic modda diğer üyeler
// normal admission kontrolünden geçer.
func (p *Party) Sync(actor string, now time.Time, elapsed float64, playing bool) error {
	apply := func(s *State) {
		s.Seek(elapsed)
		s.PlayPause(playing)
	}

	if actor == p.HostID {
		apply(p.state)
		return nil
	}
	if p.mode != ModeDemocratic {
		return ErrNotHost
	}
	return p.Act(actor, now, apply)
}

// LastAction, admission bookkeeping'ini döner; aksiyon yoksa ok=false.
func (p *Party) LastAction() (user string, at time.Time, ok bool) {
	if p.lastActionAt.IsZero() {
		return "", time.Time{}, false
	}
	return p.lastActionUser, p.lastActionAt, true
}

// ResetStaleBookkeeping, son kabul edilen aksiyon staleAfter'dan eskiyse
// bookkeeping'i temizler ve true döner. Sessizce düşen bir kullanıcının
// democratic modda kilidi süresiz tutmasını engeller. Queue ve index'e dokunmaz.
func (p *Party) ResetStaleBookkeeping(now time.Time, staleAfter time.Duration) bool {
	if p.lastActionAt.IsZero() || now.Sub(p.lastActionAt) <= staleAfter {
		return false
	}
	p.lastActionAt = time.Time{}
	p.lastActionUser = ""
	return true
}

// ─── Okuma ───

// Snapshot, party playback state'inin kopyasını döner.
func (p *Party) Snapshot() Snapshot { return p.state.Snapshot() }

// CurrentTrack, çalan track id'sini döner.
func (p *Party) CurrentTrack() (int64, bool) { return p.state.CurrentTrack() }

// ─── Chat ───

// AppendChat, mesajı chat geçmişine ekler; kapasite doluysa en eskisi düşer.
func (p *Party) AppendChat(msg ChatMessage) { p.chat.Push(msg) }

// ChatHistory, chat geçmişini eskiden yeniye döner.
func (p *Party) ChatHistory() []ChatMessage { return p.chat.Snapshot() }
