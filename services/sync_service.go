package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/akinalp/syncwave/models"
	"github.com/akinalp/syncwave/pkg"
	"github.com/akinalp/syncwave/pkg/markup"
	"github.com/akinalp/syncwave/pkg/ratelimit"
	"github.com/akinalp/syncwave/playback"
	"github.com/akinalp/syncwave/ws"
)

const (
	// inboxSize: Loop'a bekleyen görev kapasitesi. Dolduğunda ReadPump'lar
	// bloklanır; bu da okuma tarafında doğal bir back-pressure oluşturur.
	inboxSize = 256

	// lookupTimeout: Loop içinden yapılan katalog/kullanıcı sorgularının üst sınırı.
	lookupTimeout = 2 * time.Second
)

// ErrStopped, durdurulmuş dispatcher'a gönderilen istekler için döner.
var ErrStopped = errors.New("sync dispatcher stopped")

// UserStore, dispatcher'ın user_join'de kullanıcı kaydı için kullandığı dar arayüz.
type UserStore interface {
	Upsert(ctx context.Context, user *models.User) error
}

// SyncOptions, dispatcher ayarları (config.SyncConfig + config.ChatConfig'ten).
type SyncOptions struct {
	Debounce        time.Duration
	ChatHistorySize int
	ChatMaxLength   int
}

// SyncService, senkron dinlemenin mesaj işleme çekirdeği (dispatcher).
//
// ws.Sink'i karşılar: ReadPump'lar Connect/Receive/Disconnect çağırır.
// Tüm party'ler, üyelik indeksi ve solo state'ler tek bir loop goroutine'i
// tarafından değiştirilir; dışarıdan gelen her şey inbox üzerinden sıraya girer.
type SyncService interface {
	ws.Sink

	// Start, event loop goroutine'ini başlatır.
	Start()
	// Stop, loop'u durdurur ve bitmesini bekler. Bekleyen görevler düşer.
	Stop()

	// SweepStale, staleAfter'dan eski admission bookkeeping'i tüm party'lerde
	// temizler; temizlenen party sayısını döner.
	SweepStale(ctx context.Context, staleAfter time.Duration) (int, error)

	// UpdateUserName, REST üzerinden değişen görünen ismi yayınlar.
	UpdateUserName(ctx context.Context, userID, name string) error
	// DeleteUser, silinen kullanıcıyı party'sinden çıkarır, solo state'ini atar
	// ve silmeyi yayınlar.
	DeleteUser(ctx context.Context, userID string) error
}

type syncService struct {
	hub       *ws.Hub
	tracks    TrackLookup
	playlists PlaylistLookup
	users     UserStore
	limiter   *ratelimit.ChatRateLimiter
	renderer  *markup.Renderer
	clock     clock.Clock
	rng       *rand.Rand
	opts      SyncOptions
	log       *zap.SugaredLogger

	inbox  chan func()
	stopCh chan struct{}
	done   chan struct{}

	// Loop'a ait state: sadece loop goroutine'i erişir.
	parties map[string]*playback.Party
	partyOf map[string]string // userID → partyID
}

// NewSyncService, constructor.
//
// rng sadece loop goroutine'inden kullanılır (shuffle); testlerde sabit
// seed'li bir *rand.Rand verilir.
func NewSyncService(
	hub *ws.Hub,
	tracks TrackLookup,
	playlists PlaylistLookup,
	users UserStore,
	limiter *ratelimit.ChatRateLimiter,
	renderer *markup.Renderer,
	clk clock.Clock,
	rng *rand.Rand,
	opts SyncOptions,
	log *zap.SugaredLogger,
) SyncService {
	return &syncService{
		hub:       hub,
		tracks:    tracks,
		playlists: playlists,
		users:     users,
		limiter:   limiter,
		renderer:  renderer,
		clock:     clk,
		rng:       rng,
		opts:      opts,
		log:       log,
		inbox:     make(chan func(), inboxSize),
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
		parties:   make(map[string]*playback.Party),
		partyOf:   make(map[string]string),
	}
}

// ─── Event loop ───

func (s *syncService) Start() {
	s.log.Infow("starting", "debounce", s.opts.Debounce)
	go s.loop()
}

func (s *syncService) Stop() {
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
	<-s.done
	s.log.Info("stopped")
}

func (s *syncService) loop() {
	defer close(s.done)

	for {
		select {
		case task := <-s.inbox:
			s.run(task)
		case <-s.stopCh:
			return
		}
	}
}

// run, tek bir görevi çalıştırır. Görevdeki panic loglanır ve loop devam eder;
// bir mesajın hatası diğer bağlantıları etkilemez.
func (s *syncService) run(task func()) {
	defer func() {
		if p := recover(); p != nil {
			s.log.Errorw("task panicked", "panic", p)
		}
	}()
	task()
}

// submit, görevi inbox'a ekler. Dispatcher durdurulmuşsa false döner.
func (s *syncService) submit(task func()) bool {
	select {
	case s.inbox <- task:
		return true
	case <-s.stopCh:
		return false
	}
}

// do, fn'i loop içinde çalıştırır ve sonucunu bekler. Loop dışındaki
// çağıranlar (REST, sweeper) state'e sadece bu yolla dokunur.
func (s *syncService) do(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	task := func() {
		defer func() {
			if p := recover(); p != nil {
				s.log.Errorw("task panicked", "panic", p)
				result <- fmt.Errorf("%w: %v", pkg.ErrInternal, p)
			}
		}()
		result <- fn()
	}

	select {
	case s.inbox <- task:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.stopCh:
		return ErrStopped
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrStopped
	}
}

// ─── ws.Sink ───

func (s *syncService) Connect(userID string, t ws.Transport) {
	s.submit(func() {
		s.hub.Attach(userID, t)
		s.sendSolo(userID)

		// Bağlantı yenilendiyse kullanıcı hâlâ party'sindedir.
		if p := s.partyFor(userID); p != nil {
			s.hub.SendToUser(userID, s.partySyncEvent(p))
			s.sendChatHistory(userID, p)
		}
	})
}

func (s *syncService) Disconnect(userID string, t ws.Transport) {
	s.submit(func() {
		if !s.hub.Detach(userID, t) {
			return
		}
		s.leaveParty(userID)
		s.broadcastState()
	})
}

func (s *syncService) Receive(userID string, t ws.Transport, cmd ws.Command) {
	s.submit(func() {
		if !s.hub.IsCurrent(userID, t) {
			return
		}
		s.dispatch(userID, cmd)
	})
}

// dispatch, çözülmüş komutu ilgili handler'a yönlendirir.
func (s *syncService) dispatch(userID string, cmd ws.Command) {
	switch c := cmd.(type) {
	case ws.UserJoin:
		s.handleUserJoin(userID, c)
	case ws.CreateParty:
		s.handleCreateParty(userID)
	case ws.JoinParty:
		s.handleJoinParty(userID, c)
	case ws.LeaveParty:
		s.handleLeaveParty(userID)
	case ws.PlayerAction:
		s.handlePlayerAction(userID, c)
	case ws.SyncUpdate:
		s.handleSyncUpdate(userID, c)
	case ws.SetMode:
		s.handleSetMode(userID, c)
	case ws.QueueAction:
		s.handleQueueAction(userID, c)
	case ws.ToggleShuffle:
		s.mutate(userID, "toggle_shuffle", true, func(st *playback.State) {
			st.ToggleShuffle(s.rng)
		})
	case ws.SetRepeatMode:
		s.mutate(userID, "set_repeat_mode", false, func(st *playback.State) {
			st.SetRepeatMode(c.Mode)
		})
	case ws.SendChat:
		s.handleChat(userID, c)
	case ws.SetPlaylist:
		s.handleSetPlaylist(userID, c)
	default:
		s.log.Debugw("unhandled command", "user", userID, "command", fmt.Sprintf("%T", cmd))
	}
}

// ─── Oturum ve party yaşam döngüsü ───

func (s *syncService) handleUserJoin(userID string, c ws.UserJoin) {
	name := models.NormalizeDisplayName(c.Name)
	s.hub.SetName(userID, name)

	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()
	if err := s.users.Upsert(ctx, &models.User{ID: userID, Name: name}); err != nil {
		s.log.Warnw("failed to persist user", "user", userID, "error", err)
	}

	s.log.Infow("user joined", "user", userID, "name", name)
	s.sendSolo(userID)
	if p := s.partyFor(userID); p != nil {
		s.partySync(p)
	}
	s.broadcastState()
}

func (s *syncService) handleCreateParty(userID string) {
	// Önce leave_party gerekir; host da üye de mevcut party'de kalır.
	if p := s.partyFor(userID); p != nil {
		s.log.Debugw("create_party ignored, already in a party", "user", userID, "party", p.ID, "host", p.HostID == userID)
		return
	}

	// Solo state party'ye taşınır, kullanıcının solo state'i sıfırlanır.
	seed := s.hub.Solo(userID).Clone()
	s.hub.ResetSolo(userID)

	p := playback.NewParty(uuid.NewString(), userID, seed, s.clock.Now(), s.opts.Debounce, s.opts.ChatHistorySize)
	s.parties[p.ID] = p
	s.partyOf[userID] = p.ID

	s.log.Infow("party created", "party", p.ID, "host", userID)
	s.sendSolo(userID)
	s.partySync(p)
	s.broadcastState()
}

func (s *syncService) handleJoinParty(userID string, c ws.JoinParty) {
	p, ok := s.parties[c.PartyID]
	if !ok {
		s.log.Debugw("join_party ignored, unknown party", "user", userID, "party", c.PartyID)
		return
	}

	if s.partyOf[userID] == p.ID {
		s.hub.SendToUser(userID, s.partySyncEvent(p))
		return
	}
	s.leaveParty(userID)

	p.Join(userID)
	s.partyOf[userID] = p.ID

	s.log.Infow("party joined", "party", p.ID, "user", userID, "members", p.MemberCount())
	s.sendChatHistory(userID, p)
	s.partySync(p)
	s.broadcastState()
}

func (s *syncService) handleLeaveParty(userID string) {
	if s.partyFor(userID) == nil {
		return
	}
	s.leaveParty(userID)
	s.sendSolo(userID)
	s.broadcastState()
}

// leaveParty, kullanıcıyı mevcut party'sinden çıkarır. Host ayrılırsa veya
// kimse kalmazsa party dağıtılır; aksi halde kalanlara sync gider.
// Roster yayını çağırana aittir.
func (s *syncService) leaveParty(userID string) {
	id, ok := s.partyOf[userID]
	if !ok {
		return
	}
	delete(s.partyOf, userID)

	p, ok := s.parties[id]
	if !ok {
		return
	}

	if p.Leave(userID) {
		s.disband(p)
		return
	}
	s.log.Infow("party left", "party", p.ID, "user", userID, "members", p.MemberCount())
	s.partySync(p)
}

// disband, party'yi yok eder. Kalan üyelere party_disbanded ve kendi solo
// state'leri gönderilir. Eski solo state geri yüklenmez.
func (s *syncService) disband(p *playback.Party) {
	delete(s.parties, p.ID)

	members := p.Members()
	for _, m := range members {
		delete(s.partyOf, m)
	}

	s.hub.SendToUsers(members, ws.Event{
		Type:    ws.TypePartyDisbanded,
		Payload: ws.PartyDisbandedData{PartyID: p.ID},
	})
	for _, m := range members {
		s.sendSolo(m)
	}

	s.log.Infow("party disbanded", "party", p.ID, "host", p.HostID, "remaining", len(members))
}

// ─── Playback aksiyonları ───

func (s *syncService) handlePlayerAction(userID string, c ws.PlayerAction) {
	if c.Action == ws.ActionChangeTrack && !s.trackExists(c.TrackID) {
		s.log.Debugw("change_track ignored, unknown track", "user", userID, "track", c.TrackID)
		return
	}

	s.mutate(userID, string(c.Action), false, func(st *playback.State) {
		switch c.Action {
		case ws.ActionPlay, ws.ActionPause:
			if c.CurrentTime != nil {
				st.Seek(*c.CurrentTime)
			}
			st.PlayPause(c.Action == ws.ActionPlay)
		case ws.ActionSeek:
			st.Seek(*c.CurrentTime)
		case ws.ActionChangeTrack:
			st.ChangeTrack(c.TrackID)
		case ws.ActionNextTrack:
			st.Advance()
		case ws.ActionPrevTrack:
			if c.CurrentTime != nil {
				st.Seek(*c.CurrentTime)
			}
			st.Retreat()
		}
	})
}

func (s *syncService) handleSyncUpdate(userID string, c ws.SyncUpdate) {
	p := s.partyFor(userID)
	if p == nil {
		// Solo raporu sessizce uygulanır; yankı gönderilmez.
		st := s.hub.Solo(userID)
		st.Seek(c.CurrentTime)
		st.PlayPause(c.IsPlaying)
		return
	}

	if err := p.Sync(userID, s.clock.Now(), c.CurrentTime, c.IsPlaying); err != nil {
		s.reject(p, userID, "sync_update", err)
		return
	}
	s.partySync(p)
}

func (s *syncService) handleSetMode(userID string, c ws.SetMode) {
	p := s.partyFor(userID)
	if p == nil {
		return
	}

	if err := p.SetMode(userID, c.Mode); err != nil {
		s.reject(p, userID, "set_mode", err)
		return
	}

	s.log.Infow("party mode changed", "party", p.ID, "mode", c.Mode)
	s.partySync(p)
	s.broadcastState()
}

func (s *syncService) handleQueueAction(userID string, c ws.QueueAction) {
	switch c.Action {
	case ws.QueueAdd:
		if !s.trackExists(c.TrackID) {
			s.log.Debugw("queue add ignored, unknown track", "user", userID, "track", c.TrackID)
			return
		}
	case ws.QueueRemove:
		if n := len(s.targetSnapshot(userID).Queue); c.Position < 0 || c.Position >= n {
			s.log.Debugw("queue remove ignored, position out of range", "user", userID, "position", c.Position)
			return
		}
	}

	s.mutate(userID, "queue_"+string(c.Action), true, func(st *playback.State) {
		switch c.Action {
		case ws.QueueAdd:
			st.Enqueue(c.TrackID)
		case ws.QueueRemove:
			st.Dequeue(c.Position)
		case ws.QueueClear:
			st.Clear()
		}
	})
}

func (s *syncService) handleSetPlaylist(userID string, c ws.SetPlaylist) {
	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()

	ids, err := s.playlists.PlaylistTrackIDs(ctx, c.PlaylistID)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			s.log.Debugw("set_playlist ignored, unknown playlist", "user", userID, "playlist", c.PlaylistID)
		} else {
			s.log.Warnw("failed to resolve playlist", "playlist", c.PlaylistID, "error", err)
		}
		return
	}

	s.mutate(userID, "set_playlist", true, func(st *playback.State) {
		st.SetPlaylist(ids)
	})
}

// mutate, aksiyonu göndericinin hedef state'ine uygular ve sonucu yayınlar.
//
// Hedef, gönderen bir party'deyse o party, değilse kendi solo state'idir.
// Party'de governance reddederse party'ye düzeltici sync gider.
// queueChanged true ise sync'ten önce queue_update gönderilir.
func (s *syncService) mutate(userID, kind string, queueChanged bool, fn func(st *playback.State)) {
	p := s.partyFor(userID)
	if p == nil {
		st := s.hub.Solo(userID)
		fn(st)
		if queueChanged {
			s.hub.SendToUser(userID, ws.Event{
				Type:    ws.TypeQueueUpdate,
				Payload: ws.NewQueueUpdate("", st.Snapshot()),
			})
		}
		s.sendSolo(userID)
		return
	}

	before, hadBefore := p.CurrentTrack()
	if err := p.Act(userID, s.clock.Now(), fn); err != nil {
		s.reject(p, userID, kind, err)
		return
	}
	s.log.Debugw("action accepted", "party", p.ID, "user", userID, "action", kind, "mode", p.Mode())

	if queueChanged {
		s.hub.SendToUsers(p.Members(), ws.Event{
			Type:    ws.TypeQueueUpdate,
			Payload: ws.NewQueueUpdate(p.ID, p.Snapshot()),
		})
	}
	s.partySync(p)

	// Çalan track değiştiyse party özetindeki başlık da değişir.
	if after, hasAfter := p.CurrentTrack(); after != before || hasAfter != hadBefore {
		s.broadcastState()
	}
}

// reject, governance reddini loglar ve party'ye kanonik state'i yeniden yollar.
// Reddedilen aktöre özel bir hata gönderilmez.
func (s *syncService) reject(p *playback.Party, userID, kind string, err error) {
	s.log.Debugw("action rejected", "party", p.ID, "user", userID, "action", kind, "mode", p.Mode(), "reason", err)
	s.partySync(p)
}

// ─── Chat ───

func (s *syncService) handleChat(userID string, c ws.SendChat) {
	p := s.partyFor(userID)
	if p == nil {
		return
	}

	text := strings.TrimSpace(c.Text)
	if text == "" {
		return
	}
	if utf8.RuneCountInString(text) > s.opts.ChatMaxLength {
		text = string([]rune(text)[:s.opts.ChatMaxLength])
	}

	if !s.limiter.Allow(userID) {
		s.log.Debugw("chat message rate limited", "user", userID, "party", p.ID)
		return
	}

	html, err := s.renderer.Render(text)
	if err != nil {
		s.log.Warnw("failed to render chat message", "user", userID, "error", err)
	}

	msg := playback.ChatMessage{
		ID:        uuid.NewString(),
		PartyID:   p.ID,
		AuthorID:  userID,
		Author:    s.hub.Name(userID),
		Text:      text,
		HTML:      html,
		Timestamp: s.clock.Now().UnixMilli(),
	}
	p.AppendChat(msg)

	s.hub.SendToUsers(p.Members(), ws.Event{Type: ws.TypeChatMessage, Payload: msg})
}

func (s *syncService) sendChatHistory(userID string, p *playback.Party) {
	s.hub.SendToUser(userID, ws.Event{
		Type:    ws.TypeChatHistory,
		Payload: ws.ChatHistoryData{PartyID: p.ID, Messages: p.ChatHistory()},
	})
}

// ─── Loop dışından gelen istekler ───

func (s *syncService) SweepStale(ctx context.Context, staleAfter time.Duration) (int, error) {
	var cleared int
	err := s.do(ctx, func() error {
		now := s.clock.Now()
		for _, p := range s.parties {
			if p.ResetStaleBookkeeping(now, staleAfter) {
				cleared++
			}
		}
		return nil
	})
	return cleared, err
}

func (s *syncService) UpdateUserName(ctx context.Context, userID, name string) error {
	return s.do(ctx, func() error {
		if !s.hub.IsConnected(userID) {
			return nil
		}
		s.hub.SetName(userID, name)

		s.hub.BroadcastGlobal(ws.Event{
			Type:    ws.TypeUserUpdated,
			Payload: ws.UserSummary{ID: userID, Name: name},
		})
		if p := s.partyFor(userID); p != nil {
			s.partySync(p)
		}
		s.broadcastState()
		return nil
	})
}

func (s *syncService) DeleteUser(ctx context.Context, userID string) error {
	return s.do(ctx, func() error {
		s.leaveParty(userID)
		s.hub.Forget(userID)
		s.limiter.Forget(userID)

		s.hub.BroadcastGlobal(ws.Event{
			Type:    ws.TypeUserDeleted,
			Payload: ws.UserDeletedData{ID: userID},
		})
		if s.hub.IsConnected(userID) {
			s.sendSolo(userID)
		}
		s.broadcastState()

		s.log.Infow("user deleted", "user", userID)
		return nil
	})
}

// ─── Yayın yardımcıları ───

// partyFor, kullanıcının üyesi olduğu party'yi döner; yoksa nil.
func (s *syncService) partyFor(userID string) *playback.Party {
	id, ok := s.partyOf[userID]
	if !ok {
		return nil
	}
	return s.parties[id]
}

// targetSnapshot, göndericinin hedef state'inin (party veya solo) kopyasını döner.
func (s *syncService) targetSnapshot(userID string) playback.Snapshot {
	if p := s.partyFor(userID); p != nil {
		return p.Snapshot()
	}
	return s.hub.Solo(userID).Snapshot()
}

func (s *syncService) trackExists(id int64) bool {
	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()

	ok, err := s.tracks.TrackExists(ctx, id)
	if err != nil {
		s.log.Warnw("failed to look up track", "track", id, "error", err)
		return false
	}
	return ok
}

func (s *syncService) sendSolo(userID string) {
	s.hub.SendToUser(userID, ws.Event{
		Type:    ws.TypeSoloStateUpdate,
		Payload: s.hub.Solo(userID).Snapshot(),
	})
}

func (s *syncService) partySyncEvent(p *playback.Party) ws.Event {
	return ws.Event{
		Type: ws.TypePartySync,
		Payload: ws.PartySyncData{
			PartyID:  p.ID,
			HostID:   p.HostID,
			Members:  s.hub.NamesFor(p.Members()),
			Mode:     p.Mode(),
			Snapshot: p.Snapshot(),
		},
	}
}

// partySync, party'nin tam state'ini sadece üyelerine gönderir.
func (s *syncService) partySync(p *playback.Party) {
	s.hub.SendToUsers(p.Members(), s.partySyncEvent(p))
}

// broadcastState, roster ve party özetlerini herkese gönderir.
func (s *syncService) broadcastState() {
	parties := make([]*playback.Party, 0, len(s.parties))
	for _, p := range s.parties {
		parties = append(parties, p)
	}
	slices.SortFunc(parties, func(a, b *playback.Party) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})

	summaries := make([]ws.PartySummary, 0, len(parties))
	for _, p := range parties {
		summaries = append(summaries, ws.PartySummary{
			PartyID:           p.ID,
			HostID:            p.HostID,
			HostName:          s.hub.Name(p.HostID),
			MemberCount:       p.MemberCount(),
			CurrentTrackTitle: s.currentTitle(p),
			Mode:              p.Mode(),
		})
	}

	s.hub.BroadcastGlobal(ws.Event{
		Type: ws.TypeStateUpdate,
		Payload: ws.StateUpdateData{
			Users:   s.hub.Roster(),
			Parties: summaries,
		},
	})
}

// currentTitle, party'de çalan track'in başlığını döner. Çalan yoksa veya
// track kütüphaneden silinmişse ws.NothingPlaying.
func (s *syncService) currentTitle(p *playback.Party) string {
	id, ok := p.CurrentTrack()
	if !ok {
		return ws.NothingPlaying
	}

	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()

	title, err := s.tracks.TrackTitle(ctx, id)
	if err != nil {
		if !errors.Is(err, pkg.ErrNotFound) {
			s.log.Warnw("failed to resolve track title", "track", id, "error", err)
		}
		return ws.NothingPlaying
	}
	return title
}
