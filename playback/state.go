// Package playback, senkron dinlemenin çekirdek state modelini içerir.
//
// İki yapı vardır:
//   - State: queue, pozisyon, play/pause, repeat ve shuffle tutan state machine.
//     Her solo dinleyicinin ve her party'nin kendine ait bir State'i vardır.
//   - Party: bir State'i sarmalayan (composition) governance katmanı:
//     üyelik, host, kontrol modu ve admission-control bookkeeping.
//
// Bu paketteki tipler goroutine-safe DEĞİLDİR. Tüm mutasyonlar tek bir
// sahip goroutine'den (services paketindeki sync event loop) yapılır.
package playback

import (
	"math"
	"math/rand"
	"slices"
)

// RepeatMode, queue sınırlarında advance() davranışını belirler.
type RepeatMode string

const (
	RepeatOff RepeatMode = "off"
	RepeatAll RepeatMode = "all"
	RepeatOne RepeatMode = "one"
)

// Valid, değerin üç geçerli moddan biri olup olmadığını döner.
func (m RepeatMode) Valid() bool {
	switch m {
	case RepeatOff, RepeatAll, RepeatOne:
		return true
	}
	return false
}

// restartThreshold, retreat() bu kadar saniyeden fazla çalmış bir track'i
// önceki track'e geçmek yerine baştan başlatır.
const restartThreshold = 3.0

// State, tek bir dinleme oturumunun playback state machine'i.
//
// Invariant'lar:
//   - -1 <= currentIndex < len(queue); queue boşsa currentIndex = -1
//   - currentIndex = -1 iken isPlaying = false
//   - isShuffled iken originalQueue shuffle öncesi sırayı tutar
//
// Mevcut track id'si ayrıca saklanmaz, her zaman queue[currentIndex]'ten türetilir.
type State struct {
	queue         []int64
	originalQueue []int64
	currentIndex  int
	elapsed       float64
	playing       bool
	repeat        RepeatMode
	shuffled      bool
}

// NewState, boş bir State döner: queue boş, hiçbir şey seçili değil, repeat kapalı.
func NewState() *State {
	return &State{currentIndex: -1, repeat: RepeatOff}
}

// Clone, State'in bağımsız bir kopyasını döner (slice'lar dahil).
// Party oluşturulurken solo state bu şekilde party'ye taşınır.
func (s *State) Clone() *State {
	c := *s
	c.queue = slices.Clone(s.queue)
	c.originalQueue = slices.Clone(s.originalQueue)
	return &c
}

// ─── Okuma ───

// CurrentTrack, seçili track id'sini döner; hiçbir şey seçili değilse (0, false).
func (s *State) CurrentTrack() (int64, bool) {
	if s.currentIndex < 0 || s.currentIndex >= len(s.queue) {
		return 0, false
	}
	return s.queue[s.currentIndex], true
}

// Queue, queue'nun kopyasını döner.
func (s *State) Queue() []int64 { return slices.Clone(s.queue) }

// OriginalQueue, shuffle öncesi sıranın kopyasını döner.
func (s *State) OriginalQueue() []int64 { return slices.Clone(s.originalQueue) }

// CurrentIndex, seçili pozisyonu döner; seçim yoksa -1.
func (s *State) CurrentIndex() int { return s.currentIndex }

// Elapsed, mevcut track'te geçen süre (saniye).
func (s *State) Elapsed() float64 { return s.elapsed }

// IsPlaying, çalma durumunu döner.
func (s *State) IsPlaying() bool { return s.playing }

// RepeatMode, aktif repeat modunu döner.
func (s *State) RepeatMode() RepeatMode { return s.repeat }

// IsShuffled, queue'nun karıştırılmış olup olmadığını döner.
func (s *State) IsShuffled() bool { return s.shuffled }

// ─── Mutasyonlar ───

// setCurrentTrack, currentIndex'i doğrular. Index sınır dışındaysa -1'e
// çekilir ve çalma durdurulur. queue veya currentIndex'i değiştiren her
// işlemden sonra çağrılır.
func (s *State) setCurrentTrack() {
	if s.currentIndex < 0 || s.currentIndex >= len(s.queue) {
		s.currentIndex = -1
		s.playing = false
	}
}

// PlayPause, çalma durumunu ayarlar. Seçili track yoksa çalma başlamaz.
func (s *State) PlayPause(playing bool) {
	s.playing = playing
	s.setCurrentTrack()
}

// Seek, track içindeki pozisyonu ayarlar. Negatif ve NaN değerler 0'a çekilir.
func (s *State) Seek(seconds float64) {
	if math.IsNaN(seconds) || seconds < 0 {
		seconds = 0
	}
	s.elapsed = seconds
}

// ChangeTrack, trackID queue'daysa ilk geçtiği yere atlar; değilse sona
// ekler ve onu seçer (kütüphaneden rastgele bir track'e tıklamak).
// Her iki durumda da track baştan çalmaya başlar.
func (s *State) ChangeTrack(trackID int64) {
	idx := slices.Index(s.queue, trackID)
	if idx < 0 {
		s.queue = append(s.queue, trackID)
		if s.shuffled {
			s.originalQueue = append(s.originalQueue, trackID)
		}
		idx = len(s.queue) - 1
	}

	s.currentIndex = idx
	s.elapsed = 0
	s.playing = true
	s.setCurrentTrack()
}

// Advance, sonraki track'e geçer.
//
//   - repeat=one ve çalıyorsa: sadece pozisyon sıfırlanır.
//   - sonda değilse: index bir artar.
//   - sondaysa ve repeat=all: başa sarar.
//   - sondaysa ve repeat=off: index yerinde kalır, çalma durur.
func (s *State) Advance() {
	if s.repeat == RepeatOne && s.playing {
		s.elapsed = 0
		return
	}

	switch {
	case s.currentIndex < len(s.queue)-1:
		s.currentIndex++
	case s.repeat == RepeatAll:
		s.currentIndex = 0
	default:
		s.playing = false
		s.setCurrentTrack()
		return
	}

	s.elapsed = 0
	s.playing = true
	s.setCurrentTrack()
}

// Retreat, önceki track'e döner. restartThreshold'dan fazla çalmışsa veya
// zaten ilk track'teyse mevcut track'i baştan başlatır. Başa sarma yoktur.
func (s *State) Retreat() {
	if s.elapsed <= restartThreshold && s.currentIndex > 0 {
		s.currentIndex--
	}

	s.elapsed = 0
	s.playing = true
	s.setCurrentTrack()
}

// Enqueue, track'i queue'nun sonuna ekler. Çalan track değişmez.
func (s *State) Enqueue(trackID int64) {
	s.queue = append(s.queue, trackID)
	if s.shuffled {
		s.originalQueue = append(s.originalQueue, trackID)
	}
}

// Dequeue, verilen pozisyondaki elemanı siler. Pozisyon geçersizse false döner
// ve hiçbir şey değişmez.
//
// Silinen pozisyon currentIndex'ten önceyse index bir sola kayar. Silinen
// pozisyon çalan track ise aynı index'e kayan bir sonraki track baştan çalar;
// sonraki yoksa seçim temizlenir.
func (s *State) Dequeue(position int) bool {
	if position < 0 || position >= len(s.queue) {
		return false
	}

	removed := s.queue[position]
	s.queue = slices.Delete(s.queue, position, position+1)
	if s.shuffled {
		if i := slices.Index(s.originalQueue, removed); i >= 0 {
			s.originalQueue = slices.Delete(s.originalQueue, i, i+1)
		}
	}

	switch {
	case position < s.currentIndex:
		s.currentIndex--
	case position == s.currentIndex:
		s.elapsed = 0
		s.playing = true
	}

	s.setCurrentTrack()
	return true
}

// Clear, queue'yu tamamen boşaltır.
func (s *State) Clear() {
	s.queue = nil
	s.originalQueue = nil
	s.currentIndex = -1
	s.elapsed = 0
	s.setCurrentTrack()
}

// ToggleShuffle, shuffle'ı açar veya kapatır.
//
// Açarken: queue originalQueue'ya kopyalanır, karıştırılır. Seçili bir track
// varsa 0. pozisyona sabitlenir. Her iki durumda currentIndex 0 olur
// (queue boşsa -1).
//
// Kapatırken: queue originalQueue'dan geri yüklenir; currentIndex çalan
// track'in ilk geçtiği yere taşınır. Seçili track yoksa ya da artık
// queue'da bulunmuyorsa index 0'a (queue boşsa -1'e) düşer.
func (s *State) ToggleShuffle(rng *rand.Rand) {
	if s.shuffled {
		s.unshuffle()
		return
	}

	s.originalQueue = slices.Clone(s.queue)
	s.shuffled = true

	current, hasCurrent := s.CurrentTrack()
	rest := slices.Clone(s.queue)
	if hasCurrent {
		rest = slices.Delete(rest, s.currentIndex, s.currentIndex+1)
	}
	rng.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })

	if hasCurrent {
		s.queue = append([]int64{current}, rest...)
	} else {
		s.queue = rest
	}
	s.currentIndex = 0
	s.setCurrentTrack()
}

func (s *State) unshuffle() {
	current, hasCurrent := s.CurrentTrack()

	s.queue = s.originalQueue
	s.originalQueue = nil
	s.shuffled = false

	if !hasCurrent {
		s.currentIndex = 0
		s.setCurrentTrack()
		return
	}

	if idx := slices.Index(s.queue, current); idx >= 0 {
		s.currentIndex = idx
	} else {
		s.currentIndex = 0
		s.elapsed = 0
	}
	s.setCurrentTrack()
}

// SetRepeatMode, repeat modunu ayarlar. Geçersiz değer no-op'tur ve false döner.
func (s *State) SetRepeatMode(mode RepeatMode) bool {
	if !mode.Valid() {
		return false
	}
	s.repeat = mode
	return true
}

// SetPlaylist, dışarıdan çözülmüş sıralı track listesini queue'ya toptan yükler:
// shuffle kapanır, originalQueue eşitlenir, ilk track baştan çalmaya başlar.
func (s *State) SetPlaylist(trackIDs []int64) {
	s.queue = slices.Clone(trackIDs)
	s.originalQueue = slices.Clone(trackIDs)
	s.shuffled = false
	s.currentIndex = 0
	s.elapsed = 0
	s.playing = true
	s.setCurrentTrack()
}

// ─── Serileştirme ───

// Snapshot, State'in wire formatındaki değişmez kopyasıdır.
// Alan adları istemcinin beklediği JSON anahtarlarıyla eşleşir.
type Snapshot struct {
	Queue        []int64    `json:"queue"`
	CurrentIndex int        `json:"current_index"`
	TrackID      *int64     `json:"track_id"`
	CurrentTime  float64    `json:"currentTime"`
	IsPlaying    bool       `json:"is_playing"`
	RepeatMode   RepeatMode `json:"repeat_mode"`
	IsShuffled   bool       `json:"is_shuffled"`
}

// Snapshot, State'in o anki kopyasını döner.
func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		Queue:        slices.Clone(s.queue),
		CurrentIndex: s.currentIndex,
		CurrentTime:  s.elapsed,
		IsPlaying:    s.playing,
		RepeatMode:   s.repeat,
		IsShuffled:   s.shuffled,
	}
	if snap.Queue == nil {
		snap.Queue = []int64{}
	}
	if id, ok := s.CurrentTrack(); ok {
		snap.TrackID = &id
	}
	return snap
}
