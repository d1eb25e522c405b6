package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/akinalp/syncwave/models"
	"github.com/akinalp/syncwave/pkg"
)

// fileOpTimeout, tek bir dosya olayının katalog işlemine verilen süre.
const fileOpTimeout = 5 * time.Second

// FileCatalog, watcher'ın dosya olaylarını aktardığı dar arayüz.
// CatalogService bunu karşılar.
type FileCatalog interface {
	RegisterFile(ctx context.Context, filename string) (*models.Track, error)
	RemoveFile(ctx context.Context, filename string) error
}

// LibraryWatcher, medya dizinini izleyip kataloğu güncel tutar.
//
// Harici encoder çıktı dosyasını medya dizinine yazar; watcher bunu görüp
// track olarak kaydeder. Silinen veya dizinden taşınan dosyaların track
// kaydı silinir.
type LibraryWatcher interface {
	// Start, mevcut dosyaları tarar ve izleme goroutine'ini başlatır.
	Start() error
	// Stop, izlemeyi durdurur ve goroutine'in bitmesini bekler.
	Stop()
}

type libraryWatcher struct {
	dir     string
	catalog FileCatalog
	log     *zap.SugaredLogger

	watcher  *fsnotify.Watcher
	done     chan struct{}
	stopOnce sync.Once
}

// NewLibraryWatcher, constructor. Dizin yoksa Start'ta oluşturulur.
func NewLibraryWatcher(dir string, catalog FileCatalog, log *zap.SugaredLogger) LibraryWatcher {
	return &libraryWatcher{
		dir:     dir,
		catalog: catalog,
		log:     log,
		done:    make(chan struct{}),
	}
}

func (w *libraryWatcher) Start() error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("failed to create media directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := watcher.Add(w.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch media directory: %w", err)
	}
	w.watcher = watcher

	// Watcher tarama öncesi eklenir; tarama sırasında gelen dosya kaçmaz.
	// Aynı dosya iki kez görülürse RegisterFile idempotent'tir.
	if err := w.scan(); err != nil {
		watcher.Close()
		return err
	}

	go w.watchLoop()
	w.log.Infow("watching media directory", "dir", w.dir)
	return nil
}

func (w *libraryWatcher) Stop() {
	w.stopOnce.Do(func() {
		if w.watcher == nil {
			close(w.done)
			return
		}
		w.watcher.Close()
	})
	<-w.done
}

// scan, dizindeki mevcut ses dosyalarını kaydeder.
func (w *libraryWatcher) scan() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("failed to read media directory: %w", err)
	}

	registered := 0
	for _, e := range entries {
		if e.IsDir() || !models.IsAudioFile(e.Name()) {
			continue
		}
		if w.register(e.Name()) {
			registered++
		}
	}

	w.log.Infow("initial library scan complete", "files", registered)
	return nil
}

func (w *libraryWatcher) watchLoop() {
	defer close(w.done)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warnw("watcher error", "error", err)
		}
	}
}

// handleEvent, tek bir fsnotify olayını kataloğa yansıtır.
// Rename olayı eski isim için gelir; yeni isim ayrıca Create olarak görülür.
func (w *libraryWatcher) handleEvent(event fsnotify.Event) {
	name := filepath.Base(event.Name)
	if !models.IsAudioFile(name) {
		return
	}

	switch {
	case event.Has(fsnotify.Create):
		if info, err := os.Stat(event.Name); err == nil && !info.IsDir() {
			w.register(name)
		}

	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		ctx, cancel := context.WithTimeout(context.Background(), fileOpTimeout)
		defer cancel()

		err := w.catalog.RemoveFile(ctx, name)
		if err != nil && !errors.Is(err, pkg.ErrNotFound) {
			w.log.Warnw("failed to remove track", "file", name, "error", err)
		}
	}
}

func (w *libraryWatcher) register(name string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), fileOpTimeout)
	defer cancel()

	if _, err := w.catalog.RegisterFile(ctx, name); err != nil {
		w.log.Warnw("failed to register track", "file", name, "error", err)
		return false
	}
	return true
}
