package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"pfpp/internal/config"
	"pfpp/internal/domain"
	"pfpp/internal/storage"
)

// DefaultDebounce is how long a source must stay quiet before it is retranslated.
const DefaultDebounce = 300 * time.Millisecond

// Runner translates a single source file.
type Runner interface {
	Run(source string, workerID int) domain.TranslationResult
}

// Handler receives every translation the watcher performs.
type Handler func(result domain.TranslationResult)

// Stats tracks watcher activity.
type Stats struct {
	Events       int
	Translations int
	Failures     int
	Errors       int
	LastSource   string
}

// Watcher retranslates annotated sources under the configured source path
// whenever they are created or modified.
type Watcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	cfg         *config.Config
	runner      Runner
	storage     storage.Storage
	logger      *zap.Logger
	handler     Handler
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
	stats       Stats
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounceDur = d }
}

// WithHandler registers a callback for each translation.
func WithHandler(h Handler) Option {
	return func(w *Watcher) { w.handler = h }
}

// WithStorage records each translation into the manifest.
func WithStorage(st storage.Storage) Option {
	return func(w *Watcher) { w.storage = st }
}

// New creates a Watcher. It does not start watching until Start is called.
func New(cfg *config.Config, runner Runner, logger *zap.Logger, opts ...Option) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	w := &Watcher{
		watcher:     fw,
		cfg:         cfg,
		runner:      runner,
		logger:      logger,
		debounceMap: make(map[string]time.Time),
		debounceDur: DefaultDebounce,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start adds every directory under the source path and begins processing
// events in a goroutine.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.addTree(w.cfg.GetSourcePath()); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		_ = w.watcher.Close()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		w.logger.Error("closing watcher", zap.Error(err))
	}
}

// Done is closed once the event loop has exited.
func (w *Watcher) Done() <-chan struct{} {
	return w.doneCh
}

// Stats returns a snapshot of the watcher counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.skipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return err
		}
		w.logger.Debug("watching", zap.String("dir", path))
		return nil
	})
}

func (w *Watcher) skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || slices.Contains(w.cfg.PathsToIgnore, name)
}

func (w *Watcher) isSource(path string) bool {
	return strings.EqualFold(filepath.Ext(path), w.cfg.SourceExt)
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	tick := w.debounceDur / 2
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watch error", zap.Error(err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
		case <-ticker.C:
			w.processDebounced()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !w.skipDir(info.Name()) {
				if err := w.addTree(event.Name); err != nil {
					w.logger.Warn("failed to watch new directory", zap.String("dir", event.Name), zap.Error(err))
				}
			}
			return
		}
	}

	if !w.isSource(event.Name) {
		return
	}

	w.logger.Debug("source changed", zap.String("source", event.Name), zap.Stringer("op", event.Op))

	w.mu.Lock()
	w.stats.Events++
	w.debounceMap[event.Name] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) processDebounced() {
	w.mu.Lock()
	now := time.Now()
	var ready []string
	for path, at := range w.debounceMap {
		if now.Sub(at) >= w.debounceDur {
			ready = append(ready, path)
			delete(w.debounceMap, path)
		}
	}
	w.mu.Unlock()

	slices.Sort(ready)
	for _, path := range ready {
		w.translate(path)
	}
}

func (w *Watcher) translate(source string) {
	if _, err := os.Stat(source); err != nil {
		w.logger.Debug("source vanished before translation", zap.String("source", source))
		return
	}

	result := w.runner.Run(source, 0)

	w.mu.Lock()
	w.stats.Translations++
	if !result.Success {
		w.stats.Failures++
	}
	w.stats.LastSource = source
	w.mu.Unlock()

	if w.storage != nil {
		if err := w.storage.Record(result); err != nil {
			w.logger.Error("failed to record translation", zap.String("source", source), zap.Error(err))
		}
	}
	if w.handler != nil {
		w.handler(result)
	}
}
