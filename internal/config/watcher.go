package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period required after the last change event
// before a reload is requested.
const DefaultDebounce = 250 * time.Millisecond

// Watcher requests reloads when the bar document changes. It watches the
// document's parent directory so editors that replace the file are seen.
type Watcher struct {
	// Reloads receives one value per settled burst of changes. It holds at
	// most one pending request; further requests are dropped until it is read.
	Reloads <-chan struct{}

	path     string
	debounce time.Duration
	logger   *slog.Logger
	reloads  chan struct{}
	watcher  *fsnotify.Watcher
}

// WatcherOption configures a Watcher
type WatcherOption func(*Watcher)

// WithReloadChannel delivers requests on ch instead of a channel owned by the
// watcher, so other request sources can share it. ch should have capacity 1.
func WithReloadChannel(ch chan struct{}) WatcherOption {
	return func(w *Watcher) {
		w.reloads = ch
		w.Reloads = ch
	}
}

// NewWatcher creates a watcher for the document at path.
func NewWatcher(path string, debounce time.Duration, logger *slog.Logger, opts ...WatcherOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	ch := make(chan struct{}, 1)
	w := &Watcher{
		Reloads:  ch,
		path:     filepath.Clean(abs),
		debounce: debounce,
		logger:   logger.With("component", "watcher"),
		reloads:  ch,
		watcher:  fw,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run delivers reload requests until ctx is done or the underlying watcher
// fails. Watch errors are logged and do not stop the loop.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.logger.Debug("config changed", "op", event.Op.String())
			timer.Reset(w.debounce)

		case <-timer.C:
			w.signal()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "err", err)
		}
	}
}

func (w *Watcher) signal() {
	select {
	case w.reloads <- struct{}{}:
		w.logger.Debug("reload requested")
	default:
		w.logger.Debug("reload already pending")
	}
}

// Path returns the watched document path
func (w *Watcher) Path() string {
	return w.path
}
