package suggest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Provider holds the active catalog. It is safe for concurrent use.
type Provider struct {
	mu  sync.RWMutex
	cat *Catalog
}

// NewProvider returns a Provider serving cat, or the built-in catalog if cat
// is nil.
func NewProvider(cat *Catalog) *Provider {
	if cat == nil {
		cat = Default()
	}
	return &Provider{cat: cat}
}

// Catalog returns the active catalog. Callers must not modify it.
func (p *Provider) Catalog() *Catalog {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cat
}

// Set replaces the active catalog.
func (p *Provider) Set(cat *Catalog) {
	p.mu.Lock()
	p.cat = cat
	p.mu.Unlock()
}

// Watch monitors path and loads it into p each time the file is written or
// replaced. It runs until ctx is cancelled.
//
// The parent directory is watched rather than the file, so a save that
// renames a temp file over path keeps being seen.
//
// If a reload fails (e.g. invalid YAML or an empty table), the error is
// logged and the previous catalog remains active.
func Watch(ctx context.Context, path string, p *Provider) error {
	path = filepath.Clean(path)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("suggest: watch %q: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("suggest: watch %q: %w", path, err)
	}

	slog.Info("suggest: watching catalog for changes", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			// A rename over path arrives as Create.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			cat, err := LoadFile(path)
			if err != nil {
				slog.Error("suggest: reload failed, keeping previous catalog",
					"path", path, "err", err)
				continue
			}

			p.Set(cat)
			slog.Info("suggest: catalog reloaded", "path", path,
				"positive", len(cat.Positive.Steps),
				"negative", len(cat.Negative.Steps),
				"neutral", len(cat.Neutral.Steps),
			)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("suggest: watcher error", "err", err)
		}
	}
}
