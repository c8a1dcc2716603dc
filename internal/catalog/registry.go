package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const catalogPattern = "**/*.json"

// ErrUnknownDisplay is returned for a display key with no catalog file.
var ErrUnknownDisplay = errors.New("unknown display type")

// Entry is one discovered display type.
type Entry struct {
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Category string   `json:"category"`
	Path     string   `json:"-"`
	Catalog  *Catalog `json:"-"`
	Err      error    `json:"-"`
}

// Registry discovers display catalogs below a directory. Keys are the
// slash-separated relative path without extension, e.g. "pdq/digital_tray".
type Registry struct {
	dir    string
	logger *zap.Logger

	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewRegistry creates a registry rooted at dir. Call Reload to populate it.
func NewRegistry(dir string, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		dir:     dir,
		logger:  logger,
		entries: make(map[string]*Entry),
	}
}

// Reload rescans the directory. Catalogs that fail to parse stay listed with
// their error so callers can surface it.
func (r *Registry) Reload() error {
	matches, err := doublestar.Glob(os.DirFS(r.dir), catalogPattern)
	if err != nil {
		return fmt.Errorf("scan catalogs in %s: %w", r.dir, err)
	}
	sort.Strings(matches)

	entries := make(map[string]*Entry, len(matches))
	for _, rel := range matches {
		entry := r.load(rel)
		entries[entry.Key] = entry
	}

	r.mu.Lock()
	r.entries = entries
	r.mu.Unlock()

	r.logger.Info("catalogs loaded", zap.String("dir", r.dir), zap.Int("count", len(entries)))
	return nil
}

func (r *Registry) load(rel string) *Entry {
	key := strings.TrimSuffix(rel, path.Ext(rel))
	entry := &Entry{
		Key:   key,
		Label: prettify(path.Base(key)),
		Path:  filepath.Join(r.dir, filepath.FromSlash(rel)),
	}
	if dir := path.Dir(key); dir != "." {
		entry.Category = dir
	}

	cat, err := Load(entry.Path)
	if err != nil {
		entry.Err = err
		r.logger.Error("catalog rejected", zap.String("display", key), zap.Error(err))
		return entry
	}
	for _, w := range cat.Warnings {
		r.logger.Warn("catalog defaulted value", zap.String("display", key), zap.String("detail", w))
	}

	entry.Catalog = cat
	if cat.Display.Label != "" {
		entry.Label = cat.Display.Label
	}
	if cat.Display.Category != "" {
		entry.Category = cat.Display.Category
	}
	return entry
}

// Get returns the catalog for a display key, or the error it failed to load with.
func (r *Registry) Get(key string) (*Catalog, error) {
	r.mu.RLock()
	entry, ok := r.entries[key]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDisplay, key)
	}
	if entry.Err != nil {
		return nil, entry.Err
	}
	return entry.Catalog, nil
}

// List returns all entries ordered by key.
func (r *Registry) List() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Watch reloads the registry when catalog files change, batching events
// within the debounce window. It blocks until ctx is done.
func (r *Registry) Watch(ctx context.Context, debounce time.Duration) error {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create catalog watcher: %w", err)
	}
	defer fsw.Close()

	err = filepath.WalkDir(r.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsw.Add(p)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch catalog dir %s: %w", r.dir, err)
	}

	ticker := time.NewTicker(debounce)
	defer ticker.Stop()

	dirty := false
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := fsw.Add(event.Name); err != nil {
						r.logger.Warn("watch new catalog dir", zap.String("path", event.Name), zap.Error(err))
					}
					dirty = true
					continue
				}
			}
			if strings.EqualFold(filepath.Ext(event.Name), ".json") {
				dirty = true
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			r.logger.Error("catalog watcher error", zap.Error(err))

		case <-ticker.C:
			if !dirty {
				continue
			}
			dirty = false
			if err := r.Reload(); err != nil {
				r.logger.Error("catalog reload failed", zap.Error(err))
			}
		}
	}
}

// prettify turns a file stem like "digital_pdq-tray" into "Digital Pdq Tray".
func prettify(stem string) string {
	s := strings.NewReplacer("_", " ", "-", " ").Replace(stem)
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
