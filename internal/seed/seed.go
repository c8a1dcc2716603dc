// Package seed installs the bundled sample catalogs into a catalog directory.
package seed

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/Simplici0/displayquote/internal/catalog"
)

//go:embed catalogs
var bundled embed.FS

const bundledRoot = "catalogs"

// Config contains the values required by the seed.
type Config struct {
	CatalogDir string
	// Overwrite replaces sample files that were edited locally.
	Overwrite bool
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Updates int
}

// Run copies every bundled catalog that is missing from the catalog
// directory. It is idempotent; existing files are kept unless Overwrite is set.
func Run(cfg Config) (Stats, error) {
	if cfg.CatalogDir == "" {
		return Stats{}, errors.New("seed: catalog dir is required")
	}

	root, err := fs.Sub(bundled, bundledRoot)
	if err != nil {
		return Stats{}, fmt.Errorf("open bundled catalogs: %w", err)
	}
	files, err := doublestar.Glob(root, "**/*.json")
	if err != nil {
		return Stats{}, fmt.Errorf("list bundled catalogs: %w", err)
	}

	stats := Stats{}
	for _, rel := range files {
		if err := ensureCatalog(root, rel, cfg, &stats); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

// Keys lists the display keys of the bundled catalogs.
func Keys() ([]string, error) {
	files, err := doublestar.Glob(bundled, bundledRoot+"/**/*.json")
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(files))
	for _, f := range files {
		keys = append(keys, strings.TrimSuffix(strings.TrimPrefix(f, bundledRoot+"/"), ".json"))
	}
	sort.Strings(keys)
	return keys, nil
}

func ensureCatalog(root fs.FS, rel string, cfg Config, stats *Stats) error {
	data, err := fs.ReadFile(root, rel)
	if err != nil {
		return fmt.Errorf("read bundled catalog %s: %w", rel, err)
	}
	// A bundled catalog that no longer parses is a build mistake, not user data.
	if _, err := catalog.Parse(data); err != nil {
		return fmt.Errorf("bundled catalog %s: %w", rel, err)
	}

	dst := filepath.Join(cfg.CatalogDir, filepath.FromSlash(rel))
	existing, err := os.ReadFile(dst)
	switch {
	case err == nil:
		if !cfg.Overwrite || bytes.Equal(existing, data) {
			return nil
		}
		if err := writeFile(dst, data); err != nil {
			return err
		}
		stats.Updates++
		return nil
	case errors.Is(err, os.ErrNotExist):
		if err := writeFile(dst, data); err != nil {
			return err
		}
		stats.Inserts++
		return nil
	default:
		return fmt.Errorf("check catalog %s: %w", dst, err)
	}
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create catalog dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write catalog %s: %w", path, err)
	}
	return nil
}
