// Package localization provides the user-facing strings of the bot. Catalogs
// are JSON files embedded into the binary, one per language code; Russian is
// the primary catalog and the fallback for missing keys.
package localization

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
)

//go:embed locales/*.json
var localeFS embed.FS

// DefaultLang is the catalog used when no language is specified and the
// fallback for keys missing from other catalogs.
const DefaultLang = "ru"

// Localizer resolves translation keys to strings.
type Localizer struct {
	mu           sync.RWMutex
	translations map[string]map[string]string
}

// New loads every embedded catalog.
func New() (*Localizer, error) {
	l := &Localizer{translations: make(map[string]map[string]string)}

	entries, err := fs.ReadDir(localeFS, "locales")
	if err != nil {
		return nil, fmt.Errorf("read embedded locales: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		data, err := localeFS.ReadFile(filepath.Join("locales", name))
		if err != nil {
			return nil, fmt.Errorf("read locale %s: %w", name, err)
		}
		var catalog map[string]string
		if err := json.Unmarshal(data, &catalog); err != nil {
			return nil, fmt.Errorf("parse locale %s: %w", name, err)
		}
		l.translations[strings.TrimSuffix(name, ".json")] = catalog
	}

	if _, ok := l.translations[DefaultLang]; !ok {
		return nil, fmt.Errorf("default catalog %q is missing", DefaultLang)
	}
	return l, nil
}

// Get returns the string for key in lang, falling back to the default
// catalog and finally to the key itself.
func (l *Localizer) Get(lang, key string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if catalog, ok := l.translations[lang]; ok {
		if value, ok := catalog[key]; ok {
			return value
		}
	}
	if lang != DefaultLang {
		if value, ok := l.translations[DefaultLang][key]; ok {
			return value
		}
	}
	return key
}

// Getf resolves the key and applies Sprintf formatting.
func (l *Localizer) Getf(lang, key string, args ...interface{}) string {
	return fmt.Sprintf(l.Get(lang, key), args...)
}
