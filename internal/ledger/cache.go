package ledger

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Metadata is the cached Steam lookup result for one app id. Entries are
// never aged out; delete the cache file to force a refresh.
type Metadata struct {
	IsCoop         bool     `json:"is_coop"`
	CoopTags       []string `json:"coop_tags,omitempty"`
	ReviewSummary  string   `json:"review_summary,omitempty"`
	ReviewPercent  *int     `json:"review_percent,omitempty"`
	ReviewCount    *int     `json:"review_count,omitempty"`
	PlayerCount    *int     `json:"player_count,omitempty"`
	OwnersEstimate string   `json:"owners_estimate,omitempty"`
}

// MetadataCache holds per-app-id Steam metadata across runs. It is owned
// by a single run; there is no locking.
type MetadataCache struct {
	path    string
	entries map[string]*Metadata
}

// LoadMetadataCache reads the cache file. A missing or unparseable file
// yields an empty cache.
func LoadMetadataCache(path string) *MetadataCache {
	cache := &MetadataCache{path: path, entries: map[string]*Metadata{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Failed to read metadata cache, starting empty", "path", path, "error", err)
		}
		return cache
	}
	if err := json.Unmarshal(data, &cache.entries); err != nil {
		slog.Warn("Metadata cache is unparseable, starting empty", "path", path)
		cache.entries = map[string]*Metadata{}
	}
	return cache
}

// Get returns the cached entry for an app id, or nil on a miss.
func (c *MetadataCache) Get(appID string) *Metadata {
	return c.entries[appID]
}

func (c *MetadataCache) Set(appID string, m *Metadata) {
	c.entries[appID] = m
}

func (c *MetadataCache) Len() int {
	return len(c.entries)
}

// Save writes the full cache back via an atomic replace.
func (c *MetadataCache) Save() error {
	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata cache: %w", err)
	}
	return writeFileAtomic(c.path, data)
}

// writeFileAtomic writes to a temp file in the target directory and
// renames it into place so a crash mid-write cannot truncate the ledger.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create ledger dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp ledger file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp ledger file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp ledger file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace ledger file %s: %w", path, err)
	}
	return nil
}
