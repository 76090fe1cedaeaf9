package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/epicfreebies/hype-backend/models"
	"github.com/sirupsen/logrus"
)

// cacheDocument is the on-disk shape of the metadata cache: one flat mapping
// per concern. Basic metadata is keyed by title (title-invariant fields),
// franchise resolution by title plus promotion start date. Absent keys decode
// to zero values, which the field states treat as "not yet attempted", so
// documents written by older versions keep loading.
type cacheDocument struct {
	Games     map[string]*models.CacheEntry     `json:"games"`
	Franchise map[string]*models.FranchiseEntry `json:"franchise"`
}

// CacheService is the persistent metadata cache. It is the sole durability
// mechanism protecting against repeated external calls across runs, so the
// resolver saves after every per-field mutation rather than once per batch;
// an interrupted process loses at most one in-flight lookup.
//
// The process owns the file exclusively. There is no multi-writer protocol.
type CacheService struct {
	path  string
	doc   cacheDocument
	mutex sync.Mutex
}

// NewCacheService loads the cache document from path. A missing file is the
// normal first-run state and yields an empty cache.
func NewCacheService(path string) (*CacheService, error) {
	cs := &CacheService{
		path: path,
		doc: cacheDocument{
			Games:     make(map[string]*models.CacheEntry),
			Franchise: make(map[string]*models.FranchiseEntry),
		},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logrus.WithField("path", path).Info("No cache file found, starting with empty cache")
			return cs, nil
		}
		return nil, fmt.Errorf("failed to read cache file %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &cs.doc); err != nil {
		return nil, fmt.Errorf("failed to parse cache file %s: %w", path, err)
	}
	if cs.doc.Games == nil {
		cs.doc.Games = make(map[string]*models.CacheEntry)
	}
	if cs.doc.Franchise == nil {
		cs.doc.Franchise = make(map[string]*models.FranchiseEntry)
	}

	logrus.WithFields(logrus.Fields{
		"path":              path,
		"game_entries":      len(cs.doc.Games),
		"franchise_entries": len(cs.doc.Franchise),
	}).Info("Loaded metadata cache")

	return cs, nil
}

// Entry returns the cache entry for a title, creating an empty one on first
// sight. Titles given away more than once share the returned entry.
func (cs *CacheService) Entry(title string) *models.CacheEntry {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	entry, exists := cs.doc.Games[title]
	if !exists {
		entry = &models.CacheEntry{}
		cs.doc.Games[title] = entry
	}
	return entry
}

// HasEntry reports whether a title has been seen before without creating it.
func (cs *CacheService) HasEntry(title string) bool {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	_, exists := cs.doc.Games[title]
	return exists
}

// Franchise returns the cached franchise resolution for a promotion instance.
func (cs *CacheService) Franchise(key string) (*models.FranchiseEntry, bool) {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	entry, exists := cs.doc.Franchise[key]
	return entry, exists
}

// SetFranchise stores a franchise resolution for a promotion instance.
func (cs *CacheService) SetFranchise(key string, entry *models.FranchiseEntry) {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	cs.doc.Franchise[key] = entry
}

// Counts returns the number of game and franchise entries currently cached.
func (cs *CacheService) Counts() (int, int) {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	return len(cs.doc.Games), len(cs.doc.Franchise)
}

// Path returns the location of the persisted cache document.
func (cs *CacheService) Path() string {
	return cs.path
}

// Save persists the whole document via a temp file and rename, which is
// atomic enough for a single-process batch job.
func (cs *CacheService) Save() error {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	data, err := json.MarshalIndent(&cs.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize cache document: %w", err)
	}

	dir := filepath.Dir(cs.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}

	tempPath := cs.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache temp file: %w", err)
	}
	if err := os.Rename(tempPath, cs.path); err != nil {
		return fmt.Errorf("failed to replace cache file: %w", err)
	}

	return nil
}
