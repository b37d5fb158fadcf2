// Package cache fronts the on-disk discovery cache file with an
// in-process ristretto hot cache so repeated page-router calls within one
// run don't re-deserialize the same DocumentMap JSON.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/dgraph-io/ristretto"

	"github.com/abudker/takeoff24/internal/takeoff/model"
)

// HotCache is a process-wide in-memory cache of parsed DocumentMaps keyed
// by evaluation ID, grounded on the teacher's ristretto-backed QueryCache
// (internal/database/spatial_optimizer.go).
type HotCache struct {
	ristretto *ristretto.Cache
}

func NewHotCache() (*HotCache, error) {
	r, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e4,
		MaxCost:     1 << 26, // cost units are pages (see Set), not bytes
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &HotCache{ristretto: r}, nil
}

func (c *HotCache) Get(evalID string) (model.DocumentMap, bool) {
	v, found := c.ristretto.Get(evalID)
	if !found {
		return model.DocumentMap{}, false
	}
	return v.(model.DocumentMap), true
}

func (c *HotCache) Set(evalID string, doc model.DocumentMap) {
	// Cost is approximated by page count; good enough to bound total
	// memory without requiring an exact byte count.
	c.ristretto.Set(evalID, doc, int64(len(doc.Pages)+1))
	c.ristretto.Wait()
}

// FileStore persists DocumentMaps to `.cache/<eval_id>_discovery.json`.
type FileStore struct {
	Dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

func (s *FileStore) path(evalID string) string {
	return filepath.Join(s.Dir, evalID+"_discovery.json")
}

// Load reads the cache file for evalID. Returns (doc, false, nil) if no
// file exists yet.
func (s *FileStore) Load(evalID string) (model.DocumentMap, bool, error) {
	data, err := os.ReadFile(s.path(evalID))
	if os.IsNotExist(err) {
		return model.DocumentMap{}, false, nil
	}
	if err != nil {
		return model.DocumentMap{}, false, err
	}
	var doc model.DocumentMap
	if err := json.Unmarshal(data, &doc); err != nil {
		return model.DocumentMap{}, false, err
	}
	return doc, true, nil
}

// Save writes doc to the cache file, creating the cache directory if
// needed.
func (s *FileStore) Save(evalID string, doc model.DocumentMap) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(evalID), data, 0o644)
}
