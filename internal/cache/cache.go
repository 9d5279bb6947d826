// Package cache provides the session-scoped exam record cache and its key
// derivation. Entries never expire; the cache is bounded by session lifetime.
package cache

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/victorxys/ExamBank-sub004/internal/model"
)

const keyPrefix = "exam_record"

// Key derives the cache key for one (exam, subject, time) triple. Equal inputs
// always yield byte-equal keys; lookups rely on exact string matching.
func Key(examID, subjectID, examTime string) string {
	return fmt.Sprintf("%s:%s:%s:%s", keyPrefix, examID, subjectID, examTime)
}

// Store is session-scoped key-value string storage with browser sessionStorage
// semantics: absent keys report ok=false, writes overwrite unconditionally.
type Store interface {
	GetItem(key string) (value string, ok bool, err error)
	SetItem(key, value string) error
}

// MemStore keeps items in process memory; the session is the process lifetime.
type MemStore struct {
	mu    sync.RWMutex
	items map[string]string
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{items: make(map[string]string)}
}

func (s *MemStore) GetItem(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok, nil
}

func (s *MemStore) SetItem(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
	return nil
}

// Cache serializes exam records into a Store. A failed read or a malformed
// entry degrades to a miss and is never surfaced as an error.
type Cache struct {
	store Store
}

// New creates a Cache over the given store.
func New(store Store) *Cache {
	return &Cache{store: store}
}

// GetRecord returns the cached record for key, or ok=false on absence,
// storage failure, or a corrupt entry.
func (c *Cache) GetRecord(key string) (*model.ExamRecord, bool) {
	raw, ok, err := c.store.GetItem(key)
	if err != nil {
		slog.Warn("session cache read failed", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var rec model.ExamRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		slog.Debug("discarding malformed cache entry", "key", key, "error", err)
		return nil, false
	}
	return &rec, true
}

// SetRecord stores a record snapshot under key, overwriting any previous
// entry. Write failures are logged and absorbed; the caller already holds the
// record it needs.
func (c *Cache) SetRecord(key string, rec *model.ExamRecord) {
	data, err := json.Marshal(rec)
	if err != nil {
		slog.Warn("session cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.store.SetItem(key, string(data)); err != nil {
		slog.Warn("session cache write failed", "key", key, "error", err)
	}
}
