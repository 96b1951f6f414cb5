package verification

import (
	"encoding/json"
	"sync"
)

// StorageKey is the key under which the last context is kept in device-local storage.
const StorageKey = "topsell_verification_context_v1"

// Context is the persisted snapshot of the last resolved selection.
// It is never validated against the current tables.
type Context struct {
	Mode         Mode   `json:"mode"`
	OutletID     string `json:"outletId,omitempty"`
	DivisionID   string `json:"divisionId,omitempty"`
	OutletCode   string `json:"outletCode,omitempty"`
	OutletName   string `json:"outletName,omitempty"`
	DivisionName string `json:"divisionName,omitempty"`
}

// DecodeContext parses a stored context. Malformed JSON or an unknown mode yields false.
func DecodeContext(raw string) (Context, bool) {
	if raw == "" {
		return Context{}, false
	}
	var c Context
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return Context{}, false
	}
	if !c.Mode.Valid() {
		return Context{}, false
	}
	return c, true
}

type (
	// ContextStore persists the last verification context. Load reports false when nothing
	// usable is stored; callers ignore Save errors.
	ContextStore interface {
		Load() (Context, bool)
		Save(c Context) error
	}

	// Storage is a string key/value backend (device file, redis, memory).
	Storage interface {
		GetItem(key string) (string, bool, error)
		SetItem(key, value string) error
	}
)

type storageStore struct {
	storage Storage
	key     string
}

var _ ContextStore = (*storageStore)(nil)

// NewStorageStore keeps the context as JSON under StorageKey.
func NewStorageStore(storage Storage) ContextStore {
	return &storageStore{storage: storage, key: StorageKey}
}

func (s *storageStore) Load() (Context, bool) {
	raw, ok, err := s.storage.GetItem(s.key)
	if err != nil || !ok {
		return Context{}, false
	}
	return DecodeContext(raw)
}

func (s *storageStore) Save(c Context) error {
	b, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return s.storage.SetItem(s.key, string(b))
}

// NopStore stores nothing.
type NopStore struct{}

var _ ContextStore = NopStore{}

func (NopStore) Load() (Context, bool) { return Context{}, false }
func (NopStore) Save(Context) error    { return nil }

// MemoryStorage is an in-process Storage.
type MemoryStorage struct {
	mu    sync.RWMutex
	items map[string]string
}

var _ Storage = (*MemoryStorage)(nil)

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{items: make(map[string]string)}
}

func (m *MemoryStorage) GetItem(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *MemoryStorage) SetItem(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}
