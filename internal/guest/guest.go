package guest

import (
	"encoding/json"
	"log"
	"sync"
)

// Fixed storage keys. The cart value is a JSON-serialized array of items.
const (
	TokenKey = "voyager_auth_token"
	CartKey  = "voyager_guest_cart"
)

// Item is one line of an unauthenticated shopper's cart. Identity is the
// product id; there is never more than one entry per product.
type Item struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}

// Store persists per-session key/value state for unauthenticated shoppers.
// Failures never propagate to the shopper: implementations log and return
// zero values so the in-memory cart stays usable when persistence is broken.
type Store interface {
	Get(sessionID, key string) (string, bool)
	Set(sessionID, key, value string)
	Remove(sessionID, key string)
}

// LoadCart reads and decodes the guest cart for a session. A missing or
// corrupt value reads as an empty cart.
func LoadCart(s Store, sessionID string) []Item {
	raw, ok := s.Get(sessionID, CartKey)
	if !ok || raw == "" {
		return []Item{}
	}
	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		log.Printf("guest: could not decode stored cart for session %s: %v", sessionID, err)
		return []Item{}
	}
	return items
}

// SaveCart encodes and stores the full guest cart, replacing any previous
// value. Each write is an unconditional overwrite, not a merge.
func SaveCart(s Store, sessionID string, items []Item) {
	raw, err := json.Marshal(items)
	if err != nil {
		log.Printf("guest: could not encode cart for session %s: %v", sessionID, err)
		return
	}
	s.Set(sessionID, CartKey, string(raw))
}

// MemoryStore keeps guest state in process memory. Used in tests and as the
// fallback when the SQLite store cannot be opened.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]map[string]string)}
}

func (m *MemoryStore) Get(sessionID, key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	kv, ok := m.sessions[sessionID]
	if !ok {
		return "", false
	}
	v, ok := kv[key]
	return v, ok
}

func (m *MemoryStore) Set(sessionID, key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kv, ok := m.sessions[sessionID]
	if !ok {
		kv = make(map[string]string)
		m.sessions[sessionID] = kv
	}
	kv[key] = value
}

func (m *MemoryStore) Remove(sessionID, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if kv, ok := m.sessions[sessionID]; ok {
		delete(kv, key)
		if len(kv) == 0 {
			delete(m.sessions, sessionID)
		}
	}
}
