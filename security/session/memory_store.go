// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

package session

import (
	"sync"
	"time"

	"aahframe.work/authn/config"
)

var _ Storer = (*MemoryStore)(nil)

// MemoryStore is the in-process session store, sessions do not survive
// restart. Configure via `security.session.store = "memory"`.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
}

type memoryEntry struct {
	data    []byte
	updated time.Time
}

// Init method initializes the memory store.
func (ms *MemoryStore) Init(_ *config.Config) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.entries = make(map[string]*memoryEntry)
	return nil
}

// Read method reads the encoded session for the given ID.
func (ms *MemoryStore) Read(id string) ([]byte, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	if e, found := ms.entries[id]; found {
		return e.data, nil
	}
	return nil, ErrSessionNotFound
}

// Save method saves the encoded session for the given ID.
func (ms *MemoryStore) Save(id string, data []byte) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.entries[id] = &memoryEntry{data: data, updated: time.Now()}
	return nil
}

// Delete method deletes the session for the given ID.
func (ms *MemoryStore) Delete(id string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.entries, id)
	return nil
}

// IsExists method returns true if the session exists.
func (ms *MemoryStore) IsExists(id string) bool {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	_, found := ms.entries[id]
	return found
}

// Cleanup method removes the expired entries.
func (ms *MemoryStore) Cleanup(m *Manager) {
	cutoff := time.Now().Add(-m.TTL())
	expired := map[string][]byte{}

	ms.mu.Lock()
	for id, e := range ms.entries {
		if e.updated.Before(cutoff) {
			expired[id] = e.data
			delete(ms.entries, id)
		}
	}
	ms.mu.Unlock()

	for id, data := range expired {
		m.SessionExpired(id, data)
	}
}
