// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

// Package session is the HTTP session container used by the authentication
// filter. Session values are kept server side in a pluggable store, the
// client only receives the HMAC signed (and optionally encrypted) session ID.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"aahframe.work/authn/ahttp"
	"aahframe.work/authn/config"
	"aahframe.work/authn/essentials"
	"aahframe.work/authn/log"
	"aahframe.work/authn/security/cookie"
)

const keyPrefix = "security.session"

var (
	// ErrSessionNotFound returned when session ID not exists in the store.
	ErrSessionNotFound = errors.New("security/session: session not found")

	// ErrStoreIsNil returned when given store value is nil.
	ErrStoreIsNil = errors.New("security/session: store value is nil")

	registerStores = map[string]Storer{}
	storeMu        sync.Mutex
)

// Storer is interface for implementing pluggable session storage.
type Storer interface {
	Init(cfg *config.Config) error
	Read(id string) ([]byte, error)
	Save(id string, data []byte) error
	Delete(id string) error
	IsExists(id string) bool

	// Cleanup removes the entries not saved within the session TTL and
	// reports each of them via `Manager.SessionExpired`.
	Cleanup(m *Manager)
}

// Listener interface receives the session lifecycle events.
type Listener interface {
	SessionCreated(s *Session)
	SessionDestroyed(s *Session)
}

func init() {
	_ = AddStore("memory", &MemoryStore{})
	_ = AddStore("sqlite", &SQLiteStore{})
}

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// Package methods
//___________________________________

// AddStore method allows you to add user created session store
// for the session management.
func AddStore(name string, store Storer) error {
	if store == nil {
		return ErrStoreIsNil
	}

	storeMu.Lock()
	defer storeMu.Unlock()
	if _, found := registerStores[name]; found {
		return fmt.Errorf("session: store name '%v' is already added, skip it", name)
	}
	registerStores[name] = store
	return nil
}

// NewManager method initializes the session manager and store based on
// configuration from `security.session { ... }`.
func NewManager(cfg *config.Config) (*Manager, error) {
	m := &Manager{cfg: cfg}

	m.storeName, _ = cfg.String(keyPrefix + ".store")
	if ess.IsStrEmpty(m.storeName) {
		m.storeName = cfg.StringDefault(keyPrefix+".store.type", "memory")
	}

	storeMu.Lock()
	store, found := registerStores[m.storeName]
	storeMu.Unlock()
	if !found {
		return nil, fmt.Errorf("session: store name '%v' not exists", m.storeName)
	}

	var err error
	if m.ttl, err = cfg.DurationDefault(keyPrefix+".ttl", 30*time.Minute); err != nil {
		return nil, err
	}
	if m.ttl <= 0 {
		return nil, fmt.Errorf("session: '%s.ttl' must be positive", keyPrefix)
	}

	if m.cleanupInterval, err = cfg.DurationDefault(keyPrefix+".cleanup_interval", 5*time.Minute); err != nil {
		return nil, err
	}

	m.idLength = cfg.IntDefault(keyPrefix+".id_length", 32)
	m.cookieMgr, err = cookie.NewManager(&cookie.Options{
		Name:     cfg.StringDefault(keyPrefix+".cookie_name", "authn_session"),
		Domain:   cfg.StringDefault(keyPrefix+".domain", ""),
		Path:     cfg.StringDefault(keyPrefix+".path", "/"),
		MaxAge:   int64(m.ttl.Seconds()),
		HTTPOnly: cfg.BoolDefault(keyPrefix+".http_only", true),
		Secure:   cfg.BoolDefault(keyPrefix+".secure", false),
		SameSite: cfg.StringDefault(keyPrefix+".same_site", "lax"),
	}, cfg.StringDefault(keyPrefix+".sign_key", ""), cfg.StringDefault(keyPrefix+".enc_key", ""))
	if err != nil {
		return nil, err
	}
	if !m.cookieMgr.IsSigned() {
		log.Warnf("session: '%s.sign_key' is not configured, session ID cookie is unsigned", keyPrefix)
	}

	m.store = newStoreInstance(store)
	if err = m.store.Init(cfg); err != nil {
		return nil, err
	}

	return m, nil
}

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// Manager
//___________________________________

// Manager is a session manager to manage sessions.
type Manager struct {
	cfg             *config.Config
	cookieMgr       *cookie.Manager
	store           Storer
	storeName       string
	ttl             time.Duration
	cleanupInterval time.Duration
	idLength        int

	lm        sync.RWMutex
	listeners []Listener
}

// CookieName method returns the session cookie name.
func (m *Manager) CookieName() string {
	return m.cookieMgr.Options.Name
}

// CookieOptions method returns the session cookie options.
func (m *Manager) CookieOptions() cookie.Options {
	return *m.cookieMgr.Options
}

// TTL method returns the session time to live.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// StoreName method returns the configured store name.
func (m *Manager) StoreName() string {
	return m.storeName
}

// AddListener method registers the session lifecycle listener.
func (m *Manager) AddListener(l Listener) {
	m.lm.Lock()
	defer m.lm.Unlock()
	m.listeners = append(m.listeners, l)
}

// NewSession method creates a new session for the request.
func (m *Manager) NewSession() *Session {
	return &Session{
		ID:          ess.SecureRandomString(m.idLength),
		Values:      make(map[string]interface{}),
		CreatedTime: time.Now(),
		isNew:       true,
	}
}

// RequestedSessionID method returns the session ID sent by the client,
// empty string if cookie is absent or fails verification.
func (m *Manager) RequestedSessionID(r *http.Request) string {
	c, err := r.Cookie(m.CookieName())
	if err != nil || ess.IsStrEmpty(c.Value) {
		return ""
	}

	b, err := m.cookieMgr.Decode(c.Value)
	if err != nil {
		log.Debugf("session: unable to decode session cookie: %v", err)
		return ""
	}
	return string(b)
}

// GetSession method returns the session for the given request, nil when
// the request carries no valid session.
func (m *Manager) GetSession(r *http.Request) *Session {
	id := m.RequestedSessionID(r)
	if ess.IsStrEmpty(id) {
		return nil
	}
	s, err := m.load(id)
	if err != nil {
		if err != ErrSessionNotFound {
			log.Errorf("session: unable to read session '%s': %v", id, err)
		}
		return nil
	}
	return s
}

// SaveSession method persists the session into store and writes the
// session ID cookie.
func (m *Manager) SaveSession(w http.ResponseWriter, s *Session) error {
	b, err := encodeSession(s)
	if err != nil {
		return err
	}
	if err = m.store.Save(s.ID, b); err != nil {
		return err
	}

	value, err := m.cookieMgr.Encode([]byte(s.ID))
	if err != nil {
		return err
	}
	ahttp.ReplaceCookie(w, m.cookieMgr.New(value))
	return nil
}

// DeleteSession method deletes the session from store and expires the
// session ID cookie.
func (m *Manager) DeleteSession(w http.ResponseWriter, id string) error {
	if err := m.store.Delete(id); err != nil {
		return err
	}
	opts := m.cookieMgr.Options
	ahttp.ReplaceCookie(w, ahttp.ExpireCookie(opts.Name, opts.Path, opts.Domain))
	return nil
}

// IsExists method returns true if the session ID exists in the store.
func (m *Manager) IsExists(id string) bool {
	return m.store.IsExists(id)
}

// Cleanup method removes the expired sessions from the store.
func (m *Manager) Cleanup() {
	m.store.Cleanup(m)
}

// StartCleanup method runs the store cleanup on every
// `security.session.cleanup_interval` until the given context is done.
func (m *Manager) StartCleanup(ctx context.Context) {
	if m.cleanupInterval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(m.cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Cleanup()
			}
		}
	}()
}

// SessionExpired method is called by the stores during cleanup for
// each removed entry, it notifies the destroyed listeners. The store entry
// is already gone, listeners receive a detached copy marked expired. When
// the data cannot be decoded the copy carries only the ID.
func (m *Manager) SessionExpired(id string, data []byte) {
	s, err := decodeSession(data)
	if err != nil {
		s = &Session{ID: id, Values: make(map[string]interface{})}
	}
	s.expired = true
	log.Debugf("session: expired '%s'", id)
	m.fireDestroyed(s)
}

// Close method closes the session store if it holds resources.
func (m *Manager) Close() error {
	if c, ok := m.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// Unexported methods
//___________________________________

func (m *Manager) load(id string) (*Session, error) {
	b, err := m.store.Read(id)
	if err != nil {
		return nil, err
	}
	return decodeSession(b)
}

func (m *Manager) fireCreated(s *Session) {
	m.lm.RLock()
	defer m.lm.RUnlock()
	for _, l := range m.listeners {
		l.SessionCreated(s)
	}
}

func (m *Manager) fireDestroyed(s *Session) {
	m.lm.RLock()
	defer m.lm.RUnlock()
	for _, l := range m.listeners {
		l.SessionDestroyed(s)
	}
}

// newStoreInstance gives every manager its own store value, registered
// stores act as prototypes.
func newStoreInstance(s Storer) Storer {
	switch s.(type) {
	case *MemoryStore:
		return &MemoryStore{}
	case *SQLiteStore:
		return &SQLiteStore{}
	}
	return s
}
