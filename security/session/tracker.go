// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

package session

import (
	"context"
	"net/http"
	"sync"

	"aahframe.work/authn/ahttp"
	"aahframe.work/authn/essentials"
	"aahframe.work/authn/log"
)

type ctxKey struct{}

var trackerKey = ctxKey{}

// Tracker follows the HTTP session of a single request. It loads the
// requested session lazily, records invalidation and ID rotation and writes
// the outcome just before the response commits.
type Tracker struct {
	m *Manager
	r *http.Request

	mu                   sync.Mutex
	loaded               bool
	requestedID          string
	requested            *Session
	current              *Session
	requestedInvalidated bool
	stale                []string
	attached             map[string]interface{}
}

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// Package methods
//___________________________________

// FromRequest method returns the session tracker of the request, nil if
// the request did not pass through `Manager.Middleware`.
func FromRequest(r *http.Request) *Tracker {
	if t, ok := r.Context().Value(trackerKey).(*Tracker); ok {
		return t
	}
	return nil
}

// Middleware method installs the per request session tracker. It should
// wrap every other security filter, session changes are written just
// before the response commits.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw, created := ahttp.WrapResponseWriter(w)
		t := m.NewTracker(r)
		r = r.WithContext(context.WithValue(r.Context(), trackerKey, t))
		t.r = r

		rw.BeforeCommit(func() {
			if err := t.Commit(rw); err != nil {
				log.Errorf("session: unable to save session: %v", err)
			}
		})

		next.ServeHTTP(rw, r)
		if created {
			rw.WriteHeaderNow()
		}
	})
}

// NewTracker method returns a tracker for the given request without
// installing it. Mostly `Middleware` is what you need.
func (m *Manager) NewTracker(r *http.Request) *Tracker {
	return &Tracker{m: m, r: r, attached: make(map[string]interface{})}
}

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// Tracker methods
//___________________________________

// Manager method returns the session manager.
func (t *Tracker) Manager() *Manager {
	return t.m
}

// Session method returns the current session. If none and create is true
// a new session is created and the created listeners are notified.
func (t *Tracker) Session(create bool) *Session {
	t.mu.Lock()
	t.load()
	if t.current != nil || !create {
		s := t.current
		t.mu.Unlock()
		return s
	}

	s := t.m.NewSession()
	t.current = s
	t.mu.Unlock()

	t.m.fireCreated(s)
	return s
}

// Invalidate method invalidates the current session, its store entry is
// removed at commit and the destroyed listeners are notified.
func (t *Tracker) Invalidate() {
	t.mu.Lock()
	t.load()
	s := t.current
	if s == nil {
		t.mu.Unlock()
		return
	}
	t.stale = append(t.stale, s.ID)
	if s == t.requested {
		t.requestedInvalidated = true
	}
	t.current = nil
	t.mu.Unlock()

	t.m.fireDestroyed(s)
}

// Renew method rotates the current session ID keeping its values. It is not
// an invalidation and no listener is notified.
func (t *Tracker) Renew() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.load()
	if t.current == nil {
		return
	}
	t.stale = append(t.stale, t.current.ID)
	t.current.ID = ess.SecureRandomString(t.m.idLength)
}

// RequestedSessionID method returns the session ID sent by the client.
func (t *Tracker) RequestedSessionID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.load()
	return t.requestedID
}

// IsRequestedSessionInvalidated method returns true if the session which
// existed at the request start got invalidated during the request.
func (t *Tracker) IsRequestedSessionInvalidated() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.requestedInvalidated
}

// IsNewSessionLive method returns true if a session other than the
// requested one is live at this point of the request.
func (t *Tracker) IsNewSessionLive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current != nil && t.current != t.requested
}

// Attach method caches a request scoped value on the tracker.
func (t *Tracker) Attach(key string, value interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.attached[key] = value
}

// Attached method returns the request scoped value for the key.
func (t *Tracker) Attached(key string) interface{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.attached[key]
}

// Commit method writes the session outcome, stale IDs are deleted from the
// store, the live session is saved and its cookie refreshed. When the
// requested session got invalidated and no session is live, the session
// cookie is expired.
func (t *Tracker) Commit(w http.ResponseWriter) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, id := range t.stale {
		if err := t.m.store.Delete(id); err != nil {
			return err
		}
	}
	t.stale = nil

	if t.current != nil {
		return t.m.SaveSession(w, t.current)
	}

	if t.requestedInvalidated {
		return t.m.DeleteSession(w, t.requestedID)
	}
	return nil
}

func (t *Tracker) load() {
	if t.loaded {
		return
	}
	t.loaded = true
	t.requestedID = t.m.RequestedSessionID(t.r)
	if ess.IsStrEmpty(t.requestedID) {
		return
	}

	s, err := t.m.load(t.requestedID)
	if err != nil {
		if err != ErrSessionNotFound {
			log.Errorf("session: unable to read session '%s': %v", t.requestedID, err)
		}
		return
	}
	t.requested = s
	t.current = s
}
