// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

package session

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Session is the server side HTTP session. Values live only in the
// configured store, the client holds the signed session ID.
type Session struct {
	// ID method return session ID. It is randomly generated value
	// of `security.session.id_length`.
	ID string

	// Values is session values.
	Values map[string]interface{}

	// CreatedTime is session creation time.
	CreatedTime time.Time

	// IsAuthenticated is to indicate that session is authenticated.
	IsAuthenticated bool

	isNew   bool
	expired bool
	mu      sync.RWMutex
}

// Get method returns the value for the given key otherwise nil.
func (s *Session) Get(key string) interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Values[key]
}

// GetString method returns the `string` value for the given key otherwise
// empty string.
func (s *Session) GetString(key string) string {
	if v, ok := s.Get(key).(string); ok {
		return v
	}
	return ""
}

// GetInt method returns the `int` value for the given key otherwise zero.
func (s *Session) GetInt(key string) int {
	if v, ok := s.Get(key).(int); ok {
		return v
	}
	return 0
}

// GetBool method returns the `bool` value for the given key otherwise false.
func (s *Session) GetBool(key string) bool {
	if v, ok := s.Get(key).(bool); ok {
		return v
	}
	return false
}

// GetBytes method returns the `[]byte` value for the given key otherwise nil.
func (s *Session) GetBytes(key string) []byte {
	if v, ok := s.Get(key).([]byte); ok {
		return v
	}
	return nil
}

// Set method sets the value for the given key.
func (s *Session) Set(key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Values[key] = value
}

// Del method deletes the value for the given key.
func (s *Session) Del(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Values, key)
}

// IsKeyExists method returns true if given key exists in session.
func (s *Session) IsKeyExists(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, found := s.Values[key]
	return found
}

// Keys method returns the session value keys, sorted.
func (s *Session) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.Values))
	for k := range s.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsNew method returns true if the session was created in the current
// request.
func (s *Session) IsNew() bool {
	return s.isNew
}

// IsExpired method returns true if the session was removed from the store
// by cleanup, changes to it are not saved anywhere.
func (s *Session) IsExpired() bool {
	return s.expired
}

// Clear method clears the session values and authenticated flag.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Values = make(map[string]interface{})
	s.IsAuthenticated = false
}

// String method is Stringer interface.
func (s *Session) String() string {
	return fmt.Sprintf("session(id:%s authenticated:%v keys:%v created:%s)",
		s.ID, s.IsAuthenticated, s.Keys(), s.CreatedTime.Format(time.RFC3339))
}
