// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

package security

import (
	"aahframe.work/authn/security/audit"
	"aahframe.work/authn/security/authc"
	"aahframe.work/authn/security/session"
)

var _ session.Listener = (*SessionListener)(nil)

// SessionListener audits the HTTP session lifecycle. A session destroyed
// before it got authenticated loses its authentication state, expired
// sessions are already out of the store and only audited.
type SessionListener struct {
	sink audit.Sink
}

// NewSessionListener method returns the listener logging to given sink.
func NewSessionListener(sink audit.Sink) *SessionListener {
	return &SessionListener{sink: sink}
}

// SessionCreated method is `session.Listener` interface.
func (l *SessionListener) SessionCreated(s *session.Session) {
	l.log(audit.SessionCreated, s)
}

// SessionDestroyed method is `session.Listener` interface.
func (l *SessionListener) SessionDestroyed(s *session.Session) {
	l.log(audit.SessionDestroyed, s)
	if !s.IsAuthenticated && !s.IsExpired() {
		authc.Destroy(s)
	}
}

func (l *SessionListener) log(t audit.EventType, s *session.Session) {
	if l.sink != nil {
		l.sink.Log(audit.NewEvent(t, audit.Payload("httpSessionId", s.ID)))
	}
}
