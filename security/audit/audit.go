// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

// Package audit produces the append-only authentication audit events.
package audit

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"aahframe.work/authn/log"
	"github.com/google/uuid"
)

// EventType is the audit event type.
type EventType string

// Audit event types
const (
	SessionCreated          EventType = "SESSION_CREATED"
	SessionDestroyed        EventType = "SESSION_DESTROYED"
	Username                EventType = "USERNAME"
	AuthenticationSucceeded EventType = "AUTHENTICATION_SUCCEEDED"
	AuthenticationFailed    EventType = "AUTHENTICATION_FAILED"
	LoginSucceeded          EventType = "LOGIN_SUCCEEDED"
	Logout                  EventType = "LOGOUT"
)

var (
	_ Sink = (*LoggerSink)(nil)
	_ Sink = (SinkFunc)(nil)
	_ Sink = (*Recorder)(nil)
)

// Event is one audit record.
type Event struct {
	ID      uuid.UUID
	Type    EventType
	Payload string
	Time    time.Time
}

// NewEvent method returns the event with new ID and current time.
func NewEvent(t EventType, payload string) *Event {
	return &Event{ID: uuid.New(), Type: t, Payload: payload, Time: time.Now().UTC()}
}

// Payload method composes the flat payload from key and value pairs,
// for e.g. Payload("scheme", "basic", "username", "admin") returns
// "scheme=basic, username=admin".
func Payload(kv ...string) string {
	parts := make([]string, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		parts = append(parts, kv[i]+"="+kv[i+1])
	}
	return strings.Join(parts, ", ")
}

// String method is stringer interface implementation.
func (e Event) String() string {
	return fmt.Sprintf("event(id:%s type:%s payload:%s)", e.ID, e.Type, e.Payload)
}

// Sink interface receives the audit events.
type Sink interface {
	Log(e *Event)
}

// SinkFunc type is an adapter to allow the use of ordinary functions
// as audit sink.
type SinkFunc func(e *Event)

// Log method calls f(e).
func (f SinkFunc) Log(e *Event) {
	f(e)
}

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// LoggerSink
//___________________________________

// LoggerSink writes audit events into the logger at INFO level.
type LoggerSink struct {
	logger log.Loggerer
}

// NewLoggerSink method returns the logger sink, nil logger means the
// default logger.
func NewLoggerSink(l log.Loggerer) *LoggerSink {
	if l == nil {
		l = log.DefaultLogger()
	}
	return &LoggerSink{logger: l.WithField("audit", true)}
}

// Log method writes the event.
func (ls *LoggerSink) Log(e *Event) {
	ls.logger.WithFields(log.Fields{
		"event_id":   e.ID.String(),
		"event_type": string(e.Type),
	}).Info(e.Payload)
}

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// Recorder
//___________________________________

// Recorder keeps the events in memory, handy in tests and for the
// demo server.
type Recorder struct {
	mu     sync.Mutex
	events []*Event
}

// Log method records the event.
func (r *Recorder) Log(e *Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events method returns the recorded events.
func (r *Recorder) Events() []*Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Event(nil), r.events...)
}

// Types method returns the recorded event types in order.
func (r *Recorder) Types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]EventType, 0, len(r.events))
	for _, e := range r.events {
		types = append(types, e.Type)
	}
	return types
}
