// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

package authc

import (
	"errors"
	"net/http"
	"strings"

	"aahframe.work/authn/ahttp"
	"aahframe.work/authn/log"
	"aahframe.work/authn/security/session"
)

// HTTP session attribute names used by the authentication session.
const (
	ContextAttribute     = "authentication.context"
	UserContextAttribute = "authentication.userContext"

	attachKey = "authc.session"
)

// ErrNoSessionTracker returned when the request did not pass through the
// session middleware.
var ErrNoSessionTracker = errors.New("security/authc: request has no session tracker")

// CookieOptions are applied to the cookies written via
// `Session.SetCookieValue`.
type CookieOptions struct {
	Path     string
	MaxAge   int
	Secure   bool
	HTTPOnly bool
}

// DefaultCookieOptions are used until `Session.SetCookieOptions` is called.
var DefaultCookieOptions = CookieOptions{Path: "/", MaxAge: 0, HTTPOnly: true}

// Session is the request scoped view over the HTTP session, request and
// response used by the schemes. There is exactly one per request.
type Session struct {
	w          http.ResponseWriter
	r          *http.Request
	tracker    *session.Tracker
	ctx        *Context
	cookieOpts CookieOptions
}

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// Package methods
//___________________________________

// SessionFromRequest method returns the authentication session of the
// request, it is created on first call and cached on the session tracker.
func SessionFromRequest(w http.ResponseWriter, r *http.Request) (*Session, error) {
	t := session.FromRequest(r)
	if t == nil {
		return nil, ErrNoSessionTracker
	}
	if s, ok := t.Attached(attachKey).(*Session); ok {
		return s, nil
	}

	s := &Session{w: w, r: r, tracker: t, cookieOpts: DefaultCookieOptions}
	t.Attach(attachKey, s)
	return s, nil
}

// Destroy method removes the authentication state from the HTTP session.
func Destroy(s *session.Session) {
	if s == nil {
		return
	}
	s.Del(ContextAttribute)
	s.Del(UserContextAttribute)
}

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// Session methods
//___________________________________

// Request method returns the HTTP request.
func (s *Session) Request() *http.Request {
	return s.r
}

// ResponseWriter method returns the HTTP response writer.
func (s *Session) ResponseWriter() http.ResponseWriter {
	return s.w
}

// Tracker method returns the HTTP session tracker of the request.
func (s *Session) Tracker() *session.Tracker {
	return s.tracker
}

// SetCookieOptions method sets the options used by `SetCookieValue`.
func (s *Session) SetCookieOptions(opts CookieOptions) {
	s.cookieOpts = opts
}

// RequestParam method returns the request query or form parameter value.
func (s *Session) RequestParam(name string) string {
	return s.r.FormValue(name)
}

// RequestHeader method returns the request header value.
func (s *Session) RequestHeader(name string) string {
	return s.r.Header.Get(name)
}

// IsAPIRequest method returns true if the request carries the
// `Authorization` header.
func (s *Session) IsAPIRequest() bool {
	return len(strings.TrimSpace(s.r.Header.Get(ahttp.HeaderAuthorization))) > 0
}

// HTTPSessionAttribute method returns the HTTP session attribute value,
// nil if there is no session.
func (s *Session) HTTPSessionAttribute(name string) interface{} {
	if hs := s.tracker.Session(false); hs != nil {
		return hs.Get(name)
	}
	return nil
}

// SetHTTPSessionAttribute method sets the HTTP session attribute, session
// is created if needed.
func (s *Session) SetHTTPSessionAttribute(name string, value interface{}) {
	s.tracker.Session(true).Set(name, value)
}

// RemoveHTTPSessionAttribute method removes the HTTP session attribute.
func (s *Session) RemoveHTTPSessionAttribute(name string) {
	if hs := s.tracker.Session(false); hs != nil {
		hs.Del(name)
	}
}

// CookieValue method returns the request cookie value.
func (s *Session) CookieValue(name string) string {
	if c, err := s.r.Cookie(name); err == nil {
		return c.Value
	}
	return ""
}

// SetCookieValue method writes the cookie with the session cookie options.
func (s *Session) SetCookieValue(name, value string) {
	ahttp.ReplaceCookie(s.w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     s.cookieOpts.Path,
		MaxAge:   s.cookieOpts.MaxAge,
		Secure:   s.cookieOpts.Secure,
		HttpOnly: s.cookieOpts.HTTPOnly,
	})
}

// UserContext method returns the user context of the HTTP session, it is
// created on first use.
func (s *Session) UserContext() *UserContext {
	if uc, ok := s.HTTPSessionAttribute(UserContextAttribute).(*UserContext); ok {
		return uc
	}
	uc := &UserContext{}
	s.SetHTTPSessionAttribute(UserContextAttribute, uc)
	return uc
}

// Context method returns the authentication context, it is decoded from
// the HTTP session on first use or created empty.
func (s *Session) Context() *Context {
	if s.ctx != nil {
		return s.ctx
	}

	s.ctx = NewContext()
	if b, ok := s.HTTPSessionAttribute(ContextAttribute).([]byte); ok {
		if err := s.ctx.UnmarshalBinary(b); err != nil {
			log.Warnf("authc: discarding unreadable authentication context: %v", err)
			s.ctx = NewContext()
		}
	}
	return s.ctx
}

// Persist method writes the whole authentication context into the HTTP
// session, replacing the previous value.
func (s *Session) Persist() error {
	b, err := s.Context().MarshalBinary()
	if err != nil {
		return err
	}
	s.SetHTTPSessionAttribute(ContextAttribute, b)
	return nil
}

// AuthenticationSucceeded method marks the HTTP session authenticated for
// the given user. Authentication context is discarded and session ID is
// rotated.
func (s *Session) AuthenticationSucceeded(u *User) {
	hs := s.tracker.Session(true)
	hs.IsAuthenticated = true
	s.UserContext().User = u
	hs.Del(ContextAttribute)
	s.ctx = nil
	s.tracker.Renew()
}

// IsUserAuthenticated method returns true if the HTTP session is
// authenticated.
func (s *Session) IsUserAuthenticated() bool {
	hs := s.tracker.Session(false)
	if hs == nil || !hs.IsAuthenticated {
		return false
	}
	uc, ok := hs.Get(UserContextAttribute).(*UserContext)
	return ok && uc.User != nil
}

// AuthenticatedUser method returns the authenticated user otherwise nil.
func (s *Session) AuthenticatedUser() *User {
	if !s.IsUserAuthenticated() {
		return nil
	}
	return s.UserContext().User
}

// Destroy method clears the authentication context and user context.
func (s *Session) Destroy() {
	s.ctx = nil
	Destroy(s.tracker.Session(false))
}

// Invalidate method invalidates the HTTP session.
func (s *Session) Invalidate() {
	s.ctx = nil
	s.tracker.Invalidate()
}
