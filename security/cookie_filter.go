// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

package security

import (
	"net/http"
	"sync"

	"aahframe.work/authn/ahttp"
	"aahframe.work/authn/config"
	"aahframe.work/authn/essentials"
	"aahframe.work/authn/log"
	"aahframe.work/authn/security/session"
)

// CookieClearingFilter expires the configured cookies on the response
// which invalidated the session the request started with.
//
//	authentication {
//	  cookies {
//	    clear_on_logout = true
//	    to_clear = "JSESSIONID, AnotherCookie"
//	  }
//	}
type CookieClearingFilter struct {
	enabled       bool
	names         []string
	sessionCookie string
	path          string
	domain        string
	metrics       *Metrics
}

// NewCookieClearingFilter method creates the filter, the session cookie is
// always part of the cleared names.
func NewCookieClearingFilter(cfg *config.Config, sm *session.Manager) *CookieClearingFilter {
	f := &CookieClearingFilter{
		enabled:       cfg.BoolDefault("authentication.cookies.clear_on_logout", false),
		sessionCookie: sm.CookieName(),
	}
	opts := sm.CookieOptions()
	f.path, f.domain = opts.Path, opts.Domain

	names, _ := cfg.StringList("authentication.cookies.to_clear")
	var trimmed []string
	for _, n := range names {
		trimmed = append(trimmed, ess.SplitTrimmed(n, ",")...)
	}
	f.names = ess.UniqueStrings(append(trimmed, f.sessionCookie))

	if f.enabled {
		log.Debugf("security: cookies %v are cleared on logout", f.names)
	}
	return f
}

// IsEnabled method returns true if the cookies are cleared on logout.
func (f *CookieClearingFilter) IsEnabled() bool {
	return f.enabled
}

// Names method returns the cookie names cleared on logout.
func (f *CookieClearingFilter) Names() []string {
	return f.names
}

// Wrap method returns the filter around next. Disabled filter returns next
// as is. It has to run within the session middleware.
func (f *CookieClearingFilter) Wrap(next http.Handler) http.Handler {
	if !f.enabled {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t := session.FromRequest(r)
		rw, ok := w.(ahttp.ResponseWriter)
		if t == nil || !ok {
			log.Warn("security: cookie clearing filter is not within session middleware")
			next.ServeHTTP(w, r)
			return
		}

		var once sync.Once
		clear := func() { once.Do(func() { f.clear(rw, t) }) }
		rw.BeforeCommit(clear)

		next.ServeHTTP(w, r)
		if !rw.Committed() {
			clear()
		}
	})
}

func (f *CookieClearingFilter) clear(w http.ResponseWriter, t *session.Tracker) {
	if !t.IsRequestedSessionInvalidated() {
		return
	}

	newSessionLive := t.IsNewSessionLive()
	for _, name := range f.names {
		if name == f.sessionCookie && newSessionLive {
			continue
		}
		ahttp.ReplaceCookie(w, ahttp.ExpireCookie(name, f.path, f.domain))
		f.metrics.cookieCleared()
	}
}
