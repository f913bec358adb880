// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

// Package security orchestrates the configured authentication schemes over
// the HTTP session: the scheme registry, the authentication filter, the
// cookie clearing filter and the session lifecycle listener.
package security

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"aahframe.work/authn/ahttp"
	"aahframe.work/authn/config"
	"aahframe.work/authn/essentials"
	"aahframe.work/authn/log"
	"aahframe.work/authn/security/audit"
	"aahframe.work/authn/security/authc"
	"aahframe.work/authn/security/session"
)

// RedirectURLAttribute is the HTTP session attribute holding the URL
// requested before the challenge, user is sent back there after login.
const RedirectURLAttribute = "authentication.redirectURL"

// ErrSessionManagerIsNil returned by `NewManager`.
var ErrSessionManagerIsNil = errors.New("security: session manager is nil")

// ErrorHandlerFunc writes the response for a failed authentication.
type ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err *authc.Error)

// Options are the orchestrator settings of the `authentication` section.
type Options struct {
	RestartOnFailure bool
	WhiteList        []string
	WWWAuthenticate  string
}

// Outcome is the result of one `Manager.Authenticate` run.
type Outcome struct {
	State        State
	Scheme       string
	ChallengeURL string
	User         *authc.User
}

// IsAuthenticated method returns true when all the factors are satisfied.
func (o *Outcome) IsAuthenticated() bool {
	return o != nil && o.State == StateAuthenticated
}

type snapshot struct {
	registry *Registry
	opts     Options
}

// Manager drives the schemes for each request. Configuration is held in an
// immutable snapshot, `Reload` swaps it for the requests to come.
type Manager struct {
	// ErrorHandler writes the response on authentication error, by
	// default `DefaultErrorHandler`.
	ErrorHandler ErrorHandlerFunc

	// Metrics is nil safe, counters are skipped when nil.
	Metrics *Metrics

	sessions      *session.Manager
	collaborators Collaborators
	auditSink     audit.Sink
	cookieFilter  *CookieClearingFilter
	current       atomic.Value
}

// NewManager method creates the authentication manager from config. Audit
// events go to the logger unless `Collaborators.AuditSink` is set.
func NewManager(cfg *config.Config, sm *session.Manager, c Collaborators) (*Manager, error) {
	if sm == nil {
		return nil, ErrSessionManagerIsNil
	}
	if c.AuditSink == nil {
		c.AuditSink = audit.NewLoggerSink(log.DefaultLogger())
	}

	m := &Manager{
		ErrorHandler:  DefaultErrorHandler,
		Metrics:       NewMetrics(),
		sessions:      sm,
		collaborators: c,
		auditSink:     c.AuditSink,
	}
	if err := m.Reload(cfg); err != nil {
		return nil, err
	}

	m.cookieFilter = NewCookieClearingFilter(cfg, sm)
	m.cookieFilter.metrics = m.Metrics
	sm.AddListener(NewSessionListener(c.AuditSink))
	return m, nil
}

// Reload method builds the registry from given config and swaps it in
// atomically. Requests in flight keep using the previous snapshot, on
// error the current snapshot stays.
func (m *Manager) Reload(cfg *config.Config) error {
	registry, err := NewRegistry(cfg, m.collaborators)
	if err != nil {
		return err
	}

	whiteList, _ := cfg.StringList("authentication.white_list")
	m.current.Store(&snapshot{
		registry: registry,
		opts: Options{
			RestartOnFailure: cfg.BoolDefault("authentication.restart_on_failure", true),
			WhiteList:        ess.UniqueStrings(whiteList),
			WWWAuthenticate:  cfg.StringDefault("authentication.www_authenticate", `Basic realm="authn"`),
		},
	})
	log.Infof("security: authentication configured, primary '%s' secondaries %v", registry.Primary().ID, registry.SecondaryIDs())
	return nil
}

// Registry method returns the current scheme registry.
func (m *Manager) Registry() *Registry {
	return m.snapshot().registry
}

// Options method returns the current orchestrator options.
func (m *Manager) Options() Options {
	return m.snapshot().opts
}

// SessionManager method returns the HTTP session manager.
func (m *Manager) SessionManager() *session.Manager {
	return m.sessions
}

// Handler method returns the complete filter chain around next, the
// session middleware is outermost so its commit hook runs last.
func (m *Manager) Handler(next http.Handler) http.Handler {
	return m.sessions.Middleware(m.cookieFilter.Wrap(m.Filter(next)))
}

// Authenticate method advances the authentication of the session as far as
// the request allows. It returns the challenge outcome when a scheme needs
// credentials not present in the request.
func (m *Manager) Authenticate(as *authc.Session) (*Outcome, error) {
	return m.authenticate(m.snapshot(), as)
}

// Logout method invalidates the HTTP session of the request.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) error {
	as, err := authc.SessionFromRequest(w, r)
	if err != nil {
		return err
	}
	if u := as.AuthenticatedUser(); u != nil {
		m.audit(audit.Logout, audit.Payload("username", u.Username))
	}
	as.Invalidate()
	return nil
}

// Filter method returns the authentication filter. It has to run within
// the session middleware, see `Manager.Handler`.
func (m *Manager) Filter(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap := m.snapshot()
		if snap.isWhiteListed(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		as, err := authc.SessionFromRequest(w, r)
		if err != nil {
			m.ErrorHandler(w, r, authc.NewConfigError("", err))
			return
		}
		if as.IsUserAuthenticated() {
			next.ServeHTTP(w, r)
			return
		}

		out, err := m.authenticate(snap, as)
		if err != nil {
			m.ErrorHandler(w, r, authc.AsError(out.Scheme, err))
			return
		}

		if out.IsAuthenticated() {
			if target := popRedirectURL(as); len(target) > 0 && target != ahttp.RequestURI(r) {
				log.Debugf("security: redirecting to %s after login", target)
				http.Redirect(w, r, target, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		if len(out.ChallengeURL) > 0 && challengePath(out.ChallengeURL) == r.URL.Path {
			next.ServeHTTP(w, r)
			return
		}

		if as.IsAPIRequest() || len(out.ChallengeURL) == 0 {
			w.Header().Set(ahttp.HeaderWWWAuthenticate, snap.opts.WWWAuthenticate)
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		if r.Method == http.MethodGet {
			as.SetHTTPSessionAttribute(RedirectURLAttribute, ahttp.RequestURI(r))
		}
		http.Redirect(w, r, out.ChallengeURL, http.StatusFound)
	})
}

// DefaultErrorHandler method maps the error kind to the response status.
// Verification failures get a generic message.
func DefaultErrorHandler(w http.ResponseWriter, r *http.Request, err *authc.Error) {
	code := http.StatusUnauthorized
	switch {
	case errors.Is(err, authc.ErrAuthenticationFailed):
	case errors.Is(err, authc.ErrMalformedRequest):
		code = http.StatusBadRequest
	case errors.Is(err, authc.ErrPolicyViolation):
		code = http.StatusForbidden
	case errors.Is(err, authc.ErrConfig):
		code = http.StatusInternalServerError
	}

	if code == http.StatusInternalServerError {
		log.Errorf("security: %v", err)
	} else {
		log.Debugf("security: %v", err)
	}
	http.Error(w, http.StatusText(code), code)
}

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// Unexported methods
//___________________________________

func (m *Manager) snapshot() *snapshot {
	return m.current.Load().(*snapshot)
}

func (m *Manager) authenticate(snap *snapshot, as *authc.Session) (*Outcome, error) {
	if as.IsUserAuthenticated() {
		return &Outcome{State: StateAuthenticated, User: as.AuthenticatedUser()}, nil
	}

	ctx := as.Context()
	for {
		entry, state := snap.registry.Next(ctx)
		if entry == nil {
			u := ctx.CandidateUser()
			ctx.Reset()
			as.AuthenticationSucceeded(u)
			m.audit(audit.LoginSucceeded, audit.Payload("username", u.Username))
			m.Metrics.login()
			return &Outcome{State: StateAuthenticated, User: u}, nil
		}

		sc := entry.Scheme
		creds, err := sc.Credentials(as)
		if err != nil {
			return m.failed(snap, as, entry.ID, nil, err)
		}
		if creds == nil {
			if err = m.persist(as, ctx); err != nil {
				return &Outcome{State: StateRejected, Scheme: entry.ID}, authc.NewConfigError(entry.ID, err)
			}
			m.Metrics.challenge(entry.ID)
			return &Outcome{State: state, Scheme: entry.ID, ChallengeURL: sc.ChallengeURL(as)}, nil
		}

		if err = sc.BeforeAuthentication(as); err != nil {
			return m.failed(snap, as, entry.ID, creds, err)
		}

		info, err := sc.Authenticate(creds)
		if err == nil && (info == nil || info.User == nil) {
			err = authc.NewAuthenticationError(entry.ID, errors.New("scheme returned no user"))
		}
		if err != nil {
			return m.failed(snap, as, entry.ID, creds, err)
		}

		if err = ctx.SetCandidateUser(info.User); err != nil {
			return m.failed(snap, as, entry.ID, creds, err)
		}
		m.Metrics.attempt(entry.ID, ResultSuccess)
		m.audit(audit.AuthenticationSucceeded, audit.Payload("scheme", entry.ID, "username", info.User.Username))

		if err = sc.AfterAuthenticationSuccess(as); err != nil {
			return m.failed(snap, as, entry.ID, creds, err)
		}
	}
}

func (m *Manager) failed(snap *snapshot, as *authc.Session, id string, creds authc.Credentials, err error) (*Outcome, error) {
	ae := authc.AsError(id, err)
	ctx := as.Context()

	username := ""
	if u := ctx.CandidateUser(); u != nil {
		username = u.Username
	} else if creds != nil {
		username = creds.ClientName()
	}

	ctx.RemoveCredentials(id)
	if snap.opts.RestartOnFailure || errors.Is(ae, authc.ErrCandidateUserMismatch) {
		ctx.Reset()
	}
	if perr := m.persist(as, ctx); perr != nil {
		log.Errorf("security: unable to persist authentication context: %v", perr)
	}

	m.audit(audit.AuthenticationFailed, audit.Payload("scheme", id, "username", username))
	m.Metrics.attempt(id, ResultFailure)
	log.Debugf("security: authentication failed %v", ae)
	return &Outcome{State: StateRejected, Scheme: id}, ae
}

// persist stores the context unless it is empty and nothing was stored
// before, so anonymous requests do not create sessions.
func (m *Manager) persist(as *authc.Session, ctx *authc.Context) error {
	if ctx.CandidateUser() == nil && len(ctx.CredentialIDs()) == 0 &&
		as.HTTPSessionAttribute(authc.ContextAttribute) == nil {
		return nil
	}
	return as.Persist()
}

func (m *Manager) audit(t audit.EventType, payload string) {
	if m.auditSink != nil {
		m.auditSink.Log(audit.NewEvent(t, payload))
	}
}

func (s *snapshot) isWhiteListed(path string) bool {
	for _, p := range s.opts.WhiteList {
		switch {
		case strings.HasSuffix(p, "*"):
			if strings.HasPrefix(path, strings.TrimSuffix(p, "*")) {
				return true
			}
		case strings.HasPrefix(p, "*"):
			if strings.HasSuffix(path, strings.TrimPrefix(p, "*")) {
				return true
			}
		case p == path:
			return true
		}
	}
	return false
}

func challengePath(challengeURL string) string {
	u, err := url.Parse(challengeURL)
	if err != nil {
		return challengeURL
	}
	return u.Path
}

func popRedirectURL(as *authc.Session) string {
	target, _ := as.HTTPSessionAttribute(RedirectURLAttribute).(string)
	if len(target) > 0 {
		as.RemoveHTTPSessionAttribute(RedirectURLAttribute)
	}
	return target
}
