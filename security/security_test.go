// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

package security

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"aahframe.work/authn/config"
	"aahframe.work/authn/location"
	"aahframe.work/authn/security/audit"
	"aahframe.work/authn/security/authc"
	"aahframe.work/authn/security/session"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/publicsuffix"
)

const testSecurityConfig = `
authentication {
  order = ["basic", "totp"]
  white_list = ["/static/*", "*.css", "/favicon.ico"]
  schemes {
    basic {
      type = "basic_location"
      primary = true
      config {
        login_page = "/login.htm"
        location_required = true
      }
    }
    totp {
      type = "token"
      after = ["basic"]
      config {
        login_page = "/token.htm"
      }
    }
  }
  cookies {
    clear_on_logout = true
    to_clear = "JSESSIONID, AnotherCookie"
  }
}
security {
  session {
    cookie_name = "JSESSIONID"
    sign_key = "eFWLXEewECptbDVXExokRTLONWxrTjfV"
  }
}
`

var (
	testAdmin = &authc.User{ID: 1, Username: "admin"}
	testNurse = &authc.User{ID: 2, Username: "nurse", Properties: map[string]string{SecondaryTypeProperty: "sms"}}
)

type testUsers struct{}

func (testUsers) VerifyPassword(username, password string) (*authc.User, error) {
	switch {
	case username == "admin" && password == "Admin123":
		return testAdmin, nil
	case username == "nurse" && password == "Nurse123":
		return testNurse, nil
	}
	return nil, errors.New("invalid username or password")
}

func (testUsers) VerifyToken(enrolled *authc.User, token string) (*authc.User, error) {
	switch {
	case token == "123456":
		return enrolled, nil
	case token == "nurse-token":
		return testNurse, nil
	}
	return nil, errors.New("invalid token")
}

func testCollaborators(t *testing.T, sink audit.Sink) Collaborators {
	d, err := location.NewDirectory(
		&location.Location{ID: 1, UUID: "8d6c993e-c2cc-11de-8d13-0010c6dffd0f", Name: "Unknown Location"},
		&location.Location{ID: 2, UUID: "aff27d58-a15c-49a6-9beb-d30dcfc0c66e", Name: "Amani Hospital"},
	)
	require.Nil(t, err)
	return Collaborators{
		Verifier:      testUsers{},
		TokenVerifier: testUsers{},
		Locations:     d,
		AuditSink:     sink,
	}
}

func parseConfig(t *testing.T, cfgStr string) *config.Config {
	cfg, err := config.ParseString(cfgStr)
	require.Nil(t, err)
	return cfg
}

func createTestManager(t *testing.T, cfgStr string, sink audit.Sink) *Manager {
	cfg := parseConfig(t, cfgStr)
	sm, err := session.NewManager(cfg)
	require.Nil(t, err)
	m, err := NewManager(cfg, sm, testCollaborators(t, sink))
	require.Nil(t, err)
	return m
}

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// Registry
//___________________________________

func TestRegistry(t *testing.T) {
	r, err := NewRegistry(parseConfig(t, testSecurityConfig), testCollaborators(t, nil))
	require.Nil(t, err)
	assert.Equal(t, "basic", r.Primary().ID)
	assert.Equal(t, []string{"totp"}, r.SecondaryIDs())
	assert.Equal(t, "token", r.Entry("totp").Type)
	assert.Nil(t, r.Entry("nope"))

	ctx := authc.NewContext()
	e, state := r.Next(ctx)
	assert.Equal(t, "basic", e.ID)
	assert.Equal(t, StateNoContext, state)

	ctx.AddCredentials(authc.NewBasicCredentials("basic", "admin", "Admin123"))
	e, state = r.Next(ctx)
	assert.Equal(t, "basic", e.ID)
	assert.Equal(t, StatePrimaryPending, state)

	require.Nil(t, ctx.SetCandidateUser(testAdmin))
	e, state = r.Next(ctx)
	assert.Equal(t, "totp", e.ID)
	assert.Equal(t, StatePrimarySatisfied, state)
	assert.Equal(t, "primary_satisfied", state.String())

	ctx.AddCredentials(authc.NewTokenCredentials("totp", testAdmin, "123456"))
	e, state = r.Next(ctx)
	assert.Nil(t, e)
	assert.Equal(t, StateAuthenticated, state)
	assert.Equal(t, "state(42)", State(42).String())
}

func TestRegistryOptionalSecondary(t *testing.T) {
	r, err := NewRegistry(parseConfig(t, `
	authentication {
	  order = ["basic", "totp", "sms"]
	  schemes {
	    basic {
	      type = "basic"
	      primary = true
	    }
	    totp {
	      type = "token"
	      optional = true
	    }
	    sms {
	      type = "token"
	      optional = true
	      config {
	        login_page = "/sms.htm"
	      }
	    }
	    legacy {
	      type = "token"
	      after = ["ldap"]
	    }
	  }
	}`), testCollaborators(t, nil))
	require.Nil(t, err)

	// skipped as it applies only after 'ldap'
	assert.Equal(t, []string{"totp", "sms"}, r.SecondaryIDs())
	assert.Nil(t, r.Entry("legacy"))

	ctx := authc.NewContext()
	require.Nil(t, ctx.SetCandidateUser(testAdmin))
	e, state := r.Next(ctx)
	assert.Nil(t, e)
	assert.Equal(t, StateAuthenticated, state)

	ctx.Reset()
	require.Nil(t, ctx.SetCandidateUser(testNurse))
	e, state = r.Next(ctx)
	assert.Equal(t, "sms", e.ID)
	assert.Equal(t, StatePrimarySatisfied, state)
}

func TestRegistryErrors(t *testing.T) {
	testcases := []struct {
		label string
		cfg   string
		msg   string
	}{
		{
			label: "no schemes",
			cfg:   `authentication { }`,
			msg:   "'authentication.schemes' is not configured",
		},
		{
			label: "unknown type",
			cfg:   `authentication { schemes { basic { type = "ldap"; primary = true } } }`,
			msg:   "security/scheme: unknown type 'ldap'",
		},
		{
			label: "missing type",
			cfg:   `authentication { schemes { basic { primary = true } } }`,
			msg:   "type",
		},
		{
			label: "missing primary",
			cfg:   `authentication { schemes { basic { type = "basic" } } }`,
			msg:   "primary scheme is not configured",
		},
		{
			label: "two primaries",
			cfg: `authentication {
			  schemes {
			    a {
			      type = "basic"
			      primary = true
			    }
			    b {
			      type = "basic"
			      primary = true
			    }
			  }
			}`,
			msg: "more than one primary scheme, 'a' and 'b'",
		},
		{
			label: "unknown order id",
			cfg:   `authentication { order = ["basic", "otp"]; schemes { basic { type = "basic"; primary = true } } }`,
			msg:   "'authentication.order' has unknown scheme 'otp'",
		},
		{
			label: "configure failure",
			cfg: `authentication {
			  schemes {
			    basic {
			      type = "basic"
			      primary = true
			      config {
			        login_page = "login.htm"
			      }
			    }
			  }
			}`,
			msg: "login_page",
		},
	}

	for _, tc := range testcases {
		t.Run(tc.label, func(t *testing.T) {
			_, err := NewRegistry(parseConfig(t, tc.cfg), testCollaborators(t, nil))
			require.NotNil(t, err)
			assert.True(t, errors.Is(err, authc.ErrConfig), err.Error())
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// Manager
//___________________________________

type testClient struct {
	t  *testing.T
	ts *httptest.Server
	c  *http.Client
}

func newTestClient(t *testing.T, h http.Handler) *testClient {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	require.Nil(t, err)
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return &testClient{t: t, ts: ts, c: &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}}
}

func (tc *testClient) get(path string) (*http.Response, string) {
	resp, err := tc.c.Get(tc.ts.URL + path)
	require.Nil(tc.t, err)
	return tc.read(resp)
}

func (tc *testClient) post(path string, values url.Values) (*http.Response, string) {
	resp, err := tc.c.PostForm(tc.ts.URL+path, values)
	require.Nil(tc.t, err)
	return tc.read(resp)
}

func (tc *testClient) read(resp *http.Response) (*http.Response, string) {
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.Nil(tc.t, err)
	return resp, string(b)
}

func (tc *testClient) cookie(name string) string {
	u, _ := url.Parse(tc.ts.URL)
	for _, c := range tc.c.Jar.Cookies(u) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func testApp(m *Manager) http.Handler {
	mux := http.NewServeMux()
	page := func(name string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			_, _ = fmt.Fprint(w, name)
		}
	}
	mux.HandleFunc("/login.htm", page("login page"))
	mux.HandleFunc("/token.htm", page("token page"))
	mux.HandleFunc("/static/app.js", page("app.js"))
	mux.HandleFunc("/patients", func(w http.ResponseWriter, r *http.Request) {
		as, _ := authc.SessionFromRequest(w, r)
		uc := as.UserContext()
		_, _ = fmt.Fprintf(w, "patients of %s at %s", uc.User.Username, uc.Location.Name)
	})
	mux.HandleFunc("/logout", func(w http.ResponseWriter, r *http.Request) {
		_ = m.Logout(w, r)
		_, _ = fmt.Fprint(w, "bye")
	})
	return m.Handler(mux)
}

func TestManagerLoginFlow(t *testing.T) {
	rec := &audit.Recorder{}
	m := createTestManager(t, testSecurityConfig, rec)
	tc := newTestClient(t, testApp(m))

	resp, _ := tc.get("/static/app.js")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Cookies())

	resp, _ = tc.get("/patients")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login.htm", resp.Header.Get("Location"))
	assert.NotEmpty(t, tc.cookie("JSESSIONID"))

	resp, body := tc.get("/login.htm")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "login page", body)

	// location is required
	resp, _ = tc.post("/login.htm", url.Values{"username": {"admin"}, "password": {"Admin123"}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = tc.post("/login.htm", url.Values{"username": {"admin"}, "password": {"wrong"}, "sessionLocation": {"2"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = tc.post("/login.htm", url.Values{"username": {"admin"}, "password": {"Admin123"}, "sessionLocation": {"2"}})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/token.htm", resp.Header.Get("Location"))
	assert.Equal(t, "2", tc.cookie("emr.lastSessionLocation"))
	preLoginSession := tc.cookie("JSESSIONID")

	resp, body = tc.get("/token.htm")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "token page", body)

	resp, _ = tc.post("/token.htm", url.Values{"token": {"123456"}})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/patients", resp.Header.Get("Location"))
	assert.NotEqual(t, preLoginSession, tc.cookie("JSESSIONID"), "session id is rotated on login")

	resp, body = tc.get("/patients")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "patients of admin at Amani Hospital", body)

	resp, body = tc.get("/logout")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "bye", body)
	cleared := map[string]int{}
	for _, c := range resp.Cookies() {
		cleared[c.Name]++
		assert.True(t, c.MaxAge < 0, c.Name)
	}
	assert.Equal(t, map[string]int{"JSESSIONID": 1, "AnotherCookie": 1}, cleared)
	assert.Empty(t, tc.cookie("JSESSIONID"))

	resp, _ = tc.get("/patients")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login.htm", resp.Header.Get("Location"))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Metrics.logins))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.Metrics.clearedCookies))
	// missing location and wrong password
	assert.Equal(t, float64(2), testutil.ToFloat64(m.Metrics.attempts.WithLabelValues("basic", ResultFailure)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Metrics.attempts.WithLabelValues("totp", ResultSuccess)))

	types := rec.Types()
	assert.Contains(t, types, audit.SessionCreated)
	assert.Contains(t, types, audit.Username)
	assert.Contains(t, types, audit.AuthenticationFailed)
	assert.Contains(t, types, audit.LoginSucceeded)
	assert.Contains(t, types, audit.Logout)
	assert.Contains(t, types, audit.SessionDestroyed)
}

func TestManagerAPIRequest(t *testing.T) {
	m := createTestManager(t, testSecurityConfig, &audit.Recorder{})
	tc := newTestClient(t, testApp(m))

	req, _ := http.NewRequest(http.MethodGet, tc.ts.URL+"/patients", nil)
	req.Header.Set("Authorization", "Bearer unknown")
	resp, err := tc.c.Do(req)
	require.Nil(t, err)
	resp, _ = tc.read(resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, `Basic realm="authn"`, resp.Header.Get("WWW-Authenticate"))
}

func TestManagerRestartOnFailure(t *testing.T) {
	testcases := []struct {
		label   string
		restart bool
		next    string
	}{
		{label: "restart", restart: true, next: "/login.htm"},
		{label: "keep primary", restart: false, next: "/token.htm"},
	}

	for _, c := range testcases {
		t.Run(c.label, func(t *testing.T) {
			cfgStr := strings.Replace(testSecurityConfig, "order = [", fmt.Sprintf("restart_on_failure = %v\n  order = [", c.restart), 1)
			m := createTestManager(t, cfgStr, &audit.Recorder{})
			assert.Equal(t, c.restart, m.Options().RestartOnFailure)
			tc := newTestClient(t, testApp(m))

			resp, _ := tc.post("/login.htm", url.Values{"username": {"admin"}, "password": {"Admin123"}, "sessionLocation": {"1"}})
			assert.Equal(t, "/token.htm", resp.Header.Get("Location"))

			resp, _ = tc.post("/token.htm", url.Values{"token": {"000000"}})
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

			resp, _ = tc.get("/patients")
			assert.Equal(t, http.StatusFound, resp.StatusCode)
			assert.Equal(t, c.next, resp.Header.Get("Location"))
		})
	}
}

func TestManagerCandidateMismatch(t *testing.T) {
	cfgStr := strings.Replace(testSecurityConfig, "order = [", "restart_on_failure = false\n  order = [", 1)
	m := createTestManager(t, cfgStr, &audit.Recorder{})
	tc := newTestClient(t, testApp(m))

	resp, _ := tc.post("/login.htm", url.Values{"username": {"admin"}, "password": {"Admin123"}, "sessionLocation": {"1"}})
	assert.Equal(t, "/token.htm", resp.Header.Get("Location"))

	// token resolves to another user, context is reset even without restart
	resp, _ = tc.post("/token.htm", url.Values{"token": {"nurse-token"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = tc.get("/patients")
	assert.Equal(t, "/login.htm", resp.Header.Get("Location"))
}

func TestManagerAuthenticateOutcome(t *testing.T) {
	m := createTestManager(t, testSecurityConfig, &audit.Recorder{})

	var out *Outcome
	var err error
	h := m.SessionManager().Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		as, aerr := authc.SessionFromRequest(w, r)
		require.Nil(t, aerr)
		out, err = m.Authenticate(as)
	}))

	r := httptest.NewRequest(http.MethodGet, "/patients", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Nil(t, err)
	assert.Equal(t, StateNoContext, out.State)
	assert.Equal(t, "basic", out.Scheme)
	assert.Equal(t, "/login.htm", out.ChallengeURL)
	assert.False(t, out.IsAuthenticated())
	// anonymous challenge creates no session
	assert.Empty(t, w.Header().Values("Set-Cookie"))

	r = httptest.NewRequest(http.MethodPost, "/login.htm", strings.NewReader("username=admin&password=Admin123&sessionLocation=9"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	h.ServeHTTP(httptest.NewRecorder(), r)
	assert.True(t, errors.Is(err, authc.ErrMalformedRequest))
	assert.Equal(t, StateRejected, out.State)

	r = httptest.NewRequest(http.MethodPost, "/login.htm", strings.NewReader("username=admin&password=Admin123&sessionLocation=2"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	h.ServeHTTP(httptest.NewRecorder(), r)
	assert.Nil(t, err)
	assert.Equal(t, StatePrimarySatisfied, out.State)
	assert.Equal(t, "totp", out.Scheme)
	assert.Equal(t, "/token.htm", out.ChallengeURL)
}

func TestManagerReload(t *testing.T) {
	m := createTestManager(t, testSecurityConfig, &audit.Recorder{})
	before := m.Registry()
	assert.Equal(t, []string{"totp"}, before.SecondaryIDs())

	err := m.Reload(parseConfig(t, `authentication { schemes { basic { type = "nope"; primary = true } } }`))
	assert.True(t, errors.Is(err, authc.ErrConfig))
	assert.Same(t, before, m.Registry())

	require.Nil(t, m.Reload(parseConfig(t, `authentication { schemes { basic { type = "basic"; primary = true } } }`)))
	assert.NotSame(t, before, m.Registry())
	assert.Empty(t, m.Registry().SecondaryIDs())
	assert.Equal(t, "basic", before.Primary().ID)

	_, err = NewManager(parseConfig(t, testSecurityConfig), nil, Collaborators{})
	assert.Equal(t, ErrSessionManagerIsNil, err)
}

func TestManagerWhiteList(t *testing.T) {
	snap := &snapshot{opts: Options{WhiteList: []string{"/static/*", "*.css", "/favicon.ico"}}}
	for path, expected := range map[string]bool{
		"/static/js/app.js": true,
		"/theme/site.css":   true,
		"/favicon.ico":      true,
		"/favicon.ico/x":    false,
		"/patients":         false,
		"/login.htm":        false,
	} {
		assert.Equal(t, expected, snap.isWhiteListed(path), path)
	}
}

func TestDefaultErrorHandler(t *testing.T) {
	for kind, code := range map[error]int{
		authc.ErrAuthenticationFailed:  http.StatusUnauthorized,
		authc.ErrCandidateUserMismatch: http.StatusUnauthorized,
		authc.ErrMalformedRequest:      http.StatusBadRequest,
		authc.ErrPolicyViolation:       http.StatusForbidden,
		authc.ErrConfig:                http.StatusInternalServerError,
	} {
		w := httptest.NewRecorder()
		DefaultErrorHandler(w, httptest.NewRequest(http.MethodGet, "/", nil), &authc.Error{Kind: kind, Err: errors.New("no such user")})
		assert.Equal(t, code, w.Code, kind.Error())
		assert.NotContains(t, w.Body.String(), "no such user")
	}
}

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// Cookie clearing filter and session listener
//___________________________________

type passThroughHandler struct{ called bool }

type destroyedSessions struct{ sessions []*session.Session }

func (d *destroyedSessions) SessionCreated(_ *session.Session) {}

func (d *destroyedSessions) SessionDestroyed(s *session.Session) {
	d.sessions = append(d.sessions, s)
}

func (h *passThroughHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
}

func TestCookieClearingFilter(t *testing.T) {
	const sessionCfg = `
security {
  session {
    cookie_name = "JSESSIONID"
    sign_key = "eFWLXEewECptbDVXExokRTLONWxrTjfV"
  }
}
`
	invalidate := func(w http.ResponseWriter, r *http.Request) {
		session.FromRequest(r).Invalidate()
	}
	create := func(w http.ResponseWriter, r *http.Request) {
		session.FromRequest(r).Session(true).Set("visited", true)
	}
	invalidateAndCreate := func(w http.ResponseWriter, r *http.Request) {
		tr := session.FromRequest(r)
		tr.Invalidate()
		tr.Session(true).Set("visited", true)
	}

	testcases := []struct {
		label       string
		cookies     string
		withSession bool
		handler     http.HandlerFunc
		expired     map[string]bool
		cleared     float64
	}{
		{
			label:       "names are trimmed",
			cookies:     "clear_on_logout = true\nto_clear = \" JSESSIONID \t,     AnotherCookie     \"",
			withSession: true,
			handler:     invalidate,
			expired:     map[string]bool{"JSESSIONID": true, "AnotherCookie": true},
			cleared:     2,
		},
		{
			label:       "disabled",
			cookies:     "clear_on_logout = false\nto_clear = \"JSESSIONID, AnotherCookie\"",
			withSession: true,
			handler:     invalidate,
			expired:     map[string]bool{"JSESSIONID": true},
		},
		{
			label:   "new session without invalidation",
			cookies: "clear_on_logout = true\nto_clear = \"JSESSIONID, AnotherCookie\"",
			handler: create,
			expired: map[string]bool{"JSESSIONID": false},
		},
		{
			label:       "new session after invalidation",
			cookies:     "clear_on_logout = true\nto_clear = \"JSESSIONID, AnotherCookie\"",
			withSession: true,
			handler:     invalidateAndCreate,
			expired:     map[string]bool{"JSESSIONID": false, "AnotherCookie": true},
			cleared:     1,
		},
	}

	for _, tc := range testcases {
		t.Run(tc.label, func(t *testing.T) {
			cfg := parseConfig(t, sessionCfg+"authentication {\n  cookies {\n"+tc.cookies+"\n  }\n}\n")
			sm, err := session.NewManager(cfg)
			require.Nil(t, err)
			f := NewCookieClearingFilter(cfg, sm)
			f.metrics = NewMetrics()

			req := httptest.NewRequest(http.MethodGet, "/logout", nil)
			if tc.withSession {
				w := httptest.NewRecorder()
				sm.Middleware(http.HandlerFunc(create)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
				cookies := w.Result().Cookies()
				require.Len(t, cookies, 1)
				req.AddCookie(cookies[0])
			}

			w := httptest.NewRecorder()
			sm.Middleware(f.Wrap(tc.handler)).ServeHTTP(w, req)

			cookies := w.Result().Cookies()
			require.Len(t, cookies, len(tc.expired))
			for _, c := range cookies {
				expired, found := tc.expired[c.Name]
				require.True(t, found, c.Name)
				if expired {
					assert.True(t, c.MaxAge < 0, c.Name)
				} else {
					assert.True(t, c.MaxAge > 0, c.Name)
				}
			}
			assert.Equal(t, tc.cleared, testutil.ToFloat64(f.metrics.clearedCookies))
		})
	}

	// disabled filter is not in the chain at all
	cfg := parseConfig(t, sessionCfg+"authentication { cookies { clear_on_logout = false } }")
	sm, err := session.NewManager(cfg)
	require.Nil(t, err)
	f := NewCookieClearingFilter(cfg, sm)
	assert.False(t, f.IsEnabled())
	assert.Equal(t, []string{"JSESSIONID"}, f.Names())

	next := &passThroughHandler{}
	assert.Same(t, next, f.Wrap(next))
	w := httptest.NewRecorder()
	f.Wrap(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/logout", nil))
	assert.True(t, next.called)
	assert.Empty(t, w.Header().Values("Set-Cookie"))
}

func TestSessionListenerDestroyed(t *testing.T) {
	newSession := func(authenticated bool) *session.Session {
		s := &session.Session{ID: "c2FtcGxl", Values: make(map[string]interface{}), IsAuthenticated: authenticated}
		s.Set(authc.ContextAttribute, []byte{0x0a, 0x0b})
		s.Set(authc.UserContextAttribute, []byte{0x0c})
		return s
	}

	rec := &audit.Recorder{}
	l := NewSessionListener(rec)

	authenticated := newSession(true)
	l.SessionDestroyed(authenticated)
	assert.True(t, authenticated.IsKeyExists(authc.ContextAttribute))
	assert.Equal(t, []byte{0x0a, 0x0b}, authenticated.Get(authc.ContextAttribute))

	anonymous := newSession(false)
	l.SessionDestroyed(anonymous)
	assert.False(t, anonymous.IsKeyExists(authc.ContextAttribute))
	assert.False(t, anonymous.IsKeyExists(authc.UserContextAttribute))

	l.SessionCreated(anonymous)
	assert.Equal(t, []audit.EventType{audit.SessionDestroyed, audit.SessionDestroyed, audit.SessionCreated}, rec.Types())

	// expired by cleanup, nothing left to clear
	sm, err := session.NewManager(parseConfig(t, `security { session { ttl = "1ms" } }`))
	require.Nil(t, err)
	seen := &destroyedSessions{}
	sm.AddListener(l)
	sm.AddListener(seen)
	live := sm.NewSession()
	live.Set(authc.ContextAttribute, []byte{0x0a})
	require.Nil(t, sm.SaveSession(httptest.NewRecorder(), live))
	time.Sleep(10 * time.Millisecond)
	sm.Cleanup()

	require.Len(t, seen.sessions, 1)
	assert.True(t, seen.sessions[0].IsExpired())
	assert.True(t, seen.sessions[0].IsKeyExists(authc.ContextAttribute))
	assert.Equal(t, audit.SessionDestroyed, rec.Types()[3])
	assert.Contains(t, rec.Events()[0].Payload, "c2FtcGxl")
}
