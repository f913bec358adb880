// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"html/template"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"aahframe.work/authn/config"
	"aahframe.work/authn/security/acrypto"
	"aahframe.work/authn/security/authc"
	"aahframe.work/authn/security/scheme"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/publicsuffix"
)

const demoTOTPSecret = "JBSWY3DPEHPK3PXP"

var csrfTokenRe = regexp.MustCompile(`name="anti_csrf_token" value="([^"]+)"`)

func copyDemoConfig(t *testing.T) string {
	dir := t.TempDir()
	for _, name := range []string{"authn.conf", "locations.yaml"} {
		b, err := os.ReadFile(name)
		require.Nil(t, err)
		require.Nil(t, os.WriteFile(filepath.Join(dir, name), b, 0600))
	}
	return filepath.Join(dir, "authn.conf")
}

func runApp(t *testing.T, args ...string) (string, error) {
	buf := &bytes.Buffer{}
	err := newApp(buf).Run(append([]string{"authn"}, args...))
	return buf.String(), err
}

func TestCheckConfig(t *testing.T) {
	out, err := runApp(t, "check-config", "-c", "authn.conf")
	require.Nil(t, err)
	assert.Contains(t, out, "primary: basic\n")
	assert.Contains(t, out, "secondaries: totp\n")
	assert.Contains(t, out, "restart on failure: true\n")
	assert.Contains(t, out, "session store: memory\n")
	assert.Contains(t, out, "users: 2, locations: 3\n")
	assert.Contains(t, out, "configuration is valid")

	_, err = runApp(t, "check-config", "-c", "not-exists.conf")
	assert.NotNil(t, err)

	bad := filepath.Join(t.TempDir(), "bad.conf")
	require.Nil(t, os.WriteFile(bad, []byte(`authentication { schemes { basic { type = "ldap"; primary = true } } }`), 0600))
	_, err = runApp(t, "check-config", "-c", bad)
	require.NotNil(t, err)
	assert.Contains(t, err.Error(), "unknown type 'ldap'")
}

func TestHashPassword(t *testing.T) {
	out, err := runApp(t, "hash-password", "welcome123")
	require.Nil(t, err)

	encoder, err := acrypto.CreatePasswordEncoder(config.NewEmpty(), "bcrypt")
	require.Nil(t, err)
	hash := strings.TrimSpace(out)
	assert.True(t, strings.HasPrefix(hash, "$2a$"))
	assert.True(t, encoder.Compare([]byte(hash), []byte("welcome123")))
	assert.False(t, encoder.Compare([]byte(hash), []byte("welcome124")))

	out, err = runApp(t, "hash-password", "-a", "pbkdf2", "welcome123")
	require.Nil(t, err)
	encoder, err = acrypto.CreatePasswordEncoder(config.NewEmpty(), "pbkdf2")
	require.Nil(t, err)
	assert.True(t, encoder.Compare([]byte(strings.TrimSpace(out)), []byte("welcome123")))

	_, err = runApp(t, "hash-password")
	assert.EqualError(t, err, "password is required")

	_, err = runApp(t, "hash-password", "-a", "md5", "welcome123")
	assert.EqualError(t, err, "security/acrypto: unsupported password encoder 'md5'")
}

func TestTOTPSecret(t *testing.T) {
	out, err := runApp(t, "totp-secret", "--account", "admin", "--issuer", "Clinic")
	require.Nil(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	secret := strings.TrimPrefix(lines[0], "secret: ")
	assert.NotEmpty(t, secret)
	assert.True(t, strings.HasPrefix(lines[1], "url: otpauth://totp/Clinic:admin?"))

	code, err := totp.GenerateCode(secret, time.Now())
	require.Nil(t, err)
	assert.True(t, totp.Validate(code, secret))

	_, err = runApp(t, "totp-secret")
	assert.EqualError(t, err, "account is required")

	_, err = runApp(t, "totp-secret", "--account", "admin", "--digits", "7")
	assert.EqualError(t, err, "digits must be 6 or 8")
}

func TestServerLoginFlow(t *testing.T) {
	s, err := newServerFromFiles([]string{copyDemoConfig(t)}, "")
	require.Nil(t, err)
	defer func() { _ = s.sessions.Close() }()

	ts := httptest.NewServer(s.srv.Handler)
	defer ts.Close()

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	require.Nil(t, err)
	client := &http.Client{Jar: jar, CheckRedirect: func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	var csrfToken string
	do := func(method, path string, form url.Values) (*http.Response, string) {
		var body io.Reader
		if form != nil {
			if len(csrfToken) > 0 && form.Get("anti_csrf_token") == "" {
				form.Set("anti_csrf_token", csrfToken)
			}
			body = strings.NewReader(form.Encode())
		}
		req, err := http.NewRequest(method, ts.URL+path, body)
		require.Nil(t, err)
		if form != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
		resp, err := client.Do(req)
		require.Nil(t, err)
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		require.Nil(t, err)
		if m := csrfTokenRe.FindSubmatch(b); m != nil {
			csrfToken = string(m[1])
		}
		return resp, string(b)
	}

	resp, _ := do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login.htm", resp.Header.Get("Location"))

	resp, body := do(http.MethodGet, "/login.htm", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `name="sessionLocation"`)
	require.NotEmpty(t, csrfToken)

	resp, _ = do(http.MethodPost, "/login.htm", url.Values{"username": {"admin"}, "password": {"welcome123"}, "anti_csrf_token": {"forged"}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = do(http.MethodPost, "/login.htm", url.Values{"username": {"admin"}, "password": {"welcome123"}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, body, "You must choose a location!")

	// untagged location
	resp, body = do(http.MethodPost, "/login.htm", url.Values{"username": {"admin"}, "password": {"welcome123"}, "sessionLocation": {"1"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "Invalid location.")

	resp, body = do(http.MethodPost, "/login.htm", url.Values{"username": {"admin"}, "password": {"nope"}, "sessionLocation": {"2"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "Invalid username, password or token.")

	resp, _ = do(http.MethodPost, "/login.htm", url.Values{"username": {"admin"}, "password": {"welcome123"}, "sessionLocation": {"2"}})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/token.htm", resp.Header.Get("Location"))

	code, err := totp.GenerateCode(demoTOTPSecret, time.Now())
	require.Nil(t, err)
	resp, _ = do(http.MethodPost, "/token.htm", url.Values{"token": {code}})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	resp, body = do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Welcome admin at Outpatient Clinic")

	resp, _ = do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(http.MethodGet, "/logout", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	resp, _ = do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login.htm", resp.Header.Get("Location"))

	// single factor user, goes back to the page challenged before
	resp, _ = do(http.MethodPost, "/login.htm", url.Values{"username": {"nurse"}, "password": {"welcome123"}, "sessionLocation": {"3"}})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	_, body = do(http.MethodGet, "/", nil)
	assert.Contains(t, body, "Welcome nurse at Inpatient Ward")

	_, body = do(http.MethodGet, "/metrics", nil)
	assert.Contains(t, body, "authn_logins_total 2")
	assert.Contains(t, body, `authn_authentication_attempts_total{result="failure",scheme="basic"} 3`)
	assert.Contains(t, body, "authn_cleared_cookies_total 2")
}

func TestServerReload(t *testing.T) {
	file := copyDemoConfig(t)
	s, err := newServerFromFiles([]string{file}, "")
	require.Nil(t, err)
	defer func() { _ = s.sessions.Close() }()

	before := s.manager.Registry()
	b, err := os.ReadFile(file)
	require.Nil(t, err)

	broken := strings.Replace(string(b), `type = "token"`, `type = "sms"`, 1)
	require.Nil(t, os.WriteFile(file, []byte(broken), 0600))
	assert.NotNil(t, s.reload())
	assert.Same(t, before, s.manager.Registry())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w, err := s.watch(ctx)
	require.Nil(t, err)
	defer func() { _ = w.Close() }()

	changed := strings.Replace(string(b), `white_list = ["/favicon.ico", "/static/*"]`, `white_list = ["/favicon.ico", "/static/*", "/health"]`, 1)
	require.Nil(t, os.WriteFile(file, []byte(changed), 0600))
	require.Eventually(t, func() bool {
		return len(s.manager.Options().WhiteList) == 3
	}, 5*time.Second, 50*time.Millisecond)
	assert.NotSame(t, before, s.manager.Registry())
}

func TestServerLocalizedError(t *testing.T) {
	s, err := newServerFromFiles([]string{copyDemoConfig(t)}, "")
	require.Nil(t, err)
	defer func() { _ = s.sessions.Close() }()
	assert.Equal(t, []string{"en", "fr"}, s.messages.Locales())

	testcases := []struct {
		lang     string
		err      *authc.Error
		code     int
		expected string
	}{
		{lang: "fr-CA, en;q=0.5", err: authc.NewPolicyError("basic", scheme.ReasonLocationRequired), code: http.StatusForbidden, expected: "Vous devez choisir un emplacement !"},
		{lang: "de", err: authc.NewPolicyError("basic", scheme.ReasonLocationRequired), code: http.StatusForbidden, expected: "You must choose a location!"},
		{lang: "", err: authc.NewMalformedRequestError("basic", "authentication.error.unknown"), code: http.StatusBadRequest, expected: "Invalid username, password or token."},
	}
	for _, tc := range testcases {
		t.Run(tc.lang, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/login.htm", nil)
			r.Header.Set("Accept-Language", tc.lang)
			w := httptest.NewRecorder()
			s.handleError(w, r, tc.err)
			assert.Equal(t, tc.code, w.Code)
			assert.Contains(t, w.Body.String(), template.HTMLEscapeString(tc.expected))
		})
	}
}
