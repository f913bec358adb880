// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

package anticsrf

import (
	"bytes"
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"aahframe.work/authn/ahttp"
	"aahframe.work/authn/config"
	"aahframe.work/authn/essentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createAntiCSRF(t *testing.T) *AntiCSRF {
	cfg, err := config.ParseString(`
	security {
	  anti_csrf {
	    sign_key = "eFWLXEewECptbDVXExokRTLONWxrTjfV"
	    enc_key = "KYqklJsgeclPpZutTeQKNOTWlpksRBwA"
	  }
	}`)
	require.Nil(t, err)
	ac, err := New(cfg)
	require.Nil(t, err)
	return ac
}

func TestAntiCSRFNotEnabled(t *testing.T) {
	cfg, err := config.ParseString(`security { }`)
	require.Nil(t, err)

	ac, err := New(cfg)
	require.Nil(t, err)
	assert.False(t, ac.Enabled)

	called := false
	h := ac.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Empty(t, Token(r))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/login.htm", nil))
	assert.True(t, called)
}

func TestAntiCSRFConfigErrors(t *testing.T) {
	for _, cfgStr := range []string{
		`security { anti_csrf { secret_length = 8 } }`,
		`security { anti_csrf { ttl = "1 day" } }`,
		`security { anti_csrf { enc_key = "short" } }`,
	} {
		cfg, err := config.ParseString(cfgStr)
		require.Nil(t, err)
		_, err = New(cfg)
		assert.NotNil(t, err, cfgStr)
	}
}

func TestAntiCSRFSecret(t *testing.T) {
	ac := createAntiCSRF(t)
	assert.Equal(t, "anti_csrf_token", ac.FormFieldName())

	secret := ac.GenerateSecret()
	token := ac.SaltCipherSecret(secret)
	assert.NotEqual(t, token, ac.SaltCipherSecret(secret), "token is salted")

	decoded, err := ess.DecodeBase64([]byte(token))
	require.Nil(t, err)
	assert.True(t, bytes.Equal(secret, ac.unsaltCipherToken(decoded)))

	// request and validate
	cookieValue, err := ac.cookieMgr.Encode(secret)
	require.Nil(t, err)
	form := url.Values{"anti_csrf_token": {token}}
	req := httptest.NewRequest(http.MethodPost, "http://localhost:8080/login.htm", strings.NewReader(form.Encode()))
	req.Header.Set(ahttp.HeaderContentType, "application/x-www-form-urlencoded")
	req.Header.Set(ahttp.HeaderCookie, "authn_anti_csrf="+cookieValue)

	cookieSecret, fromCookie := ac.CipherSecret(req)
	assert.True(t, fromCookie)
	requestSecret := ac.RequestCipherSecret(req)
	assert.True(t, bytes.Equal(cookieSecret, requestSecret))
	assert.True(t, ac.IsAuthentic(cookieSecret, requestSecret))
	assert.False(t, ac.IsAuthentic(cookieSecret, nil))

	// header wins over form
	req.Header.Set("X-Anti-CSRF-Token", "bad-token")
	assert.Nil(t, ac.RequestCipherSecret(req))

	w := httptest.NewRecorder()
	require.Nil(t, ac.SetCookie(w, secret))
	assert.Equal(t, "Cookie", w.Header().Get(ahttp.HeaderVary))
	assert.Contains(t, w.Header().Get(ahttp.HeaderSetCookie), "authn_anti_csrf=")
}

func TestAntiCSRFCipherSecret(t *testing.T) {
	ac := createAntiCSRF(t)

	req := httptest.NewRequest(http.MethodGet, "http://localhost:8080/login.htm", nil)
	secret, fromCookie := ac.CipherSecret(req)
	assert.Len(t, secret, 32)
	assert.False(t, fromCookie)

	req.Header.Set(ahttp.HeaderCookie, "authn_anti_csrf=This is cookie value")
	secret, fromCookie = ac.CipherSecret(req)
	assert.Len(t, secret, 32)
	assert.False(t, fromCookie)
}

func TestAntiCSRFMiddleware(t *testing.T) {
	ac := createAntiCSRF(t)
	var token string
	h := ac.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token = Token(r)
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login.htm", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, token)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	csrfCookie := cookies[0]

	post := func(token string, withCookie bool) *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/login.htm",
			strings.NewReader(url.Values{"anti_csrf_token": {token}}.Encode()))
		r.Header.Set(ahttp.HeaderContentType, "application/x-www-form-urlencoded")
		if withCookie {
			r.AddCookie(csrfCookie)
		}
		return r
	}

	testcases := []struct {
		label string
		req   *http.Request
		code  int
	}{
		{label: "valid token", req: post(token, true), code: http.StatusOK},
		{label: "no cookie", req: post(token, false), code: http.StatusForbidden},
		{label: "no token", req: post("", true), code: http.StatusForbidden},
		{label: "other token", req: post(ac.SaltCipherSecret(ac.GenerateSecret()), true), code: http.StatusForbidden},
	}
	for _, tc := range testcases {
		t.Run(tc.label, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, tc.req)
			assert.Equal(t, tc.code, w.Code)
		})
	}

	// HTTPS requires same origin referer
	r := post(token, true)
	r.TLS = &tls.ConnectionState{}
	r.Host = "localhost:8443"
	r.Header.Set(ahttp.HeaderReferer, "https://evil.example.com/login.htm")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusForbidden, w.Code)

	r = post(token, true)
	r.TLS = &tls.ConnectionState{}
	r.Host = "localhost:8443"
	r.Header.Set(ahttp.HeaderReferer, "https://localhost:8443/login.htm")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAntiCSRFOrigin(t *testing.T) {
	assert.True(t, IsSafeHTTPMethod(http.MethodGet))
	assert.False(t, IsSafeHTTPMethod(http.MethodPost))

	a, _ := url.Parse("https://localhost:8443/login.htm")
	b, _ := url.Parse("https://localhost:8443/token.htm")
	c, _ := url.Parse("http://localhost:8443/token.htm")
	assert.True(t, IsSameOrigin(a, b))
	assert.False(t, IsSameOrigin(a, c))
}
