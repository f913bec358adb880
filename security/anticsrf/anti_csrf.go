// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

// Package anticsrf protects the form posts consumed by the authentication
// filter, such as the login page, against cross site request forgery.
//
//	security {
//	  anti_csrf {
//	    sign_key = "eFWLXEewECptbDVXExokRTLONWxrTjfV"
//	    ttl = "24h"
//	  }
//	}
package anticsrf

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/url"
	"time"

	"aahframe.work/authn/ahttp"
	"aahframe.work/authn/config"
	"aahframe.work/authn/essentials"
	"aahframe.work/authn/log"
	"aahframe.work/authn/security/cookie"
)

// Anti-CSRF errors
var (
	ErrNoReferer        = errors.New("security/anticsrf: no referer")
	ErrMalformedReferer = errors.New("security/anticsrf: malformed referer")
	ErrBadReferer       = errors.New("security/anticsrf: bad referer")
	ErrNoCookieFound    = errors.New("security/anticsrf: no cookie found")
	ErrTokenMismatch    = errors.New("security/anticsrf: token mismatch")
)

type ctxKey struct{}

// AntiCSRF struct hold the implementation of Anti CSRF (aka XSRF) protection.
type AntiCSRF struct {
	Enabled       bool
	cookieMgr     *cookie.Manager
	secretLength  int
	headerName    string
	formFieldName string
}

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// Package methods
//___________________________________

// New method initializes the Anti-CSRF based on security configuration.
func New(cfg *config.Config) (*AntiCSRF, error) {
	keyPrefix := "security.anti_csrf"
	if !cfg.IsExists(keyPrefix) {
		return &AntiCSRF{Enabled: false}, nil
	}

	c := &AntiCSRF{
		Enabled:       cfg.BoolDefault(keyPrefix+".enable", true),
		secretLength:  cfg.IntDefault(keyPrefix+".secret_length", 32),
		headerName:    cfg.StringDefault(keyPrefix+".header_name", "X-Anti-CSRF-Token"),
		formFieldName: cfg.StringDefault(keyPrefix+".form_field_name", "anti_csrf_token"),
	}
	if c.secretLength < 16 {
		return nil, errors.New("security/anticsrf: 'secret_length' must be at least 16")
	}

	ttl, err := cfg.DurationDefault(keyPrefix+".ttl", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	opts := &cookie.Options{
		Name:     cfg.StringDefault(keyPrefix+".prefix", "authn") + "_anti_csrf",
		Domain:   cfg.StringDefault(keyPrefix+".domain", ""),
		Path:     cfg.StringDefault(keyPrefix+".path", "/"),
		MaxAge:   int64(ttl.Seconds()),
		HTTPOnly: true,
		Secure:   cfg.BoolDefault(keyPrefix+".secure", false),
		SameSite: cfg.StringDefault(keyPrefix+".same_site", "Lax"),
	}

	if c.cookieMgr, err = cookie.NewManager(opts,
		cfg.StringDefault(keyPrefix+".sign_key", ""),
		cfg.StringDefault(keyPrefix+".enc_key", "")); err != nil {
		return nil, err
	}
	return c, nil
}

// Token method returns the salted Anti-CSRF token of the request to embed
// in the forms. It is empty if the middleware did not run.
func Token(r *http.Request) string {
	if v, ok := r.Context().Value(ctxKey{}).(string); ok {
		return v
	}
	return ""
}

// IsSafeHTTPMethod method returns true if the HTTP method does not change
// the state, such requests are not verified.
func IsSafeHTTPMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

// IsSameOrigin method returns true if both URLs have the same scheme and
// host.
func IsSameOrigin(a, b *url.URL) bool {
	return a.Scheme == b.Scheme && a.Host == b.Host
}

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// AntiCSRF methods
//___________________________________

// FormFieldName method returns the form field name of the token.
func (ac *AntiCSRF) FormFieldName() string {
	return ac.formFieldName
}

// GenerateSecret method generates new secure secret by configured length.
func (ac *AntiCSRF) GenerateSecret() []byte {
	return ess.GenerateSecureRandomKey(ac.secretLength)
}

// CipherSecret method returns the Anti-CSRF secret from the cookie, if not
// available generates new secret. The flag reports the cookie origin.
func (ac *AntiCSRF) CipherSecret(r *http.Request) ([]byte, bool) {
	c, err := r.Cookie(ac.cookieMgr.Options.Name)
	if err != nil {
		return ac.GenerateSecret(), false
	}

	secret, err := ac.cookieMgr.Decode(c.Value)
	if err != nil || len(secret) != ac.secretLength {
		return ac.GenerateSecret(), false
	}
	return secret, true
}

// RequestCipherSecret method returns the secret (aka anti-csrf token) from
// the request. The order of retrieval is HTTP header then form.
func (ac *AntiCSRF) RequestCipherSecret(r *http.Request) []byte {
	token := r.Header.Get(ac.headerName)
	if ess.IsStrEmpty(token) {
		token = r.FormValue(ac.formFieldName)
	}

	tokenBytes, err := ess.DecodeBase64([]byte(token))
	if err != nil || len(tokenBytes) != ac.secretLength*2 {
		return nil
	}
	return ac.unsaltCipherToken(tokenBytes)
}

// IsAuthentic method compares the given secret and request secret.
func (ac *AntiCSRF) IsAuthentic(secret, requestSecret []byte) bool {
	return len(requestSecret) > 0 && subtle.ConstantTimeCompare(secret, requestSecret) == 1
}

// SaltCipherSecret method returns salted cipher secret, every call yields
// a different token for the same secret.
func (ac *AntiCSRF) SaltCipherSecret(secret []byte) string {
	salt := ess.GenerateSecureRandomKey(ac.secretLength)
	return string(ess.EncodeToBase64(append(salt, xorBytes(salt, secret)...)))
}

// SetCookie method write/refresh the Anti-CSRF cookie value and expiry.
func (ac *AntiCSRF) SetCookie(w http.ResponseWriter, secret []byte) error {
	if len(secret) == 0 {
		return nil
	}

	s := make([]byte, len(secret))
	copy(s, secret)
	value, err := ac.cookieMgr.Encode(s)
	if err != nil {
		return err
	}

	w.Header().Add(ahttp.HeaderVary, ahttp.HeaderCookie)
	ac.cookieMgr.Write(w, value)
	return nil
}

// Middleware method returns the Anti-CSRF middleware. State changing
// requests must carry the token matching the cookie secret, HTTPS requests
// also need the same origin referer. Disabled Anti-CSRF returns next as is.
func (ac *AntiCSRF) Middleware(next http.Handler) http.Handler {
	if !ac.Enabled {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secret, fromCookie := ac.CipherSecret(r)
		if !IsSafeHTTPMethod(r.Method) {
			if err := ac.verify(r, secret, fromCookie); err != nil {
				log.Warnf("anticsrf: %v, path: %s, remote: %s", err, r.URL.Path, ahttp.ClientIP(r))
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
		}

		if !fromCookie {
			if err := ac.SetCookie(w, secret); err != nil {
				log.Error(err)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
		}
		ctx := context.WithValue(r.Context(), ctxKey{}, ac.SaltCipherSecret(secret))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// AntiCSRF Unexported methods
//_________________________________________

func (ac *AntiCSRF) verify(r *http.Request, secret []byte, fromCookie bool) error {
	if r.TLS != nil {
		referer := r.Header.Get(ahttp.HeaderReferer)
		if ess.IsStrEmpty(referer) {
			return ErrNoReferer
		}
		ru, err := url.Parse(referer)
		if err != nil {
			return ErrMalformedReferer
		}
		if !IsSameOrigin(&url.URL{Scheme: "https", Host: r.Host}, ru) {
			return ErrBadReferer
		}
	}

	if !fromCookie {
		return ErrNoCookieFound
	}
	if !ac.IsAuthentic(secret, ac.RequestCipherSecret(r)) {
		return ErrTokenMismatch
	}
	return nil
}

func (ac *AntiCSRF) unsaltCipherToken(token []byte) []byte {
	salt := token[:ac.secretLength]
	secret := token[ac.secretLength:]
	return xorBytes(salt, secret)
}

func xorBytes(a, b []byte) []byte {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	res := make([]byte, n)
	for i := 0; i < n; i++ {
		res[i] = a[i] ^ b[i]
	}
	return res
}
