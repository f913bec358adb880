// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

// Package cookie encodes and decodes tamper proof cookie values. A value is
// optionally AES encrypted, then time stamped and HMAC signed with the
// cookie name bound into the signature.
package cookie

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"aahframe.work/authn/essentials"
	"aahframe.work/authn/security/acrypto"
)

// Cookie errors
var (
	ErrCookieValueIsTooLarge    = errors.New("security/cookie: value is greater than 4096")
	ErrCookieValueIsInvalid     = errors.New("security/cookie: value is not valid")
	ErrCookieInvaildTimestamp   = errors.New("security/cookie: timestamp is invalid")
	ErrCookieTimestampIsTooNew  = errors.New("security/cookie: timestamp is too new")
	ErrCookieTimestampIsExpired = errors.New("security/cookie: timestamp expried")
	ErrSignVerificationIsFailed = errors.New("security/cookie: sign verification is failed")
)

const maxCookieSize = 4096

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// Package methods
//___________________________________

// NewManager method returns the new cookie manager. Empty sign key
// disables signing, empty enc key disables encryption.
func NewManager(opts *Options, signKey, encKey string) (*Manager, error) {
	if opts == nil || ess.IsStrEmpty(opts.Name) {
		return nil, errors.New("security/cookie: cookie name is required")
	}

	m := &Manager{Options: opts, sha: "sha-256"}
	if !ess.IsStrEmpty(signKey) {
		m.signKey = []byte(signKey)
	}

	if !ess.IsStrEmpty(encKey) {
		block, err := aes.NewCipher([]byte(encKey))
		if err != nil {
			return nil, err
		}
		m.cipherBlock = block
	}

	return m, nil
}

// NewWithOptions method returns http.Cookie with the given options. It also
// sets the `Expires` field calculated based on the MaxAge value.
func NewWithOptions(value string, opts *Options) *http.Cookie {
	cookie := &http.Cookie{
		Name:     opts.Name,
		Value:    value,
		Path:     opts.Path,
		Domain:   opts.Domain,
		MaxAge:   int(opts.MaxAge),
		Secure:   opts.Secure,
		HttpOnly: opts.HTTPOnly,
		SameSite: ParseSameSite(opts.SameSite),
	}

	if len(cookie.Path) == 0 {
		cookie.Path = "/"
	}

	if opts.MaxAge > 0 {
		cookie.Expires = time.Now().Add(time.Duration(opts.MaxAge) * time.Second)
	} else if opts.MaxAge < 0 {
		cookie.Expires = time.Unix(1, 0)
	}

	return cookie
}

// ParseSameSite method maps the configured `same_site` value to
// `http.SameSite`, unknown values yields default mode.
func ParseSameSite(v string) http.SameSite {
	switch strings.ToLower(v) {
	case "lax":
		return http.SameSiteLaxMode
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	}
	return http.SameSiteDefaultMode
}

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// Cookie Manager
//___________________________________

// Manager struct used to manage and process secure cookie.
type Manager struct {
	Options *Options

	signKey     []byte
	sha         string
	cipherBlock cipher.Block
}

// Options to hold cookie options.
type Options struct {
	Name     string
	Domain   string
	Path     string
	MaxAge   int64
	HTTPOnly bool
	Secure   bool
	SameSite string
}

// New method creates new cookie instance for given value with cookie manager options.
func (m *Manager) New(value string) *http.Cookie {
	return NewWithOptions(value, m.Options)
}

// Write method writes the given cookie value into response.
func (m *Manager) Write(w http.ResponseWriter, value string) {
	http.SetCookie(w, m.New(value))
}

// IsSigned method returns true if sign key is configured.
func (m *Manager) IsSigned() bool {
	return len(m.signKey) > 0
}

// Encode method encodes given value.
//
// It performs:
//   1) Encrypts it if encryption key configured
//   2) Composes "name|timestamp|value" and signs it if sign key configured
//   3) Drops the name and encodes the result into Base64 string
//   4) Checks max cookie size i.e 4Kb
func (m *Manager) Encode(b []byte) (string, error) {
	if m.cipherBlock != nil {
		b = acrypto.AESEncrypt(m.cipherBlock, b)
	}

	b = []byte(fmt.Sprintf("%s|%d|%s|", m.Options.Name, currentTimestamp(), ess.EncodeToBase64(b)))
	if m.IsSigned() {
		b = append(b, acrypto.Sign(m.signKey, b[:len(b)-1], m.sha)...)
	}

	b = ess.EncodeToBase64(b[len(m.Options.Name)+1:])
	if len(b) > maxCookieSize {
		return "", ErrCookieValueIsTooLarge
	}

	return string(b), nil
}

// Decode method decodes the secure cookie value.
//
// It performs:
//   1) Checks max cookie size i.e 4Kb
//   2) Decodes the value using Base64
//   3) Validates the signed data
//   4) Validates timestamp against MaxAge
//   5) Decodes the value using Base64 and decrypts it
func (m *Manager) Decode(value string) ([]byte, error) {
	if len(value) > maxCookieSize {
		return nil, ErrCookieValueIsTooLarge
	}

	b, err := ess.DecodeBase64([]byte(value))
	if err != nil {
		return nil, err
	}

	// value is "timestamp|value|signed-data"
	parts := bytes.SplitN(b, []byte("|"), 3)
	if len(parts) != 3 {
		return nil, ErrCookieValueIsInvalid
	}

	if m.IsSigned() {
		signed := append([]byte(m.Options.Name+"|"), b[:len(b)-len(parts[2])-1]...)
		if !acrypto.Verify(m.signKey, signed, parts[2], m.sha) {
			return nil, ErrSignVerificationIsFailed
		}
	}

	t1, err := strconv.ParseInt(string(parts[0]), 10, 64)
	if err != nil {
		return nil, ErrCookieInvaildTimestamp
	}
	t2 := currentTimestamp()
	if t1 > t2 {
		return nil, ErrCookieTimestampIsTooNew
	}
	if m.Options.MaxAge > 0 && t1 < t2-m.Options.MaxAge {
		return nil, ErrCookieTimestampIsExpired
	}

	if b, err = ess.DecodeBase64(parts[1]); err != nil {
		return nil, err
	}

	if m.cipherBlock != nil {
		return acrypto.AESDecrypt(m.cipherBlock, b)
	}
	return b, nil
}

func currentTimestamp() int64 {
	return time.Now().UTC().Unix()
}
