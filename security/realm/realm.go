// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

// Package realm provides the reference identity store, users are defined
// in the configuration with a password hash and optional TOTP secret.
//
//	security {
//	  realm {
//	    password_encoder = "bcrypt"
//	    totp {
//	      period = 30
//	      skew = 1
//	    }
//	    users {
//	      admin {
//	        id = 1
//	        uuid = "a5c9f1a2-0c57-4c4e-9d0b-7b1d8f0e2a11"
//	        password = "$2y$10$2A4GsJ6SmLAMvDe8XmTam.MSkKojdobBVJfIU7GiyoM.lWt.XV3H6"
//	        totp_secret = "JBSWY3DPEHPK3PXP"
//	        properties {
//	          authentication {
//	            secondaryType = "totp"
//	          }
//	        }
//	      }
//	    }
//	  }
//	}
package realm

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"aahframe.work/authn/config"
	"aahframe.work/authn/log"
	"aahframe.work/authn/security/acrypto"
	"aahframe.work/authn/security/authc"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const keyPrefix = "security.realm"

var (
	// ErrInvalidCredentials returned for every password or token mismatch,
	// it does not tell which of username or secret was wrong.
	ErrInvalidCredentials = errors.New("security/realm: invalid credentials")

	// ErrUserNotFound returned by `UserByUsername`.
	ErrUserNotFound = errors.New("security/realm: user not found")
)

var (
	_ authc.Verifier      = (*Realm)(nil)
	_ authc.TokenVerifier = (*Realm)(nil)
	_ authc.UserLookup    = (*Realm)(nil)
)

// Account is a realm user along with its secrets.
type Account struct {
	User         *authc.User
	PasswordHash []byte
	TOTPSecret   string
}

// Realm is the in-memory identity store.
type Realm struct {
	mu       sync.RWMutex
	encoder  acrypto.PasswordEncoder
	accounts map[string]*Account
	totpOpts totp.ValidateOpts
	now      func() time.Time

	// dummy hash compared for unknown users so that both failures cost
	// the same
	dummyHash []byte
}

// New method creates the realm with given password encoder and accounts.
func New(encoder acrypto.PasswordEncoder, accounts ...*Account) (*Realm, error) {
	if encoder == nil {
		return nil, acrypto.ErrPasswordEncoderIsNil
	}
	r := &Realm{
		encoder:  encoder,
		accounts: make(map[string]*Account),
		totpOpts: totp.ValidateOpts{Period: 30, Skew: 1, Digits: otp.DigitsSix, Algorithm: otp.AlgorithmSHA1},
		now:      time.Now,
	}
	for _, a := range accounts {
		if err := r.Add(a); err != nil {
			return nil, err
		}
	}

	var err error
	if r.dummyHash, err = encoder.Generate([]byte("dummy-password")); err != nil {
		return nil, err
	}
	return r, nil
}

// NewFromConfig method creates the realm from `security.realm.*`.
func NewFromConfig(cfg *config.Config) (*Realm, error) {
	alg := cfg.StringDefault(keyPrefix+".password_encoder", "bcrypt")
	encoder, err := acrypto.CreatePasswordEncoder(cfg, alg)
	if err != nil {
		return nil, err
	}

	r, err := New(encoder)
	if err != nil {
		return nil, err
	}
	r.totpOpts.Period = uint(cfg.IntDefault(keyPrefix+".totp.period", 30))
	r.totpOpts.Skew = uint(cfg.IntDefault(keyPrefix+".totp.skew", 1))
	switch cfg.IntDefault(keyPrefix+".totp.digits", 6) {
	case 6:
	case 8:
		r.totpOpts.Digits = otp.DigitsEight
	default:
		return nil, errors.New("security/realm: totp digits must be 6 or 8")
	}

	for _, username := range cfg.KeysByPath(keyPrefix + ".users") {
		userKey := keyPrefix + ".users." + username
		hash := cfg.StringDefault(userKey+".password", "")
		if len(hash) == 0 {
			return nil, fmt.Errorf("security/realm: user '%s' has no password", username)
		}
		props, _ := cfg.StringMap(userKey + ".properties")
		a := &Account{
			User: &authc.User{
				ID:         cfg.IntDefault(userKey+".id", 0),
				UUID:       cfg.StringDefault(userKey+".uuid", ""),
				Username:   username,
				Properties: props,
			},
			PasswordHash: []byte(hash),
			TOTPSecret:   cfg.StringDefault(userKey+".totp_secret", ""),
		}
		if err = r.Add(a); err != nil {
			return nil, err
		}
	}

	log.Debugf("realm: %d user(s) loaded, password encoder '%s'", r.Len(), alg)
	return r, nil
}

// Add method adds the account, usernames are unique.
func (r *Realm) Add(a *Account) error {
	if a == nil || a.User == nil || len(strings.TrimSpace(a.User.Username)) == 0 {
		return errors.New("security/realm: account username is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, found := r.accounts[a.User.Username]; found {
		return fmt.Errorf("security/realm: user '%s' already exists", a.User.Username)
	}
	r.accounts[a.User.Username] = a
	return nil
}

// Len method returns the count of accounts.
func (r *Realm) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.accounts)
}

// Usernames method returns the usernames, sorted.
func (r *Realm) Usernames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.accounts))
	for n := range r.accounts {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// VerifyPassword method is `authc.Verifier` interface.
func (r *Realm) VerifyPassword(username, password string) (*authc.User, error) {
	a := r.account(username)
	if a == nil {
		_ = r.encoder.Compare(r.dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}
	if !r.encoder.Compare(a.PasswordHash, []byte(password)) {
		return nil, ErrInvalidCredentials
	}
	return a.User, nil
}

// VerifyToken method is `authc.TokenVerifier` interface, it validates the
// TOTP code against the secret of the enrolled user.
func (r *Realm) VerifyToken(enrolled *authc.User, token string) (*authc.User, error) {
	if enrolled == nil {
		return nil, ErrInvalidCredentials
	}
	a := r.account(enrolled.Username)
	if a == nil || len(a.TOTPSecret) == 0 {
		return nil, ErrInvalidCredentials
	}

	valid, err := totp.ValidateCustom(token, a.TOTPSecret, r.now().UTC(), r.totpOpts)
	if err != nil || !valid {
		return nil, ErrInvalidCredentials
	}
	return a.User, nil
}

// UserByUsername method is `authc.UserLookup` interface.
func (r *Realm) UserByUsername(username string) (*authc.User, error) {
	if a := r.account(username); a != nil {
		return a.User, nil
	}
	return nil, ErrUserNotFound
}

func (r *Realm) account(username string) *Account {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.accounts[strings.TrimSpace(username)]
}
