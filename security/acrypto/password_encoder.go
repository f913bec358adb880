// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

package acrypto

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"aahframe.work/authn/config"
	"aahframe.work/authn/essentials"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

const hashDelim = "$"

// ErrPasswordEncoderIsNil returned when given password encoder instance is nil.
var ErrPasswordEncoderIsNil = errors.New("security/acrypto: password encoder is nil")

// PasswordEncoder interface is used to implement generate password hash and compare
// given hash & password based chosen hashing type. Such as `bcrypt` and `pbkdf2`.
//
// Good read about hashing security https://crackstation.net/hashing-security.htm
type PasswordEncoder interface {
	Generate(password []byte) ([]byte, error)
	Compare(hash, password []byte) bool
}

// CreatePasswordEncoder method creates the password encoder for the given
// algorithm name, settings are read from `security.password_encoder.<alg>.*`.
func CreatePasswordEncoder(cfg *config.Config, alg string) (PasswordEncoder, error) {
	keyPrefix := "security.password_encoder." + alg
	switch alg {
	case "bcrypt":
		cost := cfg.IntDefault(keyPrefix+".cost", bcrypt.DefaultCost)
		if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
			return nil, fmt.Errorf("security/acrypto: bcrypt cost %d out of range", cost)
		}
		return &BcryptEncoder{cost: cost}, nil
	case "pbkdf2":
		return &Pbkdf2Encoder{
			iter:    cfg.IntDefault(keyPrefix+".iteration", 10000),
			dkLen:   cfg.IntDefault(keyPrefix+".derived_key_length", 32),
			saltLen: cfg.IntDefault(keyPrefix+".salt_length", 24),
			hashAlg: cfg.StringDefault(keyPrefix+".hash_algorithm", "sha-512"),
		}, nil
	}
	return nil, fmt.Errorf("security/acrypto: unsupported password encoder '%s'", alg)
}

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// bcrypt
//___________________________________

// BcryptEncoder struct implements `PasswordEncoder` interface for `bcrypt`
// hashing.
type BcryptEncoder struct {
	cost int
}

// Generate method returns the `bcrypt` password hash based on configured
// cost at `security.password_encoder.bcrypt.*`.
func (be *BcryptEncoder) Generate(password []byte) ([]byte, error) {
	return bcrypt.GenerateFromPassword(password, be.cost)
}

// Compare method compares given password hash and password using bcrypt.
func (be *BcryptEncoder) Compare(hash, password []byte) bool {
	return bcrypt.CompareHashAndPassword(hash, password) == nil
}

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// pbkdf2
//___________________________________

// Pbkdf2Encoder struct implements `PasswordEncoder` interface for `pbkdf2`
// hashing.
type Pbkdf2Encoder struct {
	iter    int    // no. of iteration
	dkLen   int    // derived key length
	saltLen int    // random salt bytes length
	hashAlg string // hash algorithm such as sha-1, sha-224, sha-256, sha-384, sha-512
}

// Generate method returns `pbkdf2` password hash based on configured
// values at `security.password_encoder.pbkdf2.*`.
//
// Format: hash-alg$iteration$salt$derived-key-hash
func (pe *Pbkdf2Encoder) Generate(password []byte) ([]byte, error) {
	salt := ess.GenerateSecureRandomKey(pe.saltLen)
	dkHash := pbkdf2.Key(password, salt, pe.iter, pe.dkLen, hashFunc(pe.hashAlg))
	return []byte(strings.Join([]string{
		pe.hashAlg,
		strconv.Itoa(pe.iter),
		base64.URLEncoding.EncodeToString(salt),
		base64.URLEncoding.EncodeToString(dkHash),
	}, hashDelim)), nil
}

// Compare method compares given hash password and password using `pbkdf2`.
func (pe *Pbkdf2Encoder) Compare(hash, password []byte) bool {
	parts := strings.Split(string(hash), hashDelim)
	if len(parts) != 4 {
		return false
	}

	iter, err := strconv.Atoi(parts[1])
	if err != nil {
		return false
	}

	salt, err := base64.URLEncoding.DecodeString(parts[2])
	if err != nil {
		return false
	}

	dkHash, err := base64.URLEncoding.DecodeString(parts[3])
	if err != nil {
		return false
	}

	otherHash := pbkdf2.Key(password, salt, iter, len(dkHash), hashFunc(parts[0]))
	return subtle.ConstantTimeCompare(dkHash, otherHash) == 1
}
