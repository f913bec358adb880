// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

package ess

import (
	"crypto/rand"
	"encoding/hex"
	"io"
)

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// Secure Random methods
//_________________________________________

// SecureRandomString method generates the random hex string for given length
// using `crypto/rand`.
func SecureRandomString(length int) string {
	return hex.EncodeToString(GenerateSecureRandomKey(length / 2))
}

// GenerateSecureRandomKey method generates the random bytes for given length using
// `crypto/rand`. Session ids are derived from it, so there is no math based
// fallback, it panics if the system randomness source fails.
func GenerateSecureRandomKey(length int) []byte {
	k := make([]byte, length)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		panic("ess: crypto/rand unavailable: " + err.Error())
	}
	return k
}
