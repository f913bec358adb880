// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

// Package acrypto provides the signing, encryption and password hashing
// primitives used by the session cookie codec and the identity realm.
package acrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"errors"
	"hash"
	"strings"

	"aahframe.work/authn/essentials"
)

var (
	// ErrUnableToDecrypt returned for decrypt errors.
	ErrUnableToDecrypt = errors.New("security/acrypto: unable to decrypt")
)

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// Package Encrypt/Decrypt methods
//___________________________________

// AESEncryptString is convenient method to do AES encryption.
//
// The key argument should be the AES key, either 16, 24, or 32 bytes
// to select AES-128, AES-192, or AES-256.
func AESEncryptString(key, text string) (string, error) {
	block, err := aes.NewCipher([]byte(key))
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(AESEncrypt(block, []byte(text))), nil
}

// AESDecryptString is convenient method to do AES decryption.
// It decrypts the encrypted text with given key.
func AESDecryptString(key, encryptedText string) (string, error) {
	block, err := aes.NewCipher([]byte(key))
	if err != nil {
		return "", err
	}

	b, err := base64.URLEncoding.DecodeString(encryptedText)
	if err != nil {
		return "", err
	}

	text, err := AESDecrypt(block, b)
	if err != nil {
		return "", err
	}
	return string(text), nil
}

// AESEncrypt method encrypts a given value with given key block in CTR mode.
// Result is iv + encrypted value, the given value is not modified.
func AESEncrypt(block cipher.Block, value []byte) []byte {
	iv := ess.GenerateSecureRandomKey(block.BlockSize())
	out := make([]byte, len(value))
	cipher.NewCTR(block, iv).XORKeyStream(out, value)
	return append(iv, out...)
}

// AESDecrypt method decrypts a given value with the given key block in CTR mode.
func AESDecrypt(block cipher.Block, value []byte) ([]byte, error) {
	size := block.BlockSize()
	if len(value) <= size {
		return nil, ErrUnableToDecrypt
	}

	iv, text := value[:size], value[size:]
	out := make([]byte, len(text))
	cipher.NewCTR(block, iv).XORKeyStream(out, text)
	return out, nil
}

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// Package Sign/Verify methods
//___________________________________

// SignString method signs the given text using provided key with HMAC SHA.
//
// Supported SHA's are SHA-1, SHA-224, SHA-256, SHA-384, SHA-512.
func SignString(key, text, sha string) string {
	return base64.URLEncoding.EncodeToString(Sign([]byte(key), []byte(text), sha))
}

// VerifyString method verifies the signed text and text using provide key with
// HMAC SHA. Returns true if sign is valid otherwise false.
func VerifyString(key, text, signedText, sha string) (bool, error) {
	mac, err := base64.URLEncoding.DecodeString(signedText)
	if err != nil {
		return false, err
	}
	return Verify([]byte(key), []byte(text), mac, sha), nil
}

// Sign method signs a given value using HMAC and given SHA name.
func Sign(key, value []byte, sha string) []byte {
	mac := hmac.New(hashFunc(sha), key)
	_, _ = mac.Write(value)
	return mac.Sum(nil)
}

// Verify method verifies given key, value and mac is valid. If valid
// it returns true otherwise false.
func Verify(key, value, mac []byte, sha string) bool {
	return hmac.Equal(mac, Sign(key, value, sha))
}

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// Unexported methods
//___________________________________

// hashFunc returns the hash for given name, unknown names fall back
// to SHA-256.
func hashFunc(alg string) func() hash.Hash {
	switch strings.ToLower(alg) {
	case "sha-512":
		return sha512.New
	case "sha-384":
		return sha512.New384
	case "sha-224":
		return sha256.New224
	case "sha-1":
		return sha1.New
	default:
		return sha256.New
	}
}
