// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

package ess

import (
	"encoding/base64"
	"errors"
)

// ErrBase64Decode returned when given string unable to do base64 decode.
var ErrBase64Decode = errors.New("encoding/base64: decode error")

// Cookie values and anti-CSRF tokens travel in headers and form fields,
// hence the URL safe alphabet.
var cookieEncoding = base64.URLEncoding.Strict()

// EncodeToBase64 method encodes given bytes into URL safe base64 bytes.
func EncodeToBase64(v []byte) []byte {
	return []byte(cookieEncoding.EncodeToString(v))
}

// DecodeBase64 method decodes given URL safe base64 into bytes.
func DecodeBase64(v []byte) ([]byte, error) {
	b, err := cookieEncoding.DecodeString(string(v))
	if err != nil {
		return nil, ErrBase64Decode
	}
	return b, nil
}
