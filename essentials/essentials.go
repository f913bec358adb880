// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

// Package ess provides the small helpers shared by the authn packages.
// Such as string checks, secure random keys, base64 encoding and
// format flag parsing.
package ess
