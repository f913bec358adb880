// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

// Package authc holds the authentication building blocks shared by the
// schemes and the orchestrator: credentials, the authentication context
// accumulated across requests, the user and the request scoped
// authentication session.
package authc

import (
	"errors"
	"fmt"
)

// Error kinds, use `errors.Is` to match an `*Error` against them.
var (
	// ErrConfig is the kind for invalid scheme or registry configuration.
	ErrConfig = errors.New("security/authc: configuration error")

	// ErrMalformedRequest is the kind for requests carrying unusable input,
	// such as an unknown location or a wrong credential type.
	ErrMalformedRequest = errors.New("security/authc: malformed request")

	// ErrAuthenticationFailed is the kind for credential verification
	// failures. Its message never tells whether the user or the secret
	// was wrong.
	ErrAuthenticationFailed = errors.New("security/authc: authentication failed")

	// ErrPolicyViolation is the kind for requests rejected before any
	// verification, such as a missing required location.
	ErrPolicyViolation = errors.New("security/authc: policy violation")

	// ErrCandidateUserMismatch is returned when a later factor resolves to a
	// different user than the one already established. It is a
	// verification failure.
	ErrCandidateUserMismatch = errors.New("security/authc: candidate user mismatch")
)

// Verifier interface verifies a username and password pair.
type Verifier interface {
	VerifyPassword(username, password string) (*User, error)
}

// TokenVerifier interface verifies a second factor token for the enrolled
// user.
type TokenVerifier interface {
	VerifyToken(enrolled *User, token string) (*User, error)
}

// UserLookup interface resolves a local user for an externally asserted
// identity.
type UserLookup interface {
	UserByUsername(username string) (*User, error)
}

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// Error
//___________________________________

// Error is the authentication error returned by the schemes and the
// orchestrator.
type Error struct {
	// Kind is one of the package error kinds.
	Kind error

	// Scheme is the authentication scheme ID.
	Scheme string

	// Reason is message key for the user facing message,
	// for e.g.: authentication.error.invalidLocation
	Reason string

	// Err is the underlying cause, it is meant for logs only.
	Err error
}

// NewConfigError method returns configuration error for the scheme.
func NewConfigError(scheme string, err error) *Error {
	return &Error{Kind: ErrConfig, Scheme: scheme, Err: err}
}

// NewMalformedRequestError method returns malformed request error.
func NewMalformedRequestError(scheme, reason string) *Error {
	return &Error{Kind: ErrMalformedRequest, Scheme: scheme, Reason: reason}
}

// NewPolicyError method returns policy violation error.
func NewPolicyError(scheme, reason string) *Error {
	return &Error{Kind: ErrPolicyViolation, Scheme: scheme, Reason: reason}
}

// NewAuthenticationError method returns verification failure with the
// given cause.
func NewAuthenticationError(scheme string, err error) *Error {
	return &Error{Kind: ErrAuthenticationFailed, Scheme: scheme, Reason: "authentication.error.failed", Err: err}
}

// AsError method returns the given error as `*Error`. Plain errors are
// wrapped as verification failures, scheme is filled in if missing.
func AsError(scheme string, err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		if len(ae.Scheme) == 0 {
			ae.Scheme = scheme
		}
		return ae
	}
	if errors.Is(err, ErrCandidateUserMismatch) {
		return &Error{Kind: ErrCandidateUserMismatch, Scheme: scheme, Reason: "authentication.error.failed", Err: err}
	}
	return NewAuthenticationError(scheme, err)
}

// Error method is error interface.
func (e *Error) Error() string {
	msg := e.Kind.Error()
	if len(e.Scheme) > 0 {
		msg += " [scheme: " + e.Scheme + "]"
	}
	if len(e.Reason) > 0 {
		msg += " [reason: " + e.Reason + "]"
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

// Is method reports whether the error is of given kind. A candidate user
// mismatch is also an authentication failure.
func (e *Error) Is(target error) bool {
	if target == e.Kind {
		return true
	}
	return e.Kind == ErrCandidateUserMismatch && target == ErrAuthenticationFailed
}

// Unwrap method returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}
