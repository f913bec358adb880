// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

package authc

import (
	"bytes"
	"encoding"
	"encoding/gob"
	"sort"
)

var (
	_ encoding.BinaryMarshaler   = (*Context)(nil)
	_ encoding.BinaryUnmarshaler = (*Context)(nil)
)

// Context accumulates the credentials and the candidate user of an
// in-progress authentication, possibly across several requests. It holds
// at most one credential per scheme ID.
type Context struct {
	candidate   *User
	credentials map[string]Credentials
}

type contextData struct {
	Candidate   *User
	Credentials []Credentials
}

// NewContext method returns an empty authentication context.
func NewContext() *Context {
	return &Context{credentials: make(map[string]Credentials)}
}

// AddCredentials method adds the credentials, existing entry of the same
// scheme ID is replaced.
func (c *Context) AddCredentials(cr Credentials) {
	if cr == nil {
		return
	}
	c.credentials[cr.AuthenticatorName()] = cr
}

// Credentials method returns the credentials for the scheme ID otherwise nil.
func (c *Context) Credentials(id string) Credentials {
	return c.credentials[id]
}

// RemoveCredentials method removes the credentials of the scheme ID.
func (c *Context) RemoveCredentials(id string) {
	delete(c.credentials, id)
}

// RemoveCredentialsFor method removes the given credentials entry.
func (c *Context) RemoveCredentialsFor(cr Credentials) {
	if cr == nil {
		return
	}
	c.RemoveCredentials(cr.AuthenticatorName())
}

// CredentialIDs method returns the scheme IDs holding credentials, sorted.
func (c *Context) CredentialIDs() []string {
	ids := make([]string, 0, len(c.credentials))
	for id := range c.credentials {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CandidateUser method returns the user established by the satisfied
// factors otherwise nil.
func (c *Context) CandidateUser() *User {
	return c.candidate
}

// SetCandidateUser method sets the candidate user. Setting a different
// identity once established returns `ErrCandidateUserMismatch`, setting
// the same identity again is a no-op.
func (c *Context) SetCandidateUser(u *User) error {
	if u == nil {
		return nil
	}
	if c.candidate == nil {
		c.candidate = u
		return nil
	}
	if !c.candidate.IsSame(u) {
		return ErrCandidateUserMismatch
	}
	return nil
}

// Reset method clears the candidate user and all the credentials.
func (c *Context) Reset() {
	c.candidate = nil
	c.credentials = make(map[string]Credentials)
}

// MarshalBinary method encodes the context with gob.
func (c *Context) MarshalBinary() ([]byte, error) {
	cd := contextData{Candidate: c.candidate}
	for _, id := range c.CredentialIDs() {
		cd.Credentials = append(cd.Credentials, c.credentials[id])
	}
	return encodeGob(&cd)
}

// UnmarshalBinary method decodes the context, existing state is replaced.
func (c *Context) UnmarshalBinary(b []byte) error {
	var cd contextData
	if err := decodeGob(&cd, b); err != nil {
		return err
	}
	c.Reset()
	c.candidate = cd.Candidate
	for _, cr := range cd.Credentials {
		c.AddCredentials(cr)
	}
	return nil
}

func encodeGob(v interface{}) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := gob.NewEncoder(buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeGob(dst interface{}, src []byte) error {
	return gob.NewDecoder(bytes.NewBuffer(src)).Decode(dst)
}
