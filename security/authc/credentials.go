// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

package authc

import (
	"encoding/gob"
	"fmt"
)

// Credentials is the unverified input submitted for one scheme during an
// authentication attempt. Implementations are immutable.
type Credentials interface {
	// AuthenticatorName returns the scheme ID which produced it.
	AuthenticatorName() string

	// ClientName returns the human readable principal.
	ClientName() string
}

var (
	_ Credentials = (*BasicCredentials)(nil)
	_ Credentials = (*TokenCredentials)(nil)
)

func init() {
	RegisterCredentials(&BasicCredentials{})
	RegisterCredentials(&TokenCredentials{})
	gob.Register(&UserContext{})
}

// RegisterCredentials method registers the credentials type so that the
// authentication context can be persisted with it. Call it from `init` of
// the package which defines the type.
func RegisterCredentials(c Credentials) {
	gob.Register(c)
}

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// BasicCredentials
//___________________________________

// BasicCredentials is the username and password pair.
type BasicCredentials struct {
	authenticator string
	username      string
	password      string
}

type basicCredentialsData struct {
	Authenticator, Username, Password string
}

// NewBasicCredentials method returns the username and password credentials.
func NewBasicCredentials(authenticator, username, password string) *BasicCredentials {
	return &BasicCredentials{authenticator: authenticator, username: username, password: password}
}

// AuthenticatorName method is `Credentials` interface.
func (c *BasicCredentials) AuthenticatorName() string {
	return c.authenticator
}

// ClientName method returns the username.
func (c *BasicCredentials) ClientName() string {
	return c.username
}

// Username method returns the username.
func (c *BasicCredentials) Username() string {
	return c.username
}

// Password method returns the password.
func (c *BasicCredentials) Password() string {
	return c.password
}

// GobEncode method is gob.GobEncoder interface.
func (c *BasicCredentials) GobEncode() ([]byte, error) {
	return encodeGob(&basicCredentialsData{c.authenticator, c.username, c.password})
}

// GobDecode method is gob.GobDecoder interface.
func (c *BasicCredentials) GobDecode(b []byte) error {
	var d basicCredentialsData
	if err := decodeGob(&d, b); err != nil {
		return err
	}
	c.authenticator, c.username, c.password = d.Authenticator, d.Username, d.Password
	return nil
}

// String method is stringer interface implementation.
func (c BasicCredentials) String() string {
	return fmt.Sprintf("basiccredentials(authenticator:%s username:%s password:*******)", c.authenticator, c.username)
}

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// TokenCredentials
//___________________________________

// TokenCredentials is a second factor token bound to the enrolled user,
// the candidate established by an earlier factor.
type TokenCredentials struct {
	authenticator string
	user          *User
	token         string
}

type tokenCredentialsData struct {
	Authenticator string
	User          *User
	Token         string
}

// NewTokenCredentials method returns the token credentials.
func NewTokenCredentials(authenticator string, enrolled *User, token string) *TokenCredentials {
	return &TokenCredentials{authenticator: authenticator, user: enrolled, token: token}
}

// AuthenticatorName method is `Credentials` interface.
func (c *TokenCredentials) AuthenticatorName() string {
	return c.authenticator
}

// ClientName method returns the enrolled user's username.
func (c *TokenCredentials) ClientName() string {
	if c.user == nil {
		return ""
	}
	return c.user.Username
}

// User method returns the enrolled user.
func (c *TokenCredentials) User() *User {
	return c.user
}

// Token method returns the submitted token.
func (c *TokenCredentials) Token() string {
	return c.token
}

// GobEncode method is gob.GobEncoder interface.
func (c *TokenCredentials) GobEncode() ([]byte, error) {
	return encodeGob(&tokenCredentialsData{c.authenticator, c.user, c.token})
}

// GobDecode method is gob.GobDecoder interface.
func (c *TokenCredentials) GobDecode(b []byte) error {
	var d tokenCredentialsData
	if err := decodeGob(&d, b); err != nil {
		return err
	}
	c.authenticator, c.user, c.token = d.Authenticator, d.User, d.Token
	return nil
}

// String method is stringer interface implementation.
func (c TokenCredentials) String() string {
	return fmt.Sprintf("tokencredentials(authenticator:%s user:%s token:*******)", c.authenticator, c.ClientName())
}
