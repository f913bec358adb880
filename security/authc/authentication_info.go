// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

package authc

import (
	"fmt"

	"aahframe.work/authn/location"
)

// User is the identity resolved by a successful verification.
type User struct {
	ID         int
	UUID       string
	Username   string
	Properties map[string]string
}

// Property method returns the user property value for the given key.
func (u *User) Property(key string) string {
	if u == nil || u.Properties == nil {
		return ""
	}
	return u.Properties[key]
}

// IsSame method returns true if both refer to the same identity, users
// are compared by ID and username.
func (u *User) IsSame(o *User) bool {
	if u == nil || o == nil {
		return u == o
	}
	return u.ID == o.ID && u.Username == o.Username
}

// String method is stringer interface implementation.
func (u User) String() string {
	return fmt.Sprintf("user(id:%d username:%s)", u.ID, u.Username)
}

// UserContext holds the authenticated user and the login location of the
// HTTP session. A non-nil User is the authenticated marker.
type UserContext struct {
	User     *User
	Location *location.Location
}

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// AuthenticationInfo
//___________________________________

// AuthenticationInfo represents the verified result of one scheme, it is
// never stored inside credentials.
type AuthenticationInfo struct {
	Scheme     string
	User       *User
	Principals []*Principal
}

// Principal method returns the principal that matches given Claim.
//
// 	For e.g:
// 		value := AuthenticationInfo.Principal("email")
func (a *AuthenticationInfo) Principal(claim string) *Principal {
	for _, p := range a.Principals {
		if p.Claim == claim {
			return p
		}
	}
	return nil
}

// String method is stringer interface implementation.
func (a AuthenticationInfo) String() string {
	return fmt.Sprintf("authenticationinfo(scheme:%s %v %s)", a.Scheme, a.User, a.Principals)
}

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// Principal
//___________________________________

// Principal struct holds an identifying attribute asserted for the user,
// for e.g. a claim returned from the OAuth2 user info endpoint.
type Principal struct {
	Realm     string
	Claim     string
	Value     string
	IsPrimary bool
}

// String method is stringer interface implementation.
func (p Principal) String() string {
	return fmt.Sprintf("principal(realm:%s isprimary:%v claim:%s value:%s)", p.Realm, p.IsPrimary, p.Claim, p.Value)
}
