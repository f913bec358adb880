// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

package scheme

import (
	"errors"
	"strings"

	"aahframe.work/authn/security/audit"
	"aahframe.work/authn/security/authc"
)

var (
	_ Schemer       = (*Basic)(nil)
	_ VerifierAware = (*Basic)(nil)
	_ AuditAware    = (*Basic)(nil)
)

// BasicOptions are the `basic` scheme settings.
type BasicOptions struct {
	LoginPage     string `cfg:"login_page" validate:"required,startswith=/"`
	UsernameParam string `cfg:"username_param" validate:"required"`
	PasswordParam string `cfg:"password_param" validate:"required"`
}

// Basic is the username and password scheme. Values are read from the
// request parameters, API clients may use the HTTP Basic `Authorization`
// header instead.
//
//	basic {
//	  type = "basic"
//	  primary = true
//	  config {
//	    login_page = "/login.htm"
//	    username_param = "username"
//	    password_param = "password"
//	  }
//	}
type Basic struct {
	BaseScheme
	Options  BasicOptions
	verifier authc.Verifier
}

// SetVerifier method is `VerifierAware` interface.
func (b *Basic) SetVerifier(v authc.Verifier) {
	b.verifier = v
}

// Configure method configures the basic scheme.
func (b *Basic) Configure(id string, cfg map[string]string) error {
	if err := b.Init(id); err != nil {
		return err
	}

	s := settings(cfg)
	b.Options = BasicOptions{
		LoginPage:     s.get("login_page", "/module/authentication/basicLogin.htm"),
		UsernameParam: s.get("username_param", "username"),
		PasswordParam: s.get("password_param", "password"),
	}
	if err := b.validate(&b.Options); err != nil {
		return err
	}

	if b.verifier == nil {
		return authc.NewConfigError(id, errors.New("password verifier is not set"))
	}
	return nil
}

// Credentials method returns the username and password credentials if both
// are present in the request.
func (b *Basic) Credentials(s *authc.Session) (authc.Credentials, error) {
	username := strings.TrimSpace(s.RequestParam(b.Options.UsernameParam))
	password := s.RequestParam(b.Options.PasswordParam)
	if len(username) == 0 || len(strings.TrimSpace(password)) == 0 {
		var ok bool
		if username, password, ok = s.Request().BasicAuth(); !ok ||
			len(strings.TrimSpace(username)) == 0 || len(strings.TrimSpace(password)) == 0 {
			return nil, nil
		}
	}

	c := authc.NewBasicCredentials(b.ID(), username, password)
	s.Context().AddCredentials(c)
	return c, nil
}

// ChallengeURL method returns the login page while the context has no
// credentials of this scheme.
func (b *Basic) ChallengeURL(s *authc.Session) string {
	if s.Context().Credentials(b.ID()) == nil {
		return b.Options.LoginPage
	}
	return ""
}

// Authenticate method verifies the username and password.
func (b *Basic) Authenticate(c authc.Credentials) (*authc.AuthenticationInfo, error) {
	bc, ok := c.(*authc.BasicCredentials)
	if !ok {
		return nil, authc.NewMalformedRequestError(b.ID(), "authentication.error.invalidCredentials")
	}

	b.audit(audit.Username, bc.Username())
	u, err := b.verifier.VerifyPassword(bc.Username(), bc.Password())
	if err != nil {
		return nil, authc.NewAuthenticationError(b.ID(), err)
	}
	return &authc.AuthenticationInfo{Scheme: b.ID(), User: u}, nil
}
