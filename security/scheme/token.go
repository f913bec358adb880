// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

package scheme

import (
	"errors"
	"fmt"
	"strings"

	"aahframe.work/authn/security/audit"
	"aahframe.work/authn/security/authc"
)

var (
	_ Schemer            = (*Token)(nil)
	_ TokenVerifierAware = (*Token)(nil)
	_ PostProcessorAware = (*Token)(nil)
)

// TokenOptions are the `token` scheme settings.
type TokenOptions struct {
	LoginPage     string `cfg:"login_page" validate:"required,startswith=/"`
	TokenParam    string `cfg:"token_param" validate:"required"`
	PostProcessor string `cfg:"post_processor"`
}

// Token is the second factor scheme, it verifies a one-time token for the
// candidate user established by an earlier scheme.
type Token struct {
	BaseScheme
	Options        TokenOptions
	verifier       authc.TokenVerifier
	postProcessors map[string]PostProcessor
	postProcessor  PostProcessor
}

// SetTokenVerifier method is `TokenVerifierAware` interface.
func (t *Token) SetTokenVerifier(v authc.TokenVerifier) {
	t.verifier = v
}

// SetPostProcessors method is `PostProcessorAware` interface.
func (t *Token) SetPostProcessors(pp map[string]PostProcessor) {
	t.postProcessors = pp
}

// Configure method configures the token scheme.
func (t *Token) Configure(id string, cfg map[string]string) error {
	if err := t.Init(id); err != nil {
		return err
	}

	s := settings(cfg)
	t.Options = TokenOptions{
		LoginPage:     s.get("login_page", "/module/authentication/token.htm"),
		TokenParam:    s.get("token_param", "token"),
		PostProcessor: s.get("post_processor", ""),
	}
	if err := t.validate(&t.Options); err != nil {
		return err
	}

	if t.verifier == nil {
		return authc.NewConfigError(id, errors.New("token verifier is not set"))
	}

	pp, err := resolvePostProcessor(t.postProcessors, t.Options.PostProcessor)
	if err != nil {
		return authc.NewConfigError(id, err)
	}
	t.postProcessor = pp
	return nil
}

// Credentials method returns the token credentials for the candidate user,
// nil if either of them is missing.
func (t *Token) Credentials(s *authc.Session) (authc.Credentials, error) {
	candidate := s.Context().CandidateUser()
	token := strings.TrimSpace(s.RequestParam(t.Options.TokenParam))
	if candidate == nil || len(token) == 0 {
		return nil, nil
	}

	c := authc.NewTokenCredentials(t.ID(), candidate, token)
	s.Context().AddCredentials(c)
	return c, nil
}

// ChallengeURL method returns the token page while the context has no
// credentials of this scheme.
func (t *Token) ChallengeURL(s *authc.Session) string {
	if s.Context().Credentials(t.ID()) == nil {
		return t.Options.LoginPage
	}
	return ""
}

// Authenticate method verifies the token of the enrolled user.
func (t *Token) Authenticate(c authc.Credentials) (*authc.AuthenticationInfo, error) {
	tc, ok := c.(*authc.TokenCredentials)
	if !ok || tc.User() == nil {
		return nil, authc.NewMalformedRequestError(t.ID(), "authentication.error.invalidCredentials")
	}

	enrolled := tc.User()
	t.audit(audit.Username, enrolled.Username)
	if t.postProcessor != nil {
		info := &SubjectInfo{Scheme: t.ID(), UserID: enrolled.ID, Username: enrolled.Username}
		if err := t.postProcessor.Process(info); err != nil {
			return nil, authc.NewAuthenticationError(t.ID(), err)
		}
	}

	u, err := t.verifier.VerifyToken(enrolled, tc.Token())
	if err != nil {
		return nil, authc.NewAuthenticationError(t.ID(), err)
	}
	return &authc.AuthenticationInfo{Scheme: t.ID(), User: u}, nil
}

func resolvePostProcessor(pp map[string]PostProcessor, name string) (PostProcessor, error) {
	if len(name) == 0 {
		return nil, nil
	}
	p, found := pp[name]
	if !found || p == nil {
		return nil, fmt.Errorf("post processor '%s' not exists", name)
	}
	return p, nil
}
