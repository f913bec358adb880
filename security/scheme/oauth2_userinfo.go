// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

package scheme

import (
	"bytes"
	"context"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"aahframe.work/authn/ahttp"
	"aahframe.work/authn/security/audit"
	"aahframe.work/authn/security/authc"
	"golang.org/x/oauth2"
)

var (
	_ Schemer            = (*OAuth2UserInfo)(nil)
	_ UserLookupAware    = (*OAuth2UserInfo)(nil)
	_ PostProcessorAware = (*OAuth2UserInfo)(nil)
	_ authc.Credentials  = (*BearerCredentials)(nil)
)

func init() {
	authc.RegisterCredentials(&BearerCredentials{})
}

// OAuth2Options are the `oauth2_userinfo` scheme settings.
type OAuth2Options struct {
	UserInfoURL   string        `cfg:"userinfo_url" validate:"required,url"`
	UsernameClaim string        `cfg:"username_claim" validate:"required"`
	PostProcessor string        `cfg:"post_processor"`
	LoginPage     string        `cfg:"login_page" validate:"omitempty,startswith=/"`
	Timeout       time.Duration `cfg:"timeout" validate:"gt=0"`
}

// OAuth2UserInfo scheme accepts a bearer access token issued by an OAuth2
// provider. The token is exchanged for the user claims at the provider
// user info endpoint and the username claim is mapped to the local user.
type OAuth2UserInfo struct {
	BaseScheme
	Options        OAuth2Options
	HTTPClient     *http.Client
	lookup         authc.UserLookup
	postProcessors map[string]PostProcessor
	postProcessor  PostProcessor
	realm          string
}

// SetUserLookup method is `UserLookupAware` interface.
func (o *OAuth2UserInfo) SetUserLookup(ul authc.UserLookup) {
	o.lookup = ul
}

// SetPostProcessors method is `PostProcessorAware` interface.
func (o *OAuth2UserInfo) SetPostProcessors(pp map[string]PostProcessor) {
	o.postProcessors = pp
}

// Configure method configures the scheme.
func (o *OAuth2UserInfo) Configure(id string, cfg map[string]string) error {
	if err := o.Init(id); err != nil {
		return err
	}

	s := settings(cfg)
	timeout, err := time.ParseDuration(s.get("timeout", "10s"))
	if err != nil {
		return authc.NewConfigError(id, fmt.Errorf("'timeout' %v", err))
	}
	o.Options = OAuth2Options{
		UserInfoURL:   s.get("userinfo_url", ""),
		UsernameClaim: s.get("username_claim", "preferred_username"),
		PostProcessor: s.get("post_processor", ""),
		LoginPage:     s.get("login_page", ""),
		Timeout:       timeout,
	}
	if err = o.validate(&o.Options); err != nil {
		return err
	}

	if o.lookup == nil {
		return authc.NewConfigError(id, errors.New("user lookup is not set"))
	}
	if o.postProcessor, err = resolvePostProcessor(o.postProcessors, o.Options.PostProcessor); err != nil {
		return authc.NewConfigError(id, err)
	}

	u, _ := url.Parse(o.Options.UserInfoURL)
	o.realm = u.Host
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: o.Options.Timeout}
	}
	return nil
}

// Credentials method returns the bearer token of the `Authorization`
// header, nil if absent.
func (o *OAuth2UserInfo) Credentials(s *authc.Session) (authc.Credentials, error) {
	hdr := strings.TrimSpace(s.RequestHeader(ahttp.HeaderAuthorization))
	if len(hdr) < 7 || !strings.EqualFold(hdr[:7], "bearer ") {
		return nil, nil
	}
	token := strings.TrimSpace(hdr[7:])
	if len(token) == 0 {
		return nil, nil
	}

	c := &BearerCredentials{authenticator: o.ID(), token: token}
	s.Context().AddCredentials(c)
	return c, nil
}

// ChallengeURL method returns the configured login page, API clients get
// the `401` challenge when it is empty.
func (o *OAuth2UserInfo) ChallengeURL(s *authc.Session) string {
	if s.Context().Credentials(o.ID()) == nil {
		return o.Options.LoginPage
	}
	return ""
}

// Authenticate method fetches the user claims with the access token and
// resolves the local user by the username claim.
func (o *OAuth2UserInfo) Authenticate(c authc.Credentials) (*authc.AuthenticationInfo, error) {
	bc, ok := c.(*BearerCredentials)
	if !ok {
		return nil, authc.NewMalformedRequestError(o.ID(), "authentication.error.invalidCredentials")
	}

	claims, err := o.fetchClaims(bc.token)
	if err != nil {
		return nil, authc.NewAuthenticationError(o.ID(), err)
	}

	username := claims[o.Options.UsernameClaim]
	if len(username) == 0 {
		return nil, authc.NewAuthenticationError(o.ID(),
			fmt.Errorf("claim '%s' is missing in user info", o.Options.UsernameClaim))
	}
	o.audit(audit.Username, username)

	if o.postProcessor != nil {
		if err = o.postProcessor.Process(&SubjectInfo{Scheme: o.ID(), Username: username, Claims: claims}); err != nil {
			return nil, authc.NewAuthenticationError(o.ID(), err)
		}
	}

	u, err := o.lookup.UserByUsername(username)
	if err != nil {
		return nil, authc.NewAuthenticationError(o.ID(), err)
	}

	authcInfo := &authc.AuthenticationInfo{Scheme: o.ID(), User: u}
	keys := make([]string, 0, len(claims))
	for k := range claims {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		authcInfo.Principals = append(authcInfo.Principals, &authc.Principal{
			Realm:     o.realm,
			Claim:     k,
			Value:     claims[k],
			IsPrimary: k == o.Options.UsernameClaim,
		})
	}
	return authcInfo, nil
}

func (o *OAuth2UserInfo) fetchClaims(token string) (map[string]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), o.Options.Timeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, o.HTTPClient)

	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.Options.UserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(ahttp.HeaderAccept, "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info endpoint returned status %d", resp.StatusCode)
	}

	var raw map[string]interface{}
	if err = json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&raw); err != nil {
		return nil, fmt.Errorf("unable to decode user info: %v", err)
	}

	claims := make(map[string]string, len(raw))
	for k, v := range raw {
		switch tv := v.(type) {
		case string:
			claims[k] = tv
		case nil:
		default:
			claims[k] = fmt.Sprint(tv)
		}
	}
	return claims, nil
}

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// BearerCredentials
//___________________________________

// BearerCredentials is the OAuth2 access token. The user behind the token
// is known only from the user info claims, see `authc.AuthenticationInfo`.
type BearerCredentials struct {
	authenticator string
	token         string
}

type bearerCredentialsData struct {
	Authenticator, Token string
}

// AuthenticatorName method is `authc.Credentials` interface.
func (c *BearerCredentials) AuthenticatorName() string {
	return c.authenticator
}

// ClientName method returns empty string, an access token does not name
// its user.
func (c *BearerCredentials) ClientName() string {
	return ""
}

// GobEncode method is gob.GobEncoder interface.
func (c *BearerCredentials) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(&bearerCredentialsData{c.authenticator, c.token})
	return buf.Bytes(), err
}

// GobDecode method is gob.GobDecoder interface.
func (c *BearerCredentials) GobDecode(b []byte) error {
	var d bearerCredentialsData
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&d); err != nil {
		return err
	}
	c.authenticator, c.token = d.Authenticator, d.Token
	return nil
}

// String method is stringer interface implementation.
func (c BearerCredentials) String() string {
	return fmt.Sprintf("bearercredentials(authenticator:%s token:*******)", c.authenticator)
}
