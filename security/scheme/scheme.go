// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

// Package scheme provides the authentication schemes and the protocol the
// orchestrator drives them with. Scheme types are registered by name,
// collaborators are injected through the optional `...Aware` interfaces
// before `Configure` is called.
package scheme

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"aahframe.work/authn/location"
	"aahframe.work/authn/security/audit"
	"aahframe.work/authn/security/authc"
)

// ErrSchemeAlreadyConfigured returned when `Configure` is called again on
// the same scheme instance.
var ErrSchemeAlreadyConfigured = errors.New("security/scheme: scheme already configured")

var (
	factories = map[string]Factory{}
	factoryMu sync.RWMutex
)

// Schemer interface is implemented by every authentication scheme.
type Schemer interface {
	// Configure method applies the defaults to given settings and validates
	// them, it is called once per instance.
	Configure(id string, cfg map[string]string) error

	// ID method returns the scheme ID, key of the scheme in
	// `authentication.schemes.<id>`.
	ID() string

	// Credentials method extracts the scheme credentials from the request.
	// Found credentials are added to the authentication context, otherwise
	// nil is returned and nothing is changed.
	Credentials(s *authc.Session) (authc.Credentials, error)

	// ChallengeURL method returns the URL to redirect for collecting the
	// credentials, empty string when no redirect is needed.
	ChallengeURL(s *authc.Session) string

	// Authenticate method verifies the credentials.
	Authenticate(c authc.Credentials) (*authc.AuthenticationInfo, error)

	// BeforeAuthentication method is called right before `Authenticate`,
	// returning error rejects the attempt without verification.
	BeforeAuthentication(s *authc.Session) error

	// AfterAuthenticationSuccess method is called after the candidate user
	// is established by this scheme.
	AfterAuthenticationSuccess(s *authc.Session) error
}

// Factory func returns a new unconfigured scheme instance.
type Factory func() Schemer

type (
	// VerifierAware is implemented by schemes verifying passwords.
	VerifierAware interface {
		SetVerifier(v authc.Verifier)
	}

	// TokenVerifierAware is implemented by schemes verifying tokens.
	TokenVerifierAware interface {
		SetTokenVerifier(v authc.TokenVerifier)
	}

	// LocationServiceAware is implemented by schemes resolving locations.
	LocationServiceAware interface {
		SetLocationService(ls location.Service)
	}

	// UserLookupAware is implemented by schemes mapping an external
	// identity to the local user.
	UserLookupAware interface {
		SetUserLookup(ul authc.UserLookup)
	}

	// PostProcessorAware is implemented by schemes supporting the
	// `post_processor` setting.
	PostProcessorAware interface {
		SetPostProcessors(pp map[string]PostProcessor)
	}

	// AuditAware is implemented by schemes producing audit events.
	AuditAware interface {
		SetAuditSink(sink audit.Sink)
	}
)

// SubjectInfo is the unverified subject handed to the post-processor.
type SubjectInfo struct {
	Scheme   string
	UserID   int
	Username string
	Claims   map[string]string
}

// PostProcessor interface inspects the subject before the verification
// completes, returning error vetoes the authentication.
type PostProcessor interface {
	Process(info *SubjectInfo) error
}

// PostProcessorFunc type is an adapter to allow the use of ordinary
// functions as post-processor.
type PostProcessorFunc func(info *SubjectInfo) error

// Process method calls f(info).
func (f PostProcessorFunc) Process(info *SubjectInfo) error {
	return f(info)
}

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// Package methods
//___________________________________

func init() {
	_ = Register("basic", func() Schemer { return &Basic{} })
	_ = Register("basic_location", func() Schemer { return &BasicLocation{} })
	_ = Register("token", func() Schemer { return &Token{} })
	_ = Register("oauth2_userinfo", func() Schemer { return &OAuth2UserInfo{} })
}

// Register method registers the scheme type, it is used in
// `authentication.schemes.<id>.type`.
func Register(typeName string, f Factory) error {
	typeName = strings.ToLower(strings.TrimSpace(typeName))
	if len(typeName) == 0 || f == nil {
		return errors.New("security/scheme: type name and factory are required")
	}

	factoryMu.Lock()
	defer factoryMu.Unlock()
	if _, found := factories[typeName]; found {
		return fmt.Errorf("security/scheme: type '%s' is already registered", typeName)
	}
	factories[typeName] = f
	return nil
}

// New method creates the scheme instance for given type.
func New(typeName string) (Schemer, error) {
	factoryMu.RLock()
	f, found := factories[strings.ToLower(strings.TrimSpace(typeName))]
	factoryMu.RUnlock()
	if !found {
		return nil, fmt.Errorf("security/scheme: unknown type '%s'", typeName)
	}
	return f(), nil
}

// Types method returns the registered scheme types, sorted.
func Types() []string {
	factoryMu.RLock()
	defer factoryMu.RUnlock()
	types := make([]string, 0, len(factories))
	for t := range factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
