// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

package scheme

import (
	"fmt"
	"strconv"
	"strings"

	"aahframe.work/authn/security/audit"
	"aahframe.work/authn/security/authc"
	"aahframe.work/authn/valpar"
)

// BaseScheme holds the fields and the no-op hooks shared by the built-in
// schemes, embed it to write a new scheme.
type BaseScheme struct {
	id         string
	configured bool
	auditSink  audit.Sink
}

// ID method returns the scheme ID.
func (b *BaseScheme) ID() string {
	return b.id
}

// SetAuditSink method is `AuditAware` interface.
func (b *BaseScheme) SetAuditSink(sink audit.Sink) {
	b.auditSink = sink
}

// BeforeAuthentication method does nothing.
func (b *BaseScheme) BeforeAuthentication(_ *authc.Session) error {
	return nil
}

// AfterAuthenticationSuccess method does nothing.
func (b *BaseScheme) AfterAuthenticationSuccess(_ *authc.Session) error {
	return nil
}

// Init method marks the scheme configured with the given ID, it returns
// `ErrSchemeAlreadyConfigured` on second call.
func (b *BaseScheme) Init(id string) error {
	if b.configured {
		return ErrSchemeAlreadyConfigured
	}
	if len(strings.TrimSpace(id)) == 0 {
		return authc.NewConfigError(id, fmt.Errorf("scheme id is required"))
	}
	b.id = id
	b.configured = true
	return nil
}

func (b *BaseScheme) audit(t audit.EventType, payload string) {
	if b.auditSink != nil {
		b.auditSink.Log(audit.NewEvent(t, payload))
	}
}

func (b *BaseScheme) validate(opts interface{}) error {
	if err := valpar.Validate(opts); err != nil {
		return authc.NewConfigError(b.id, err)
	}
	return nil
}

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// settings
//___________________________________

// settings is the flat scheme config of `authentication.schemes.<id>.config`.
type settings map[string]string

func (s settings) get(key, defaultValue string) string {
	if v, found := s[key]; found {
		return strings.TrimSpace(v)
	}
	return defaultValue
}

func (s settings) bool(key string, defaultValue bool) (bool, error) {
	v, found := s[key]
	if !found || len(strings.TrimSpace(v)) == 0 {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, fmt.Errorf("'%s' invalid boolean value '%s'", key, v)
	}
	return b, nil
}
