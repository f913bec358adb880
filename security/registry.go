// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

package security

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"aahframe.work/authn/config"
	"aahframe.work/authn/essentials"
	"aahframe.work/authn/location"
	"aahframe.work/authn/log"
	"aahframe.work/authn/security/audit"
	"aahframe.work/authn/security/authc"
	"aahframe.work/authn/security/scheme"
	"aahframe.work/authn/valpar"
)

// SecondaryTypeProperty is the user property naming the optional secondary
// scheme the user is enrolled in.
const SecondaryTypeProperty = "authentication.secondaryType"

// State of the authentication of a session.
type State uint8

// Authentication states
const (
	StateNoContext State = iota
	StatePrimaryPending
	StatePrimarySatisfied
	StateSecondaryPending
	StateAuthenticated
	StateRejected
)

var stateNames = [...]string{"no_context", "primary_pending", "primary_satisfied", "secondary_pending", "authenticated", "rejected"}

// String method is stringer interface implementation.
func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", s)
}

// Collaborators are injected into the schemes implementing the matching
// `scheme.*Aware` interface.
type Collaborators struct {
	Verifier       authc.Verifier
	TokenVerifier  authc.TokenVerifier
	UserLookup     authc.UserLookup
	Locations      location.Service
	PostProcessors map[string]scheme.PostProcessor
	AuditSink      audit.Sink
}

// SchemeEntry is one configured scheme, `authentication.schemes.<id>`.
type SchemeEntry struct {
	ID       string   `cfg:"id" validate:"required"`
	Type     string   `cfg:"type" validate:"required"`
	Primary  bool     `cfg:"primary"`
	Optional bool     `cfg:"optional"`
	After    []string `cfg:"after" validate:"dive,required"`
	Scheme   scheme.Schemer
}

// String method is stringer interface implementation.
func (e SchemeEntry) String() string {
	return fmt.Sprintf("scheme(id:%s type:%s primary:%v optional:%v)", e.ID, e.Type, e.Primary, e.Optional)
}

// Registry is the immutable snapshot of the configured schemes, one
// primary followed by the ordered secondaries.
type Registry struct {
	primary     *SchemeEntry
	secondaries []*SchemeEntry
	entries     map[string]*SchemeEntry
}

// NewRegistry method builds the registry from the `authentication`
// section of the config.
func NewRegistry(cfg *config.Config, c Collaborators) (*Registry, error) {
	ids := cfg.KeysByPath("authentication.schemes")
	if len(ids) == 0 {
		return nil, authc.NewConfigError("", errors.New("'authentication.schemes' is not configured"))
	}

	r := &Registry{entries: make(map[string]*SchemeEntry)}
	for _, id := range ids {
		e, err := newSchemeEntry(cfg, id, c)
		if err != nil {
			return nil, err
		}
		if e.Primary {
			if r.primary != nil {
				return nil, authc.NewConfigError(id, fmt.Errorf("more than one primary scheme, '%s' and '%s'", r.primary.ID, id))
			}
			r.primary = e
		}
		r.entries[id] = e
	}
	if r.primary == nil {
		return nil, authc.NewConfigError("", errors.New("primary scheme is not configured"))
	}

	order, err := schemeOrder(cfg, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range order {
		e := r.entries[id]
		if e.Primary {
			continue
		}
		if len(e.After) > 0 && !ess.IsSliceContainsString(e.After, r.primary.ID) {
			log.Infof("security: scheme '%s' applies after %v only, skipped for primary '%s'", id, e.After, r.primary.ID)
			delete(r.entries, id)
			continue
		}
		r.secondaries = append(r.secondaries, e)
	}

	log.Debugf("security: primary scheme %s, secondary schemes %v", r.primary, r.SecondaryIDs())
	return r, nil
}

// Primary method returns the primary scheme entry.
func (r *Registry) Primary() *SchemeEntry {
	return r.primary
}

// Secondaries method returns the secondary scheme entries in order.
func (r *Registry) Secondaries() []*SchemeEntry {
	return r.secondaries
}

// SecondaryIDs method returns the secondary scheme IDs in order.
func (r *Registry) SecondaryIDs() []string {
	ids := make([]string, 0, len(r.secondaries))
	for _, e := range r.secondaries {
		ids = append(ids, e.ID)
	}
	return ids
}

// Entry method returns the scheme entry for given ID otherwise nil.
func (r *Registry) Entry(id string) *SchemeEntry {
	return r.entries[id]
}

// Next method returns the next unsatisfied scheme for the context. The
// primary is returned until a candidate user exists, then the first
// applicable secondary without stored credentials. Nil entry means all
// factors are satisfied.
func (r *Registry) Next(ctx *authc.Context) (*SchemeEntry, State) {
	candidate := ctx.CandidateUser()
	if candidate == nil {
		if len(ctx.CredentialIDs()) == 0 {
			return r.primary, StateNoContext
		}
		return r.primary, StatePrimaryPending
	}

	satisfied := false
	for _, e := range r.secondaries {
		if !r.isApplicable(e, candidate) {
			continue
		}
		if ctx.Credentials(e.ID) != nil {
			satisfied = true
			continue
		}
		if satisfied {
			return e, StateSecondaryPending
		}
		return e, StatePrimarySatisfied
	}
	return nil, StateAuthenticated
}

func (r *Registry) isApplicable(e *SchemeEntry, u *authc.User) bool {
	if !e.Optional {
		return true
	}
	return strings.TrimSpace(u.Property(SecondaryTypeProperty)) == e.ID
}

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// Unexported methods
//___________________________________

func newSchemeEntry(cfg *config.Config, id string, c Collaborators) (*SchemeEntry, error) {
	keyPrefix := "authentication.schemes." + id
	after, _ := cfg.StringList(keyPrefix + ".after")
	e := &SchemeEntry{
		ID:       id,
		Type:     cfg.StringDefault(keyPrefix+".type", ""),
		Primary:  cfg.BoolDefault(keyPrefix+".primary", false),
		Optional: cfg.BoolDefault(keyPrefix+".optional", false),
		After:    ess.UniqueStrings(after),
	}
	if err := valpar.Validate(e); err != nil {
		return nil, authc.NewConfigError(id, err)
	}

	sc, err := scheme.New(e.Type)
	if err != nil {
		return nil, authc.NewConfigError(id, err)
	}
	inject(sc, c)

	settings, _ := cfg.StringMap(keyPrefix + ".config")
	if err = sc.Configure(id, settings); err != nil {
		return nil, asConfigError(id, err)
	}
	e.Scheme = sc
	return e, nil
}

func asConfigError(id string, err error) error {
	if errors.Is(err, authc.ErrConfig) {
		return err
	}
	return authc.NewConfigError(id, err)
}

func inject(sc scheme.Schemer, c Collaborators) {
	if v, ok := sc.(scheme.VerifierAware); ok && c.Verifier != nil {
		v.SetVerifier(c.Verifier)
	}
	if v, ok := sc.(scheme.TokenVerifierAware); ok && c.TokenVerifier != nil {
		v.SetTokenVerifier(c.TokenVerifier)
	}
	if v, ok := sc.(scheme.UserLookupAware); ok && c.UserLookup != nil {
		v.SetUserLookup(c.UserLookup)
	}
	if v, ok := sc.(scheme.LocationServiceAware); ok && c.Locations != nil {
		v.SetLocationService(c.Locations)
	}
	if v, ok := sc.(scheme.PostProcessorAware); ok {
		v.SetPostProcessors(c.PostProcessors)
	}
	if v, ok := sc.(scheme.AuditAware); ok && c.AuditSink != nil {
		v.SetAuditSink(c.AuditSink)
	}
}

// schemeOrder returns `authentication.order`, the schemes not listed are
// appended in name order.
func schemeOrder(cfg *config.Config, ids []string) ([]string, error) {
	known := make(map[string]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}

	order, _ := cfg.StringList("authentication.order")
	order = ess.UniqueStrings(order)
	for _, id := range order {
		if !known[id] {
			return nil, authc.NewConfigError(id, fmt.Errorf("'authentication.order' has unknown scheme '%s'", id))
		}
		delete(known, id)
	}

	rest := make([]string, 0, len(known))
	for id := range known {
		rest = append(rest, id)
	}
	sort.Strings(rest)
	return append(order, rest...), nil
}
