// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

package scheme

import (
	"errors"
	"strconv"
	"strings"

	"aahframe.work/authn/location"
	"aahframe.work/authn/security/authc"
)

// Location error reasons
const (
	ReasonLocationRequired = "authentication.error.locationRequired"
	ReasonInvalidLocation  = "authentication.error.invalidLocation"
)

var (
	_ Schemer              = (*BasicLocation)(nil)
	_ LocationServiceAware = (*BasicLocation)(nil)
)

// LocationOptions are the `basic_location` scheme settings on top of
// `BasicOptions`.
type LocationOptions struct {
	LocationParamName            string `cfg:"location_param_name" validate:"required"`
	OnlyLocationsWithTag         string `cfg:"only_locations_with_tag"`
	LocationRequired             bool   `cfg:"location_required"`
	LocationSessionAttributeName string `cfg:"location_session_attribute_name"`
	LastLocationCookieName       string `cfg:"last_location_cookie_name"`
}

// BasicLocation is the basic scheme which also binds the login location
// to the session.
type BasicLocation struct {
	Basic
	LocationOptions LocationOptions
	locations       location.Service
}

// SetLocationService method is `LocationServiceAware` interface.
func (b *BasicLocation) SetLocationService(ls location.Service) {
	b.locations = ls
}

// Configure method configures the basic and location settings.
func (b *BasicLocation) Configure(id string, cfg map[string]string) error {
	if err := b.Basic.Configure(id, cfg); err != nil {
		return err
	}

	s := settings(cfg)
	required, err := s.bool("location_required", false)
	if err != nil {
		return authc.NewConfigError(id, err)
	}
	b.LocationOptions = LocationOptions{
		LocationParamName:            s.get("location_param_name", "sessionLocation"),
		OnlyLocationsWithTag:         s.get("only_locations_with_tag", ""),
		LocationRequired:             required,
		LocationSessionAttributeName: s.get("location_session_attribute_name", "emrContext.sessionLocationId"),
		LastLocationCookieName:       s.get("last_location_cookie_name", "emr.lastSessionLocation"),
	}
	if err = b.validate(&b.LocationOptions); err != nil {
		return err
	}

	if b.locations == nil {
		return authc.NewConfigError(id, errors.New("location service is not set"))
	}
	return nil
}

// BeforeAuthentication method rejects an invalid location, and a missing
// one when it is required. API requests are exempted from the latter.
func (b *BasicLocation) BeforeAuthentication(s *authc.Session) error {
	loc, err := b.LoginLocation(s)
	if err != nil {
		return err
	}
	if loc == nil && b.LocationOptions.LocationRequired && !s.IsAPIRequest() {
		return authc.NewPolicyError(b.ID(), ReasonLocationRequired)
	}
	return nil
}

// AfterAuthenticationSuccess method binds the login location to the user
// context and mirrors it into the session attribute and cookie when
// their names are configured.
func (b *BasicLocation) AfterAuthenticationSuccess(s *authc.Session) error {
	loc, err := b.LoginLocation(s)
	if err != nil || loc == nil {
		return err
	}

	s.UserContext().Location = loc
	if name := b.LocationOptions.LocationSessionAttributeName; len(name) > 0 {
		s.SetHTTPSessionAttribute(name, loc.ID)
	}
	if name := b.LocationOptions.LastLocationCookieName; len(name) > 0 {
		s.SetCookieValue(name, strconv.Itoa(loc.ID))
	}
	return nil
}

// LoginLocation method returns the location from the request, nil when the
// parameter is absent. The value is looked up as ID first then as UUID.
func (b *BasicLocation) LoginLocation(s *authc.Session) (*location.Location, error) {
	v := strings.TrimSpace(s.RequestParam(b.LocationOptions.LocationParamName))
	if len(v) == 0 {
		return nil, nil
	}

	var loc *location.Location
	var err error
	if id, perr := strconv.Atoi(v); perr == nil {
		loc, err = b.locations.LocationByID(id)
	} else {
		loc, err = b.locations.LocationByUUID(v)
	}

	if err != nil || loc == nil || !b.isValidLocation(loc) {
		return nil, authc.NewMalformedRequestError(b.ID(), ReasonInvalidLocation)
	}
	return loc, nil
}

func (b *BasicLocation) isValidLocation(loc *location.Location) bool {
	tag := b.LocationOptions.OnlyLocationsWithTag
	return len(tag) == 0 || loc.HasTag(tag)
}
