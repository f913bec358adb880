// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

// Package config provides read access to the `forge` syntax configuration
// used by the authn packages. A parsed Config is treated as an immutable
// snapshot, reload means parsing again and swapping the instance.
//
// Internally it uses `forge syntax` developed by `https://github.com/brettlangdon`.
package config

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"aahframe.work/authn/essentials"
	"github.com/go-aah/forge"
)

// ErrKeyNotFound is returned when the config key does not exist.
var ErrKeyNotFound = errors.New("config: not found")

// Config handles the configuration values and enables environment profile's.
// Also it provide nice and handy methods for accessing config values.
type Config struct {
	profile string
	cfg     *forge.Section
}

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// Package methods
//___________________________________

// NewEmpty method returns aah empty config instance.
func NewEmpty() *Config {
	cfg, _ := ParseString("")
	return cfg
}

// ParseString method parses given configuration string.
func ParseString(cfg string) (*Config, error) {
	setting, err := forge.ParseString(cfg)
	if err != nil {
		return nil, err
	}
	return &Config{cfg: setting}, nil
}

// LoadFile method loads the given configuration file.
func LoadFile(file string) (*Config, error) {
	if !ess.IsFileExists(file) {
		return nil, fmt.Errorf("open %s: no such file or directory", file)
	}

	setting, err := forge.ParseFile(file)
	if err != nil {
		return nil, err
	}
	return &Config{cfg: setting}, nil
}

// LoadFiles method loads the given configuration files and merges them
// in the given order, later file values win.
func LoadFiles(files ...string) (*Config, error) {
	cfg := NewEmpty()
	for _, file := range files {
		c, err := LoadFile(file)
		if err != nil {
			return nil, err
		}
		if err = cfg.Merge(c); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// Config methods
//___________________________________

// Profile returns the current profile name.
func (c *Config) Profile() string {
	return c.profile
}

// SetProfile makes the given profile section the first lookup path,
// keys not found there falls back to the top level.
func (c *Config) SetProfile(profile string) error {
	if v, err := c.cfg.Resolve(profile); err != nil || v.GetType() != forge.SECTION {
		return fmt.Errorf("config: profile doesn't exists: %v", profile)
	}
	c.profile = profile
	return nil
}

// ClearProfile clears the current profile.
func (c *Config) ClearProfile() {
	c.profile = ""
}

// IsProfileEnabled returns true if profile is set.
func (c *Config) IsProfileEnabled() bool {
	return len(c.profile) > 0
}

// Merge merges the given config into current config.
func (c *Config) Merge(source *Config) error {
	if source == nil {
		return errors.New("source is nil")
	}
	return c.cfg.Merge(source.cfg)
}

// Get returns the raw value for the given key, profile is honored.
func (c *Config) Get(key string) (interface{}, bool) {
	if v, found := c.value(key); found {
		switch t := v.(type) {
		case *forge.Primative:
			return t.GetValue(), true
		default:
			return v, true
		}
	}
	return nil, false
}

// IsExists returns true if given is exists in the config otherwise returns false
func (c *Config) IsExists(key string) bool {
	_, found := c.value(key)
	return found
}

// String gets the `string` value for the given key from the configuration.
func (c *Config) String(key string) (string, bool) {
	v, found := c.Get(key)
	if !found || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case int64, float64, bool:
		return fmt.Sprintf("%v", t), true
	}
	return "", false
}

// StringDefault gets the `string` value for the given key from the configuration.
// If key does not exists it returns default value.
func (c *Config) StringDefault(key, defaultValue string) string {
	if value, found := c.String(key); found {
		return value
	}
	return defaultValue
}

// Int gets the `int` value for the given key from the configuration.
func (c *Config) Int(key string) (int, bool) {
	v, found := c.Get(key)
	if !found {
		return 0, false
	}
	switch t := v.(type) {
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	case string:
		if i, err := strconv.Atoi(t); err == nil {
			return i, true
		}
	}
	return 0, false
}

// IntDefault gets the `int` value for the given key from the configuration.
// If key does not exists it returns default value.
func (c *Config) IntDefault(key string, defaultValue int) int {
	if value, found := c.Int(key); found {
		return value
	}
	return defaultValue
}

// Bool gets the `bool` value for the given key from the configuration.
func (c *Config) Bool(key string) (bool, bool) {
	v, found := c.Get(key)
	if !found {
		return false, false
	}
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		if b, err := strconv.ParseBool(t); err == nil {
			return b, true
		}
	}
	return false, false
}

// BoolDefault gets the `bool` value for the given key from the configuration.
// If key does not exists it returns default value.
func (c *Config) BoolDefault(key string, defaultValue bool) bool {
	if value, found := c.Bool(key); found {
		return value
	}
	return defaultValue
}

// Duration gets the `time.Duration` value for the given key, value is
// parsed with `time.ParseDuration`. For e.g.: "30m", "2h".
func (c *Config) Duration(key string) (time.Duration, error) {
	v, found := c.String(key)
	if !found {
		return 0, ErrKeyNotFound
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: '%s' invalid duration: %v", key, err)
	}
	return d, nil
}

// DurationDefault gets the duration value for the given key, if key
// does not exists it returns default value. An invalid value returns error.
func (c *Config) DurationDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	d, err := c.Duration(key)
	if err == ErrKeyNotFound {
		return defaultValue, nil
	}
	return d, err
}

// StringList method returns the string slice value for the given key.
// A single string value is split by comma.
//	Eg.: Config is
//		skip = ["/login.htm", "/static/*"]
//	Returns: []string{"/login.htm", "/static/*"}
func (c *Config) StringList(key string) ([]string, bool) {
	v, found := c.value(key)
	if !found {
		return []string{}, false
	}

	switch t := v.(type) {
	case *forge.List:
		values := make([]string, 0, len(t.GetValues()))
		for _, lv := range t.GetValues() {
			if p, ok := lv.(*forge.Primative); ok {
				values = append(values, fmt.Sprintf("%v", p.GetValue()))
			}
		}
		return values, true
	case *forge.Primative:
		if s, ok := t.GetValue().(string); ok {
			return ess.SplitTrimmed(s, ","), true
		}
	}
	return []string{}, false
}

// Keys returns all config keys at the top level, sorted.
func (c *Config) Keys() []string {
	keys := c.cfg.Keys()
	sort.Strings(keys)
	return keys
}

// KeysByPath is similar to `Config.Keys()`, however it returns config keys
// for the given path, sorted.
//	For e.g.:
//		authentication.schemes
func (c *Config) KeysByPath(path string) []string {
	v, found := c.value(path)
	if !found {
		return []string{}
	}
	sec, ok := v.(*forge.Section)
	if !ok {
		return []string{}
	}
	keys := sec.Keys()
	sort.Strings(keys)
	return keys
}

// StringMap returns the given section flattened into dotted string keys.
// Every primitive is formatted as string, lists are joined with comma.
//	For e.g.:
//		config { login_page = "/login.htm", limits { max = 5 } }
//	Returns: map[string]string{"login_page": "/login.htm", "limits.max": "5"}
func (c *Config) StringMap(path string) (map[string]string, bool) {
	v, found := c.value(path)
	if !found {
		return map[string]string{}, false
	}
	sec, ok := v.(*forge.Section)
	if !ok {
		return map[string]string{}, false
	}
	result := make(map[string]string)
	flatten("", sec, result)
	return result, true
}

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// Unexported methods
//___________________________________

func (c *Config) value(key string) (forge.Value, bool) {
	if c.IsProfileEnabled() {
		if v, err := c.cfg.Resolve(c.profile + "." + key); err == nil {
			return v, true
		}
	}
	v, err := c.cfg.Resolve(key)
	if err != nil {
		return nil, false
	}
	return v, true
}

func flatten(prefix string, sec *forge.Section, result map[string]string) {
	for _, k := range sec.Keys() {
		v, err := sec.Get(k)
		if err != nil {
			continue
		}
		key := k
		if len(prefix) > 0 {
			key = prefix + "." + k
		}
		switch t := v.(type) {
		case *forge.Section:
			flatten(key, t, result)
		case *forge.List:
			var values []string
			for _, lv := range t.GetValues() {
				if p, ok := lv.(*forge.Primative); ok {
					values = append(values, fmt.Sprintf("%v", p.GetValue()))
				}
			}
			result[key] = strings.Join(values, ",")
		case *forge.Primative:
			if t.GetValue() == nil {
				result[key] = ""
			} else {
				result[key] = fmt.Sprintf("%v", t.GetValue())
			}
		}
	}
}
