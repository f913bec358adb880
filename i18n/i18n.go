// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

// Package i18n provides the localized messages for the authentication
// failure reasons shown on the login pages. Messages use the `forge` config
// syntax, nested sections become dotted keys.
//
// Message filename format is `messages.<Language-ID>`, Language-ID is
// language (ISO 639-1) optionally followed by region (ISO 3166-1).
//
//	messages.en
//	messages.en-US or messages.en-us
//	messages.fr
//
// Lookup order is language-region, language and then the default locale.
package i18n

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"aahframe.work/authn/ahttp"
	"aahframe.work/authn/config"
	"aahframe.work/authn/essentials"
	"aahframe.work/authn/log"
)

var msgFileRegex = regexp.MustCompile(`^messages\.[a-zA-Z]{2}(\-[a-zA-Z]{2})?$`)

// I18n holds the messages by locale.
type I18n struct {
	DefaultLocale string

	mu    sync.RWMutex
	store map[string]*config.Config
}

// New method returns the message store with given default locale.
func New(defaultLocale string) *I18n {
	return &I18n{DefaultLocale: strings.ToLower(defaultLocale), store: make(map[string]*config.Config)}
}

// Load processes the given message files or directories and adds them to
// the store. Missing paths are skipped.
func (s *I18n) Load(paths ...string) error {
	for _, p := range paths {
		if !ess.IsFileExists(p) {
			log.Warnf("i18n: path '%s' does not exist, skipping", p)
			continue
		}

		if !ess.IsDir(p) {
			if err := s.loadFile(p); err != nil {
				return err
			}
			continue
		}

		err := filepath.WalkDir(p, func(fpath string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !msgFileRegex.MatchString(d.Name()) {
				return nil
			}
			return s.loadFile(fpath)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// LoadFS processes the message files of the given file system, such as an
// embedded one.
func (s *I18n) LoadFS(fsys fs.FS, root string) error {
	return fs.WalkDir(fsys, root, func(fpath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !msgFileRegex.MatchString(d.Name()) {
			return nil
		}

		b, err := fs.ReadFile(fsys, fpath)
		if err != nil {
			return err
		}
		cfg, err := config.ParseString(string(b))
		if err != nil {
			return fmt.Errorf("i18n: %s: %v", fpath, err)
		}
		return s.Add(localeOf(path.Base(fpath)), cfg)
	})
}

// Add adds the messages for the locale, existing messages of the locale
// are merged.
func (s *I18n) Add(locale string, messages *config.Config) error {
	key := strings.ToLower(locale)
	s.mu.Lock()
	defer s.mu.Unlock()
	if ms, found := s.store[key]; found {
		log.Tracef("i18n: locale '%s' already exists, merging", key)
		return ms.Merge(messages)
	}
	s.store[key] = messages
	return nil
}

// Lookup returns the message for the key formatted with args. Empty string
// is returned if no locale in the fallback order has the key. Nil locale
// uses the default locale.
func (s *I18n) Lookup(locale *ahttp.Locale, key string, args ...interface{}) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var candidates []string
	if locale != nil {
		candidates = append(candidates, locale.String(), locale.Language)
	}
	candidates = append(candidates, s.DefaultLocale)

	for _, c := range candidates {
		store, found := s.store[strings.ToLower(c)]
		if !found {
			continue
		}
		if msg, found := store.String(key); found {
			if len(args) > 0 {
				return fmt.Sprintf(msg, args...)
			}
			return msg
		}
	}
	log.Debugf("i18n: key '%s' not found for locale %v", key, locale)
	return ""
}

// Locales returns the loaded locales in sorted order.
func (s *I18n) Locales() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	locales := make([]string, 0, len(s.store))
	for l := range s.store {
		locales = append(locales, l)
	}
	sort.Strings(locales)
	return locales
}

func (s *I18n) loadFile(file string) error {
	cfg, err := config.LoadFile(file)
	if err != nil {
		return fmt.Errorf("i18n: %v", err)
	}
	return s.Add(localeOf(filepath.Base(file)), cfg)
}

func localeOf(name string) string {
	return strings.TrimPrefix(path.Ext(name), ".")
}
