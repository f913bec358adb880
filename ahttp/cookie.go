// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

package ahttp

import (
	"net/http"
)

// ResponseCookies method parses the pending `Set-Cookie` headers of the
// given header map.
func ResponseCookies(hdr http.Header) []*http.Cookie {
	return (&http.Response{Header: hdr}).Cookies()
}

// ResponseCookie method returns the pending response cookie for the given
// name otherwise nil.
func ResponseCookie(hdr http.Header, name string) *http.Cookie {
	for _, c := range ResponseCookies(hdr) {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ReplaceCookie method removes every pending `Set-Cookie` of the same name
// and adds the given cookie, so the response carries exactly one entry
// per cookie name.
func ReplaceCookie(w http.ResponseWriter, cookie *http.Cookie) {
	hdr := w.Header()
	existing := hdr[HeaderSetCookie]
	kept := existing[:0]
	for _, line := range existing {
		h := http.Header{HeaderSetCookie: []string{line}}
		if c := ResponseCookie(h, cookie.Name); c != nil {
			continue
		}
		kept = append(kept, line)
	}
	if len(kept) == 0 {
		hdr.Del(HeaderSetCookie)
	} else {
		hdr[HeaderSetCookie] = kept
	}
	http.SetCookie(w, cookie)
}

// ExpireCookie method returns the cookie for given name which instructs
// the client to drop it immediately.
func ExpireCookie(name, path, domain string) *http.Cookie {
	if len(path) == 0 {
		path = "/"
	}
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		Domain:   domain,
		MaxAge:   -1,
		HttpOnly: true,
	}
}
