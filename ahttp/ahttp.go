// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

// Package ahttp contains the HTTP helpers shared by the authn filters:
// header names, a commit aware response writer and cookie helpers.
package ahttp

import (
	"net"
	"net/http"
	"strings"

	"aahframe.work/authn/essentials"
)

// HTTP header names used across the authn packages
const (
	HeaderAccept          = "Accept"
	HeaderAcceptLanguage  = "Accept-Language"
	HeaderAuthorization   = "Authorization"
	HeaderCacheControl    = "Cache-Control"
	HeaderContentType     = "Content-Type"
	HeaderCookie          = "Cookie"
	HeaderLocation        = "Location"
	HeaderReferer         = "Referer"
	HeaderSetCookie       = "Set-Cookie"
	HeaderVary            = "Vary"
	HeaderWWWAuthenticate = "WWW-Authenticate"
	HeaderXRequestedWith  = "X-Requested-With"
	HeaderXForwardedFor   = "X-Forwarded-For"
	HeaderXRealIP         = "X-Real-Ip"
)

// ClientIP returns IP address from HTTP request, typically known as Client IP or
// Remote IP. It parses the IP in the order of X-Forwarded-For, X-Real-IP
// and finally `http.Request.RemoteAddr`.
func ClientIP(req *http.Request) string {
	// Header X-Forwarded-For
	if fwdFor := req.Header.Get(HeaderXForwardedFor); !ess.IsStrEmpty(fwdFor) {
		index := strings.Index(fwdFor, ",")
		if index == -1 {
			return strings.TrimSpace(fwdFor)
		}
		return strings.TrimSpace(fwdFor[:index])
	}

	// Header X-Real-Ip
	if realIP := req.Header.Get(HeaderXRealIP); !ess.IsStrEmpty(realIP) {
		return strings.TrimSpace(realIP)
	}

	// Remote Address
	if remoteAddr, _, err := net.SplitHostPort(req.RemoteAddr); err == nil {
		return strings.TrimSpace(remoteAddr)
	}

	return ""
}

// RequestURI returns the path and query of the request, it is used as
// post login redirect target.
func RequestURI(r *http.Request) string {
	if r.URL == nil {
		return "/"
	}
	return r.URL.RequestURI()
}
