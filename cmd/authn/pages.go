// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

package main

import (
	"embed"
	"errors"
	"html/template"
	"net/http"

	"aahframe.work/authn/ahttp"
	"aahframe.work/authn/log"
	"aahframe.work/authn/security"
	"aahframe.work/authn/security/anticsrf"
	"aahframe.work/authn/security/authc"
)

const (
	loginPage = "/login.htm"
	tokenPage = "/token.htm"
)

const reasonFailed = "authentication.error.failed"

//go:embed i18n
var messageFiles embed.FS

var pages = template.Must(template.New("pages").Parse(`
{{define "layout-start"}}<!DOCTYPE html>
<html><head><title>authn</title></head><body>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}{{end}}
{{define "layout-end"}}</body></html>{{end}}
{{define "csrf"}}{{if .CSRFToken}}<input type="hidden" name="{{.CSRFField}}" value="{{.CSRFToken}}">{{end}}{{end}}

{{define "/login.htm"}}{{template "layout-start" .}}
<form method="post" action="/login.htm">
  {{template "csrf" .}}
  <input type="text" name="username" placeholder="Username">
  <input type="password" name="password" placeholder="Password">
  <input type="text" name="sessionLocation" placeholder="Location">
  <button type="submit">Log In</button>
</form>
{{template "layout-end"}}{{end}}

{{define "/token.htm"}}{{template "layout-start" .}}
<form method="post" action="/token.htm">
  {{template "csrf" .}}
  <input type="text" name="token" autocomplete="one-time-code" placeholder="Token">
  <button type="submit">Verify</button>
</form>
{{template "layout-end"}}{{end}}

{{define "home"}}{{template "layout-start" .}}
<p>Welcome {{.Username}}{{if .Location}} at {{.Location}}{{end}}</p>
<a href="/logout">Log Out</a>
{{template "layout-end"}}{{end}}
`))

type pageData struct {
	Error     string
	Username  string
	Location  string
	CSRFField string
	CSRFToken string
}

func (s *server) home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	as, err := authc.SessionFromRequest(w, r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	data := s.pageData(r)
	if uc := as.UserContext(); uc.User != nil {
		data.Username = uc.User.Username
		if uc.Location != nil {
			data.Location = uc.Location.Name
		}
	}
	s.render(w, http.StatusOK, "home", data)
}

func (s *server) page(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, http.StatusOK, name, s.pageData(r))
	}
}

func (s *server) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Logout(w, r); err != nil {
		log.Error(err)
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// handleError renders the failed form again with the message, everything
// else is answered by the default error handler.
func (s *server) handleError(w http.ResponseWriter, r *http.Request, err *authc.Error) {
	if pages.Lookup(r.URL.Path) == nil || errors.Is(err, authc.ErrConfig) {
		security.DefaultErrorHandler(w, r, err)
		return
	}

	code := http.StatusUnauthorized
	switch {
	case errors.Is(err, authc.ErrMalformedRequest):
		code = http.StatusBadRequest
	case errors.Is(err, authc.ErrPolicyViolation):
		code = http.StatusForbidden
	}

	locale := ahttp.NegotiateLocale(r)
	msg := s.messages.Lookup(locale, err.Reason)
	if len(msg) == 0 {
		msg = s.messages.Lookup(locale, reasonFailed)
	}
	log.Debugf("authentication failed on %s: %v", r.URL.Path, err)
	data := s.pageData(r)
	data.Error = msg
	s.render(w, code, r.URL.Path, data)
}

func (s *server) pageData(r *http.Request) pageData {
	return pageData{CSRFField: s.csrf.FormFieldName(), CSRFToken: anticsrf.Token(r)}
}

func (s *server) render(w http.ResponseWriter, code int, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		log.Error(err)
	}
}
