// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

package ahttp

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.0.1:1234"
	assert.Equal(t, "192.168.0.1", ClientIP(req))

	req.Header.Set(HeaderXRealIP, "10.0.0.2")
	assert.Equal(t, "10.0.0.2", ClientIP(req))

	req.Header.Set(HeaderXForwardedFor, "10.0.0.1, 10.0.0.3")
	assert.Equal(t, "10.0.0.1", ClientIP(req))

	req = httptest.NewRequest(http.MethodGet, "/patients?id=4", nil)
	assert.Equal(t, "/patients?id=4", RequestURI(req))
}

func TestResponseCommitHooks(t *testing.T) {
	rec := httptest.NewRecorder()
	rw, created := WrapResponseWriter(rec)
	assert.True(t, created)

	same, created := WrapResponseWriter(rw)
	assert.False(t, created)
	assert.Equal(t, rw, same)

	var order []string
	rw.BeforeCommit(func() { order = append(order, "outer") })
	rw.BeforeCommit(func() { order = append(order, "inner") })

	rw.WriteHeader(http.StatusFound)
	assert.False(t, rw.Committed())
	assert.Equal(t, http.StatusFound, rw.Status())

	_, err := rw.Write([]byte("redirecting"))
	assert.Nil(t, err)
	assert.True(t, rw.Committed())
	assert.Equal(t, []string{"inner", "outer"}, order)
	assert.Equal(t, 11, rw.BytesWritten())
	assert.Equal(t, http.StatusFound, rec.Code)

	// after commit, hooks are ignored
	rw.BeforeCommit(func() { order = append(order, "late") })
	rw.WriteHeaderNow()
	assert.Len(t, order, 2)
	assert.Equal(t, rec, rw.Unwrap())
}

func TestResponseReadFrom(t *testing.T) {
	rec := httptest.NewRecorder()
	rw, _ := WrapResponseWriter(rec)
	n, err := rw.(*Response).ReadFrom(strings.NewReader("hello"))
	assert.Nil(t, err)
	assert.Equal(t, int64(5), n)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello", rec.Body.String())
}

func TestReplaceCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	http.SetCookie(rec, &http.Cookie{Name: "JSESSIONID", Value: "abc", MaxAge: 7200})
	http.SetCookie(rec, &http.Cookie{Name: "other", Value: "1"})

	ReplaceCookie(rec, ExpireCookie("JSESSIONID", "", ""))

	cookies := ResponseCookies(rec.Header())
	assert.Len(t, cookies, 2)
	assert.Equal(t, "other", cookies[0].Name)
	assert.Equal(t, "JSESSIONID", cookies[1].Name)
	assert.True(t, cookies[1].MaxAge < 0)
	assert.Equal(t, "/", cookies[1].Path)

	assert.NotNil(t, ResponseCookie(rec.Header(), "other"))
	assert.Nil(t, ResponseCookie(rec.Header(), "missing"))
}
