// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

package ahttp

import (
	"bufio"
	"errors"
	"io"
	"net"
	"net/http"

	"aahframe.work/authn/log"
)

const defaultStatus = http.StatusOK

type (
	// ResponseWriter extends the `http.ResponseWriter` interface, status and
	// headers are held back until the first body write or `WriteHeaderNow`,
	// so that filters can still edit the pending cookies after the chain.
	ResponseWriter interface {
		http.ResponseWriter

		// Status returns the HTTP status of the request otherwise 0
		Status() int

		// BytesWritten returns the total number of bytes written
		BytesWritten() int

		// Committed returns true once status and headers are on the wire.
		Committed() bool

		// BeforeCommit registers func to be called right before the status
		// and headers are written. Funcs are called in reverse order of
		// registration, the innermost filter runs first.
		BeforeCommit(fn func())

		// Unwrap returns the original `ResponseWriter`
		Unwrap() http.ResponseWriter

		// WriteHeaderNow method write status and header on the wire
		WriteHeaderNow()
	}

	// Response implements multiple interface (ReaderFrom, Flusher,
	// Hijacker) and handy methods for the authn filters.
	Response struct {
		w                 http.ResponseWriter
		status            int
		wroteStatus       bool
		wroteStatusHeader bool
		bytesWritten      int
		beforeCommit      []func()
	}
)

// interface compilance
var (
	_ http.Flusher   = (*Response)(nil)
	_ http.Hijacker  = (*Response)(nil)
	_ io.ReaderFrom  = (*Response)(nil)
	_ ResponseWriter = (*Response)(nil)
)

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// Package methods
//___________________________________

// WrapResponseWriter wraps `http.ResponseWriter`, it returns the given
// writer as-is if it is already an `ahttp.ResponseWriter`. Second return
// value is true when this call created the wrapper, the creator is
// responsible to call `WriteHeaderNow` after the chain.
func WrapResponseWriter(w http.ResponseWriter) (ResponseWriter, bool) {
	if rw, ok := w.(ResponseWriter); ok {
		return rw, false
	}
	return &Response{w: w}, true
}

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// Response methods
//___________________________________

// Status method returns HTTP response status code. If status is not yet written
// it reurns 0.
func (r *Response) Status() int {
	return r.status
}

// WriteHeader method writes given status code into Response.
func (r *Response) WriteHeader(code int) {
	if code > 0 {
		if r.wroteStatus && r.status != code {
			log.Warnf("Status already written, overriding status code %d with %d", r.status, code)
		}
		r.status = code
		r.wroteStatus = true
	}
}

// WriteHeaderNow method writes the status code on the wire.
func (r *Response) WriteHeaderNow() {
	if r.wroteStatusHeader {
		return
	}

	for i := len(r.beforeCommit) - 1; i >= 0; i-- {
		r.beforeCommit[i]()
	}
	r.beforeCommit = nil

	if r.status == 0 {
		r.status = defaultStatus
	}

	r.wroteStatusHeader = true
	r.w.WriteHeader(r.status)
}

// Committed method returns true if status and headers are written on the wire.
func (r *Response) Committed() bool {
	return r.wroteStatusHeader
}

// BeforeCommit method registers the func called right before commit. It is
// ignored if the response is already committed.
func (r *Response) BeforeCommit(fn func()) {
	if r.wroteStatusHeader || fn == nil {
		return
	}
	r.beforeCommit = append(r.beforeCommit, fn)
}

// Header method returns response header map.
func (r *Response) Header() http.Header {
	return r.w.Header()
}

// Write method writes bytes into Response.
func (r *Response) Write(buf []byte) (int, error) {
	r.WriteHeaderNow()
	size, err := r.w.Write(buf)
	r.bytesWritten += size
	return size, err
}

// ReadFrom method calls underlying ReadFrom method with given reader if it's
// compatiable and writes HTTP status OK (200) if it's not written yet.
func (r *Response) ReadFrom(rdr io.Reader) (int64, error) {
	r.WriteHeaderNow()
	if rf, ok := r.w.(io.ReaderFrom); ok {
		size, err := rf.ReadFrom(rdr)
		r.bytesWritten += int(size)
		return size, err
	}
	size, err := io.Copy(r.w, rdr)
	r.bytesWritten += int(size)
	return size, err
}

// BytesWritten method returns no. of bytes already written into HTTP response.
func (r *Response) BytesWritten() int {
	return r.bytesWritten
}

// Unwrap method returns the underlying `ResponseWriter`
func (r *Response) Unwrap() http.ResponseWriter {
	return r.w
}

// Flush method calls underlying Flush method if it's compatiable
func (r *Response) Flush() {
	r.WriteHeaderNow()
	if f, ok := r.w.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack method calls underlying Hijack method if it's compatiable otherwise
// returns an error. It becomes the caller's responsibility to manage
// and close the connection.
func (r *Response) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := r.w.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("http.Hijacker interface is not compatiable")
}
