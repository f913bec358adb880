// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

package ahttp

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"aahframe.work/authn/essentials"
)

type (
	// AcceptSpec used for HTTP Accept, Accept-Language header value and
	// it's quality. Implementation follows the specification of RFC7231
	// https://tools.ietf.org/html/rfc7231#section-5.3
	AcceptSpec struct {
		Raw   string
		Value string
		Q     float32
	}

	// AcceptSpecs is list of values parsed from header and sorted by
	// quality factor.
	AcceptSpecs []AcceptSpec

	// Locale value is negotiated from HTTP header `Accept-Language`
	Locale struct {
		Raw      string
		Language string
		Region   string
	}
)

// NegotiateLocale method negotiates the `Accept-Language` from the given HTTP
// request. Most qualified one based on quality factor, nil if the header
// is absent.
func NegotiateLocale(req *http.Request) *Locale {
	return ToLocale(ParseAccept(req, HeaderAcceptLanguage).MostQualified())
}

// ParseAccept parses the HTTP Accept* headers from `http.Request` returns
// the specification with quality factor as per RFC7231. Values with equal
// quality keep the header order.
func ParseAccept(req *http.Request, hdrKey string) AcceptSpecs {
	var specs AcceptSpecs
	for _, hv := range strings.Split(req.Header.Get(hdrKey), ",") {
		if ess.IsStrEmpty(hv) {
			continue
		}

		hv = strings.TrimSpace(hv)
		parts := strings.Split(hv, ";")
		q := float32(1.0)
		for _, pv := range parts[1:] {
			kv := strings.SplitN(strings.TrimSpace(pv), "=", 2)
			if len(kv) == 2 && kv[0] == "q" {
				qv, err := strconv.ParseFloat(kv[1], 32)
				if err != nil {
					qv = 0
				}
				q = float32(qv)
			}
		}
		specs = append(specs, AcceptSpec{Raw: hv, Value: strings.TrimSpace(parts[0]), Q: q})
	}

	sort.Stable(specs)
	return specs
}

// ToLocale method creates a locale instance from `AcceptSpec`
func ToLocale(a *AcceptSpec) *Locale {
	if a == nil {
		return nil
	}

	values := strings.SplitN(a.Value, "-", 2)
	if len(values) == 2 {
		return &Locale{Raw: a.Value, Language: values[0], Region: values[1]}
	}
	return &Locale{Raw: a.Value, Language: values[0]}
}

// NewLocale method returns locale instance for given locale string.
func NewLocale(value string) *Locale {
	return ToLocale(&AcceptSpec{Raw: value, Value: value})
}

// String is stringer interface.
func (l Locale) String() string {
	return l.Raw
}

// MostQualified method returns the most qualified accept spec, since
// `AcceptSpecs` is sorted by quality factor. First position is the most
// qualified otherwise `nil`.
func (specs AcceptSpecs) MostQualified() *AcceptSpec {
	if len(specs) > 0 {
		return &specs[0]
	}
	return nil
}

// sort.Interface methods for accept spec
func (specs AcceptSpecs) Len() int           { return len(specs) }
func (specs AcceptSpecs) Swap(i, j int)      { specs[i], specs[j] = specs[j], specs[i] }
func (specs AcceptSpecs) Less(i, j int) bool { return specs[i].Q > specs[j].Q }
