// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

package security

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Attempt results of `authn_authentication_attempts_total`.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

var _ prometheus.Collector = (*Metrics)(nil)

// Metrics holds the authentication counters, it implements
// `prometheus.Collector`. Methods are safe on nil receiver so that the
// metrics stay optional.
type Metrics struct {
	attempts       *prometheus.CounterVec
	challenges     *prometheus.CounterVec
	logins         prometheus.Counter
	clearedCookies prometheus.Counter
}

// NewMetrics method creates the counters.
func NewMetrics() *Metrics {
	return &Metrics{
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authn_authentication_attempts_total",
				Help: "Total number of credential verifications by scheme and result",
			},
			[]string{"scheme", "result"},
		),
		challenges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authn_challenges_total",
				Help: "Total number of credential challenges by scheme",
			},
			[]string{"scheme"},
		),
		logins: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "authn_logins_total",
				Help: "Total number of completed authentications",
			},
		),
		clearedCookies: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "authn_cleared_cookies_total",
				Help: "Total number of cookies expired after session invalidation",
			},
		),
	}
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.attempts.Describe(ch)
	m.challenges.Describe(ch)
	m.logins.Describe(ch)
	m.clearedCookies.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.attempts.Collect(ch)
	m.challenges.Collect(ch)
	m.logins.Collect(ch)
	m.clearedCookies.Collect(ch)
}

func (m *Metrics) attempt(scheme, result string) {
	if m != nil {
		m.attempts.WithLabelValues(scheme, result).Inc()
	}
}

func (m *Metrics) challenge(scheme string) {
	if m != nil {
		m.challenges.WithLabelValues(scheme).Inc()
	}
}

func (m *Metrics) login() {
	if m != nil {
		m.logins.Inc()
	}
}

func (m *Metrics) cookieCleared() {
	if m != nil {
		m.clearedCookies.Inc()
	}
}
