package session

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts authentication outcomes. A nil *Metrics records nothing.
type Metrics struct {
	Logins     *prometheus.CounterVec
	TokenCheck *prometheus.CounterVec
	Logouts    prometheus.Counter
	Rehashes   *prometheus.CounterVec
}

// NewMetrics creates and registers session metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campus_auth_logins_total",
				Help: "Login attempts by result",
			},
			[]string{"result"},
		),
		TokenCheck: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campus_auth_token_checks_total",
				Help: "Bearer token checks by result",
			},
			[]string{"result"},
		),
		Logouts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "campus_auth_logouts_total",
				Help: "Tokens revoked through logout",
			},
		),
		Rehashes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campus_auth_password_rehashes_total",
				Help: "Stored password hashes upgraded to the current cost on login",
			},
			[]string{"result"},
		),
	}

	reg.MustRegister(m.Logins)
	reg.MustRegister(m.TokenCheck)
	reg.MustRegister(m.Logouts)
	reg.MustRegister(m.Rehashes)

	return m
}

func (m *Metrics) login(result string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(result).Inc()
}

func (m *Metrics) tokenCheck(result string) {
	if m == nil {
		return
	}
	m.TokenCheck.WithLabelValues(result).Inc()
}

func (m *Metrics) logout() {
	if m == nil {
		return
	}
	m.Logouts.Inc()
}

func (m *Metrics) rehash(result string) {
	if m == nil {
		return
	}
	m.Rehashes.WithLabelValues(result).Inc()
}
