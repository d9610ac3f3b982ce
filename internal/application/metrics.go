package application

import "expvar"

// counters are published under /debug/vars.
var counters = expvar.NewMap("users_service")

const (
	metricRegistered      = "users_registered"
	metricLoginOK         = "logins_succeeded"
	metricLoginFailed     = "logins_failed"
	metricLogout          = "logouts"
	metricRefreshed       = "tokens_refreshed"
	metricCustomerCreated = "customers_created"
)
