// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoansCreated counts successful loan creations
	LoansCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "loantracker",
		Name:      "loans_created_total",
		Help:      "Loan applications created.",
	})

	// StatusTransitions counts status changes by target status
	StatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "loantracker",
		Name:      "loan_status_transitions_total",
		Help:      "Loan status changes, labelled by the new status.",
	}, []string{"status"})

	// LoansDeleted counts loans removed by admins or the retention cleanup
	LoansDeleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "loantracker",
		Name:      "loans_deleted_total",
		Help:      "Loans deleted, labelled by reason.",
	}, []string{"reason"})

	// SessionsDeleted counts expired sessions purged
	SessionsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "loantracker",
		Name:      "expired_sessions_deleted_total",
		Help:      "Expired login sessions purged.",
	})

	// LoginAttempts counts logins by outcome
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "loantracker",
		Name:      "login_attempts_total",
		Help:      "Login attempts, labelled by outcome.",
	}, []string{"outcome"})
)
