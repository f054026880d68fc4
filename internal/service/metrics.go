package service

import "github.com/prometheus/client_golang/prometheus"

// Resultados para AuthOperations.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// AuthOperations cuenta operaciones del orquestador por resultado.
var AuthOperations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "member_auth_operations_total",
		Help: "Total number of authentication operations by operation and outcome",
	},
	[]string{"operation", "outcome"},
)

// NotificationFailures cuenta envios fallidos, incluidos los que se descartan
// porque la transicion principal ya se confirmo.
var NotificationFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "member_auth_notification_failures_total",
		Help: "Total number of notification delivery failures by kind and whether they were surfaced",
	},
	[]string{"kind", "surfaced"},
)

// RegisterMetrics registra las metricas del paquete en reg.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(AuthOperations)
	reg.MustRegister(NotificationFailures)
}

func recordOperation(operation string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	AuthOperations.WithLabelValues(operation, outcome).Inc()
}

func recordNotificationFailure(kind string, surfaced bool) {
	label := "false"
	if surfaced {
		label = "true"
	}
	NotificationFailures.WithLabelValues(kind, label).Inc()
}
