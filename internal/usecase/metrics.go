package usecase

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sagasTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_sagas_total",
			Help: "Checkout sagas by final outcome",
		},
		[]string{"outcome"},
	)

	compensationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_compensations_total",
			Help: "Compensating stock restores by failed stage",
		},
		[]string{"stage"},
	)

	webhooksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_webhooks_total",
			Help: "Payment webhook deliveries by processing result",
		},
		[]string{"result"},
	)
)
