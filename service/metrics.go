package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recommendationsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookworm_recommendations_total",
			Help: "Recommendation responses by reason",
		},
		[]string{"reason"},
	)

	metadataLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookworm_metadata_lookups_total",
			Help: "ISBN metadata lookups by outcome",
		},
		[]string{"outcome"},
	)

	notificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookworm_notifications_total",
			Help: "Review notification emails by outcome",
		},
		[]string{"outcome"},
	)
)
