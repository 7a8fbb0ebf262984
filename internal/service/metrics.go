package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	invitationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trudify_invitations_total",
			Help: "Auto-invitation outcomes per candidate professional",
		},
		[]string{"result"},
	)

	invitationDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trudify_invitation_deliveries_total",
			Help: "Auto-invitation deliveries by channel and status",
		},
		[]string{"channel", "status"},
	)
)
