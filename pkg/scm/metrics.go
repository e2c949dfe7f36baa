package scm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_change_requests_total",
			Help: "Total number of change request submissions",
		},
		[]string{"provider", "outcome"},
	)

	submissionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portal_change_request_duration_seconds",
			Help:    "Change request submission duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	orphanedBranches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_orphaned_branches_total",
			Help: "Total number of deploy branches left on the host after a failed submission",
		},
		[]string{"provider"},
	)
)
