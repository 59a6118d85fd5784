// Package metrics exposes the Prometheus instruments for the relay surface.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RelayRequests counts POST /v1/chat/relay outcomes.
	RelayRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chatrelay_relay_requests_total",
		Help: "Relay requests by outcome.",
	}, []string{"outcome"})

	// PollRequests counts GET /v1/chat/poll outcomes.
	PollRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chatrelay_poll_requests_total",
		Help: "Poll requests by outcome.",
	}, []string{"outcome"})

	// LeadRequests counts POST /v1/leads outcomes.
	LeadRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chatrelay_lead_requests_total",
		Help: "Lead submissions by outcome.",
	}, []string{"outcome"})

	// ThreadsCreated counts conversation threads created in the directory.
	ThreadsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chatrelay_threads_created_total",
		Help: "Conversation threads created.",
	})

	// DirectoryLatency observes thread-directory round trips by operation.
	DirectoryLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chatrelay_directory_latency_seconds",
		Help:    "Thread directory call latency by operation.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
)

func init() {
	prometheus.MustRegister(RelayRequests, PollRequests, LeadRequests, ThreadsCreated, DirectoryLatency)
}

// ObserveDirectory records one directory call's duration.
func ObserveDirectory(op string, start time.Time) {
	DirectoryLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
