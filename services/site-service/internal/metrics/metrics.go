// Package metrics holds the Prometheus instruments of the site-service. All
// collectors are registered with the default registry, so importing the
// package is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SlugAllocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bizsites_slug_allocations_total",
			Help: "Slugs allocated for new businesses, by source (preferred or derived).",
		}, []string{"source"})

	SlugChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bizsites_slug_checks_total",
			Help: "Slug availability checks, by result.",
		}, []string{"result"})

	SlotQueries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bizsites_slot_queries_total",
			Help: "Available-slot listings served.",
		})

	Bookings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bizsites_bookings_total",
			Help: "Booking attempts, by outcome.",
		}, []string{"outcome"})

	StatusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bizsites_appointment_transitions_total",
			Help: "Appointment status changes, by target status.",
		}, []string{"status"})

	SiteViews = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bizsites_site_views_total",
			Help: "Microsite page renders.",
		})

	OutboxPublished = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bizsites_outbox_published_total",
			Help: "Outbox events relayed to Kafka.",
		})

	OutboxBacklog = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bizsites_outbox_backlog",
			Help: "Outbox events waiting to be relayed.",
		})
)

func init() {
	prometheus.MustRegister(
		SlugAllocations,
		SlugChecks,
		SlotQueries,
		Bookings,
		StatusTransitions,
		SiteViews,
		OutboxPublished,
		OutboxBacklog,
	)
}
