package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry with every metric the service exports.
// Its methods satisfy the small observer interfaces declared by the
// services and adapters packages.
type Collector struct {
	reg *prometheus.Registry

	ProviderRequests *prometheus.CounterVec   // provider, operation, outcome
	ProviderDuration *prometheus.HistogramVec // provider, operation

	Reorders      *prometheus.CounterVec // outcome
	StaleResults  *prometheus.CounterVec // concern
	AddressChecks *prometheus.CounterVec // status

	GeocodeCache *prometheus.CounterVec // result: hit|miss|error

	EventsPublished *prometheus.CounterVec // type, outcome

	Bookings *prometheus.CounterVec // outcome
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "routesvc_provider_requests_total",
			Help: "Outbound provider calls by outcome.",
		}, []string{"provider", "operation", "outcome"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "routesvc_provider_request_duration_seconds",
			Help:    "Latency of outbound provider calls.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"provider", "operation"}),
		Reorders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "routesvc_reorders_total",
			Help: "Oracle reorder attempts by outcome.",
		}, []string{"outcome"}),
		StaleResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "routesvc_stale_results_total",
			Help: "Responses discarded because a newer input superseded them.",
		}, []string{"concern"}),
		AddressChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "routesvc_address_checks_total",
			Help: "Service-area address checks by resulting status.",
		}, []string{"status"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "routesvc_geocode_cache_total",
			Help: "Geocode cache lookups by result.",
		}, []string{"result"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "routesvc_events_published_total",
			Help: "Published domain events by type and outcome.",
		}, []string{"type", "outcome"}),
		Bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "routesvc_bookings_total",
			Help: "Booking submissions by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		c.ProviderRequests, c.ProviderDuration,
		c.Reorders, c.StaleResults, c.AddressChecks,
		c.GeocodeCache, c.EventsPublished, c.Bookings,
	)

	return c
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

func (c *Collector) ObserveProviderCall(provider, operation, outcome string, d time.Duration) {
	c.ProviderRequests.WithLabelValues(provider, operation, outcome).Inc()
	c.ProviderDuration.WithLabelValues(provider, operation).Observe(d.Seconds())
}

func (c *Collector) ReorderOutcome(outcome string) { c.Reorders.WithLabelValues(outcome).Inc() }
func (c *Collector) StaleResult(concern string)    { c.StaleResults.WithLabelValues(concern).Inc() }
func (c *Collector) AddressChecked(status string)  { c.AddressChecks.WithLabelValues(status).Inc() }
func (c *Collector) CacheLookup(result string)     { c.GeocodeCache.WithLabelValues(result).Inc() }
func (c *Collector) BookingOutcome(outcome string) { c.Bookings.WithLabelValues(outcome).Inc() }

func (c *Collector) EventPublished(eventType string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.EventsPublished.WithLabelValues(eventType, outcome).Inc()
}
