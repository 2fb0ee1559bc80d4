// Package metrics provides Prometheus metrics for mira.
//
// The Collector observes the event bus and the registration coordinator and
// serves its own registry over HTTP.
package metrics

import (
	"net/http"
	"time"

	"github.com/artpar/mira/core/coordinator"
	"github.com/artpar/mira/core/events"
	"github.com/artpar/mira/core/markers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mira"

// Collector holds all Prometheus metrics for mira.
type Collector struct {
	// Dispatch metrics
	DispatchTotal    *prometheus.CounterVec
	DispatchHandlers *prometheus.HistogramVec
	HandlerFailures  *prometheus.CounterVec

	// Registration metrics
	RegistrationsTotal *prometheus.CounterVec
	DiagnosticsTotal   *prometheus.CounterVec
	ModulesRegistered  prometheus.Gauge

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
	ConfigLastReload   prometheus.Gauge

	registry *prometheus.Registry
}

// New creates a collector on a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg)
}

// NewWithRegistry creates a collector registered on reg.
// Useful for testing to avoid global state.
func NewWithRegistry(reg *prometheus.Registry) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		DispatchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dispatch_total",
				Help:      "Total number of event dispatches",
			},
			[]string{"kind", "result"},
		),
		DispatchHandlers: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "dispatch_handlers",
				Help:      "Number of handlers registered for a dispatched event kind",
				Buckets:   []float64{0, 1, 2, 4, 8, 16, 32},
			},
			[]string{"kind"},
		),
		HandlerFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "handler_failures_total",
				Help:      "Total number of dispatches aborted by a failing handler",
			},
			[]string{"kind"},
		),
		RegistrationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "registrations_total",
				Help:      "Total number of registration requests claimed, by registry",
			},
			[]string{"registry"},
		),
		DiagnosticsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "diagnostics_total",
				Help:      "Total number of discovery diagnostics, by code",
			},
			[]string{"code"},
		),
		ModulesRegistered: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "modules_registered",
				Help:      "Number of modules that completed registration",
			},
		),
		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reloads_total",
				Help:      "Total number of config reloads",
			},
		),
		ConfigReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reload_errors_total",
				Help:      "Total number of failed config reloads",
			},
		),
		ConfigLastReload: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "config_last_reload_timestamp",
				Help:      "Unix timestamp of last successful config reload",
			},
		),
		registry: reg,
	}
}

// ObserveDispatch implements events.Observer.
func (c *Collector) ObserveDispatch(kind string, handlers int, result events.Result, err error) {
	c.DispatchTotal.WithLabelValues(kind, result.String()).Inc()
	c.DispatchHandlers.WithLabelValues(kind).Observe(float64(handlers))
	if err != nil {
		c.HandlerFailures.WithLabelValues(kind).Inc()
	}
}

// ObserveRegistration implements coordinator.Observer.
func (c *Collector) ObserveRegistration(_, registrar string) {
	c.RegistrationsTotal.WithLabelValues(registrar).Inc()
}

// ObserveDiagnostic implements coordinator.Observer.
func (c *Collector) ObserveDiagnostic(_ string, code markers.Code) {
	c.DiagnosticsTotal.WithLabelValues(string(code)).Inc()
}

// ObserveModuleRegistered implements coordinator.Observer.
func (c *Collector) ObserveModuleRegistered(string) {
	c.ModulesRegistered.Inc()
}

// ObserveConfigReload records a config reload attempt.
func (c *Collector) ObserveConfigReload(err error, at time.Time) {
	if err != nil {
		c.ConfigReloadErrors.Inc()
		return
	}
	c.ConfigReloads.Inc()
	c.ConfigLastReload.Set(float64(at.Unix()))
}

// Registry returns the registry the collector is registered on.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

var (
	_ events.Observer      = (*Collector)(nil)
	_ coordinator.Observer = (*Collector)(nil)
)
