// Package metrics provides Prometheus-based metrics collection for portsweep.
// A run is a short-lived batch job, so collectors live in a private registry
// that is written once to a node_exporter textfile after the scan loop ends.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// Namespace for all portsweep metrics
	namespace = "portsweep"

	// Subsystems
	subsystemTarget = "target"
	subsystemRun    = "run"
)

// PrometheusMetrics holds all Prometheus metric collectors for one run
type PrometheusMetrics struct {
	profile string

	targetsAttempted prometheus.Counter
	targetFailures   *prometheus.CounterVec
	targetDuration   *prometheus.HistogramVec
	hostsAlive       prometheus.Gauge
	openPorts        prometheus.Gauge
	lastRun          prometheus.Gauge

	registry *prometheus.Registry
}

// NewPrometheusMetrics creates a new Prometheus metrics instance labelled
// with the scan profile of the run.
func NewPrometheusMetrics(profile string) *PrometheusMetrics {
	pm := &PrometheusMetrics{
		profile:  profile,
		registry: prometheus.NewRegistry(),
	}

	pm.targetsAttempted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystemTarget,
		Name:      "attempted_total",
		Help:      "Number of targets taken from the target file",
	})

	pm.targetFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemTarget,
			Name:      "failures_total",
			Help:      "Number of targets that produced no results, by reason",
		},
		[]string{"reason"},
	)

	pm.targetDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystemTarget,
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of one nmap invocation including parsing",
			Buckets:   []float64{0.5, 1.0, 5.0, 10.0, 30.0, 60.0, 300.0, 600.0, 1800.0},
		},
		[]string{"profile"},
	)

	pm.hostsAlive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystemRun,
		Name:      "hosts_alive",
		Help:      "Hosts with at least one open port in the aggregated result set",
	})

	pm.openPorts = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystemRun,
		Name:      "open_ports",
		Help:      "Open ports across all hosts in the aggregated result set",
	})

	pm.lastRun = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystemRun,
		Name:      "last_completed_timestamp_seconds",
		Help:      "Unix time at which the results were recorded",
	})

	pm.registry.MustRegister(
		pm.targetsAttempted,
		pm.targetFailures,
		pm.targetDuration,
		pm.hostsAlive,
		pm.openPorts,
		pm.lastRun,
	)

	return pm
}

// TargetAttempted increments the attempted targets counter
func (pm *PrometheusMetrics) TargetAttempted() {
	pm.targetsAttempted.Inc()
}

// TargetFailed increments the failure counter for reason
func (pm *PrometheusMetrics) TargetFailed(reason string) {
	pm.targetFailures.WithLabelValues(reason).Inc()
}

// ObserveTargetDuration records one target's duration
func (pm *PrometheusMetrics) ObserveTargetDuration(duration time.Duration) {
	pm.targetDuration.WithLabelValues(pm.profile).Observe(duration.Seconds())
}

// SetResults records the aggregated result set size
func (pm *PrometheusMetrics) SetResults(hosts, openPorts int) {
	pm.hostsAlive.Set(float64(hosts))
	pm.openPorts.Set(float64(openPorts))
	pm.lastRun.SetToCurrentTime()
}

// WriteTextfile writes all collectors in the Prometheus text format to path.
func (pm *PrometheusMetrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, pm.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
