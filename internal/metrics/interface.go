// Package metrics provides interfaces for metrics collection and monitoring.
package metrics

import "time"

//go:generate mockgen -destination=mocks/mock_recorder.go -package=mocks github.com/anstrom/portsweep/internal/metrics Recorder

// Recorder defines the run-level measurements taken by the scan loop.
// This interface allows for easy mocking and testing of metrics functionality.
type Recorder interface {
	// TargetAttempted counts one target taken from the target list.
	TargetAttempted()

	// TargetFailed counts a per-target failure by reason.
	TargetFailed(reason string)

	// ObserveTargetDuration records the wall-clock time spent on one target.
	ObserveTargetDuration(duration time.Duration)

	// SetResults records the size of the aggregated result set.
	SetResults(hosts, openPorts int)
}

// Ensure that PrometheusMetrics and Noop implement Recorder.
var (
	_ Recorder = (*PrometheusMetrics)(nil)
	_ Recorder = Noop{}
)

// Noop is a Recorder that records nothing.
type Noop struct{}

func (Noop) TargetAttempted()                    {}
func (Noop) TargetFailed(string)                 {}
func (Noop) ObserveTargetDuration(time.Duration) {}
func (Noop) SetResults(int, int)                 {}
