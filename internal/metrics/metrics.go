/*
Copyright 2025 Cloud Conveyor Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package metrics records the scheduler host's operational signals —
// pipeline throughput, per-action duration, and circuit-breaker state —
// as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder is the capability the scheduler host uses
// to report metrics, kept as an interface so tests can swap in a no-op
// or a spy without pulling in a real Prometheus registry.
type Recorder interface {
	// PipelineStarted increments the count of pipelines dispatched.
	PipelineStarted()
	// PipelineCompleted records a pipeline reaching a terminal state,
	// with its outcome ("succeeded" or "failed") and total duration.
	PipelineCompleted(outcome string, duration time.Duration)
	// ActionDuration records how long one action kind took from Start
	// to a terminal IsDone.
	ActionDuration(actionKind string, duration time.Duration)
	// UpdateCircuitBreakerState records a named circuit breaker's
	// current state ("closed", "half-open", "open").
	UpdateCircuitBreakerState(name, state string)
}

// PrometheusRecorder is the production Recorder, registering its
// collectors against the provided registry.
type PrometheusRecorder struct {
	pipelinesStarted    prometheus.Counter
	pipelinesCompleted  *prometheus.CounterVec
	pipelineDuration    *prometheus.HistogramVec
	actionDuration      *prometheus.HistogramVec
	circuitBreakerState *prometheus.GaugeVec
}

// circuitBreakerStateValue maps a breaker's named state to the gauge
// value UpdateCircuitBreakerState records, the way gobreaker's own
// State.String() values are rendered.
var circuitBreakerStateValue = map[string]float64{
	"closed":    0,
	"half-open": 1,
	"open":      2,
}

// NewPrometheusRecorder constructs a PrometheusRecorder and registers
// its collectors with reg.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	r := &PrometheusRecorder{
		pipelinesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "conveyor",
			Subsystem: "scheduler",
			Name:      "pipelines_started_total",
			Help:      "Total number of pipelines dispatched to the scheduler.",
		}),
		pipelinesCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "conveyor",
			Subsystem: "scheduler",
			Name:      "pipelines_completed_total",
			Help:      "Total number of pipelines reaching a terminal state, by outcome.",
		}, []string{"outcome"}),
		pipelineDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "conveyor",
			Subsystem: "scheduler",
			Name:      "pipeline_duration_seconds",
			Help:      "Wall-clock time from first tick to terminal state, by outcome.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"outcome"}),
		actionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "conveyor",
			Subsystem: "action",
			Name:      "duration_seconds",
			Help:      "Wall-clock time an action spent from Start to a terminal IsDone, by action kind.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"kind"}),
		circuitBreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "conveyor",
			Subsystem: "circuitbreaker",
			Name:      "state",
			Help:      "Current state of a named circuit breaker: 0=closed, 1=half-open, 2=open.",
		}, []string{"name"}),
	}

	reg.MustRegister(r.pipelinesStarted, r.pipelinesCompleted, r.pipelineDuration, r.actionDuration, r.circuitBreakerState)
	return r
}

// PipelineStarted implements Recorder.
func (r *PrometheusRecorder) PipelineStarted() {
	r.pipelinesStarted.Inc()
}

// PipelineCompleted implements Recorder.
func (r *PrometheusRecorder) PipelineCompleted(outcome string, duration time.Duration) {
	r.pipelinesCompleted.WithLabelValues(outcome).Inc()
	r.pipelineDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// ActionDuration implements Recorder.
func (r *PrometheusRecorder) ActionDuration(actionKind string, duration time.Duration) {
	r.actionDuration.WithLabelValues(actionKind).Observe(duration.Seconds())
}

// UpdateCircuitBreakerState implements Recorder.
func (r *PrometheusRecorder) UpdateCircuitBreakerState(name, state string) {
	r.circuitBreakerState.WithLabelValues(name).Set(circuitBreakerStateValue[state])
}

// NoopRecorder discards every call. Used where a Recorder is required
// but no registry is configured, e.g. in unit tests of callers that
// don't themselves test metrics emission.
type NoopRecorder struct{}

// PipelineStarted implements Recorder.
func (NoopRecorder) PipelineStarted() {}

// PipelineCompleted implements Recorder.
func (NoopRecorder) PipelineCompleted(outcome string, duration time.Duration) {}

// ActionDuration implements Recorder.
func (NoopRecorder) ActionDuration(actionKind string, duration time.Duration) {}

// UpdateCircuitBreakerState implements Recorder.
func (NoopRecorder) UpdateCircuitBreakerState(name, state string) {}
