/*
Copyright 2021 GramLabs, Inc.

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

package driver

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Trial results used as metric label values
const (
	ResultCompleted    = "completed"
	ResultCheckFailed  = "check-failed"
	ResultServiceFault = "service-fault"
	ResultTimeout      = "timeout"
	ResultError        = "error"
)

// Metrics collects the outcome of a run
type Metrics struct {
	// Registry holds only the run metrics, not the process collectors
	Registry *prometheus.Registry

	// Trials counts trials by result
	Trials *prometheus.CounterVec
	// Duration observes the wall clock time of each GLM request, including failures
	Duration prometheus.Histogram
	// Info records the seed of the run so a failure can be reproduced
	Info *prometheus.GaugeVec
}

// NewMetrics returns a new set of registered run metrics
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),

		Trials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "glmfuzz_trials_total",
			Help: "Total number of trials by result",
		}, []string{"result"}),

		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "glmfuzz_trial_duration_seconds",
			Help:    "Wall clock time of GLM requests",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),

		Info: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "glmfuzz_run_info",
			Help: "Information about the run, always 1",
		}, []string{"seed"}),
	}

	m.Registry.MustRegister(m.Trials, m.Duration, m.Info)
	return m
}

// WriteToTextfile writes the run metrics for consumption by the node exporter textfile collector
func (m *Metrics) WriteToTextfile(filename string) error {
	return prometheus.WriteToTextfile(filename, m.Registry)
}

func (m *Metrics) start(seed int64) {
	if m == nil {
		return
	}
	m.Info.Reset()
	m.Info.WithLabelValues(strconv.FormatInt(seed, 10)).Set(1)
}

func (m *Metrics) observe(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.Trials.WithLabelValues(result).Inc()
	m.Duration.Observe(d.Seconds())
}
