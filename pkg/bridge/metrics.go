/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package bridge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes the bridge's operational counters.
type Metrics struct {
	CyclesTotal        prometheus.Counter
	CycleFailures      prometheus.Counter
	CycleDuration      prometheus.Histogram
	Devices            prometheus.Gauge
	DevicesAvailable   prometheus.Gauge
	StatusFailures     prometheus.Counter
	IncompleteReplies  prometheus.Counter
	CommandsTotal      prometheus.Counter
	CommandFailures    prometheus.Counter
	EventPublishErrors prometheus.Counter
}

// NewMetrics registers the bridge metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		CyclesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "syrbridge_cycles_total",
			Help: "Completed polling cycles.",
		}),
		CycleFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "syrbridge_cycle_failures_total",
			Help: "Polling cycles that failed before producing a snapshot.",
		}),
		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "syrbridge_cycle_duration_seconds",
			Help:    "Wall time of a polling cycle.",
			Buckets: prometheus.DefBuckets,
		}),
		Devices: factory.NewGauge(prometheus.GaugeOpts{
			Name: "syrbridge_devices",
			Help: "Devices in the latest snapshot.",
		}),
		DevicesAvailable: factory.NewGauge(prometheus.GaugeOpts{
			Name: "syrbridge_devices_available",
			Help: "Devices reporting fresh status in the latest snapshot.",
		}),
		StatusFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "syrbridge_status_failures_total",
			Help: "Device status polls that errored.",
		}),
		IncompleteReplies: factory.NewCounter(prometheus.CounterOpts{
			Name: "syrbridge_status_incomplete_total",
			Help: "Device status polls answered without detail values.",
		}),
		CommandsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "syrbridge_commands_total",
			Help: "Command writes attempted.",
		}),
		CommandFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "syrbridge_command_failures_total",
			Help: "Command writes that errored.",
		}),
		EventPublishErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "syrbridge_event_publish_errors_total",
			Help: "Telemetry events that failed to publish.",
		}),
	}
}
