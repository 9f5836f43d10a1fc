// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var metricNameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_.-]*$`)

const maxMetricNameLength = 255

// reservedPrefixes may not be used by custom metrics.
var reservedPrefixes = []string{
	"__",    // Prometheus internals
	"http_", // request instruments of this package
}

// LimitError is returned when the custom metrics limit is reached.
type LimitError struct {
	Name    string
	Limit   int
	Current int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("metrics limit reached: cannot create %q (current: %d, limit: %d)", e.Name, e.Current, e.Limit)
}

func validateMetricName(name string) error {
	if name == "" {
		return fmt.Errorf("metric name cannot be empty")
	}
	if len(name) > maxMetricNameLength {
		return fmt.Errorf("metric name too long: %d characters (max %d)", len(name), maxMetricNameLength)
	}
	if !metricNameRegex.MatchString(name) {
		return fmt.Errorf("invalid metric name %q: must start with a letter and contain only letters, digits, underscores, dots or hyphens", name)
	}
	for _, prefix := range reservedPrefixes {
		if strings.HasPrefix(name, prefix) {
			return fmt.Errorf("metric name %q uses reserved prefix %q", name, prefix)
		}
	}

	return nil
}

// IncrementCounter adds 1 to a custom counter.
func (r *Recorder) IncrementCounter(ctx context.Context, name string, attributes ...attribute.KeyValue) error {
	return r.AddCounter(ctx, name, 1, attributes...)
}

// AddCounter adds value to a custom counter, creating it on first use.
func (r *Recorder) AddCounter(ctx context.Context, name string, value int64, attributes ...attribute.KeyValue) error {
	counter, err := getOrCreate(r, r.customCounters, name, func() (metric.Int64Counter, error) {
		return r.meter.Int64Counter(name, metric.WithDescription("Custom counter metric"))
	})
	if err != nil {
		r.customMetricFailures.Add(ctx, 1)
		return fmt.Errorf("add counter %q: %w", name, err)
	}

	counter.Add(ctx, value, metric.WithAttributes(attributes...))

	return nil
}

// RecordHistogram records value in a custom histogram, creating it on
// first use.
//
// Example:
//
//	err := recorder.RecordHistogram(ctx, "order_total_eur", 42.5,
//	    attribute.String("channel", "web"))
func (r *Recorder) RecordHistogram(ctx context.Context, name string, value float64, attributes ...attribute.KeyValue) error {
	histogram, err := getOrCreate(r, r.customHistograms, name, func() (metric.Float64Histogram, error) {
		return r.meter.Float64Histogram(name, metric.WithDescription("Custom histogram metric"))
	})
	if err != nil {
		r.customMetricFailures.Add(ctx, 1)
		return fmt.Errorf("record histogram %q: %w", name, err)
	}

	histogram.Record(ctx, value, metric.WithAttributes(attributes...))

	return nil
}

// SetGauge sets a custom gauge, creating it on first use.
func (r *Recorder) SetGauge(ctx context.Context, name string, value float64, attributes ...attribute.KeyValue) error {
	gauge, err := getOrCreate(r, r.customGauges, name, func() (metric.Float64Gauge, error) {
		return r.meter.Float64Gauge(name, metric.WithDescription("Custom gauge metric"))
	})
	if err != nil {
		r.customMetricFailures.Add(ctx, 1)
		return fmt.Errorf("set gauge %q: %w", name, err)
	}

	gauge.Record(ctx, value, metric.WithAttributes(attributes...))

	return nil
}

// CustomMetricCount returns how many custom metrics exist.
func (r *Recorder) CustomMetricCount() int {
	r.customMu.RLock()
	defer r.customMu.RUnlock()

	return r.customMetricCount
}

// getOrCreate returns the instrument registered under name in m, creating
// it with create when absent. The limit spans all custom instrument kinds.
func getOrCreate[T any](r *Recorder, m map[string]T, name string, create func() (T, error)) (T, error) {
	r.customMu.RLock()
	inst, ok := m[name]
	r.customMu.RUnlock()
	if ok {
		return inst, nil
	}

	var zero T
	if err := validateMetricName(name); err != nil {
		return zero, err
	}

	r.customMu.Lock()
	defer r.customMu.Unlock()

	if inst, ok := m[name]; ok {
		return inst, nil
	}

	if r.customMetricCount >= r.maxCustomMetrics {
		return zero, &LimitError{Name: name, Limit: r.maxCustomMetrics, Current: r.customMetricCount}
	}

	inst, err := create()
	if err != nil {
		return zero, err
	}
	m[name] = inst
	r.customMetricCount++

	return inst, nil
}
