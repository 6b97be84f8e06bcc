// Package metrics exports regeneration batch metrics. A batch is a short
// lived process, so metrics are pushed to a Pushgateway or written to a
// node_exporter textfile instead of being scraped.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/tendant/simple-content-regen/internal/report"
)

const namespace = "media_regenerate"

// Recorder collects the metrics of one batch on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	items         *prometheus.CounterVec
	itemDuration  *prometheus.HistogramVec
	batchDuration prometheus.Gauge
	lastCompleted prometheus.Gauge
	batchFailed   prometheus.Gauge
}

// NewRecorder creates a recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_total",
			Help:      "Work items processed by conversion and outcome",
		}, []string{"conversion", "outcome"}),
		itemDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "item_duration_seconds",
			Help:      "Time spent producing and writing one derived artifact",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"conversion"}),
		batchDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Wall time of the last batch",
		}),
		lastCompleted: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_completed_timestamp_seconds",
			Help:      "Unix time the last batch completed",
		}),
		batchFailed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "batch_failed_items",
			Help:      "Failed items in the last batch",
		}),
	}
	r.registry.MustRegister(r.items, r.itemDuration, r.batchDuration, r.lastCompleted, r.batchFailed)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Observe records one outcome. Safe for concurrent use.
func (r *Recorder) Observe(o report.Outcome) {
	conv := o.Item.Conversion.Name
	r.items.WithLabelValues(conv, string(o.Status)).Inc()
	if o.Status != report.StatusSkipped {
		r.itemDuration.WithLabelValues(conv).Observe(o.Duration.Seconds())
	}
}

// Complete records the batch summary.
func (r *Recorder) Complete(rep report.BatchReport) {
	r.batchDuration.Set(rep.Duration.Seconds())
	r.batchFailed.Set(float64(rep.Failed))
	if rep.Severity != report.SeverityInterrupted {
		r.lastCompleted.Set(float64(time.Now().Unix()))
	}
}

// Push sends the metrics to a Prometheus Pushgateway.
func (r *Recorder) Push(ctx context.Context, url, job string) error {
	err := push.New(url, job).
		Gatherer(r.registry).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}

// WriteTextfile writes the metrics in the node_exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
