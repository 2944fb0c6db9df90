package seqclass

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// op names an SDK entry point in logs and metric labels.
type op string

const (
	opClassify     op = "classify"
	opClassifyHits op = "classify_hits"
	opSelectBest   op = "select_best"
	opEvaluate     op = "evaluate"
)

type sdkMetrics struct {
	calls    *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	outcomes *prometheus.CounterVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seqclass",
			Subsystem: "sdk",
			Name:      "calls_total",
			Help:      "SDK calls by operation and status.",
		}, []string{"operation", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "seqclass",
			Subsystem: "sdk",
			Name:      "call_duration_seconds",
			Help:      "SDK call latency. Classify includes the BLAST searches.",
			Buckets:   []float64{0.0005, 0.005, 0.05, 0.5, 1, 5, 15, 60, 300},
		}, []string{"operation"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seqclass",
			Subsystem: "sdk",
			Name:      "queries_total",
			Help:      "Queries labeled through the SDK by outcome.",
		}, []string{"outcome"}),
	}
	if err := registerOrReuse(reg, &m.calls); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.latency); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.outcomes); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers c, or swaps in the collector already registered
// under the same descriptor so that several clients can share one registry.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	err := reg.Register(*c)
	if err == nil {
		return nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return fmt.Errorf("seqclass: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return fmt.Errorf("seqclass: metric registered with another type: %T", are.ExistingCollector)
	}
	*c = existing
	return nil
}

// observer logs and counts SDK calls. A nil observer is a no-op.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg != nil {
		m, err := newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
		o.metrics = m
	}
	return o, nil
}

func (o *observer) observe(name op, start time.Time, err error) {
	if o == nil {
		return
	}
	elapsed := time.Since(start)

	if o.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		o.metrics.calls.WithLabelValues(string(name), status).Inc()
		o.metrics.latency.WithLabelValues(string(name)).Observe(elapsed.Seconds())
	}

	if o.logger == nil {
		return
	}
	if err != nil {
		o.logger.Warn("seqclass call failed", "op", string(name), "elapsed", elapsed, "error", err)
		return
	}
	o.logger.Debug("seqclass call done", "op", string(name), "elapsed", elapsed)
}

// observeClassification counts labeled and unlabeled queries of res.
func (o *observer) observeClassification(res *Classification) {
	if o == nil || res == nil {
		return
	}
	classified := len(res.Predictions) - res.Unclassified
	if o.metrics != nil {
		o.metrics.outcomes.WithLabelValues("classified").Add(float64(classified))
		o.metrics.outcomes.WithLabelValues("unclassified").Add(float64(res.Unclassified))
	}
	if o.logger != nil {
		o.logger.Debug("seqclass queries labeled",
			"classified", classified,
			"unclassified", res.Unclassified,
		)
	}
}
