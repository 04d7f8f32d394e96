package hostfuncs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/runnable-dev/runnable-sdk/domain/entities"
	domainerrors "github.com/runnable-dev/runnable-sdk/domain/errors"
)

// Metrics holds the collectors recorded by MetricsMiddleware.
type Metrics struct {
	calls       *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	resultBytes *prometheus.HistogramVec
}

// NewMetrics creates the host call collectors and registers them with reg.
// Collectors already registered by an earlier call are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{}
	var err error

	m.calls, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "runnable",
		Subsystem: "host",
		Name:      "calls_total",
		Help:      "Host operations performed, by operation and outcome.",
	}, []string{"op", "outcome"}))
	if err != nil {
		return nil, err
	}

	m.duration, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "runnable",
		Subsystem: "host",
		Name:      "call_duration_seconds",
		Help:      "Time spent in host operation backends.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"}))
	if err != nil {
		return nil, err
	}

	m.resultBytes, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "runnable",
		Subsystem: "host",
		Name:      "result_bytes",
		Help:      "Size of results staged for guests.",
		Buckets:   prometheus.ExponentialBuckets(64, 4, 8),
	}, []string{"op"}))
	if err != nil {
		return nil, err
	}

	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, fmt.Errorf("failed to register metric: %w", err)
	}
	return c, nil
}

// Outcome labels used by the calls_total counter.
const (
	OutcomeOK = "ok"
)

func outcomeOf(err error) string {
	if err == nil {
		return OutcomeOK
	}
	var capErr *domainerrors.CapabilityError
	if errors.As(err, &capErr) {
		return "denied"
	}
	return string(domainerrors.KindOf(err))
}

// MetricsMiddleware records call counts, latency, and result sizes.
func MetricsMiddleware(m *Metrics) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, req *entities.HostRequest) ([]byte, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			op := string(req.Op)
			m.calls.WithLabelValues(op, outcomeOf(err)).Inc()
			m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
			if err == nil && req.Op.ProducesResult() {
				m.resultBytes.WithLabelValues(op).Observe(float64(len(resp)))
			}
			return resp, err
		}
	}
}
