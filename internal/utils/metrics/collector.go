// internal/utils/metrics/collector.go
package metrics

import (
	"context"
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rovshanmuradov/solana-devkit/internal/events"
)

const namespace = "solkit"

// Статусы транзакций в метках.
const (
	StatusConfirmed = "confirmed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// Collector собирает метрики операций и RPC в собственный реестр.
type Collector struct {
	registry *prometheus.Registry

	transactions *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	rpcLatency   *prometheus.HistogramVec
	rpcErrors    *prometheus.CounterVec

	mu   sync.Mutex
	subs []events.Subscription
}

// NewCollector создает коллектор и регистрирует метрики.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		transactions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transactions_total",
				Help:      "Total number of transactions by outcome and operation kind",
			},
			[]string{"status", "kind"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "transaction_duration_seconds",
				Help:      "Time from build to confirmation of successful transactions",
				Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
			},
			[]string{"kind"},
		),
		rpcLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "rpc_latency_seconds",
				Help:      "JSON-RPC request latency in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
			},
			[]string{"method"},
		),
		rpcErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rpc_errors_total",
				Help:      "JSON-RPC requests that returned an error",
			},
			[]string{"method"},
		),
	}
	c.registry.MustRegister(c.transactions, c.duration, c.rpcLatency, c.rpcErrors)
	return c
}

// Registry реестр для экспорта.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Attach подписывает коллектор на завершение и ошибки операций.
func (c *Collector) Attach(bus *events.Bus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs,
		bus.Subscribe(events.OperationCompleted, c),
		bus.Subscribe(events.OperationFailed, c),
	)
}

// Detach снимает подписки.
func (c *Collector) Detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.subs {
		s.Unsubscribe()
	}
	c.subs = nil
}

// Handle реализует events.Handler.
func (c *Collector) Handle(_ context.Context, e events.Event) error {
	switch ev := e.(type) {
	case events.OperationCompletedEvent:
		c.transactions.WithLabelValues(StatusConfirmed, ev.Kind).Inc()
		c.duration.WithLabelValues(ev.Kind).Observe(ev.Duration.Seconds())
	case events.OperationFailedEvent:
		status := StatusFailed
		if errors.Is(ev.Error, context.Canceled) {
			status = StatusCancelled
		}
		c.transactions.WithLabelValues(status, ev.Kind).Inc()
	}
	return nil
}
