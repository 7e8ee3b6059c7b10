// internal/utils/metrics/metrics.go
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ObserveRPC записывает задержку JSON-RPC вызова; подходит как solbc.RPCObserver.
func (c *Collector) ObserveRPC(method string, d time.Duration, err error) {
	c.rpcLatency.WithLabelValues(method).Observe(d.Seconds())
	if err != nil {
		c.rpcErrors.WithLabelValues(method).Inc()
	}
}

// WriteTextfile сохраняет метрики в формате textfile collector node_exporter.
func (c *Collector) WriteTextfile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create metrics directory: %w", err)
		}
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
