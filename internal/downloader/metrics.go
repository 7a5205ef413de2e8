package downloader

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the downloader's prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	items    *prometheus.CounterVec
	bytes    prometheus.Counter
	attempts *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors on registerer.
func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	metrics := &Metrics{
		items: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "mml_download_items_total", Help: "Settled download items by group and status"},
			[]string{"group", "status"},
		),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{Name: "mml_download_bytes_total", Help: "Bytes written by successful transfers"}),
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "mml_download_attempts_total", Help: "Network fetch attempts by result"},
			[]string{"result"},
		),
	}
	for _, collector := range []prometheus.Collector{metrics.items, metrics.bytes, metrics.attempts} {
		if err := registerer.Register(collector); err != nil {
			return nil, err
		}
	}
	return metrics, nil
}

func (m *Metrics) item(group string, status Status) {
	if m == nil {
		return
	}
	m.items.WithLabelValues(group, string(status)).Inc()
}

func (m *Metrics) transferred(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.bytes.Add(float64(n))
}

func (m *Metrics) attempt(result string) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(result).Inc()
}
