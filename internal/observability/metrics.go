package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// FileMetrics tracks the ingest and retrieval paths. A nil *FileMetrics is a
// valid no-op recorder.
type FileMetrics struct {
	ingests    *prometheus.CounterVec
	retrievals *prometheus.CounterVec
	extraction *prometheus.HistogramVec
}

var (
	defaultFileMetrics     *FileMetrics
	defaultFileMetricsOnce sync.Once
)

// NewFileMetrics builds a FileMetrics recorder using the default registry.
func NewFileMetrics() *FileMetrics {
	defaultFileMetricsOnce.Do(func() {
		defaultFileMetrics = newFileMetrics(prometheus.DefaultRegisterer)
	})
	return defaultFileMetrics
}

// NewFileMetricsWithRegisterer allows tests to provide a dedicated registry.
func NewFileMetricsWithRegisterer(reg prometheus.Registerer) *FileMetrics {
	return newFileMetrics(reg)
}

func newFileMetrics(reg prometheus.Registerer) *FileMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &FileMetrics{
		ingests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docvault",
			Subsystem: "files",
			Name:      "ingest_total",
			Help:      "Uploads processed, by outcome",
		}, []string{"outcome"}),
		retrievals: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docvault",
			Subsystem: "files",
			Name:      "retrieve_total",
			Help:      "Retrievals processed, by outcome",
		}, []string{"outcome"}),
		extraction: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "docvault",
			Subsystem: "files",
			Name:      "extraction_seconds",
			Help:      "Time spent extracting text, by document kind",
			Buckets:   prometheus.ExponentialBuckets(0.005, 4, 8),
		}, []string{"kind"}),
	}
}

func (m *FileMetrics) RecordIngest(outcome string) {
	if m == nil {
		return
	}
	m.ingests.WithLabelValues(outcome).Inc()
}

func (m *FileMetrics) RecordRetrieve(outcome string) {
	if m == nil {
		return
	}
	m.retrievals.WithLabelValues(outcome).Inc()
}

func (m *FileMetrics) ObserveExtraction(kind string, d time.Duration) {
	if m == nil {
		return
	}
	m.extraction.WithLabelValues(kind).Observe(d.Seconds())
}
