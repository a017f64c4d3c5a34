package observability

import (
	"bytes"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestFileMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewFileMetricsWithRegisterer(reg)

	m.RecordIngest("ok")
	m.RecordIngest("ok")
	m.RecordIngest("unsupported_format")
	m.RecordRetrieve("not_found")
	m.ObserveExtraction("pdf", 20*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ingests.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ingests.WithLabelValues("unsupported_format")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.retrievals.WithLabelValues("not_found")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.extraction))
}

func TestNilFileMetricsIsNoop(t *testing.T) {
	var m *FileMetrics
	assert.NotPanics(t, func() {
		m.RecordIngest("ok")
		m.RecordRetrieve("ok")
		m.ObserveExtraction("text", time.Second)
	})
}

func TestNewLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, "warn")
	log.Info("hidden")
	log.Warn("shown", "k", "v")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"k":"v"`)
}
