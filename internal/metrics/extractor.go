package metrics

import (
	"time"

	"github.com/goodnatureofminers/farmerledger/internal/subspace/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	extractorBlocksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "farmerledger",
		Subsystem: "extractor",
		Name:      "blocks_total",
		Help:      "Count of processed blocks.",
	}, []string{"network", "status"})

	extractorBlockDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "farmerledger",
		Subsystem: "extractor",
		Name:      "block_duration_seconds",
		Help:      "Duration of fetching and decoding a single block.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"network", "status"})

	extractorRowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "farmerledger",
		Subsystem: "extractor",
		Name:      "rows_total",
		Help:      "Count of rows appended to the output.",
	}, []string{"network", "kind"})

	extractorRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "farmerledger",
		Subsystem: "extractor",
		Name:      "retries_total",
		Help:      "Count of retried node requests.",
	}, []string{"network", "operation"})

	extractorCurrentBlock = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "farmerledger",
		Subsystem: "extractor",
		Name:      "current_block",
		Help:      "Number of the last fully written block.",
	}, []string{"network"})
)

// Extractor tracks progress of a history extraction.
type Extractor struct {
	network string
}

// NewExtractor constructs a metrics collector for the extractor.
func NewExtractor(network string) *Extractor {
	if network == "" {
		network = "unknown"
	}
	return &Extractor{network: network}
}

// ObserveBlock records the outcome and duration of one block.
func (m Extractor) ObserveBlock(err error, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}
	extractorBlocksTotal.WithLabelValues(m.network, status).Inc()
	extractorBlockDuration.WithLabelValues(m.network, status).Observe(time.Since(started).Seconds())
}

func (m Extractor) ObserveRow(kind model.RowKind) {
	extractorRowsTotal.WithLabelValues(m.network, string(kind)).Inc()
}

func (m Extractor) ObserveRetry(operation string) {
	extractorRetriesTotal.WithLabelValues(m.network, operation).Inc()
}

func (m Extractor) SetCurrentBlock(number uint64) {
	extractorCurrentBlock.WithLabelValues(m.network).Set(float64(number))
}
