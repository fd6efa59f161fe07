package importer

import (
	"breederbook/pkg/domain"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for workbook imports. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	// Rows read per workbook section
	RowsExtracted *prometheus.CounterVec

	// Advisory warnings raised by the consistency check
	Warnings prometheus.Counter

	// Entities persisted by entity type
	EntitiesCreated *prometheus.CounterVec

	// Failed ingestions by stage
	IngestFailures *prometheus.CounterVec

	// Duration of each pipeline stage
	StageDuration *prometheus.HistogramVec
}

// NewMetrics registers the import metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RowsExtracted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "breederbook_import_rows_extracted_total",
			Help: "Rows read from the workbook by section",
		}, []string{"section"}), // section: "animals", "litters", "family"

		Warnings: factory.NewCounter(prometheus.CounterOpts{
			Name: "breederbook_import_warnings_total",
			Help: "Advisory warnings raised by the consistency check",
		}),

		EntitiesCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "breederbook_import_entities_created_total",
			Help: "Entities persisted by the ingestor by entity type",
		}, []string{"entity"}),

		IngestFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "breederbook_import_ingest_failures_total",
			Help: "Failed ingestions by the stage that failed",
		}, []string{"stage"}),

		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "breederbook_import_stage_duration_seconds",
			Help:    "Duration of import pipeline stages",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}, []string{"stage"}),
	}
}

// AddRows records rows extracted from a section.
func (m *Metrics) AddRows(section string, n int) {
	if m != nil && n > 0 {
		m.RowsExtracted.WithLabelValues(section).Add(float64(n))
	}
}

// AddWarnings records advisory warnings.
func (m *Metrics) AddWarnings(n int) {
	if m != nil && n > 0 {
		m.Warnings.Add(float64(n))
	}
}

// AddCreated records persisted entities.
func (m *Metrics) AddCreated(entity domain.EntityType, n int) {
	if m != nil && n > 0 {
		m.EntitiesCreated.WithLabelValues(string(entity)).Add(float64(n))
	}
}

// IncFailure records a failed ingestion.
func (m *Metrics) IncFailure(stage Stage) {
	if m != nil {
		m.IngestFailures.WithLabelValues(string(stage)).Inc()
	}
}

// ObserveStage records how long a pipeline stage took.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m != nil {
		m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
	}
}
