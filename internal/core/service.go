package core

import (
	"breederbook/internal/blob"
	"breederbook/internal/config"
	"breederbook/internal/importer"
	"breederbook/internal/sheet/xlsx"
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"
)

// ImportService loads breeder workbooks from document storage, runs them
// through the import pipeline against the persistent store and archives a
// report for every run.
type ImportService struct {
	store   PersistentStore
	docs    blob.Store
	cfg     config.Config
	logger  *zap.Logger
	metrics *importer.Metrics
	pusher  *MetricsPusher
}

// ServiceOption configures optional behaviour on an ImportService.
type ServiceOption func(*ImportService)

// WithLogger sets the logger for service and pipeline events.
func WithLogger(logger *zap.Logger) ServiceOption {
	return func(s *ImportService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records pipeline metrics and pushes them after each run.
// pusher may be nil.
func WithMetrics(metrics *importer.Metrics, pusher *MetricsPusher) ServiceOption {
	return func(s *ImportService) {
		s.metrics = metrics
		s.pusher = pusher
	}
}

// NewImportService constructs a service backed by store and docs.
func NewImportService(store PersistentStore, docs blob.Store, cfg config.Config, opts ...ServiceOption) *ImportService {
	s := &ImportService{store: store, docs: docs, cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying persistent store.
func (s *ImportService) Store() PersistentStore { return s.store }

// ImportRequest names the workbook to import.
type ImportRequest struct {
	// DocumentKey is the blob key of the .xlsx workbook.
	DocumentKey string
	// DryRun overrides the configured behaviour and skips ingestion.
	DryRun bool
	// Ack reviews the consistency report; nil accepts it.
	Ack importer.Acknowledger
}

// ImportResult is the outcome of one import.
type ImportResult struct {
	Report    importer.RunReport
	ReportKey string
}

// ArchivedReport is the JSON document stored for each run.
type ArchivedReport struct {
	Document string `json:"document"`
	importer.RunReport
}

// Import runs the pipeline over the workbook at req.DocumentKey. The run
// report is archived even when the pipeline fails or is declined.
func (s *ImportService) Import(ctx context.Context, req ImportRequest) (ImportResult, error) {
	key := strings.TrimSpace(req.DocumentKey)
	if key == "" {
		return ImportResult{}, fmt.Errorf("document key required")
	}
	logger := s.logger.With(zap.String("document", key))

	data, err := blob.ReadAll(ctx, s.docs, key)
	if err != nil {
		return ImportResult{}, fmt.Errorf("load document %s: %w", key, err)
	}
	wb, err := xlsx.Open(bytes.NewReader(data))
	if err != nil {
		return ImportResult{}, err
	}
	defer func() { _ = wb.Close() }()

	pipeline := importer.NewPipeline(s.store, importer.PipelineOptions{
		SelfOwner: s.cfg.SelfOwner,
		Ingest: importer.IngestOptions{
			Atomic:     s.cfg.Import.Atomic,
			LinkOwners: s.cfg.Import.LinkOwners,
		},
		DryRun: req.DryRun,
	}, importer.WithLogger(logger), importer.WithMetrics(s.metrics))

	report, runErr := pipeline.Run(ctx, wb, req.Ack)
	if werr := wb.Err(); werr != nil {
		logger.Warn("workbook read incomplete", zap.Error(werr))
		if runErr == nil {
			runErr = werr
		}
	}
	result := ImportResult{Report: report}

	if s.cfg.Import.ReportDir != "" && report.RunID != "" {
		reportKey := path.Join(s.cfg.Import.ReportDir, report.RunID+".json")
		if _, err := blob.PutJSON(ctx, s.docs, reportKey, ArchivedReport{Document: key, RunReport: report}); err != nil {
			logger.Error("archive report failed", zap.String("key", reportKey), zap.Error(err))
			runErr = errors.Join(runErr, fmt.Errorf("archive report: %w", err))
		} else {
			result.ReportKey = reportKey
			logger.Info("report archived", zap.String("key", reportKey))
		}
	}

	if err := s.pusher.Push(ctx, report.RunID); err != nil {
		logger.Warn("metrics push failed", zap.Error(err))
	}
	return result, runErr
}

// Reports lists archived run reports, oldest key first.
func (s *ImportService) Reports(ctx context.Context) ([]blob.Info, error) {
	prefix := s.cfg.Import.ReportDir
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return s.docs.List(ctx, prefix)
}
