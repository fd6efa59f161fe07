package importer

import (
	"breederbook/internal/sheet"
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrImportDeclined is returned when the user does not accept the
// consistency report.
var ErrImportDeclined = errors.New("import declined")

// Acknowledger presents the consistency report to a human and reports
// whether the import should proceed.
type Acknowledger interface {
	Acknowledge(ctx context.Context, report Report) (bool, error)
}

// AcknowledgeFunc adapts a function to Acknowledger.
type AcknowledgeFunc func(ctx context.Context, report Report) (bool, error)

// Acknowledge implements Acknowledger.
func (f AcknowledgeFunc) Acknowledge(ctx context.Context, report Report) (bool, error) {
	return f(ctx, report)
}

// AcceptAll proceeds regardless of warnings.
var AcceptAll = AcknowledgeFunc(func(context.Context, Report) (bool, error) { return true, nil })

// PipelineOptions configures a Pipeline.
type PipelineOptions struct {
	SelfOwner string
	Ingest    IngestOptions
	// DryRun stops after mapping; nothing is written.
	DryRun bool
}

// Plan summarizes the creation records built by Map.
type Plan struct {
	Animals int `json:"animals"`
	Owners  int `json:"owners"`
	Litters int `json:"litters"`
}

// RowCounts reports how many rows each workbook section yielded.
type RowCounts struct {
	Animals int `json:"animals"`
	Litters int `json:"litters"`
	Family  int `json:"family"`
}

// RunReport describes one pipeline run and is suitable for archiving.
type RunReport struct {
	RunID      string        `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	DryRun     bool          `json:"dry_run"`
	Rows       RowCounts     `json:"rows"`
	Check      Report        `json:"check"`
	Plan       Plan          `json:"plan"`
	Ingest     *IngestReport `json:"ingest,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// Pipeline runs extract, check, acknowledge, map and ingest in sequence.
type Pipeline struct {
	uow     UnitOfWork
	opts    PipelineOptions
	logger  *zap.Logger
	metrics *Metrics
	now     func() time.Time
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithLogger sets the pipeline logger.
func WithLogger(l *zap.Logger) PipelineOption {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMetrics records pipeline metrics.
func WithMetrics(m *Metrics) PipelineOption {
	return func(p *Pipeline) { p.metrics = m }
}

// WithClock overrides the time source used for report timestamps.
func WithClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// NewPipeline constructs a pipeline writing through uow.
func NewPipeline(uow UnitOfWork, opts PipelineOptions, options ...PipelineOption) *Pipeline {
	p := &Pipeline{uow: uow, opts: opts, logger: zap.NewNop(), now: time.Now}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Run imports wb. A nil ack accepts every report. The returned RunReport is
// populated as far as the run progressed, including on error.
func (p *Pipeline) Run(ctx context.Context, wb sheet.Workbook, ack Acknowledger) (RunReport, error) {
	report := RunReport{RunID: uuid.NewString(), StartedAt: p.now(), DryRun: p.opts.DryRun}
	logger := p.logger.With(zap.String("run_id", report.RunID))
	finish := func(err error) (RunReport, error) {
		report.FinishedAt = p.now()
		if err != nil {
			report.Error = err.Error()
		}
		return report, err
	}

	stageStart := time.Now()
	raw, err := Extract(wb)
	p.metrics.ObserveStage("extract", time.Since(stageStart))
	if err != nil {
		logger.Error("workbook rejected", zap.Error(err))
		return finish(err)
	}
	report.Rows = RowCounts{Animals: len(raw.Animals), Litters: len(raw.Litters), Family: len(raw.Family)}
	p.metrics.AddRows("animals", len(raw.Animals))
	p.metrics.AddRows("litters", len(raw.Litters))
	p.metrics.AddRows("family", len(raw.Family))
	logger.Info("workbook extracted",
		zap.Int("animals", len(raw.Animals)),
		zap.Int("litters", len(raw.Litters)),
		zap.Int("family", len(raw.Family)))

	stageStart = time.Now()
	report.Check = Checker{SelfOwner: p.opts.SelfOwner}.Check(raw)
	p.metrics.ObserveStage("check", time.Since(stageStart))
	p.metrics.AddWarnings(len(report.Check.Warnings))
	for _, w := range report.Check.Warnings {
		logger.Warn("consistency", zap.String("warning", w))
	}

	if ack != nil {
		ok, err := ack.Acknowledge(ctx, report.Check)
		if err != nil {
			return finish(err)
		}
		if !ok {
			logger.Info("import declined")
			return finish(ErrImportDeclined)
		}
	}

	stageStart = time.Now()
	set := Map(raw, MapOptions{SelfOwner: p.opts.SelfOwner})
	p.metrics.ObserveStage("map", time.Since(stageStart))
	report.Plan = Plan{Animals: len(set.Animals), Owners: len(set.Owners), Litters: len(set.Litters)}
	if p.opts.DryRun {
		logger.Info("dry run, skipping ingest",
			zap.Int("animals", report.Plan.Animals),
			zap.Int("owners", report.Plan.Owners),
			zap.Int("litters", report.Plan.Litters))
		return finish(nil)
	}

	ingestor := NewIngestor(p.uow, p.opts.Ingest, WithIngestLogger(logger), WithIngestMetrics(p.metrics))
	ingested, err := ingestor.Ingest(ctx, set)
	report.Ingest = &ingested
	return finish(err)
}
