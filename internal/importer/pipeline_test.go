package importer

import (
	"breederbook/internal/infra/persistence/memory"
	"breederbook/internal/sheet"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func pipelineWorkbook() *sheet.Grid {
	return newWorkbook().
		animal(rat("L1", "Alice", "F")).
		animal(rat("L9", "Stray", "M")).
		litter(litterRow("L1", 1)).
		build()
}

func TestPipelineRunImportsAndRecords(t *testing.T) {
	store := memory.NewStore(nil)
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	core, logs := observer.New(zapcore.InfoLevel)
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	var seen Report
	ack := AcknowledgeFunc(func(_ context.Context, rep Report) (bool, error) {
		seen = rep
		return true, nil
	})
	p := NewPipeline(store, PipelineOptions{SelfOwner: "me"},
		WithLogger(zap.New(core)), WithMetrics(metrics), WithClock(func() time.Time { return fixed }))
	report, err := p.Run(context.Background(), pipelineWorkbook(), ack)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.RunID == "" || !report.StartedAt.Equal(fixed) || !report.FinishedAt.Equal(fixed) {
		t.Fatalf("unexpected run metadata %+v", report)
	}
	if len(seen.Warnings) == 0 || len(seen.Warnings) != len(report.Check.Warnings) {
		t.Fatalf("expected warnings presented for acknowledgement, got %v", seen.Warnings)
	}
	if report.Plan != (Plan{Animals: 2, Litters: 2}) {
		t.Fatalf("unexpected plan %+v", report.Plan)
	}
	if report.Ingest == nil || report.Ingest.Animals != 2 || report.Ingest.Litters != 2 {
		t.Fatalf("unexpected ingest report %+v", report.Ingest)
	}
	if len(store.ListLitters()) != 2 {
		t.Fatalf("expected litters persisted")
	}

	if got := testutil.ToFloat64(metrics.RowsExtracted.WithLabelValues("animals")); got != 2 {
		t.Fatalf("expected 2 animal rows counted, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.Warnings); got != float64(len(report.Check.Warnings)) {
		t.Fatalf("expected warnings counted, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.EntitiesCreated.WithLabelValues("litter")); got != 2 {
		t.Fatalf("expected 2 litters counted, got %v", got)
	}
	if n := logs.FilterMessage("consistency").Len(); n != len(report.Check.Warnings) {
		t.Fatalf("expected each warning logged, got %d", n)
	}
	if logs.FilterMessage("ingest complete").Len() != 1 {
		t.Fatalf("expected completion log")
	}
}

func TestPipelineDeclinedIngestsNothing(t *testing.T) {
	store := memory.NewStore(nil)
	decline := AcknowledgeFunc(func(context.Context, Report) (bool, error) { return false, nil })
	report, err := NewPipeline(store, PipelineOptions{}).Run(context.Background(), pipelineWorkbook(), decline)
	if !errors.Is(err, ErrImportDeclined) {
		t.Fatalf("expected declined, got %v", err)
	}
	if report.Ingest != nil || len(store.ListAnimals()) != 0 {
		t.Fatalf("expected nothing ingested")
	}
	if report.Error == "" {
		t.Fatalf("expected error recorded on report")
	}
}

func TestPipelineFatalExtractError(t *testing.T) {
	g := sheet.NewGrid()
	g.AddSheet("only")
	called := false
	ack := AcknowledgeFunc(func(context.Context, Report) (bool, error) {
		called = true
		return true, nil
	})
	_, err := NewPipeline(memory.NewStore(nil), PipelineOptions{}).Run(context.Background(), g, ack)
	if !errors.Is(err, ErrSheetCount) {
		t.Fatalf("expected sheet count error, got %v", err)
	}
	if called {
		t.Fatalf("acknowledger must not run after a fatal error")
	}
}

func TestPipelineDryRun(t *testing.T) {
	store := memory.NewStore(nil)
	report, err := NewPipeline(store, PipelineOptions{DryRun: true}).Run(context.Background(), pipelineWorkbook(), AcceptAll)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !report.DryRun || report.Ingest != nil || report.Plan.Animals != 2 {
		t.Fatalf("unexpected dry run report %+v", report)
	}
	if len(store.ListAnimals()) != 0 {
		t.Fatalf("dry run must not write")
	}
}
