package importer

import (
	"breederbook/pkg/domain"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// UnitOfWork runs fn inside a transaction on the animal, litter and owner
// repositories. Persistent stores satisfy it directly.
type UnitOfWork interface {
	RunInTransaction(ctx context.Context, fn func(domain.Transaction) error) (domain.Result, error)
}

// IngestOptions tunes how an ImportSet is written.
type IngestOptions struct {
	// Atomic runs the whole import in a single transaction. When false each
	// creation or link is its own transaction and earlier steps survive a
	// later failure.
	Atomic bool
	// LinkOwners attaches externally owned animals to their created owner.
	LinkOwners bool
}

// Stage names a step of ingestion.
type Stage string

// Ingestion stages, in execution order.
const (
	StageAnimal    Stage = "create animal"
	StageOwner     Stage = "create owner"
	StageOwnerLink Stage = "link owner"
	StageLitter    Stage = "create litter"
	StageDam       Stage = "attach dam"
	StageSire      Stage = "attach sire"
	StageOffspring Stage = "add offspring"
	StageCommit    Stage = "commit"
)

// IngestError identifies the record being written when a repository call
// failed. Err is the repository error, unchanged.
type IngestError struct {
	Stage  Stage
	Record string
	Err    error
}

func (e *IngestError) Error() string {
	if e.Record == "" {
		return fmt.Sprintf("ingest: %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("ingest: %s %q: %v", e.Stage, e.Record, e.Err)
}

func (e *IngestError) Unwrap() error { return e.Err }

// IngestReport counts what was persisted. It is returned alongside an error
// so a partial import is observable.
type IngestReport struct {
	Animals        int `json:"animals"`
	Owners         int `json:"owners"`
	OwnerLinks     int `json:"owner_links"`
	Litters        int `json:"litters"`
	DamLinks       int `json:"dam_links"`
	SireLinks      int `json:"sire_links"`
	OffspringLinks int `json:"offspring_links"`
}

// Ingestor writes an ImportSet through a UnitOfWork in dependency order:
// animals, owners, then litters with their dam, sire and offspring links.
type Ingestor struct {
	uow     UnitOfWork
	opts    IngestOptions
	logger  *zap.Logger
	metrics *Metrics
}

// IngestorOption configures an Ingestor.
type IngestorOption func(*Ingestor)

// WithIngestLogger sets the logger used for per-record diagnostics.
func WithIngestLogger(l *zap.Logger) IngestorOption {
	return func(in *Ingestor) {
		if l != nil {
			in.logger = l
		}
	}
}

// WithIngestMetrics records created entities and failures.
func WithIngestMetrics(m *Metrics) IngestorOption {
	return func(in *Ingestor) { in.metrics = m }
}

// NewIngestor constructs an Ingestor over uow.
func NewIngestor(uow UnitOfWork, opts IngestOptions, options ...IngestorOption) *Ingestor {
	in := &Ingestor{uow: uow, opts: opts, logger: zap.NewNop()}
	for _, opt := range options {
		opt(in)
	}
	return in
}

// stepFunc runs one repository step, either in its own transaction or in
// the enclosing one.
type stepFunc func(fn func(domain.Transaction) error) error

// Ingest writes set. Created identities are recorded on the set's records.
// In atomic mode a failure leaves nothing persisted, the identities are
// cleared and the returned report is empty.
func (in *Ingestor) Ingest(ctx context.Context, set ImportSet) (IngestReport, error) {
	start := time.Now()
	defer func() { in.metrics.ObserveStage("ingest", time.Since(start)) }()

	if !in.opts.Atomic {
		var report IngestReport
		err := in.run(set, &report, func(fn func(domain.Transaction) error) error {
			_, err := in.uow.RunInTransaction(ctx, fn)
			return err
		})
		in.record(report, err)
		return report, err
	}

	var staged IngestReport
	_, err := in.uow.RunInTransaction(ctx, func(tx domain.Transaction) error {
		staged = IngestReport{}
		return in.run(set, &staged, func(fn func(domain.Transaction) error) error { return fn(tx) })
	})
	if err != nil {
		set.resetIDs()
		var ie *IngestError
		if !errors.As(err, &ie) {
			err = &IngestError{Stage: StageCommit, Err: err}
		}
		in.record(IngestReport{}, err)
		return IngestReport{}, err
	}
	in.record(staged, nil)
	return staged, nil
}

func (in *Ingestor) record(report IngestReport, err error) {
	in.metrics.AddCreated(domain.EntityAnimal, report.Animals)
	in.metrics.AddCreated(domain.EntityOwner, report.Owners)
	in.metrics.AddCreated(domain.EntityLitter, report.Litters)
	var ie *IngestError
	if errors.As(err, &ie) {
		in.metrics.IncFailure(ie.Stage)
		in.logger.Error("ingest failed",
			zap.String("stage", string(ie.Stage)),
			zap.String("record", ie.Record),
			zap.Error(ie.Err),
			zap.Int("animals", report.Animals),
			zap.Int("litters", report.Litters))
		return
	}
	in.logger.Info("ingest complete",
		zap.Int("animals", report.Animals),
		zap.Int("owners", report.Owners),
		zap.Int("litters", report.Litters),
		zap.Int("offspring_links", report.OffspringLinks))
}

func (in *Ingestor) run(set ImportSet, report *IngestReport, step stepFunc) error {
	do := func(stage Stage, record string, fn func(domain.Transaction) error) error {
		if err := step(fn); err != nil {
			return &IngestError{Stage: stage, Record: record, Err: err}
		}
		return nil
	}

	for _, a := range set.Animals {
		var created domain.Animal
		err := do(StageAnimal, a.Name, func(tx domain.Transaction) error {
			var err error
			created, err = tx.CreateAnimal(domain.Animal{
				Name:        a.Name,
				Sex:         a.Sex,
				Variety:     a.Variety,
				BirthDate:   a.BirthDate,
				DeathDate:   a.DeathDate,
				OwnedBySelf: a.OwnedBySelf,
				Notes:       a.Notes,
			})
			return err
		})
		if err != nil {
			return err
		}
		a.ID = created.ID
		report.Animals++
		in.logger.Debug("animal created", zap.String("id", a.ID), zap.String("name", a.Name))
	}

	for _, o := range set.Owners {
		var created domain.Owner
		err := do(StageOwner, o.Name, func(tx domain.Transaction) error {
			var err error
			created, err = tx.CreateOwner(domain.Owner{Name: o.Name, Notes: o.Notes})
			return err
		})
		if err != nil {
			return err
		}
		o.ID = created.ID
		report.Owners++
		in.logger.Debug("owner created", zap.String("id", o.ID), zap.String("name", o.Name))
	}

	if in.opts.LinkOwners {
		for _, a := range set.Animals {
			if a.OwnedBySelf || a.OwnerKey == "" {
				continue
			}
			owner := set.OwnerByKey(a.OwnerKey)
			if owner == nil || owner.ID == "" {
				continue
			}
			err := do(StageOwnerLink, a.Name, func(tx domain.Transaction) error {
				_, err := tx.AttachOwner(a.ID, owner.ID)
				return err
			})
			if err != nil {
				return err
			}
			report.OwnerLinks++
		}
	}

	for _, l := range set.Litters {
		var created domain.Litter
		err := do(StageLitter, l.Identifier, func(tx domain.Transaction) error {
			var err error
			created, err = tx.CreateLitter(domain.Litter{
				MatingDate: l.MatingDate,
				BirthDate:  l.BirthDate,
				Notes:      l.Notes,
			})
			return err
		})
		if err != nil {
			return err
		}
		l.ID = created.ID
		report.Litters++

		if l.Dam != nil && l.Dam.ID != "" {
			if err := do(StageDam, l.Identifier, func(tx domain.Transaction) error {
				_, err := tx.AttachDam(l.ID, l.Dam.ID)
				return err
			}); err != nil {
				return err
			}
			report.DamLinks++
		}
		if l.Sire != nil && l.Sire.ID != "" {
			if err := do(StageSire, l.Identifier, func(tx domain.Transaction) error {
				_, err := tx.AttachSire(l.ID, l.Sire.ID)
				return err
			}); err != nil {
				return err
			}
			report.SireLinks++
		}
		for _, pup := range l.Offspring {
			if pup.ID == "" {
				continue
			}
			if err := do(StageOffspring, l.Identifier, func(tx domain.Transaction) error {
				_, err := tx.AddOffspring(l.ID, pup.ID)
				return err
			}); err != nil {
				return err
			}
			report.OffspringLinks++
		}
		in.logger.Debug("litter created",
			zap.String("id", l.ID),
			zap.String("identifier", l.Identifier),
			zap.Int("offspring", len(l.Offspring)))
	}
	return nil
}
