// Package pipeline runs the five-stage brand-visibility audit and resumes it
// from the last checkpointed stage.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/visibility-cli/internal/checkpoint"
	"github.com/sells-group/visibility-cli/internal/cost"
	"github.com/sells-group/visibility-cli/internal/metrics"
	"github.com/sells-group/visibility-cli/internal/model"
	"github.com/sells-group/visibility-cli/internal/wizard"
)

// Stages computes each stage from the values of the stages before it.
type Stages interface {
	Context(ctx context.Context) (model.PipelineContext, error)
	Keywords(ctx context.Context, pc model.PipelineContext) ([]model.KeywordRecord, error)
	EnrichKeywords(ctx context.Context, pc model.PipelineContext, kws []model.KeywordRecord) ([]model.EnrichedKeyword, error)
	Audit(ctx context.Context, pc model.PipelineContext, kws []model.EnrichedKeyword) ([]model.AuditRow, error)
	EnrichAudit(ctx context.Context, pc model.PipelineContext, rows []model.AuditRow) ([]model.EnrichedAuditRow, error)
}

// Options tune a run.
type Options struct {
	// WizardPath, when set, imports the context from a wizard export and
	// checkpoints it before anything else runs.
	WizardPath string
	// SampleSize caps the keywords sent to enrichment. Zero keeps all.
	// Sampling happens only when enrichedKeywords is first computed; a
	// checkpointed enrichedKeywords stage ignores a changed size.
	SampleSize int
	SampleSeed uint64
}

// Result holds every stage's output.
type Result struct {
	RunID            string
	Context          model.PipelineContext
	KeywordRecords   []model.KeywordRecord
	EnrichedKeywords []model.EnrichedKeyword
	Audit            []model.AuditRow
	EnrichedAudit    []model.EnrichedAuditRow
	// Resumed lists the stages read from the checkpoint, Computed the
	// stages run in this invocation.
	Resumed  []string
	Computed []string
}

// Orchestrator sequences the stages over a checkpoint store. It is the only
// writer of the store; each stage's fan-out finishes before the snapshot is
// saved.
type Orchestrator struct {
	store   checkpoint.Store
	stages  Stages
	opts    Options
	tracker *cost.Tracker
}

// New creates an orchestrator. tracker may be nil.
func New(store checkpoint.Store, stages Stages, opts Options, tracker *cost.Tracker) *Orchestrator {
	return &Orchestrator{store: store, stages: stages, opts: opts, tracker: tracker}
}

// Run executes or resumes the pipeline. A stage error aborts the run and
// leaves the checkpoint at the last completed stage.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	res := &Result{RunID: uuid.NewString()}
	log := zap.L().With(zap.String("run_id", res.RunID))
	log.Info("pipeline: starting run")

	snap, err := o.store.Load(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load checkpoint")
	}

	var pc model.PipelineContext
	if o.opts.WizardPath != "" {
		pc, err = o.importWizard(ctx, log, snap)
		if err != nil {
			return nil, err
		}
		res.Computed = append(res.Computed, checkpoint.StageContext)
	} else {
		pc, err = runStage(ctx, o, log, res, snap, checkpoint.StageContext, &snap.Context,
			func(ctx context.Context) (model.PipelineContext, error) {
				return o.stages.Context(ctx)
			})
		if err != nil {
			return nil, err
		}
	}
	res.Context = pc

	records, err := runStage(ctx, o, log, res, snap, checkpoint.StageKeywordRecords, &snap.KeywordRecords,
		func(ctx context.Context) ([]model.KeywordRecord, error) {
			return o.stages.Keywords(ctx, pc)
		})
	if err != nil {
		return nil, err
	}
	res.KeywordRecords = records

	if _, cached := snap.EnrichedKeywords.Get(); cached && o.opts.SampleSize > 0 {
		log.Warn("pipeline: enriched keywords are checkpointed, sample size ignored",
			zap.Int("sample_size", o.opts.SampleSize),
		)
	}
	enriched, err := runStage(ctx, o, log, res, snap, checkpoint.StageEnrichedKeywords, &snap.EnrichedKeywords,
		func(ctx context.Context) ([]model.EnrichedKeyword, error) {
			sampled := Sample(records, o.opts.SampleSize, o.opts.SampleSeed)
			if len(sampled) < len(records) {
				log.Info("pipeline: sampled keywords",
					zap.Int("total", len(records)),
					zap.Int("sampled", len(sampled)),
				)
			}
			return o.stages.EnrichKeywords(ctx, pc, sampled)
		})
	if err != nil {
		return nil, err
	}
	res.EnrichedKeywords = enriched

	audit, err := runStage(ctx, o, log, res, snap, checkpoint.StageAudit, &snap.Audit,
		func(ctx context.Context) ([]model.AuditRow, error) {
			return o.stages.Audit(ctx, pc, enriched)
		})
	if err != nil {
		return nil, err
	}
	res.Audit = audit

	enrichedAudit, err := runStage(ctx, o, log, res, snap, checkpoint.StageEnrichedAudit, &snap.EnrichedAudit,
		func(ctx context.Context) ([]model.EnrichedAuditRow, error) {
			return o.stages.EnrichAudit(ctx, pc, audit)
		})
	if err != nil {
		return nil, err
	}
	res.EnrichedAudit = enrichedAudit

	log.Info("pipeline: run complete",
		zap.Strings("resumed", res.Resumed),
		zap.Strings("computed", res.Computed),
		zap.Float64("cost_usd", o.tracker.Total()),
	)
	return res, nil
}

// importWizard replaces the context slot with the wizard export and saves
// it at once, so later resumes skip the import even with a fresh checkpoint.
func (o *Orchestrator) importWizard(ctx context.Context, log *zap.Logger, snap *checkpoint.Snapshot) (model.PipelineContext, error) {
	start := time.Now()
	pc, err := wizard.Load(o.opts.WizardPath)
	if err != nil {
		return model.PipelineContext{}, eris.Wrap(err, "pipeline: import wizard export")
	}
	snap.Context.Set(*pc)
	if err := o.store.Save(ctx, snap); err != nil {
		return model.PipelineContext{}, eris.Wrap(err, "pipeline: save context")
	}
	o.done(log, checkpoint.StageContext, "wizard", start)
	return *pc, nil
}

// runStage returns the checkpointed value of slot, or computes it and saves
// the whole snapshot before returning.
func runStage[T any](
	ctx context.Context,
	o *Orchestrator,
	log *zap.Logger,
	res *Result,
	snap *checkpoint.Snapshot,
	name string,
	slot *checkpoint.Stage[T],
	compute func(ctx context.Context) (T, error),
) (T, error) {
	start := time.Now()
	if v, ok := slot.Get(); ok {
		o.done(log, name, "checkpoint", start)
		res.Resumed = append(res.Resumed, name)
		return v, nil
	}

	if err := ctx.Err(); err != nil {
		var zero T
		return zero, eris.Wrapf(context.Cause(ctx), "pipeline: stage %s", name)
	}

	log.Info("pipeline: stage starting", zap.String("stage", name))
	v, err := compute(ctx)
	if err != nil {
		log.Error("pipeline: stage failed",
			zap.String("stage", name),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			zap.Error(err),
		)
		var zero T
		return zero, eris.Wrapf(err, "pipeline: stage %s", name)
	}

	slot.Set(v)
	if err := o.store.Save(ctx, snap); err != nil {
		var zero T
		return zero, eris.Wrapf(err, "pipeline: save %s", name)
	}
	o.done(log, name, "computed", start)
	res.Computed = append(res.Computed, name)
	return v, nil
}

func (o *Orchestrator) done(log *zap.Logger, stage, source string, start time.Time) {
	elapsed := time.Since(start)
	metrics.StageDuration.WithLabelValues(stage, source).Observe(elapsed.Seconds())
	log.Info("pipeline: stage complete",
		zap.String("stage", stage),
		zap.String("source", source),
		zap.Bool("from_checkpoint", source == "checkpoint"),
		zap.Int64("duration_ms", elapsed.Milliseconds()),
		zap.Float64("cost_usd", o.tracker.StageTotal(stage)),
	)
}
