package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/objectsync/depsync"
	"github.com/objectsync/depsync/graph"
	"github.com/objectsync/depsync/resolve"
	"github.com/objectsync/depsync/validate"
)

const instrumentationName = "github.com/objectsync/depsync/importer"

// Importer drives the whole pipeline: resolve, order, validate, execute,
// aggregate. It is safe to reuse across runs; each run builds and discards
// its own graph.
type Importer struct {
	intro    depsync.RecordIntrospector
	target   depsync.TargetStore
	resolver *resolve.Resolver

	validator    validate.Validator
	validatorSet bool

	logger *slog.Logger
	tracer trace.Tracer
	meter  metric.Meter

	recordsCreated metric.Int64Counter
	recordsSkipped metric.Int64Counter
	recordsFailed  metric.Int64Counter
}

// New creates an importer over the given collaborators.
func New(intro depsync.RecordIntrospector, target depsync.TargetStore, opts ...Option) *Importer {
	i := &Importer{
		intro:  intro,
		target: target,
		logger: slog.Default(),
		tracer: tracenoop.NewTracerProvider().Tracer(instrumentationName),
		meter:  metricnoop.NewMeterProvider().Meter(instrumentationName),
	}
	for _, opt := range opts {
		opt(i)
	}

	if !i.validatorSet {
		i.validator = validate.NewDependencyValidator(target)
	}
	i.resolver = resolve.New(intro, target, resolve.WithLogger(i.logger))

	i.recordsCreated = i.counter("depsync.records.created",
		"Records created in the target store.")
	i.recordsSkipped = i.counter("depsync.records.skipped",
		"Records skipped because they existed or a dependency failed.")
	i.recordsFailed = i.counter("depsync.records.failed",
		"Records whose creation failed.")

	return i
}

func (i *Importer) counter(name, description string) metric.Int64Counter {
	c, err := i.meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		i.logger.Warn("failed to create counter", "name", name, "error", err)
		c, _ = metricnoop.NewMeterProvider().Meter(instrumentationName).Int64Counter(name)
	}
	return c
}

// ImportWithDependencies resolves the dependency graph of the given roots
// and imports every discovered record into the target store in dependency
// order.
//
// Anything detected before execution begins (resolution structure,
// ordering, critical validation) returns an error with zero writes
// performed. During execution, per-record failures are isolated and
// collected on the result; the returned error is non-nil only when the run
// itself was aborted, in which case the partial result is returned with it.
func (i *Importer) ImportWithDependencies(ctx context.Context, rootIDs []string, cfg depsync.Config, opts ...RunOption) (*Result, error) {
	const op = "Importer.ImportWithDependencies"
	return i.run(ctx, op, cfg, newRunConfig(opts), func(ctx context.Context) (*resolve.Resolution, error) {
		return i.resolver.Resolve(ctx, rootIDs, cfg)
	})
}

// ImportRelated imports the given root together with every record that
// refers to it (restricted to referringTypes; empty means all types) and
// all of their dependencies. Used to pull everything depending on a shared
// record. The introspector must support reverse lookup.
func (i *Importer) ImportRelated(ctx context.Context, rootID string, referringTypes []string, cfg depsync.Config, opts ...RunOption) (*Result, error) {
	const op = "Importer.ImportRelated"
	return i.run(ctx, op, cfg, newRunConfig(opts), func(ctx context.Context) (*resolve.Resolution, error) {
		return i.resolver.ResolveRelated(ctx, rootID, referringTypes, cfg)
	})
}

func newRunConfig(opts []RunOption) runConfig {
	rc := runConfig{validate: true}
	for _, opt := range opts {
		opt(&rc)
	}
	return rc
}

func (i *Importer) run(ctx context.Context, op string, cfg depsync.Config, rc runConfig, resolveFn func(context.Context) (*resolve.Resolution, error)) (*Result, error) {
	result := &Result{
		RunID:     uuid.New().String(),
		DryRun:    rc.dryRun,
		StartedAt: time.Now(),
	}
	defer func() { result.Duration = time.Since(result.StartedAt) }()

	ctx, span := i.tracer.Start(ctx, "depsync.import", trace.WithAttributes(
		attribute.String("depsync.run_id", result.RunID),
		attribute.Bool("depsync.dry_run", rc.dryRun),
	))
	defer span.End()

	res, err := i.resolvePhase(ctx, result, resolveFn)
	if err != nil {
		return nil, i.fail(span, err)
	}

	order, err := i.orderPhase(ctx, op, result, res.Graph, cfg)
	if err != nil {
		return nil, i.fail(span, err)
	}

	if rc.validate && i.validator != nil {
		if err := i.validatePhase(ctx, op, result, res.Graph, order); err != nil {
			return nil, i.fail(span, err)
		}
	}

	if rc.dryRun {
		i.preview(ctx, result, res.Graph, order, cfg)
		i.logger.Info("dry run complete",
			"run_id", result.RunID,
			"records", len(order),
			"would_create", result.Created)
		return result, nil
	}

	if err := i.execute(ctx, op, result, res.Graph, order, cfg, rc.progress); err != nil {
		// The partial result explains what did and did not happen.
		return result, i.fail(span, err)
	}

	span.SetAttributes(
		attribute.Int("depsync.created", result.Created),
		attribute.Int("depsync.updated", result.Updated),
		attribute.Int("depsync.skipped", result.Skipped),
		attribute.Int("depsync.failed", result.Failed()),
	)
	i.logger.Info("import complete",
		"run_id", result.RunID,
		"created", result.Created,
		"updated", result.Updated,
		"skipped", result.Skipped,
		"failed", result.Failed())

	return result, nil
}

func (i *Importer) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func (i *Importer) resolvePhase(ctx context.Context, result *Result, resolveFn func(context.Context) (*resolve.Resolution, error)) (*resolve.Resolution, error) {
	ctx, span := i.tracer.Start(ctx, "depsync.resolve")
	defer span.End()

	res, err := resolveFn(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	for _, w := range res.Warnings {
		result.Warnings = append(result.Warnings, w.String())
	}
	stats := res.Graph.Stats()
	span.SetAttributes(
		attribute.Int("depsync.nodes", stats.Nodes),
		attribute.Int("depsync.edges", stats.Edges),
	)
	return res, nil
}

// orderPhase computes the creation order, breaking cycles when the
// configuration allows it.
func (i *Importer) orderPhase(ctx context.Context, op string, result *Result, g *graph.Graph, cfg depsync.Config) ([]graph.NodeRef, error) {
	_, span := i.tracer.Start(ctx, "depsync.order")
	defer span.End()

	for attempt := 0; ; attempt++ {
		order, err := g.TopologicalOrder()
		if err == nil {
			return order, nil
		}

		var cycleErr *graph.CycleError
		if !errors.As(err, &cycleErr) {
			return nil, depsync.NewCycleError(op, err)
		}
		if !cfg.AllowCycles {
			return nil, depsync.NewCycleError(op, cycleErr)
		}
		if attempt >= cfg.CycleBreakBudget() {
			return nil, depsync.NewCycleError(op,
				fmt.Errorf("cycle breaking gave up after %d rounds: %w", attempt, cycleErr))
		}

		from, to, ok := chooseBreakableEdge(g, cycleErr.Cycles)
		if !ok {
			return nil, depsync.NewCycleError(op,
				fmt.Errorf("cycle has only ownership edges and cannot be broken: %w", cycleErr))
		}
		if err := g.DemoteEdge(from, to); err != nil {
			return nil, depsync.NewCycleError(op, err)
		}

		i.logger.Warn("broke dependency cycle",
			"from", from,
			"to", to)
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("broke dependency cycle by demoting reference %s -> %s to cross-reference", from, to))
		span.AddEvent("cycle broken", trace.WithAttributes(
			attribute.String("depsync.edge.from", from),
			attribute.String("depsync.edge.to", to),
		))
	}
}

// chooseBreakableEdge picks the lowest-priority reference edge among the
// detected cycles: the edge whose dependent was discovered latest, with the
// target's discovery order as the final tie-break. Ownership edges are
// never candidates. The choice is deterministic for a given graph.
func chooseBreakableEdge(g *graph.Graph, cycles [][]string) (from, to string, ok bool) {
	type pair struct{ from, to string }
	isReference := make(map[pair]bool)
	for _, e := range g.Edges() {
		if e.Kind == graph.Reference {
			isReference[pair{e.From, e.To}] = true
		}
	}

	bestFrom, bestTo := -1, -1
	for _, cycle := range cycles {
		for idx := 0; idx+1 < len(cycle); idx++ {
			p := pair{cycle[idx], cycle[idx+1]}
			if !isReference[p] {
				continue
			}
			fromNode, _ := g.Node(p.from)
			toNode, _ := g.Node(p.to)
			if fromNode == nil || toNode == nil {
				continue
			}
			if fromNode.Order > bestFrom ||
				(fromNode.Order == bestFrom && toNode.Order > bestTo) {
				from, to = p.from, p.to
				bestFrom, bestTo = fromNode.Order, toNode.Order
				ok = true
			}
		}
	}
	return from, to, ok
}

func (i *Importer) validatePhase(ctx context.Context, op string, result *Result, g *graph.Graph, order []graph.NodeRef) error {
	ctx, span := i.tracer.Start(ctx, "depsync.validate")
	defer span.End()

	var critical []string
	for _, ref := range order {
		node, ok := g.Node(ref.ID)
		if !ok {
			continue
		}
		for _, issue := range i.validator.Check(ctx, node, g) {
			switch issue.Severity {
			case validate.SeverityCritical:
				critical = append(critical, issue.String())
			default:
				result.Warnings = append(result.Warnings, issue.String())
			}
		}
	}

	span.SetAttributes(attribute.Int("depsync.critical_issues", len(critical)))
	if len(critical) > 0 {
		return depsync.NewValidationError(op, fmt.Errorf("%w: %s",
			depsync.ErrValidationBlocked, strings.Join(critical, "; ")))
	}
	return nil
}

// preview fills the change log with the outcomes execution would produce,
// using existence checks only. The target store's creation path is never
// invoked.
func (i *Importer) preview(ctx context.Context, result *Result, g *graph.Graph, order []graph.NodeRef, cfg depsync.Config) {
	_, updatable := i.target.(depsync.RecordUpdater)

	for seq, ref := range order {
		exists, err := i.target.Exists(ctx, ref.ID)
		if err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s: existence check failed: %v", ref.ID, err))
		}

		outcome := OutcomeCreated
		switch {
		case exists && cfg.SkipExisting:
			outcome = OutcomeSkippedExisting
		case exists && updatable:
			outcome = OutcomeUpdated
		case exists:
			outcome = OutcomeSkippedExisting
		}
		result.record(seq, ref.ID, ref.Type, outcome, "dry run")
	}
}

func (i *Importer) execute(ctx context.Context, op string, result *Result, g *graph.Graph, order []graph.NodeRef, cfg depsync.Config, progress ProgressFunc) error {
	ctx, span := i.tracer.Start(ctx, "depsync.execute",
		trace.WithAttributes(attribute.Int("depsync.records", len(order))))
	defer span.End()

	created := make(map[string]*depsync.Record)
	failed := make(map[string]bool)

	for seq, ref := range order {
		if err := ctx.Err(); err != nil {
			return depsync.NewAbortedError(op, err)
		}

		outcome := i.processNode(ctx, result, g, seq, ref, cfg, created, failed)

		if progress != nil {
			if err := progress(Progress{
				Index:    seq,
				Total:    len(order),
				RecordID: ref.ID,
				Type:     ref.Type,
				Outcome:  outcome,
			}); err != nil {
				return depsync.NewAbortedError(op,
					fmt.Errorf("progress callback: %w", err))
			}
		}
	}
	return nil
}

// processNode handles one record and returns its outcome. Failures are
// recorded on the result and in the failed set; they never propagate as
// errors, so unrelated records keep processing.
func (i *Importer) processNode(ctx context.Context, result *Result, g *graph.Graph, seq int, ref graph.NodeRef, cfg depsync.Config, created map[string]*depsync.Record, failed map[string]bool) Outcome {
	// Dependencies precede their dependents in the order, so a direct
	// check against the failed set covers transitive failures too.
	for _, depID := range g.Dependencies(ref.ID) {
		if failed[depID] {
			failed[ref.ID] = true
			detail := fmt.Sprintf("dependency %s failed", depID)
			result.record(seq, ref.ID, ref.Type, OutcomeSkippedDependency, detail)
			i.recordsSkipped.Add(ctx, 1)
			return OutcomeSkippedDependency
		}
	}

	exists, err := i.target.Exists(ctx, ref.ID)
	if err != nil {
		return i.failNode(ctx, result, seq, ref, failed,
			fmt.Errorf("existence check: %w", err))
	}

	if exists {
		if !cfg.SkipExisting {
			if updater, ok := i.target.(depsync.RecordUpdater); ok {
				return i.updateNode(ctx, result, g, seq, ref, updater, created, failed)
			}
		}
		result.record(seq, ref.ID, ref.Type, OutcomeSkippedExisting, "")
		i.recordsSkipped.Add(ctx, 1)
		return OutcomeSkippedExisting
	}

	source := i.sourceRecord(g, ref.ID)
	if source == nil {
		return i.failNode(ctx, result, seq, ref, failed,
			fmt.Errorf("%w: no source record", depsync.ErrCreationFailed))
	}

	handle, err := i.target.Create(ctx, source, i.depHandles(g, ref.ID, created))
	if err != nil {
		return i.failNode(ctx, result, seq, ref, failed,
			fmt.Errorf("%w: %v", depsync.ErrCreationFailed, err))
	}

	created[ref.ID] = handle
	result.record(seq, ref.ID, ref.Type, OutcomeCreated, "")
	i.recordsCreated.Add(ctx, 1)
	return OutcomeCreated
}

func (i *Importer) updateNode(ctx context.Context, result *Result, g *graph.Graph, seq int, ref graph.NodeRef, updater depsync.RecordUpdater, created map[string]*depsync.Record, failed map[string]bool) Outcome {
	source := i.sourceRecord(g, ref.ID)
	if source == nil {
		return i.failNode(ctx, result, seq, ref, failed,
			fmt.Errorf("%w: no source record", depsync.ErrCreationFailed))
	}

	handle, err := updater.Update(ctx, source, i.depHandles(g, ref.ID, created))
	if err != nil {
		return i.failNode(ctx, result, seq, ref, failed,
			fmt.Errorf("%w: %v", depsync.ErrCreationFailed, err))
	}

	created[ref.ID] = handle
	result.record(seq, ref.ID, ref.Type, OutcomeUpdated, "")
	i.recordsCreated.Add(ctx, 1)
	return OutcomeUpdated
}

func (i *Importer) failNode(ctx context.Context, result *Result, seq int, ref graph.NodeRef, failed map[string]bool, err error) Outcome {
	failed[ref.ID] = true
	result.Errors = append(result.Errors, ImportError{RecordID: ref.ID, Err: err})
	result.record(seq, ref.ID, ref.Type, OutcomeFailed, err.Error())
	i.recordsFailed.Add(ctx, 1)
	i.logger.Error("record import failed",
		"record_id", ref.ID,
		"type", ref.Type,
		"error", err)
	return OutcomeFailed
}

func (i *Importer) sourceRecord(g *graph.Graph, id string) *depsync.Record {
	node, ok := g.Node(id)
	if !ok {
		return nil
	}
	record, _ := node.Payload.(*depsync.Record)
	return record
}

// depHandles collects the target-store handles of the dependencies created
// during this run, keyed by source id, so the store can rewire relation
// fields.
func (i *Importer) depHandles(g *graph.Graph, id string, created map[string]*depsync.Record) map[string]*depsync.Record {
	handles := make(map[string]*depsync.Record)
	for _, depID := range g.Dependencies(id) {
		if handle, ok := created[depID]; ok {
			handles[depID] = handle
		}
	}
	return handles
}
