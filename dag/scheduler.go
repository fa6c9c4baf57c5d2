package dag

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/kbukum/flowpipe/errors"
	"github.com/kbukum/flowpipe/logger"
	"github.com/kbukum/flowpipe/observability"
)

// Scheduler runs every node of a Graph exactly once per run, in dependency
// order, under a chosen Policy. A Scheduler holds no per-run state and may
// serve several runs at once.
type Scheduler struct {
	graph       *Graph
	maxParallel int
	log         *logger.Logger
	metrics     *observability.Metrics
	tracing     bool
	spanPrefix  string
	newRunID    func() string
	run         runner
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithMaxParallel caps how many nodes the concurrent policy runs at once.
// Zero or a negative value means no cap.
func WithMaxParallel(n int) Option {
	return func(s *Scheduler) { s.maxParallel = n }
}

// WithLogger sets the logger for run and node events.
func WithLogger(l *logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics records run and node metrics on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// WithTracing opens a span per run and one span per node named
// "{prefix}.{node}".
func WithTracing(prefix string) Option {
	return func(s *Scheduler) {
		s.tracing = true
		s.spanPrefix = prefix
	}
}

// WithRunIDGenerator replaces the random run identifiers.
func WithRunIDGenerator(fn func() string) Option {
	return func(s *Scheduler) { s.newRunID = fn }
}

// NewScheduler creates a Scheduler for g.
func NewScheduler(g *Graph, opts ...Option) *Scheduler {
	s := &Scheduler{
		graph:      g,
		log:        logger.NewNop(),
		spanPrefix: observability.SpanNodePrefix,
		newRunID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := runner(baseRunner)
	r = withLogging(r, s.log)
	if s.metrics != nil {
		r = withMetrics(r, s.metrics)
	}
	if s.tracing {
		r = withTracing(r, s.spanPrefix)
	}
	s.run = r
	return s
}

// Run executes the graph under policy and returns one result per node.
//
// The first failing computation ends the run: no further nodes start, nodes
// already running are waited for, and the failure is returned as a
// COMPUTE_FAILED error wrapping the computation's error. Structural problems
// (missing dependencies, cycles) are reported before any node runs. If ctx
// is canceled no further nodes start and ctx.Err() is returned once running
// nodes have returned. Results are never returned for a failed run.
func (s *Scheduler) Run(ctx context.Context, policy Policy) (Results, error) {
	report, err := s.Execute(ctx, policy)
	if err != nil {
		return nil, err
	}
	return report.Results, nil
}

// Execute is Run returning the full run report. The report is non-nil even
// when err is not, so callers can log the run id and per-node outcomes.
// Observers are called from the goroutine driving the run, so a slow
// observer slows the run down.
func (s *Scheduler) Execute(ctx context.Context, policy Policy, observers ...Observer) (*Report, error) {
	report := &Report{
		RunID:     s.newRunID(),
		Policy:    policy,
		Nodes:     make(map[string]NodeReport, s.graph.Len()),
		observers: observers,
	}
	ctx = logger.ContextWithRunID(ctx, report.RunID)
	log := s.log.WithContext(ctx).WithFields(logger.Fields(logger.FieldPolicy, policy.String()))

	var op *observability.Operation
	if s.tracing {
		ctx, op = observability.StartOperation(ctx, observability.SpanRun,
			attribute.String(observability.AttrRunID, report.RunID),
			attribute.String(observability.AttrPolicy, policy.String()),
		)
	}

	start := time.Now()
	results, err := s.execute(ctx, policy, report, log)
	report.Duration = time.Since(start)

	if op != nil {
		op.SetAttributes(attribute.Int(observability.AttrNodeCount, s.graph.Len()))
		op.End(err)
	}
	if s.metrics != nil {
		s.metrics.RecordRun(ctx, policy.String(), observability.StatusFor(err), report.Duration)
	}

	if err != nil {
		log.Error("dag run failed", logger.Fields(
			logger.FieldError, err.Error(),
			logger.FieldDuration, report.Duration.Milliseconds(),
		))
		return report, err
	}

	report.Results = results
	log.Info("dag run finished", logger.Fields(
		logger.FieldNodes, len(results),
		logger.FieldDuration, report.Duration.Milliseconds(),
	))
	return report, nil
}

func (s *Scheduler) execute(ctx context.Context, policy Policy, report *Report, log *logger.Logger) (Results, error) {
	order, err := s.graph.TopologicalOrder()
	if err != nil {
		return nil, err
	}
	for _, n := range order {
		report.Nodes[n.Name()] = NodeReport{Name: n.Name(), Status: StatusPending}
	}

	log.Info("dag run started", logger.Fields(logger.FieldNodes, len(order)))

	results := make(Results, len(order))
	switch policy {
	case Sequential:
		err = s.runSequential(ctx, order, results, report)
	case Concurrent:
		err = s.runConcurrent(ctx, order, results, report)
	default:
		err = errors.InvalidInput("policy", fmt.Sprintf("unknown policy %s", policy))
	}
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Scheduler) runSequential(ctx context.Context, order []*TaskNode, results Results, report *Report) error {
	for _, n := range order {
		if err := ctx.Err(); err != nil {
			return err
		}
		report.start(n.Name())
		start := time.Now()
		out, err := s.run(ctx, n, gatherInputs(n, results))
		report.finish(n.Name(), time.Since(start), out, err)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && stderrors.Is(err, ctxErr) {
				return ctxErr
			}
			return errComputeFailed(n.Name(), err)
		}
		results[n.Name()] = out
	}
	return nil
}

type nodeState int

const (
	statePending nodeState = iota
	stateRunning
	stateDone
)

// completion is sent by a unit when its node finishes.
type completion struct {
	name     string
	value    any
	err      error
	duration time.Duration
}

// runConcurrent dispatches every ready node on its own goroutine. This
// goroutine is the only one that reads or writes node state and results;
// units only send a completion on a channel sized for every node, so a
// send never blocks.
func (s *Scheduler) runConcurrent(ctx context.Context, order []*TaskNode, results Results, report *Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	state := make(map[string]nodeState, len(order))
	done := make(chan completion, len(order))

	// The coordinator enforces the parallelism cap from its own in-flight
	// count. errgroup's limit frees a slot only after the unit returns,
	// which is after the completion is already visible here.
	group, unitCtx := errgroup.WithContext(ctx)

	ready := func(n *TaskNode) bool {
		for _, dep := range n.deps {
			if state[dep] != stateDone {
				return false
			}
		}
		return true
	}

	inFlight := 0
	dispatch := func() {
		for _, n := range order {
			if s.maxParallel > 0 && inFlight >= s.maxParallel {
				return
			}
			if state[n.name] != statePending || !ready(n) {
				continue
			}
			node, inputs := n, gatherInputs(n, results)
			state[n.name] = stateRunning
			report.start(n.name)
			inFlight++
			group.Go(func() error {
				start := time.Now()
				out, err := s.run(unitCtx, node, inputs)
				done <- completion{name: node.name, value: out, err: err, duration: time.Since(start)}
				return err
			})
		}
	}

	var failure error
	completed := 0
	canceled := ctx.Done()

	dispatch()
	for inFlight > 0 {
		select {
		case c := <-done:
			inFlight--
			state[c.name] = stateDone
			report.finish(c.name, c.duration, c.value, c.err)
			if c.err != nil {
				if failure == nil {
					failure = errComputeFailed(c.name, c.err)
				}
				continue
			}
			results[c.name] = c.value
			completed++
			if failure == nil && ctx.Err() == nil {
				dispatch()
			}
		case <-canceled:
			canceled = nil // stop dispatching, keep draining
		}
	}
	_ = group.Wait()

	if err := ctx.Err(); err != nil {
		if failure == nil || stderrors.Is(failure, err) {
			return err
		}
	}
	if failure != nil {
		return failure
	}
	if completed != len(order) {
		return errors.Internal(fmt.Errorf("dag: run stalled after %d of %d nodes", completed, len(order)))
	}
	return nil
}

func gatherInputs(n *TaskNode, results Results) []any {
	inputs := make([]any, len(n.deps))
	for i, dep := range n.deps {
		inputs[i] = results[dep]
	}
	return inputs
}
