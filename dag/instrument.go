package dag

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/flowpipe/errors"
	"github.com/kbukum/flowpipe/logger"
	"github.com/kbukum/flowpipe/observability"
)

// runner executes one node with its inputs. The scheduler composes the
// base runner with the optional tracing, metrics and logging layers.
type runner func(ctx context.Context, n *TaskNode, inputs []any) (any, error)

func baseRunner(ctx context.Context, n *TaskNode, inputs []any) (any, error) {
	return n.Run(ctx, inputs)
}

// withTracing opens a span named "{prefix}.{node}" around each execution.
func withTracing(next runner, prefix string) runner {
	return func(ctx context.Context, n *TaskNode, inputs []any) (any, error) {
		attrs := []attribute.KeyValue{attribute.String(observability.AttrNode, n.Name())}
		if runID, ok := logger.RunIDFromContext(ctx); ok {
			attrs = append(attrs, attribute.String(observability.AttrRunID, runID))
		}
		ctx, op := observability.StartOperation(ctx, prefix+"."+n.Name(), attrs...)
		out, err := next(ctx, n, inputs)
		op.End(err)
		return out, err
	}
}

// withMetrics records execution count, duration and failures per node.
func withMetrics(next runner, metrics *observability.Metrics) runner {
	return func(ctx context.Context, n *TaskNode, inputs []any) (any, error) {
		start := time.Now()
		out, err := next(ctx, n, inputs)
		duration := time.Since(start)

		metrics.RecordNode(ctx, n.Name(), observability.StatusFor(err), duration)
		if err != nil {
			metrics.RecordError(ctx, errorCode(err), "dag")
		}
		return out, err
	}
}

// withLogging logs each execution at debug level and failures at warn
// level. The run logs the failure that ended it, and nodes stopped by
// cancellation stay at debug.
func withLogging(next runner, log *logger.Logger) runner {
	return func(ctx context.Context, n *TaskNode, inputs []any) (any, error) {
		start := time.Now()
		out, err := next(ctx, n, inputs)
		duration := time.Since(start)

		l := log.WithContext(ctx)
		fields := logger.Fields(
			logger.FieldNode, n.Name(),
			logger.FieldDuration, duration.Milliseconds(),
		)
		switch {
		case err == nil:
			l.Debug("dag node completed", fields)
		case observability.StatusFor(err) == observability.StatusCanceled:
			fields[logger.FieldError] = err.Error()
			l.Debug("dag node canceled", fields)
		default:
			fields[logger.FieldError] = err.Error()
			l.Warn("dag node failed", fields)
		}
		return out, err
	}
}

// errorCode classifies err for the error counter.
func errorCode(err error) string {
	if appErr, ok := errors.AsAppError(err); ok {
		return string(appErr.Code)
	}
	if observability.StatusFor(err) == observability.StatusCanceled {
		return string(errors.ErrCodeCanceled)
	}
	return string(errors.ErrCodeComputeFailed)
}
