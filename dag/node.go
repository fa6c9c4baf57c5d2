package dag

import (
	"context"
	stderrors "errors"
	"fmt"
	"runtime/debug"
	"slices"
	"sync"

	"github.com/kbukum/flowpipe/errors"
)

// TaskNode is a named computation and the ordered names of the nodes whose
// results it consumes.
type TaskNode struct {
	name    string
	deps    []string
	compute Compute

	mu        sync.Mutex
	result    any
	hasResult bool
}

// Name returns the node's unique name.
func (n *TaskNode) Name() string { return n.name }

// Dependencies returns a copy of the declared dependency names, in the order
// their results are passed to the computation.
func (n *TaskNode) Dependencies() []string { return slices.Clone(n.deps) }

// Arity returns the number of inputs the computation expects, or -1.
func (n *TaskNode) Arity() int { return n.compute.Arity() }

// Result returns the output of the node's most recent successful run.
func (n *TaskNode) Result() (any, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.result, n.hasResult
}

// Run applies the computation to inputs, positionally and in order, and
// records the output as the node's result.
//
// Errors returned by the computation are passed through unchanged. Inputs
// that do not fit the computation yield an INVALID_INPUT error; a panic is
// turned into an INTERNAL_ERROR. A single node is not meant to be run
// concurrently with itself.
func (n *TaskNode) Run(ctx context.Context, inputs []any) (out any, err error) {
	if a := n.compute.Arity(); a != variadic && a != len(inputs) {
		return nil, errInvalidNode(n.name, "inputs",
			fmt.Sprintf("node %q expects %d inputs, got %d", n.name, a, len(inputs)))
	}

	call, err := n.compute.bind(inputs)
	if err != nil {
		var mm *inputMismatch
		if stderrors.As(err, &mm) {
			return nil, errInvalidNode(n.name, n.inputName(mm.index), err.Error()).
				WithDetail("expected", mm.expected).
				WithDetail("actual", mm.actual)
		}
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = errors.Internal(fmt.Errorf("node %q panicked: %v", n.name, r)).
				WithDetail(resourceNode, n.name).
				WithDetail("stack", string(debug.Stack()))
		}
	}()

	out, err = call(ctx)
	if err != nil {
		return nil, err
	}

	n.mu.Lock()
	n.result, n.hasResult = out, true
	n.mu.Unlock()
	return out, nil
}

// inputName names the dependency feeding input i, for error reporting.
func (n *TaskNode) inputName(i int) string {
	if i < len(n.deps) {
		return n.deps[i]
	}
	return fmt.Sprintf("input[%d]", i)
}
