package dag

import (
	"fmt"
	"time"

	"github.com/kbukum/flowpipe/errors"
)

// Results maps each node name to the value its computation produced.
type Results map[string]any

// Get reads a node's result as type T.
func Get[T any](r Results, name string) (T, error) {
	var zero T
	v, ok := r[name]
	if !ok {
		return zero, errNodeNotFound(name).WithDetail("reason", "no result recorded")
	}
	typed, ok := v.(T)
	if !ok {
		return zero, errors.InvalidInput(name, fmt.Sprintf("result of %q: expected %T, got %T", name, zero, v))
	}
	return typed, nil
}

// Node execution statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusPending   = "pending"
	StatusRunning   = "running"
)

// Report describes one run of a graph.
type Report struct {
	RunID    string
	Policy   Policy
	Duration time.Duration
	// Results is nil unless every node completed.
	Results Results
	Nodes   map[string]NodeReport

	observers []Observer
}

// NodeReport holds the outcome of a single node execution.
type NodeReport struct {
	Name     string
	Status   string
	Duration time.Duration
	Error    error
}

// NodeEvent is emitted when a node starts and again when it finishes.
type NodeEvent struct {
	RunID  string
	Node   string
	Status string
	// Duration, Value and Err are set once the node has finished.
	Duration time.Duration
	Value    any
	Err      error
}

// Observer receives the node events of a run. Calls for one run never
// overlap, and a node's running event always precedes its final one.
type Observer func(NodeEvent)

func (r *Report) start(name string) {
	r.Nodes[name] = NodeReport{Name: name, Status: StatusRunning}
	r.notify(NodeEvent{RunID: r.RunID, Node: name, Status: StatusRunning})
}

func (r *Report) finish(name string, d time.Duration, value any, err error) {
	status := StatusCompleted
	if err != nil {
		status = StatusFailed
		value = nil
	}
	r.Nodes[name] = NodeReport{Name: name, Status: status, Duration: d, Error: err}
	r.notify(NodeEvent{RunID: r.RunID, Node: name, Status: status, Duration: d, Value: value, Err: err})
}

func (r *Report) notify(e NodeEvent) {
	for _, o := range r.observers {
		o(e)
	}
}
