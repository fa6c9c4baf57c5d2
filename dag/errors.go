package dag

import (
	"fmt"
	"net/http"

	"github.com/kbukum/flowpipe/errors"
)

const resourceNode = "node"

func errDuplicateName(name string) *errors.AppError {
	return errors.AlreadyExists(resourceNode, name)
}

func errNodeNotFound(name string) *errors.AppError {
	return errors.NotFound(resourceNode, name)
}

func errMissingDependency(node, dep string) *errors.AppError {
	return errors.NotFound(resourceNode, dep).
		WithDetail("required_by", node)
}

func errCycle(node string) *errors.AppError {
	return errors.New(errors.ErrCodeCycleDetected,
		fmt.Sprintf("cycle detected at node %q", node),
		http.StatusUnprocessableEntity,
	).WithDetail(resourceNode, node)
}

func errComputeFailed(node string, cause error) *errors.AppError {
	return errors.New(errors.ErrCodeComputeFailed,
		fmt.Sprintf("node %q failed", node),
		http.StatusInternalServerError,
	).WithDetail(resourceNode, node).WithCause(cause)
}

func errInvalidNode(node, field, reason string) *errors.AppError {
	return errors.InvalidInput(field, reason).WithDetail(resourceNode, node)
}

// IsDuplicateName reports whether err rejects a node name already in the graph.
func IsDuplicateName(err error) bool { return hasOuterCode(err, errors.ErrCodeAlreadyExists) }

// IsNotFound reports whether err names a node or dependency missing from the graph.
func IsNotFound(err error) bool { return hasOuterCode(err, errors.ErrCodeNotFound) }

// IsCycle reports whether err rejects a graph whose dependencies form a cycle.
func IsCycle(err error) bool { return hasOuterCode(err, errors.ErrCodeCycleDetected) }

// IsComputeFailed reports whether err is a node computation failure. The
// computation's own error is reachable with errors.Is and errors.As.
func IsComputeFailed(err error) bool { return hasOuterCode(err, errors.ErrCodeComputeFailed) }

// IsInvalidInput reports whether err rejects a node definition or its inputs.
func IsInvalidInput(err error) bool { return hasOuterCode(err, errors.ErrCodeInvalidInput) }

// FailedNode returns the node whose computation produced err.
func FailedNode(err error) (string, bool) {
	if !IsComputeFailed(err) {
		return "", false
	}
	return nodeDetail(err)
}

// CycleNode returns the node at which a cycle was detected.
func CycleNode(err error) (string, bool) {
	if !IsCycle(err) {
		return "", false
	}
	return nodeDetail(err)
}

// hasOuterCode inspects only the first AppError in the chain so that a
// computation returning, say, a NOT_FOUND error is still reported as a
// compute failure rather than a missing node.
func hasOuterCode(err error, code errors.ErrorCode) bool {
	appErr, ok := errors.AsAppError(err)
	return ok && appErr.Code == code
}

func nodeDetail(err error) (string, bool) {
	appErr, _ := errors.AsAppError(err)
	name, ok := appErr.Details[resourceNode].(string)
	return name, ok
}

const resourceComponent = "component"

func errDuplicateComponent(name string) *errors.AppError {
	return errors.AlreadyExists(resourceComponent, name)
}

func errComponentNotFound(node, component string) *errors.AppError {
	return errors.NotFound(resourceComponent, component).
		WithDetail(resourceNode, node)
}

func errCircularInclude(name string) *errors.AppError {
	return errors.New(errors.ErrCodeCycleDetected,
		fmt.Sprintf("circular include of definition %q", name),
		http.StatusUnprocessableEntity,
	).WithDetail("definition", name)
}
