package dag

import (
	"fmt"
	"strings"

	"github.com/kbukum/flowpipe/errors"
)

// Policy selects how a Scheduler executes a graph.
type Policy int

const (
	// Sequential runs one node at a time in topological order.
	Sequential Policy = iota
	// Concurrent runs every node whose dependencies are done as soon as it
	// becomes ready.
	Concurrent
)

// Policies lists the valid policy names.
var Policies = []string{Sequential.String(), Concurrent.String()}

func (p Policy) String() string {
	switch p {
	case Sequential:
		return "sequential"
	case Concurrent:
		return "concurrent"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy parses a policy name. "serial" is accepted for sequential.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sequential", "serial":
		return Sequential, nil
	case "concurrent":
		return Concurrent, nil
	default:
		return 0, errors.InvalidInput("policy",
			fmt.Sprintf("unknown policy %q, expected one of %s", s, strings.Join(Policies, ", ")))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Policy) MarshalText() ([]byte, error) {
	if p != Sequential && p != Concurrent {
		return nil, fmt.Errorf("dag: invalid policy %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Policy) UnmarshalText(text []byte) error {
	parsed, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
