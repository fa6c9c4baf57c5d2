package dag

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/kbukum/flowpipe/errors"
	"github.com/kbukum/flowpipe/validation"
)

// Definition is a declarative graph loaded from YAML:
//
//	name: arithmetic
//	includes: [inputs]
//	nodes:
//	  - name: sum
//	    component: add
//	    depends_on: [input1, input2]
type Definition struct {
	Name        string     `yaml:"name" validate:"required"`
	Description string     `yaml:"description,omitempty"`
	Policy      string     `yaml:"policy,omitempty" validate:"omitempty,oneof=sequential serial concurrent"`
	Includes    []string   `yaml:"includes,omitempty" validate:"dive,required"`
	Nodes       []NodeSpec `yaml:"nodes" validate:"dive"`
}

// NodeSpec declares one node of a Definition.
type NodeSpec struct {
	Name string `yaml:"name" validate:"required"`
	// Component names the registered computation; it defaults to Name.
	Component string   `yaml:"component,omitempty"`
	DependsOn []string `yaml:"depends_on,omitempty" validate:"dive,required"`
}

// ComponentName returns the registry key of the node's computation.
func (s NodeSpec) ComponentName() string {
	if s.Component != "" {
		return s.Component
	}
	return s.Name
}

// Validate checks field rules and that node names are unique.
func (d *Definition) Validate() error {
	if err := validation.Validate(d); err != nil {
		return err
	}
	names := make([]string, len(d.Nodes))
	for i, n := range d.Nodes {
		names[i] = n.Name
	}
	return validation.New().
		Unique("nodes", names).
		Unique("includes", d.Includes).
		Err()
}

// ParseDefinition decodes and validates a YAML definition. Unknown keys are
// rejected.
func ParseDefinition(r io.Reader) (*Definition, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var d Definition
	if err := dec.Decode(&d); err != nil {
		if err == io.EOF {
			return nil, errors.Validation("definition is empty")
		}
		return nil, errors.InvalidInput("definition", err.Error()).WithCause(err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// LoadDefinition reads a definition file.
func LoadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dag: reading %s: %w", path, err)
	}
	d, err := ParseDefinition(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("dag: parsing %s: %w", path, err)
	}
	return d, nil
}
