package dag

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kbukum/flowpipe/errors"
)

// DefinitionLoader loads definitions by name, for resolving includes.
type DefinitionLoader interface {
	Load(name string) (*Definition, error)
}

// FileLoader loads definitions from YAML files on disk.
type FileLoader struct {
	dirs []string
}

// NewFileLoader creates a loader that searches the given directories.
func NewFileLoader(dirs ...string) *FileLoader {
	return &FileLoader{dirs: dirs}
}

// Load looks for {name}.yaml or {name}.yml directly in each directory, then
// anywhere below it. Directories are searched in the order given.
func (l *FileLoader) Load(name string) (*Definition, error) {
	for _, dir := range l.dirs {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, name+ext)
			if _, err := os.Stat(path); err == nil {
				return LoadDefinition(path)
			}
		}
		if path, ok := findFile(dir, name); ok {
			return LoadDefinition(path)
		}
	}
	return nil, errors.NotFound("definition", name).
		WithDetail("dirs", l.dirs)
}

func findFile(root, name string) (string, bool) {
	var found string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		base := filepath.Base(path)
		if base == name+".yaml" || base == name+".yml" {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	return found, found != ""
}

// MapLoader serves definitions from memory.
type MapLoader map[string]*Definition

// Load returns the definition registered under name.
func (m MapLoader) Load(name string) (*Definition, error) {
	d, ok := m[name]
	if !ok {
		return nil, errors.NotFound("definition", name)
	}
	return d, nil
}

// Resolve builds a Graph from a definition. Includes are resolved first,
// depth-first in declaration order; a definition reached twice through
// different includes is added once, and an include that leads back to a
// definition still being resolved fails. Each node's component is looked
// up in registry.
func Resolve(def *Definition, registry *Registry, loader DefinitionLoader) (*Graph, error) {
	r := &resolver{
		registry: registry,
		loader:   loader,
		graph:    NewGraph(),
		stack:    make(map[string]bool),
		resolved: make(map[string]bool),
	}
	if err := r.resolve(def); err != nil {
		return nil, err
	}
	return r.graph, nil
}

type resolver struct {
	registry *Registry
	loader   DefinitionLoader
	graph    *Graph
	stack    map[string]bool // current include path
	resolved map[string]bool // fully added definitions
}

func (r *resolver) resolve(def *Definition) error {
	if r.stack[def.Name] {
		return errCircularInclude(def.Name)
	}
	if r.resolved[def.Name] {
		return nil
	}
	r.stack[def.Name] = true
	defer delete(r.stack, def.Name)

	for _, name := range def.Includes {
		if r.resolved[name] {
			continue
		}
		if r.stack[name] {
			return errCircularInclude(name)
		}
		if r.loader == nil {
			return errors.InvalidInput("includes",
				fmt.Sprintf("definition %q includes %q but no loader is configured", def.Name, name))
		}
		sub, err := r.loader.Load(name)
		if err != nil {
			return fmt.Errorf("dag: loading include %q of %q: %w", name, def.Name, err)
		}
		if err := r.resolve(sub); err != nil {
			return err
		}
	}

	for _, spec := range def.Nodes {
		c, ok := r.registry.Get(spec.ComponentName())
		if !ok {
			return errComponentNotFound(spec.Name, spec.ComponentName())
		}
		if err := r.graph.AddNode(spec.Name, c, spec.DependsOn...); err != nil {
			return err
		}
	}

	r.resolved[def.Name] = true
	return nil
}
