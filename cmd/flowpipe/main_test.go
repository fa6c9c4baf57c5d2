package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/flowpipe/dag"
)

const testConfig = `
name: flowpipe
environment: development
logging:
  level: error
  format: json
  output: stderr
example:
  input_delay: 1ms
`

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(testConfig), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestConfigDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()

	if cfg.Name != serviceName {
		t.Errorf("expected name %q, got %q", serviceName, cfg.Name)
	}
	if cfg.Scheduler.Policy != "concurrent" {
		t.Errorf("expected concurrent policy, got %q", cfg.Scheduler.Policy)
	}
	if cfg.Example.InputDelay != time.Second {
		t.Errorf("expected 1s input delay, got %s", cfg.Example.InputDelay)
	}
	if cfg.Logging.Output != "stderr" {
		t.Errorf("expected logs on stderr, got %q", cfg.Logging.Output)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Telemetry.Environment != "development" {
		t.Errorf("expected telemetry environment development, got %q", cfg.Telemetry.Environment)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown policy", func(c *Config) { c.Scheduler.Policy = "parallel" }},
		{"negative max parallel", func(c *Config) { c.Scheduler.MaxParallel = -1 }},
		{"negative input delay", func(c *Config) { c.Example.InputDelay = -time.Second }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"bad environment", func(c *Config) { c.Environment = "qa" }},
		{"bad sample rate", func(c *Config) {
			c.Telemetry.Enabled = true
			c.Telemetry.SampleRate = 2
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.ApplyDefaults()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error, got nil")
			}
		})
	}
}

func TestSelectPolicy(t *testing.T) {
	tests := []struct {
		name           string
		configured     string
		fromDefinition string
		flagSet        bool
		want           dag.Policy
	}{
		{"configured", "concurrent", "", false, dag.Concurrent},
		{"definition wins over config", "concurrent", "serial", false, dag.Sequential},
		{"flag wins over definition", "concurrent", "sequential", true, dag.Concurrent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := selectPolicy(tt.configured, tt.fromDefinition, tt.flagSet)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}

	if _, err := selectPolicy("parallel", "", false); !dag.IsInvalidInput(err) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}

func checkPipelineResults(t *testing.T, results dag.Results) {
	t.Helper()
	want := map[string]int{
		"input1":     2,
		"input2":     3,
		"sum":        5,
		"double_sum": 10,
		"square_sum": 25,
	}
	for name, v := range want {
		got, err := dag.Get[int](results, name)
		if err != nil {
			t.Fatalf("result %s: %v", name, err)
		}
		if got != v {
			t.Errorf("expected %s = %d, got %d", name, v, got)
		}
	}
}

func TestExamplePipeline(t *testing.T) {
	for _, p := range []dag.Policy{dag.Sequential, dag.Concurrent} {
		t.Run(p.String(), func(t *testing.T) {
			g, def, err := buildGraph("", components(0))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if def.Name != "example" {
				t.Fatalf("expected example definition, got %q", def.Name)
			}
			results, err := dag.NewScheduler(g).Run(context.Background(), p)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			checkPipelineResults(t, results)
		})
	}
}

func TestDefinitionPipeline(t *testing.T) {
	g, def, err := buildGraph(filepath.Join("definitions", "pipeline.yml"), components(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if def.Policy != "concurrent" {
		t.Errorf("expected concurrent policy, got %q", def.Policy)
	}
	if g.Len() != 5 {
		t.Fatalf("expected 5 nodes, got %d", g.Len())
	}
	results, err := dag.NewScheduler(g).Run(context.Background(), dag.Concurrent)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checkPipelineResults(t, results)
}

func TestConcurrentInputsOverlap(t *testing.T) {
	const delay = 100 * time.Millisecond
	g, _, err := buildGraph("", components(delay))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	report, err := dag.NewScheduler(g).Execute(context.Background(), dag.Concurrent)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Duration >= 2*delay {
		t.Fatalf("expected inputs to overlap, run took %s", report.Duration)
	}
}

func TestDelayedHonorsContext(t *testing.T) {
	g := dag.NewGraph()
	if err := g.AddNode("slow", delayed(time.Hour, 1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := dag.NewScheduler(g).Run(ctx, dag.Sequential)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("expected the delay to be cut short, took %s", time.Since(start))
	}
}

func TestRun(t *testing.T) {
	cfgPath := writeConfig(t)

	tests := []struct {
		name     string
		args     []string
		contains []string
		excludes []string
	}{
		{
			name:     "example pipeline",
			args:     nil,
			contains: []string{"sum = 5", "double_sum = 10", "square_sum = 25", "(concurrent) time taken"},
		},
		{
			name:     "sequential flag",
			args:     []string{"--policy", "sequential"},
			contains: []string{"square_sum = 25", "(sequential) time taken"},
		},
		{
			name:     "definition file",
			args:     []string{"--definition", filepath.Join("definitions", "pipeline.yml")},
			contains: []string{"input1 = 2", "double_sum = 10", "(concurrent)"},
		},
		{
			name:     "compare policies",
			args:     []string{"--compare"},
			contains: []string{"sequential time taken", "concurrent time taken", "sum = 5"},
		},
		{
			name:     "dot to stdout",
			args:     []string{"--dot", "-"},
			contains: []string{"digraph", "rankdir"},
			excludes: []string{"sum = 5"},
		},
		{
			name:     "json to stdout",
			args:     []string{"--json", "-"},
			contains: []string{`"links"`, `"id": "square_sum"`},
			excludes: []string{"time taken"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			args := append([]string{"--config", cfgPath}, tt.args...)
			if err := run(context.Background(), args, &out); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, s := range tt.contains {
				if !strings.Contains(out.String(), s) {
					t.Errorf("expected output to contain %q, got:\n%s", s, out.String())
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(out.String(), s) {
					t.Errorf("expected output not to contain %q, got:\n%s", s, out.String())
				}
			}
		})
	}
}

func TestRunWritesExports(t *testing.T) {
	dir := t.TempDir()
	dotPath := filepath.Join(dir, "graph.dot")
	jsonPath := filepath.Join(dir, "graph.json")

	var out bytes.Buffer
	args := []string{"--config", writeConfig(t), "--dot", dotPath, "--json", jsonPath}
	if err := run(context.Background(), args, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "sum = 5") {
		t.Errorf("expected the run to print results, got:\n%s", out.String())
	}

	dot, err := os.ReadFile(dotPath)
	if err != nil {
		t.Fatalf("reading DOT: %v", err)
	}
	if !strings.Contains(string(dot), "digraph") {
		t.Errorf("expected a digraph, got:\n%s", dot)
	}
	js, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("reading JSON: %v", err)
	}
	if !strings.Contains(string(js), `"source": "sum"`) {
		t.Errorf("expected a link from sum, got:\n%s", js)
	}
}

func TestRunErrors(t *testing.T) {
	cfgPath := writeConfig(t)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"--nope"}},
		{"unknown policy", []string{"--policy", "parallel"}},
		{"missing definition", []string{"--definition", "definitions/ghost.yml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			args := append([]string{"--config", cfgPath}, tt.args...)
			if err := run(context.Background(), args, &out); err == nil {
				t.Fatalf("expected error, got nil; output:\n%s", out.String())
			}
		})
	}
}

func TestRunVersion(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), []string{"--version"}, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out.String()) == "" {
		t.Fatal("expected a version line")
	}
}
