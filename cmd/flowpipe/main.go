// Command flowpipe runs a task graph once, compares execution policies, or
// serves the graph over HTTP.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/kbukum/flowpipe/bootstrap"
	"github.com/kbukum/flowpipe/config"
	"github.com/kbukum/flowpipe/dag"
	"github.com/kbukum/flowpipe/observability"
	"github.com/kbukum/flowpipe/server"
	"github.com/kbukum/flowpipe/sse"
	"github.com/kbukum/flowpipe/version"
	"github.com/kbukum/flowpipe/visualize"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "flowpipe:", err)
		os.Exit(1)
	}
}

type options struct {
	configFile  string
	compare     bool
	dotPath     string
	jsonPath    string
	serve       bool
	showVersion bool
}

// flagKeys maps flags to the config keys they override.
var flagKeys = map[string]string{
	"definition":   "definition",
	"policy":       "scheduler.policy",
	"max-parallel": "scheduler.max_parallel",
	"input-delay":  "example.input_delay",
	"port":         "server.port",
}

func newFlagSet(out io.Writer, o *options) *pflag.FlagSet {
	fs := pflag.NewFlagSet(serviceName, pflag.ContinueOnError)
	fs.SetOutput(out)

	fs.StringVarP(&o.configFile, "config", "c", "", "config file (default: search cmd/flowpipe/config.yml)")
	fs.StringP("definition", "d", "", "YAML graph definition (default: built-in example)")
	fs.StringP("policy", "p", "", "execution policy: sequential or concurrent")
	fs.Int("max-parallel", 0, "maximum nodes running at once, 0 for no limit")
	fs.Duration("input-delay", 0, "delay of the example input components")
	fs.Int("port", 0, "HTTP port for --serve")
	fs.BoolVar(&o.compare, "compare", false, "run under both policies and report the time taken by each")
	fs.StringVar(&o.dotPath, "dot", "", "write the graph as Graphviz DOT to a file, or - for stdout")
	fs.StringVar(&o.jsonPath, "json", "", "write the graph as node-link JSON to a file, or - for stdout")
	fs.BoolVar(&o.serve, "serve", false, "serve the graph over HTTP until interrupted")
	fs.BoolVarP(&o.showVersion, "version", "v", false, "print version and exit")
	return fs
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	var o options
	fs := newFlagSet(stdout, &o)
	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if o.showVersion {
		fmt.Fprintln(stdout, version.Get().String())
		return nil
	}

	cfg := &Config{}
	loadOpts := []config.LoaderOption{
		config.WithEnvPrefix("FLOWPIPE"),
		config.WithFlags(fs, flagKeys),
	}
	if o.configFile != "" {
		loadOpts = append(loadOpts, config.WithConfigFile(o.configFile))
	}
	if err := config.LoadConfig(serviceName, cfg, loadOpts...); err != nil {
		return err
	}

	app, err := bootstrap.NewApp(cfg, bootstrap.WithGracefulTimeout(cfg.ShutdownTimeout))
	if err != nil {
		return err
	}

	g, def, err := buildGraph(cfg.Definition, components(cfg.Example.InputDelay))
	if err != nil {
		return err
	}
	policy, err := selectPolicy(cfg.Scheduler.Policy, def.Policy, fs.Changed("policy"))
	if err != nil {
		return err
	}

	if err := exportGraph(g, o, stdout); err != nil {
		return err
	}
	if (o.dotPath == "-" || o.jsonPath == "-") && !o.compare && !o.serve {
		// the export owns stdout
		return nil
	}

	schedOpts, metrics, err := telemetry(ctx, app)
	if err != nil {
		return err
	}
	schedOpts = append(schedOpts,
		dag.WithLogger(app.Logger.WithComponent("dag")),
		dag.WithMaxParallel(cfg.Scheduler.MaxParallel),
	)
	sched := dag.NewScheduler(g, schedOpts...)

	if o.serve {
		return serve(ctx, app, g, sched, policy, metrics)
	}

	return app.RunTask(ctx, func(ctx context.Context) error {
		if o.compare {
			return compare(ctx, sched, g, stdout)
		}
		report, err := sched.Execute(ctx, policy)
		if err != nil {
			return err
		}
		return printReport(stdout, g, report)
	})
}

// selectPolicy picks the --policy flag, then the definition's policy, then
// the configured one.
func selectPolicy(configured, fromDefinition string, flagSet bool) (dag.Policy, error) {
	name := configured
	if !flagSet && fromDefinition != "" {
		name = fromDefinition
	}
	return dag.ParsePolicy(name)
}

func telemetry(ctx context.Context, app *bootstrap.App[*Config]) ([]dag.Option, *observability.Metrics, error) {
	tc := app.Cfg.Telemetry
	if !tc.Enabled {
		return nil, nil, nil
	}

	tp, err := observability.InitTracer(ctx, tc.TracerConfig(app.Name, app.Version))
	if err != nil {
		return nil, nil, err
	}
	mp, err := observability.InitMeter(ctx, tc.MeterConfig(app.Name, app.Version))
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, nil, err
	}
	app.OnStop(tp.Shutdown, mp.Shutdown)

	metrics, err := observability.NewMetrics(observability.Meter(serviceName))
	if err != nil {
		return nil, nil, err
	}
	return []dag.Option{dag.WithTracing(serviceName), dag.WithMetrics(metrics)}, metrics, nil
}

func serve(ctx context.Context, app *bootstrap.App[*Config], g *dag.Graph, sched *dag.Scheduler, policy dag.Policy, metrics *observability.Metrics) error {
	srv := server.New(app.Cfg.Server, app.Logger.WithComponent("http"))
	srv.ApplyMiddleware(metrics)

	hub := sse.NewHub()
	api := &server.API{
		Graph:         g,
		Scheduler:     sched,
		DefaultPolicy: policy,
		RunsPerMinute: app.Cfg.Server.RunsPerMinute,
		Events:        hub,
	}
	api.Register(srv.GinEngine())
	srv.RegisterDefaultEndpoints(app.Name, app.Version, api, hub)

	app.OnStart(hub.Start)
	app.OnReady(srv.Start)
	// Stop hooks run in reverse: event streams close before the server
	// waits for idle connections.
	app.OnStop(srv.Stop, hub.Stop)
	return app.Run(ctx)
}

func compare(ctx context.Context, sched *dag.Scheduler, g *dag.Graph, w io.Writer) error {
	var last *dag.Report
	for _, p := range []dag.Policy{dag.Sequential, dag.Concurrent} {
		report, err := sched.Execute(ctx, p)
		if err != nil {
			return fmt.Errorf("%s run: %w", p, err)
		}
		fmt.Fprintf(w, "%-10s time taken: %s\n", p, report.Duration.Round(time.Millisecond))
		last = report
	}
	return printResults(w, g, last.Results)
}

func printReport(w io.Writer, g *dag.Graph, report *dag.Report) error {
	if err := printResults(w, g, report.Results); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "run %s (%s) time taken: %s\n",
		report.RunID, report.Policy, report.Duration.Round(time.Millisecond))
	return err
}

// printResults writes one "name = value" line per node in execution order.
func printResults(w io.Writer, g *dag.Graph, results dag.Results) error {
	order, err := g.TopologicalOrder()
	if err != nil {
		return err
	}
	for _, n := range order {
		if _, err := fmt.Fprintf(w, "%s = %v\n", n.Name(), results[n.Name()]); err != nil {
			return err
		}
	}
	return nil
}

func exportGraph(g *dag.Graph, o options, stdout io.Writer) error {
	if o.dotPath != "" {
		if err := writeTo(o.dotPath, stdout, func(w io.Writer) error { return visualize.WriteDOT(w, g) }); err != nil {
			return fmt.Errorf("writing DOT: %w", err)
		}
	}
	if o.jsonPath != "" {
		if err := writeTo(o.jsonPath, stdout, func(w io.Writer) error { return visualize.WriteJSON(w, g) }); err != nil {
			return fmt.Errorf("writing JSON: %w", err)
		}
	}
	return nil
}

func writeTo(path string, stdout io.Writer, write func(io.Writer) error) error {
	if path == "-" {
		return write(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
