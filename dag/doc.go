// Package dag is a small task-graph executor.
//
// Callers register named computations together with the names of the nodes
// they depend on. The graph validates names, resolves a topological order
// and detects cycles; a Scheduler then runs every node exactly once, feeding
// each computation the results of its dependencies in declared order.
//
// Two execution policies share the same graph and produce the same results:
//
//   - Sequential: nodes run one at a time in topological order.
//   - Concurrent: every node whose dependencies are done is dispatched on its
//     own goroutine; a single coordinator owns node state and the result store.
//
// Example:
//
//	g := dag.NewGraph()
//	_ = g.AddNode("a", dag.Value(2))
//	_ = g.AddNode("b", dag.Value(3))
//	_ = g.AddNode("add", dag.Func2(func(_ context.Context, a, b int) (int, error) {
//	    return a + b, nil
//	}), "a", "b")
//
//	results, err := dag.NewScheduler(g).Run(ctx, dag.Concurrent)
//
// Graphs can also be declared in YAML and resolved against a Registry of
// named computations, see Definition and Resolve.
package dag
