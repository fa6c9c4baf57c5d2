// Package testutil provides test helpers for the flowpipe/dag package.
//
// Example:
//
//	func TestPipeline(t *testing.T) {
//	    extract := testutil.Returning(10)
//	    g := testutil.NewGraphBuilder(t).
//	        Add("extract", extract.Compute()).
//	        Add("double", dag.Func1(double), "extract").
//	        Build()
//
//	    results, err := dag.NewScheduler(g).Run(context.Background(), dag.Concurrent)
//	    // ... assertions, extract.Calls() == 1
//	}
package testutil
