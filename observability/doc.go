// Package observability provides OpenTelemetry tracing and metrics for
// flowpipe runs and the HTTP surface.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, cfg.TracerConfig("flowpipe", version))
//	defer tp.Shutdown(ctx)
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, cfg.MeterConfig("flowpipe", version))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("flowpipe"))
//	metrics.RecordRun(ctx, "concurrent", "ok", elapsed)
//
// Health:
//
//	sh := observability.Check(ctx, "flowpipe", "1.0.0", api, hub)
//	if sh.Status == observability.HealthStatusDown { ... }
package observability
