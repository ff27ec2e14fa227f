// Package observability provides OpenTelemetry metrics for fluxmux pipeline
// runs.
//
//	mp, err := observability.InitMeter(ctx, cfg, observability.Resource{Name: "fluxmux"}, log)
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewPipelineMetrics(observability.Meter("fluxmux"))
//	metrics.RecordDelivered(ctx, "kafka")
//
// Without InitMeter the global no-op provider is used and recording is free.
package observability
