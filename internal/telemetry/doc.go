// Package telemetry provides OpenTelemetry tracing for mentord.
//
// Spans are exported over OTLP/gRPC to a collector. Metrics are not exported
// through OpenTelemetry; the HTTP server exposes Prometheus collectors instead.
//
// # Usage
//
//	tel, err := telemetry.New(ctx, telemetry.FromAppConfig(cfg.Telemetry, version))
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	tracer := tel.Tracer("mentord/orchestrator")
//	ctx, span := tracer.Start(ctx, "orchestrator.parse")
//	defer span.End()
//
// # Configuration
//
//	telemetry:
//	  enabled: true
//	  endpoint: "localhost:4317"
//	  insecure: true
//	  service_name: "mentord"
//	  sample_rate: 1.0
//
// # Testing
//
//	tt := telemetry.NewTestTelemetry()
//	_, span := tt.Tracer("test").Start(ctx, "test-span")
//	span.End()
//	tt.AssertSpanExists(t, "test-span")
package telemetry
