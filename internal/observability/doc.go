// Package observability provides structured logging and distributed
// tracing for the authorization service.
//
// Logging is built on zap behind a small Logger interface so packages
// can accept a logger without depending on zap directly:
//
//	logger, err := observability.NewLogger(observability.LogConfig{
//	    Level:  "info",
//	    Format: "json",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
//	logger.Info("token verified",
//	    observability.String("subject", id.SubjectID),
//	)
//
// Tracing uses OpenTelemetry with an OTLP gRPC exporter; spans started
// by the HTTP middleware propagate trace and span IDs into the request
// context so log lines can be correlated with traces.
package observability
