// Package app wires the read-only HTTP API behind `macrocli serve`.
//
// NewApplication takes an already loaded configuration, the process logger
// and the OpenTelemetry providers, builds the dataset and health services and
// mounts the handlers from macrocli/internal/transport/http behind the
// middleware chain:
//
//	RequestID → RealIP → OTel → StructuredLogger → Recoverer → SecurityHeaders → RateLimiter
//
// /metrics is mounted outside the instrumented group.
//
// # Usage
//
//	application, err := app.NewApplication(cfg, logger, providers)
//	if err != nil {
//	    return err
//	}
//	return application.Run(ctx)
//
// Run returns once ctx is cancelled and in-flight requests have drained, or
// ShutdownTimeout has elapsed. The app does not call os.Exit and does not
// handle signals; cmd/macrocli derives ctx from signal.NotifyContext.
package app
