// Package observability builds the process logger and tracer provider from
// configuration. Components receive a *zap.Logger and a trace.Tracer and do
// not depend on this package directly.
package observability
