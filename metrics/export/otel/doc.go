// Package otel exports engine metrics through OpenTelemetry observable
// instruments.
//
// Instruments are observed lazily from a MetricsSnapshot inside one
// registered callback, so collection cost is paid per reader interval, not
// per request.
//
// # What this package must NOT do
//
//   - Mutate engine state.
//   - Depend on an OTel SDK; only the metric API surface is used.
package otel
