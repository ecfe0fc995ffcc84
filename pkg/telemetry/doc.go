// Package telemetry provides the observability stack for provider
// binaries: zerolog structured logging, Prometheus metrics for the RPC
// surface, and OpenTelemetry tracing. Logging and trace output default to
// stderr because stdout belongs to the handshake line and must stay clean
// until it is emitted.
package telemetry
