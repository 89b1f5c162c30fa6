/*
Package observability provides tools for monitoring the journey engine.

It turns lifecycle hooks into Prometheus metrics and structured log lines, and
records the per-request phases of the engine as OpenTelemetry span events.
*/
package observability
