// Package influxdb records printer telemetry in InfluxDB v2.
//
// The integration is optional. When enabled, each successful telemetry
// poll writes temperature, progress, and state-variant points so operators
// can chart a printer's behaviour over time (heater stability, print
// durations, error frequency).
//
// Writes are non-blocking: the client batches points and flushes them
// asynchronously, so a slow or unreachable InfluxDB never delays the
// polling loop. Write failures are delivered via an error callback.
package influxdb
