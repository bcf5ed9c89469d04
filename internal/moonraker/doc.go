// Package moonraker is a stateless proxy layer over the Moonraker HTTP API
// exposed by Klipper hosts.
//
// Each operation translates one dashboard intent (fetch telemetry overview,
// dispatch a control action, fetch console history, list macros) into a
// single upstream HTTP call and normalizes the response into plain Go
// values. Upstream failures never panic or leak raw transport errors:
// timeouts, connection failures, and non-2xx responses are mapped to the
// package's sentinel and typed errors so handlers can render uniform
// failure envelopes.
//
// The client holds no per-printer state. Callers pass the target base URL
// on every call; a blank base URL falls back to the configured default.
package moonraker
