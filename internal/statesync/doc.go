// Package statesync keeps the persisted per-printer display state fresh.
//
// A Poller sweeps every registered printer on a fixed interval, fetching
// its telemetry overview through the Moonraker proxy and deriving a coarse
// state variant from the raw upstream status string. Derived states are
// debounced and pushed to the snapshot store in one batch, so a burst of
// poll results produces a single write. Registry changes (printer added or
// removed) trigger an immediate out-of-cycle sweep.
//
// Push failures are logged and dropped. The poller never blocks on the
// store and never retries a failed push; the next sweep supersedes it.
package statesync
