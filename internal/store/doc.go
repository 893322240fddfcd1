// Package store implements the feed state store.
//
// The store owns the ordered set of tracked instruments:
//   - Fixed universe, seeded once at startup, never grows or shrinks
//   - Recency ordering (most recently updated instrument first)
//   - Transient flash marks with per-symbol expiry timers
//   - Subscriber fan-out of applied updates via growable buffers,
//     so a slow reader never blocks Apply
package store
