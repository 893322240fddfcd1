// Package metrics provides an in-memory counter registry for monitoring.
//
// Key counters:
//   - Tick sends and send failures
//   - Messages received, decoded, and applied
//   - Decode failures and unknown-symbol drops
//   - Connection activation failures
//
// Counters are exposed as JSON over the ops HTTP server.
package metrics
