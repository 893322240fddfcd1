// Package feed implements the feed scheduler, the coordinator of the
// simulated market-data loop.
//
// The scheduler:
//   - Owns the transport connection and one price generator per instrument
//   - Ticks periodically, sending one generated price over the wire
//   - Applies echoed updates to the state store, using its own generated
//     price as authoritative (the echo is a liveness signal, not a data
//     source of truth)
//   - Serializes the tick path and the receive path through one goroutine
package feed
