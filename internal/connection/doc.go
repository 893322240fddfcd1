// Package connection implements the transport connection to the echo endpoint.
//
// The connection:
//   - Owns a single WebSocket and its Disconnected/Connecting/Connected state
//   - Dials asynchronously; Connect is a no-op while a dial is in flight
//   - Runs one receive loop; a read failure is fatal to the connection
//     (state Disconnected, no automatic restart)
//   - Treats send failures as non-fatal, recorded as the last error
package connection
