// Package transport provides the TCP transport for the register protocol.
//
// The transport layer handles:
//   - Length-prefixed message framing
//   - The server accept loop and per-connection read loops
//   - Client connections with request/response exchange
//
// # Protocol Stack
//
//	┌────────────────────────────────┐
//	│      CBOR Messages             │
//	├────────────────────────────────┤
//	│   Length-Prefix Framing (4B)   │
//	├────────────────────────────────┤
//	│           TCP                  │
//	└────────────────────────────────┘
//
// Messages are framed with a 4-byte big-endian length prefix. The
// transport carries opaque byte payloads; encoding and dispatch live
// in the wire and registry packages.
package transport
