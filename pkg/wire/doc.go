// Package wire defines the CBOR wire format for the register protocol.
//
// Messages use CBOR (RFC 8949) with integer keys for compact encoding
// and are transmitted length-prefixed over TCP.
//
// # Message Types
//
// There are two message types:
//   - Request: client to server (Browse, Read, Write)
//   - Response: server to client (status plus payload)
//
// # CBOR Integer Keys
//
// All maps use integer keys. The key mappings are defined as constants
// in this package.
//
// # Addressing
//
// Requests address targets by name: an object (device) name and,
// for Read and Write, a variable (register) name beneath it. Browse
// with an empty object name lists the devices themselves.
package wire
