// Package client implements the register client.
//
// A Client drives a store.Store, which is either an in-process
// namespace or a NetStore speaking the wire protocol over TCP. The
// composite operations (ToggleSwitch, PressButton, PressAndRelease)
// replay the register sequences a physical controller would issue:
// each step is an independent read or write, so a device's own update
// loop can interleave between them. Count increments may be lost under
// that interleaving; callers that need exact counts must own the
// device exclusively.
package client
