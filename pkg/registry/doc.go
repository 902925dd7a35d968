// Package registry supervises a group of devices and serves their
// registers over the TCP transport.
//
// The Registry owns the namespace, the device list and the server. Its
// lifecycle runs NotSetup -> Setup -> Running -> Stopped; Setup is lazy
// and implicit, Start and Stop are safe to call from a signal-handling
// goroutine. Devices start in addition order and stop in the same
// order, each bounded by device.StopTimeout.
package registry
