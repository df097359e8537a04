// Package phy is the physical-layer abstraction: a uniform interface with
// two concrete back-ends (register-poll serial chip, kernel gadget
// interface) that differ in concurrency and buffering model but present
// the same connect/disconnect/send/stall/ack/run surface to the
// application loop and control engine.
package phy

import (
	"context"

	"github.com/umap2/umap2go/usb"
)

// StopFunc reports whether the PHY's run loop should stop, consulted once
// per run-loop iteration (after each control-file event for gadgetfs, on
// every register poll for serial). Owned here (not package app) so PHY
// implementations and the application loop share one type without an
// import cycle.
type StopFunc func() bool

// PHY is implemented by phy/serial and phy/gadgetfs.
type PHY interface {
	// Connect attaches device and performs whatever handshake the backend
	// requires (register enable sequence, control-file descriptor push).
	Connect(device *usb.Device) error
	// Disconnect tears down the connection and returns the device that was
	// attached, for symmetry with Connect.
	Disconnect() (*usb.Device, error)
	// SendOnEndpoint writes data to ep (EP0 included). For gadgetfs an
	// empty data to EP0 is a stall; serial sends it as a zero-length packet.
	SendOnEndpoint(ep uint8, data []byte) error
	StallEP0() error
	AckStatusStage() error
	// Run drives the backend's event loop until ctx is cancelled or stop
	// reports true.
	Run(ctx context.Context, stop StopFunc) error
}
