// Package app owns a device instance and a PHY, and implements the scan
// policies (packet-count bound, wall-clock bound, host-supported signal)
// that decide when a run loop should stop.
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/umap2/umap2go/control"
	"github.com/umap2/umap2go/phy"
	"github.com/umap2/umap2go/usb"
)

// StopFunc is phy.StopFunc, re-exported so callers that only import
// package app don't also need package phy for the type name.
type StopFunc = phy.StopFunc

// Application drives one Device through one PHY via a control.Engine.
type Application struct {
	Device *usb.Device
	PHY    phy.PHY
	Engine *control.Engine

	NumProcessed int
	StartTime    time.Time

	supported       bool
	supportedReason string
}

// New builds an Application with the engine wired to phyImpl, which must
// already have its Engine field (or equivalent) assigned before Connect is
// called — see phy/gadgetfs and phy/serial for the concrete wiring.
func New(device *usb.Device, phyImpl phy.PHY, engine *control.Engine) *Application {
	return &Application{Device: device, PHY: phyImpl, Engine: engine}
}

// Connect attaches the PHY to the device and transitions detached -> powered.
func (a *Application) Connect() error {
	if err := a.PHY.Connect(a.Device); err != nil {
		return err
	}
	a.Device.State = usb.StatePowered
	return nil
}

// Disconnect detaches the PHY, transitions to detached, and returns the
// device the PHY had attached.
func (a *Application) Disconnect() (*usb.Device, error) {
	dev, err := a.PHY.Disconnect()
	a.Device.State = usb.StateDetached
	return dev, err
}

// Run starts the scan clock and drives the PHY's event loop, wrapping stop
// so every iteration also increments NumProcessed.
func (a *Application) Run(ctx context.Context, stop StopFunc) error {
	a.StartTime = time.Now()
	a.NumProcessed = 0
	wrapped := func() bool {
		a.NumProcessed++
		return stop != nil && stop()
	}
	return a.PHY.Run(ctx, wrapped)
}

// UsbFunctionSupported is the callback a device invokes once the host
// driver has bound to it, used by scan/vsscan to mark a VID/PID as
// supported.
func (a *Application) UsbFunctionSupported(reason string) {
	if !a.supported {
		slog.Info("usb function marked supported", "reason", reason)
	}
	a.supported = true
	a.supportedReason = reason
}

// Supported reports whether UsbFunctionSupported has been called during
// the current run, and the reason given (if any).
func (a *Application) Supported() (bool, string) {
	return a.supported, a.supportedReason
}

// ResetSupported clears the supported signal between scan iterations.
func (a *Application) ResetSupported() {
	a.supported = false
	a.supportedReason = ""
}
