package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umap2/umap2go/app"
	"github.com/umap2/umap2go/usb"
)

type fakePHY struct {
	connected     *usb.Device
	connectErr    error
	disconnectErr error
	runIterations int
	runStop       app.StopFunc
}

func (f *fakePHY) Connect(device *usb.Device) error {
	f.connected = device
	return f.connectErr
}

func (f *fakePHY) Disconnect() (*usb.Device, error) {
	return f.connected, f.disconnectErr
}

func (f *fakePHY) SendOnEndpoint(uint8, []byte) error { return nil }
func (f *fakePHY) StallEP0() error                    { return nil }
func (f *fakePHY) AckStatusStage() error              { return nil }

func (f *fakePHY) Run(ctx context.Context, stop app.StopFunc) error {
	f.runStop = stop
	for i := 0; i < f.runIterations; i++ {
		if stop() {
			break
		}
	}
	return nil
}

func newTestDevice() *usb.Device {
	return usb.NewDevice(0x00, 0x00, 0x00, 0x40, 0x1234, 0x5678, 0x0100, "Acme", "Widget", "0001")
}

func TestConnectAttachesPHYAndTransitionsToPowered(t *testing.T) {
	d := newTestDevice()
	phy := &fakePHY{}
	a := app.New(d, phy, nil)

	require.NoError(t, a.Connect())
	assert.Same(t, d, phy.connected)
	assert.Equal(t, usb.StatePowered, d.State)
}

func TestDisconnectTransitionsToDetached(t *testing.T) {
	d := newTestDevice()
	phy := &fakePHY{}
	a := app.New(d, phy, nil)
	require.NoError(t, a.Connect())

	_, err := a.Disconnect()
	require.NoError(t, err)
	assert.Equal(t, usb.StateDetached, d.State)
}

func TestRunIncrementsNumProcessedEachIteration(t *testing.T) {
	d := newTestDevice()
	phy := &fakePHY{runIterations: 5}
	a := app.New(d, phy, nil)

	require.NoError(t, a.Run(context.Background(), func() bool { return false }))
	assert.Equal(t, 5, a.NumProcessed)
}

func TestRunToleratesNilStop(t *testing.T) {
	d := newTestDevice()
	phy := &fakePHY{runIterations: 3}
	a := app.New(d, phy, nil)

	require.NoError(t, a.Run(context.Background(), nil))
	assert.Equal(t, 3, a.NumProcessed)
}

func TestUsbFunctionSupportedSetsSupportedWithReason(t *testing.T) {
	d := newTestDevice()
	a := app.New(d, &fakePHY{}, nil)

	ok, reason := a.Supported()
	assert.False(t, ok)
	assert.Empty(t, reason)

	a.UsbFunctionSupported("driver bound")
	ok, reason = a.Supported()
	assert.True(t, ok)
	assert.Equal(t, "driver bound", reason)
}

func TestResetSupportedClearsSignal(t *testing.T) {
	d := newTestDevice()
	a := app.New(d, &fakePHY{}, nil)
	a.UsbFunctionSupported("bound")

	a.ResetSupported()
	ok, reason := a.Supported()
	assert.False(t, ok)
	assert.Empty(t, reason)
}

func TestSupportedStopFiresOnceSupported(t *testing.T) {
	d := newTestDevice()
	a := app.New(d, &fakePHY{}, nil)
	stop := app.SupportedStop(a)

	assert.False(t, stop())
	a.UsbFunctionSupported("bound")
	assert.True(t, stop())
}

func TestPacketCountStopFiresAtMax(t *testing.T) {
	d := newTestDevice()
	a := app.New(d, &fakePHY{}, nil)
	stop := app.PacketCountStop(a, 2)

	assert.False(t, stop())
	a.NumProcessed = 2
	assert.True(t, stop())
}
