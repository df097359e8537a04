package vendorserial_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umap2/umap2go/control"
	"github.com/umap2/umap2go/device/vendorserial"
	"github.com/umap2/umap2go/usb"
)

type fakePHY struct {
	sent    []byte
	stalled bool
	acked   bool
}

func (f *fakePHY) SendOnEndpoint(_ uint8, data []byte) error {
	f.sent = append([]byte(nil), data...)
	return nil
}
func (f *fakePHY) StallEP0() error       { f.stalled = true; return nil }
func (f *fakePHY) AckStatusStage() error { f.acked = true; return nil }

func TestNewWiresOneBulkInOutPairOnEndpointTwo(t *testing.T) {
	s, d := vendorserial.New(nil, 0x0403, 0x6001)
	require.NotNil(t, s)
	require.Len(t, d.Configurations[0].Interfaces, 1)

	eps := d.Configurations[0].Interfaces[0].Endpoints
	require.Len(t, eps, 2)
	assert.Equal(t, uint8(2), eps[0].Number)
	assert.Equal(t, usb.DirectionIn, eps[0].Direction)
	assert.Equal(t, uint8(2), eps[1].Number)
	assert.Equal(t, usb.DirectionOut, eps[1].Direction)
	assert.Equal(t, uint16(0x0403), d.VendorID)
	assert.Equal(t, uint16(0x6001), d.ProductID)
}

func TestInjectAndDrainTXRoundTrip(t *testing.T) {
	s, d := vendorserial.New(nil, 0, 0)
	s.Inject([]byte("hello"))

	inHandler := d.Configurations[0].Interfaces[0].Endpoints[0].InHandler
	assert.Equal(t, []byte("hello"), inHandler())
	assert.Nil(t, inHandler())
}

func TestDrainTXCapsAtMaxPacketSize(t *testing.T) {
	s, d := vendorserial.New(nil, 0, 0)
	big := make([]byte, 200)
	for i := range big {
		big[i] = byte(i)
	}
	s.Inject(big)

	inHandler := d.Configurations[0].Interfaces[0].Endpoints[0].InHandler
	first := inHandler()
	assert.Len(t, first, 64)
	second := inHandler()
	assert.Len(t, second, 64)
	third := inHandler()
	assert.Len(t, third, 64)
	fourth := inHandler()
	assert.Len(t, fourth, 8)
	assert.Nil(t, inHandler())
}

func TestHandleRXInvokesOnTXDataCallback(t *testing.T) {
	s, d := vendorserial.New(nil, 0, 0)
	var got []byte
	s.OnTXData = func(data []byte) { got = data }

	outHandler := d.Configurations[0].Interfaces[0].Endpoints[1].OutHandler
	outHandler([]byte{0x01, 0x02, 0x03})

	assert.Equal(t, []byte{0x01, 0x02, 0x03}, got)
}

func TestSetBaudRateAndBaudRateDiagnostic(t *testing.T) {
	s, d := vendorserial.New(nil, 0, 0)
	vendorHandlers := d.VendorHandlers

	setBaud, ok := vendorHandlers[0x03]
	require.True(t, ok)
	_, ack := setBaud(usb.SetupPacket{WValue: 3}, nil)
	assert.True(t, ack)
	assert.Equal(t, uint32(1000000), s.BaudRate())
}

func TestGetModemStatusReflectsSetModemCtrl(t *testing.T) {
	_, d := vendorserial.New(nil, 0, 0)
	vendorHandlers := d.VendorHandlers

	setModem, ok := vendorHandlers[0x01]
	require.True(t, ok)
	_, ack := setModem(usb.SetupPacket{WValue: 0x02}, nil)
	require.True(t, ack)

	getModem, ok := vendorHandlers[0x05]
	require.True(t, ok)
	resp, ack := getModem(usb.SetupPacket{}, nil)
	require.True(t, ack)
	assert.Equal(t, []byte{0x02, 0x00}, resp)
}

func TestSetAndGetLatencyTimer(t *testing.T) {
	_, d := vendorserial.New(nil, 0, 0)
	vendorHandlers := d.VendorHandlers

	setLatency, ok := vendorHandlers[0x09]
	require.True(t, ok)
	_, ack := setLatency(usb.SetupPacket{WValue: 32}, nil)
	require.True(t, ack)

	getLatency, ok := vendorHandlers[0x0A]
	require.True(t, ok)
	resp, ack := getLatency(usb.SetupPacket{}, nil)
	require.True(t, ack)
	assert.Equal(t, []byte{32}, resp)
}

func TestResetAndFlowControlAreAcknowledged(t *testing.T) {
	_, d := vendorserial.New(nil, 0, 0)
	vendorHandlers := d.VendorHandlers

	_, ack := vendorHandlers[0x00](usb.SetupPacket{}, nil)
	assert.True(t, ack)
	_, ack = vendorHandlers[0x02](usb.SetupPacket{}, nil)
	assert.True(t, ack)
}

// TestSetBaudRateDispatchesThroughControlEngine drives a real SIO_SET_BAUD_RATE
// vendor request (bmRequestType=0x40, vendor/device) through control.Engine,
// proving the device's vendor handlers are reachable from the engine's
// VendorType dispatch and not just in isolation.
func TestSetBaudRateDispatchesThroughControlEngine(t *testing.T) {
	s, d := vendorserial.New(nil, 0, 0)

	phy := &fakePHY{}
	engine := control.NewEngine(d, phy)
	engine.HandleSetup(usb.SetupPacket{BMRequestType: 0x40, BRequest: 0x03, WValue: 3})

	require.False(t, phy.stalled)
	require.True(t, phy.acked)
	assert.Equal(t, uint32(1000000), s.BaudRate())
}
