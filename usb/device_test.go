package usb_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umap2/umap2go/usb"
)

func newTestDevice() *usb.Device {
	return usb.NewDevice(0x00, 0x00, 0x00, 0x40, 0x1234, 0x5678, 0x0100, "Acme", "Widget", "0001")
}

func TestStringIDInterning(t *testing.T) {
	d := newTestDevice()
	first := d.StringID("hello")
	second := d.StringID("hello")
	assert.Equal(t, first, second)

	other := d.StringID("world")
	assert.NotEqual(t, first, other)

	assert.Equal(t, uint8(0), d.StringID(""))
}

func TestDeviceDescriptorBytes(t *testing.T) {
	d := newTestDevice()
	raw := d.Serializers[usb.DescDevice](usb.FullSpeed, 0, false)
	require.Len(t, raw, int(usb.LenDevice))
	assert.Equal(t, uint8(usb.LenDevice), raw[0])
	assert.Equal(t, usb.DescDevice, raw[1])
	assert.Equal(t, uint16(0x1234), uint16(raw[8])|uint16(raw[9])<<8)
	assert.Equal(t, uint16(0x5678), uint16(raw[10])|uint16(raw[11])<<8)
}

func TestSelectConfigurationRebuildsEndpointMap(t *testing.T) {
	d := newTestDevice()
	d.Configurations = []usb.ConfigurationDescriptor{
		{
			Index: 1,
			Interfaces: []usb.InterfaceDescriptor{
				{
					Number: 0,
					Endpoints: []usb.EndpointDescriptor{
						{Number: 1, Direction: usb.DirectionIn, TransferType: usb.TransferInterrupt, MaxPacketSize: 8},
					},
				},
			},
		},
	}

	d.SelectConfiguration(0)
	assert.Equal(t, usb.StateConfigured, d.State)
	ep, ok := d.EndpointMap[0x81]
	require.True(t, ok)
	assert.Equal(t, uint8(1), ep.Number)
}

func TestSelectConfigurationOutOfRangeFallsBackToZero(t *testing.T) {
	d := newTestDevice()
	d.Configurations = []usb.ConfigurationDescriptor{{Index: 1}}

	d.SelectConfiguration(7)
	assert.Equal(t, 0, d.ConfigurationIndex)
	assert.Equal(t, usb.StateConfigured, d.State)
}

func TestEndpointHighSpeedBulkFixedMaxPacketSize(t *testing.T) {
	ep := usb.EndpointDescriptor{Number: 1, Direction: usb.DirectionOut, TransferType: usb.TransferBulk, MaxPacketSize: 64}
	raw := ep.Serialize(usb.HighSpeed)
	wMaxPacketSize := uint16(raw[4]) | uint16(raw[5])<<8
	assert.Equal(t, uint16(512), wMaxPacketSize)

	rawFS := ep.Serialize(usb.FullSpeed)
	wMaxPacketSizeFS := uint16(rawFS[4]) | uint16(rawFS[5])<<8
	assert.Equal(t, uint16(64), wMaxPacketSizeFS)
}

func TestBrokerInterceptsDescriptorSerialization(t *testing.T) {
	d := newTestDevice()
	mutated := []byte{0xde, 0xad}
	d.Broker = stubStager{result: mutated}

	raw := d.Serializers[usb.DescDevice](usb.FullSpeed, 0, false)
	assert.Equal(t, mutated, raw)
}

type stubStager struct{ result []byte }

func (s stubStager) Stage(_ string, _ map[string][]byte, _ func() []byte) []byte {
	return s.result
}
