package usb_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umap2/umap2go/usb"
)

func TestConfigurationSerializeHeaderAndTotalLength(t *testing.T) {
	cfg := usb.ConfigurationDescriptor{
		Index:      1,
		Attributes: 0x80,
		MaxPower:   50,
		Interfaces: []usb.InterfaceDescriptor{
			{Number: 0, Endpoints: []usb.EndpointDescriptor{
				{Number: 1, Direction: usb.DirectionIn, TransferType: usb.TransferInterrupt, MaxPacketSize: 8},
			}},
		},
	}

	raw := cfg.Serialize(usb.FullSpeed)
	require.True(t, len(raw) >= int(usb.LenConfiguration))
	assert.Equal(t, uint8(usb.LenConfiguration), raw[0])
	assert.Equal(t, usb.DescConfiguration, raw[1])

	wTotalLength := uint16(raw[2]) | uint16(raw[3])<<8
	assert.Equal(t, uint16(len(raw)), wTotalLength)
	assert.Equal(t, uint8(1), raw[4]) // bNumInterfaces
	assert.Equal(t, uint8(1), raw[5]) // bConfigurationValue
	assert.Equal(t, uint8(0x80), raw[7])
	assert.Equal(t, uint8(50), raw[8])
}

func TestConfigurationEndpointMapKeysByWireAddress(t *testing.T) {
	cfg := usb.ConfigurationDescriptor{
		Interfaces: []usb.InterfaceDescriptor{
			{Endpoints: []usb.EndpointDescriptor{
				{Number: 1, Direction: usb.DirectionIn},
				{Number: 1, Direction: usb.DirectionOut},
				{Number: 2, Direction: usb.DirectionOut},
			}},
		},
	}

	m := cfg.EndpointMap()
	require.Len(t, m, 3)
	_, ok := m[0x81]
	assert.True(t, ok)
	_, ok = m[0x01]
	assert.True(t, ok)
	_, ok = m[0x02]
	assert.True(t, ok)
}

func TestConfigurationWithNoInterfacesSerializesBareHeader(t *testing.T) {
	cfg := usb.ConfigurationDescriptor{Index: 1, Attributes: 0x80}
	raw := cfg.Serialize(usb.FullSpeed)
	assert.Len(t, raw, int(usb.LenConfiguration))
	assert.Equal(t, uint8(0), raw[4])
}
