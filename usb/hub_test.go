package usb_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/umap2/umap2go/usb"
)

func TestDefaultHubDescriptorFourPortSelfPowered(t *testing.T) {
	h := usb.DefaultHubDescriptor()
	assert.Equal(t, uint8(4), h.NumPorts)
	assert.Equal(t, uint16(0xe000), h.Characteristics)
	assert.Equal(t, uint8(0xff), h.PortPwrCtrlMask)
}

func TestHubDescriptorSerializeNineBytes(t *testing.T) {
	h := usb.DefaultHubDescriptor()
	out := h.Serialize()

	require := assert.New(t)
	require.Equal(uint8(usb.LenHub), out[0])
	require.Equal(usb.DescHub, out[1])
	require.Equal(uint8(4), out[2])
	characteristics := uint16(out[3]) | uint16(out[4])<<8
	require.Equal(uint16(0xe000), characteristics)
	require.Equal(uint8(0x32), out[5])
	require.Equal(uint8(0x64), out[6])
	require.Equal(uint8(0), out[7])
	require.Equal(uint8(0xff), out[8])
	require.Len(out, 9)
}
