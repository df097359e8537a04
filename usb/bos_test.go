package usb_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/umap2/umap2go/usb"
)

func TestBOSDescriptorSerializeHeaderAndTotalLength(t *testing.T) {
	bos := usb.BOSDescriptor{Capabilities: []usb.DeviceCapability{
		{CapabilityType: 0x02, Payload: []byte{0xaa, 0xbb}},
		{CapabilityType: 0x03},
	}}
	out := bos.Serialize()

	assert.Equal(t, uint8(5), out[0])
	assert.Equal(t, usb.DescBOS, out[1])
	wTotalLength := uint16(out[2]) | uint16(out[3])<<8
	assert.Equal(t, uint16(len(out)), wTotalLength)
	assert.Equal(t, uint8(2), out[4])
	assert.Equal(t, []byte{5, 0x10, 0x02, 0xaa, 0xbb, 3, 0x10, 0x03}, out[5:])
}

func TestBOSDescriptorSerializeWithNoCapabilities(t *testing.T) {
	bos := usb.BOSDescriptor{}
	out := bos.Serialize()
	assert.Equal(t, []byte{5, usb.DescBOS, 5, 0, 0}, out)
}
