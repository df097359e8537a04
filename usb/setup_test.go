package usb_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/umap2/umap2go/usb"
)

func TestParseSetupPacket(t *testing.T) {
	raw := []byte{0x80, 0x06, 0x00, 0x01, 0x00, 0x00, 0x12, 0x00}
	setup := usb.ParseSetupPacket(raw)

	assert.Equal(t, usb.DeviceToHost, setup.Direction())
	assert.Equal(t, usb.StandardType, setup.Type())
	assert.Equal(t, usb.DeviceRecipient, setup.Recipient())
	assert.Equal(t, usb.ReqGetDescriptor, setup.BRequest)
	assert.Equal(t, usb.DescDevice, setup.DescriptorType())
	assert.Equal(t, uint8(0), setup.DescriptorIndex())
	assert.Equal(t, uint16(18), setup.WLength)
}

func TestSetupPacketRecipients(t *testing.T) {
	cases := []struct {
		name      string
		bmType    byte
		recipient usb.RequestRecipient
	}{
		{"device", 0x00, usb.DeviceRecipient},
		{"interface", 0x01, usb.InterfaceRecipient},
		{"endpoint", 0x02, usb.EndpointRecipient},
		{"other", 0x03, usb.OtherRecipient},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := []byte{tc.bmType, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
			setup := usb.ParseSetupPacket(raw)
			assert.Equal(t, tc.recipient, setup.Recipient())
		})
	}
}

func TestSetupPacketTypes(t *testing.T) {
	cases := []struct {
		name   string
		bmType byte
		want   usb.RequestType
	}{
		{"standard", 0x00, usb.StandardType},
		{"class", 0x20, usb.ClassType},
		{"vendor", 0x40, usb.VendorType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := []byte{tc.bmType, 0, 0, 0, 0, 0, 0, 0}
			setup := usb.ParseSetupPacket(raw)
			assert.Equal(t, tc.want, setup.Type())
		})
	}
}

func TestSetupPacketEndpointAndInterfaceIndex(t *testing.T) {
	raw := []byte{0x02, 0x00, 0x00, 0x00, 0x83, 0x00, 0x00, 0x00}
	setup := usb.ParseSetupPacket(raw)
	assert.Equal(t, uint8(0x03), setup.EndpointNumber())
	assert.Equal(t, uint8(0x83), setup.InterfaceIndex())
}

func TestSetupPacketBytesRoundTrip(t *testing.T) {
	raw := []byte{0x21, 0x09, 0x00, 0x02, 0x00, 0x00, 0x01, 0x00}
	setup := usb.ParseSetupPacket(raw)
	assert.Equal(t, raw, setup.Bytes())
}
