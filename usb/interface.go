package usb

import "bytes"

// InterfaceDescriptor is one alternate setting of a USB interface
// (USB 2.0 table 9-12).
type InterfaceDescriptor struct {
	Number            uint8
	AlternateSetting  uint8
	Class             uint8
	SubClass          uint8
	Protocol          uint8
	StringIndex       uint8
	Endpoints         []EndpointDescriptor
	ClassSpecific     []ClassSpecificDescriptor
	// HID, when non-nil, nests the HID class descriptor (0x21) directly
	// after the interface descriptor, per USB HID 1.11 §7.1. GET_DESCRIPTOR
	// for the report descriptor (0x22) is served by control.Engine's
	// interface-recipient handler from this field, not the Serializers map.
	HID               *HIDFunction
	ClassHandlers     HandlerSet
	VendorHandlers    HandlerSet

	// ConfigurationIndex is the back-reference to the owning configuration.
	ConfigurationIndex int
}

// NumEndpoints returns bNumEndpoints, always the length of Endpoints.
func (i InterfaceDescriptor) NumEndpoints() uint8 {
	return uint8(len(i.Endpoints))
}

// Serialize writes the 9-byte interface descriptor, its class-specific
// interface descriptors, then every endpoint (and their class-specific
// endpoint descriptors) in one contiguous block.
func (i InterfaceDescriptor) Serialize(speed Speed) []byte {
	var b bytes.Buffer
	b.WriteByte(LenInterface)
	b.WriteByte(DescInterface)
	b.WriteByte(i.Number)
	b.WriteByte(i.AlternateSetting)
	b.WriteByte(i.NumEndpoints())
	b.WriteByte(i.Class)
	b.WriteByte(i.SubClass)
	b.WriteByte(i.Protocol)
	b.WriteByte(i.StringIndex)
	if i.HID != nil {
		b.Write(i.HID.DescriptorBytes())
	}
	for _, cs := range i.ClassSpecific {
		b.Write(cs.Serialize())
	}
	for _, ep := range i.Endpoints {
		b.Write(ep.Serialize(speed))
	}
	return b.Bytes()
}

// HandlerSet mirrors request.HandlerSet's shape so the descriptor graph can
// carry per-interface class/vendor handlers without importing package
// request (which itself imports usb for SetupPacket).
type HandlerSet = map[uint8]func(req SetupPacket, data []byte) (resp []byte, ack bool)
