package usb

import (
	"bytes"
	"encoding/binary"
)

// EndpointDescriptor is one endpoint of an interface (USB 2.0 table 9-13).
// Number is 1..15; Direction/TransferType/SyncType/UsageType compose into
// bEndpointAddress and bmAttributes at serialization time.
type EndpointDescriptor struct {
	Number         uint8
	Direction      EndpointDirection
	TransferType   uint8
	SyncType       uint8
	UsageType      uint8
	MaxPacketSize  uint16
	Interval       uint8
	ClassSpecific  []ClassSpecificDescriptor

	// OutHandler receives bytes delivered to this OUT endpoint by the PHY.
	OutHandler func([]byte)
	// InHandler is invoked when the PHY signals buffer-available for this
	// IN endpoint; its return value is written to the endpoint.
	InHandler func() []byte

	// InterfaceIndex is the back-reference to the owning interface within
	// its configuration's Interfaces slice.
	InterfaceIndex int
}

// Address returns the wire bEndpointAddress byte.
func (e EndpointDescriptor) Address() uint8 {
	addr := e.Number & 0x0f
	if e.Direction == DirectionIn {
		addr |= 0x80
	}
	return addr
}

// Attributes returns the wire bmAttributes byte.
func (e EndpointDescriptor) Attributes() uint8 {
	attr := e.TransferType & 0x03
	if e.TransferType == TransferIsochronous {
		attr |= (e.SyncType & 0x03) << 2
		attr |= (e.UsageType & 0x03) << 4
	}
	return attr
}

// effectiveMaxPacketSize applies the HS bulk-endpoint fixed size of 512,
// per the highspeed/fullspeed divergence invariant.
func (e EndpointDescriptor) effectiveMaxPacketSize(speed Speed) uint16 {
	if speed == HighSpeed && e.TransferType == TransferBulk {
		return 512
	}
	return e.MaxPacketSize
}

// Serialize writes the 7-byte endpoint descriptor, followed by any
// class-specific endpoint descriptors (cs_endpoint, 0x25).
func (e EndpointDescriptor) Serialize(speed Speed) []byte {
	var b bytes.Buffer
	b.WriteByte(LenEndpoint)
	b.WriteByte(DescEndpoint)
	b.WriteByte(e.Address())
	b.WriteByte(e.Attributes())
	_ = binary.Write(&b, binary.LittleEndian, e.effectiveMaxPacketSize(speed))
	b.WriteByte(e.Interval)
	for _, cs := range e.ClassSpecific {
		b.Write(cs.Serialize())
	}
	return b.Bytes()
}
