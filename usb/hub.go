package usb

import (
	"bytes"
	"encoding/binary"
)

// HubDescriptor is the fixed-shape class descriptor (0x29), served by the
// device's GET_DESCRIPTOR serializer for type 0x29 when Device.Hub is set.
type HubDescriptor struct {
	NumPorts          uint8
	Characteristics   uint16
	PwrOn2PwrGood     uint8
	HubContrCurrent   uint8
	DeviceRemovable   uint8
	PortPwrCtrlMask   uint8
}

// DefaultHubDescriptor mirrors the standard fixed values historically used
// for a 4-port self-powered hub with no overcurrent protection.
func DefaultHubDescriptor() HubDescriptor {
	return HubDescriptor{
		NumPorts:        4,
		Characteristics: 0xe000,
		PwrOn2PwrGood:   0x32,
		HubContrCurrent: 0x64,
		DeviceRemovable: 0,
		PortPwrCtrlMask: 0xff,
	}
}

// Serialize writes the 9-byte hub descriptor.
func (h HubDescriptor) Serialize() []byte {
	var b bytes.Buffer
	b.WriteByte(LenHub)
	b.WriteByte(DescHub)
	b.WriteByte(h.NumPorts)
	_ = binary.Write(&b, binary.LittleEndian, h.Characteristics)
	b.WriteByte(h.PwrOn2PwrGood)
	b.WriteByte(h.HubContrCurrent)
	b.WriteByte(h.DeviceRemovable)
	b.WriteByte(h.PortPwrCtrlMask)
	return b.Bytes()
}
