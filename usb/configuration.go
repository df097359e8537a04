package usb

import (
	"bytes"
	"encoding/binary"
)

// ConfigurationDescriptor groups interfaces under one selectable
// configuration (USB 2.0 table 9-10).
type ConfigurationDescriptor struct {
	Index          uint8 // 1-based
	StringIndex    uint8
	Attributes     uint8 // bit 7 always set; bits 6/5 = self-powered/remote-wakeup
	MaxPower       uint8 // 2 mA units
	Interfaces     []InterfaceDescriptor
}

// interfacesBlock serializes every interface (and their nested endpoint /
// class-specific descriptors) into one contiguous block.
func (c ConfigurationDescriptor) interfacesBlock(speed Speed) []byte {
	var b bytes.Buffer
	for _, iface := range c.Interfaces {
		b.Write(iface.Serialize(speed))
	}
	return b.Bytes()
}

// Serialize writes the 9-byte configuration header with wTotalLength equal
// to 9 plus the length of the interfaces block, followed by that block.
func (c ConfigurationDescriptor) Serialize(speed Speed) []byte {
	block := c.interfacesBlock(speed)
	var b bytes.Buffer
	b.WriteByte(LenConfiguration)
	b.WriteByte(DescConfiguration)
	_ = binary.Write(&b, binary.LittleEndian, uint16(LenConfiguration+len(block)))
	b.WriteByte(uint8(len(c.Interfaces)))
	b.WriteByte(c.Index)
	b.WriteByte(c.StringIndex)
	b.WriteByte(c.Attributes)
	b.WriteByte(c.MaxPower)
	b.Write(block)
	return b.Bytes()
}

// EndpointMap rebuilds the address-to-endpoint-descriptor map (keyed by
// the wire address, direction bit included) from this
// configuration's interfaces, as performed on SET_CONFIGURATION.
func (c ConfigurationDescriptor) EndpointMap() map[uint8]*EndpointDescriptor {
	m := make(map[uint8]*EndpointDescriptor)
	for i := range c.Interfaces {
		for j := range c.Interfaces[i].Endpoints {
			ep := &c.Interfaces[i].Endpoints[j]
			m[ep.Address()] = ep
		}
	}
	return m
}
