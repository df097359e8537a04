package usb

import (
	"bytes"
	"encoding/binary"
)

// DeviceCapability is one capability blob nested in a BOS descriptor,
// USB 3.x BOS table 9-12 (device capability descriptor).
type DeviceCapability struct {
	CapabilityType uint8
	Payload        []byte
}

func (c DeviceCapability) serialize() []byte {
	b := make([]byte, 0, 3+len(c.Payload))
	b = append(b, uint8(3+len(c.Payload)), 0x10, c.CapabilityType) // 0x10 = DEVICE CAPABILITY
	b = append(b, c.Payload...)
	return b
}

// BOSDescriptor is the binary object store container (0x0F): a header plus
// a list of device-capability blobs.
type BOSDescriptor struct {
	Capabilities []DeviceCapability
}

// Serialize writes the 5-byte BOS header followed by each capability.
func (bos BOSDescriptor) Serialize() []byte {
	var caps bytes.Buffer
	for _, c := range bos.Capabilities {
		caps.Write(c.serialize())
	}
	var b bytes.Buffer
	b.WriteByte(5)
	b.WriteByte(DescBOS)
	_ = binary.Write(&b, binary.LittleEndian, uint16(5+caps.Len()))
	b.WriteByte(uint8(len(bos.Capabilities)))
	b.Write(caps.Bytes())
	return b.Bytes()
}
