package usb

// ClassSpecificDescriptor carries a functional descriptor (CDC, Audio, ...)
// nested under an interface or endpoint. DescriptorType is DescCSInterface
// (0x24) or DescCSEndpoint (0x25); Subtype is the class-defined subtype byte
// and Payload the remaining bytes.
type ClassSpecificDescriptor struct {
	DescriptorType uint8
	Subtype        uint8
	Payload        []byte
}

// Serialize produces {length, 0x24|0x25, subtype, payload...}.
func (c ClassSpecificDescriptor) Serialize() []byte {
	b := make([]byte, 0, 3+len(c.Payload))
	b = append(b, uint8(3+len(c.Payload)), c.DescriptorType, c.Subtype)
	b = append(b, c.Payload...)
	return b
}

// CSInterface builds a class-specific interface descriptor (0x24).
func CSInterface(subtype uint8, payload []byte) ClassSpecificDescriptor {
	return ClassSpecificDescriptor{DescriptorType: DescCSInterface, Subtype: subtype, Payload: payload}
}

// CSEndpoint builds a class-specific endpoint descriptor (0x25).
func CSEndpoint(subtype uint8, payload []byte) ClassSpecificDescriptor {
	return ClassSpecificDescriptor{DescriptorType: DescCSEndpoint, Subtype: subtype, Payload: payload}
}
