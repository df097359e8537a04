package usb

// Descriptor type codes, as consulted by GET_DESCRIPTOR's wValue high byte
// and as the bDescriptorType byte of each serialized descriptor.
const (
	DescDevice                  uint8 = 0x01
	DescConfiguration           uint8 = 0x02
	DescString                  uint8 = 0x03
	DescInterface                uint8 = 0x04
	DescEndpoint                uint8 = 0x05
	DescDeviceQualifier          uint8 = 0x06
	DescOtherSpeedConfiguration  uint8 = 0x07
	DescBOS                      uint8 = 0x0F
	DescHID                      uint8 = 0x21
	DescReport                   uint8 = 0x22
	DescCSInterface              uint8 = 0x24
	DescCSEndpoint               uint8 = 0x25
	DescHub                      uint8 = 0x29
)

// Fixed descriptor lengths (USB 2.0 spec).
const (
	LenDevice        = 18
	LenConfiguration = 9
	LenInterface     = 9
	LenEndpoint      = 7
	LenHID           = 9
	LenHub           = 9
)

// Serializer produces the exact byte string for a descriptor at a given
// speed and index. valid requests a canonical serialization, used when the
// opposite-speed descriptor is embedded as a companion (device_qualifier /
// other_speed_configuration).
type Serializer func(speed Speed, index uint8, valid bool) []byte

// Endpoint transfer types, USB 2.0 table 9-13 bits 1-0 of bmAttributes.
const (
	TransferControl     uint8 = 0x00
	TransferIsochronous  uint8 = 0x01
	TransferBulk         uint8 = 0x02
	TransferInterrupt    uint8 = 0x03
)

// Isochronous sync types, bits 3-2 of bmAttributes.
const (
	SyncNone     uint8 = 0x00
	SyncAsync    uint8 = 0x01
	SyncAdaptive uint8 = 0x02
	SyncSync     uint8 = 0x03
)

// Isochronous usage types, bits 5-4 of bmAttributes.
const (
	UsageData     uint8 = 0x00
	UsageFeedback uint8 = 0x01
	UsageImplicit uint8 = 0x02
)

// EndpointDirection is bit 7 of bEndpointAddress.
type EndpointDirection uint8

const (
	DirectionOut EndpointDirection = 0
	DirectionIn  EndpointDirection = 1
)

// Configuration attribute bits, USB 2.0 table 9-10.
const (
	ConfigAttrBase         uint8 = 0x80
	ConfigAttrSelfPowered  uint8 = ConfigAttrBase | 0x40
	ConfigAttrRemoteWakeup uint8 = ConfigAttrBase | 0x20
)
