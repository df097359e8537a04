package usb

// Stager is the mutation broker's stage-call contract, declared locally so
// package usb never imports package mutation. mutation.Broker satisfies
// this structurally.
type Stager interface {
	Stage(stage string, sessionData map[string][]byte, producer func() []byte) []byte
}

// passthroughStager calls the producer directly; used when no broker is attached.
type passthroughStager struct{}

func (passthroughStager) Stage(_ string, _ map[string][]byte, producer func() []byte) []byte {
	return producer()
}

// Device is the root of the descriptor graph: identity, configurations,
// strings, optional BOS, optional class/vendor handlers, and the
// descriptor-type -> serializer map consulted by GET_DESCRIPTOR.
type Device struct {
	USBSpecVersion   uint16
	Class            uint8
	SubClass         uint8
	Protocol         uint8
	MaxPacketSizeEP0 uint8
	VendorID         uint16
	ProductID        uint16
	DeviceRevision   uint16

	ManufacturerStringID uint8
	ProductStringID      uint8
	SerialNumberStringID uint8
	Strings              []string // 1-based; index 0 reserved for language id

	Configurations []ConfigurationDescriptor
	BOS            *BOSDescriptor
	Hub            *HubDescriptor

	ClassHandlers  HandlerSet
	VendorHandlers HandlerSet

	// Serializers is keyed by descriptor type byte; see §4.1's fixed set.
	Serializers map[uint8]Serializer

	State              DeviceState
	Address            uint8
	ConfigurationIndex int // -1 until SET_CONFIGURATION succeeds
	EndpointMap        map[uint8]*EndpointDescriptor

	// Broker intercepts every serializer call; nil means call straight
	// through (equivalent to mutation.NopFuzzer never returning a mutation).
	Broker Stager
}

// NewDevice builds a Device with the standard serializer map pre-populated
// (device, configuration, string, interface/endpoint are reached through
// configuration, device_qualifier, other_speed_configuration, bos, hub).
// Interface/endpoint descriptors are not separately addressable by
// GET_DESCRIPTOR per USB 2.0, so they are not map entries; neither are
// hid/report: the HID descriptor is nested in the configuration block and
// the report descriptor is answered by control.Engine's interface-recipient
// GET_DESCRIPTOR handler.
func NewDevice(class, subClass, protocol, maxPacketSizeEP0 uint8, vendorID, productID uint16, deviceRevision uint16, manufacturer, product, serial string) *Device {
	d := &Device{
		USBSpecVersion:     0x0200,
		Class:              class,
		SubClass:           subClass,
		Protocol:           protocol,
		MaxPacketSizeEP0:   maxPacketSizeEP0,
		VendorID:           vendorID,
		ProductID:          productID,
		DeviceRevision:     deviceRevision,
		ConfigurationIndex: -1,
		State:              StateDetached,
		EndpointMap:        map[uint8]*EndpointDescriptor{},
		Broker:             passthroughStager{},
	}
	d.ManufacturerStringID = d.StringID(manufacturer)
	d.ProductStringID = d.StringID(product)
	d.SerialNumberStringID = d.StringID(serial)
	d.Serializers = map[uint8]Serializer{
		DescDevice:                 d.deviceSerializer,
		DescConfiguration:          d.configurationSerializer,
		DescOtherSpeedConfiguration: d.otherSpeedSerializer,
		DescString:                 d.stringSerializer,
		DescDeviceQualifier:        d.qualifierSerializer,
		DescBOS:                    d.bosSerializer,
		DescHub:                    d.hubSerializer,
	}
	return d
}

// StringID interns s into Strings, returning its 1-based index (reusing an
// existing entry when the string was already interned).
func (d *Device) StringID(s string) uint8 {
	if s == "" {
		return 0
	}
	for i, existing := range d.Strings {
		if existing == s {
			return uint8(i + 1)
		}
	}
	d.Strings = append(d.Strings, s)
	return uint8(len(d.Strings))
}

// ActiveConfiguration returns the selected configuration, or nil before
// SET_CONFIGURATION succeeds.
func (d *Device) ActiveConfiguration() *ConfigurationDescriptor {
	if d.ConfigurationIndex < 0 || d.ConfigurationIndex >= len(d.Configurations) {
		return nil
	}
	return &d.Configurations[d.ConfigurationIndex]
}

// SelectConfiguration sets the active configuration by 0-based index,
// rebuilds the endpoint map from its interfaces, and transitions to
// configured. Matches SET_CONFIGURATION's "out of range falls back to
// index 0" rule when index is invalid.
func (d *Device) SelectConfiguration(index int) {
	if index < 0 || index >= len(d.Configurations) {
		index = 0
	}
	d.ConfigurationIndex = index
	if cfg := d.ActiveConfiguration(); cfg != nil {
		d.EndpointMap = cfg.EndpointMap()
	} else {
		d.EndpointMap = map[uint8]*EndpointDescriptor{}
	}
	d.State = StateConfigured
}

func (d *Device) deviceSerializer(_ Speed, _ uint8, valid bool) []byte {
	if valid {
		return d.deviceDescriptorBytes()
	}
	return d.Broker.Stage("device_descriptor", nil, d.deviceDescriptorBytes)
}

func (d *Device) deviceDescriptorBytes() []byte {
	b := make([]byte, LenDevice)
	b[0] = LenDevice
	b[1] = DescDevice
	b[2] = byte(d.USBSpecVersion)
	b[3] = byte(d.USBSpecVersion >> 8)
	b[4] = d.Class
	b[5] = d.SubClass
	b[6] = d.Protocol
	b[7] = d.MaxPacketSizeEP0
	b[8] = byte(d.VendorID)
	b[9] = byte(d.VendorID >> 8)
	b[10] = byte(d.ProductID)
	b[11] = byte(d.ProductID >> 8)
	b[12] = byte(d.DeviceRevision)
	b[13] = byte(d.DeviceRevision >> 8)
	b[14] = d.ManufacturerStringID
	b[15] = d.ProductStringID
	b[16] = d.SerialNumberStringID
	b[17] = uint8(len(d.Configurations))
	return b
}

func (d *Device) qualifierSerializer(_ Speed, _ uint8, _ bool) []byte {
	return d.Broker.Stage("device_qualifier_descriptor", nil, func() []byte {
		b := make([]byte, 10)
		b[0] = 10
		b[1] = DescDeviceQualifier
		b[2] = byte(d.USBSpecVersion)
		b[3] = byte(d.USBSpecVersion >> 8)
		b[4] = d.Class
		b[5] = d.SubClass
		b[6] = d.Protocol
		b[7] = d.MaxPacketSizeEP0
		b[8] = uint8(len(d.Configurations))
		b[9] = 0 // reserved
		return b
	})
}

func (d *Device) configurationSerializer(speed Speed, index uint8, _ bool) []byte {
	return d.Broker.Stage("configuration_descriptor", nil, func() []byte {
		i := int(index)
		if i >= len(d.Configurations) {
			i = 0
		}
		if len(d.Configurations) == 0 {
			return nil
		}
		return d.Configurations[i].Serialize(speed)
	})
}

// otherSpeedSerializer serves the companion configuration at the opposite
// speed, used by OTHER_SPEED_CONFIGURATION so a highspeed-capable device
// advertises what its fullspeed descriptor set would look like and vice
// versa.
func (d *Device) otherSpeedSerializer(speed Speed, index uint8, _ bool) []byte {
	other := HighSpeed
	if speed == HighSpeed {
		other = FullSpeed
	}
	return d.Broker.Stage("other_speed_configuration_descriptor", nil, func() []byte {
		i := int(index)
		if i >= len(d.Configurations) {
			i = 0
		}
		if len(d.Configurations) == 0 {
			return nil
		}
		b := d.Configurations[i].Serialize(other)
		if len(b) > 1 {
			b[1] = DescOtherSpeedConfiguration
		}
		return b
	})
}

func (d *Device) stringSerializer(_ Speed, index uint8, _ bool) []byte {
	if index == 0 {
		return d.Broker.Stage("string_descriptor_zero", nil, LangIDZero)
	}
	return d.Broker.Stage("string_descriptor", map[string][]byte{"index": {index}}, func() []byte {
		if int(index) > len(d.Strings) {
			return nil
		}
		return EncodeStringDescriptor(d.Strings[index-1])
	})
}

func (d *Device) bosSerializer(_ Speed, _ uint8, _ bool) []byte {
	if d.BOS == nil {
		return nil
	}
	return d.Broker.Stage("bos_descriptor", nil, d.BOS.Serialize)
}

func (d *Device) hubSerializer(_ Speed, _ uint8, _ bool) []byte {
	if d.Hub == nil {
		return nil
	}
	return d.Broker.Stage("hub_descriptor", nil, d.Hub.Serialize)
}
