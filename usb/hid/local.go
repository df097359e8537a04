package hid

// Local item tags, USB HID 1.11 table 6-3.
const (
	tagUsage        uint8 = 0x0
	tagUsageMinimum uint8 = 0x1
	tagUsageMaximum uint8 = 0x2
)

// Generic-desktop usages in common use by HID devices.
const (
	UsagePointer   uint32 = 0x01
	UsageMouse     uint32 = 0x02
	UsageJoystick  uint32 = 0x04
	UsageGamePad   uint32 = 0x05
	UsageKeyboard  uint32 = 0x06
	UsageX         uint32 = 0x30
	UsageY         uint32 = 0x31
	UsageZ         uint32 = 0x32
	UsageRz        uint32 = 0x35
	UsageWheel     uint32 = 0x38
)

type Usage struct{ Usage uint32 }

func (i Usage) Bytes() []byte { return shortItem(ItemTypeLocal, tagUsage, encodeUnsigned(i.Usage)) }

type UsageMinimum struct{ Min uint32 }

func (i UsageMinimum) Bytes() []byte {
	return shortItem(ItemTypeLocal, tagUsageMinimum, encodeUnsigned(i.Min))
}

type UsageMaximum struct{ Max uint32 }

func (i UsageMaximum) Bytes() []byte {
	return shortItem(ItemTypeLocal, tagUsageMaximum, encodeUnsigned(i.Max))
}
