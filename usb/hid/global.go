package hid

// Global item tags, USB HID 1.11 table 6-2.
const (
	tagUsagePage       uint8 = 0x0
	tagLogicalMinimum  uint8 = 0x1
	tagLogicalMaximum  uint8 = 0x2
	tagPhysicalMinimum uint8 = 0x3
	tagPhysicalMaximum uint8 = 0x4
	tagUnitExponent    uint8 = 0x5
	tagUnit            uint8 = 0x6
	tagReportSize      uint8 = 0x7
	tagReportID        uint8 = 0x8
	tagReportCount     uint8 = 0x9
)

// Usage page constants in common use by HID devices.
const (
	UsagePageGenericDesktop uint32 = 0x01
	UsagePageKeyboard       uint32 = 0x07
	UsagePageLEDs           uint32 = 0x08
	UsagePageButton         uint32 = 0x09
)

type UsagePage struct{ Page uint32 }

func (i UsagePage) Bytes() []byte { return shortItem(ItemTypeGlobal, tagUsagePage, encodeUnsigned(i.Page)) }

type LogicalMinimum struct{ Min int32 }

func (i LogicalMinimum) Bytes() []byte {
	return shortItem(ItemTypeGlobal, tagLogicalMinimum, encodeSigned(i.Min))
}

type LogicalMaximum struct{ Max int32 }

func (i LogicalMaximum) Bytes() []byte {
	return shortItem(ItemTypeGlobal, tagLogicalMaximum, encodeSigned(i.Max))
}

type ReportSize struct{ Bits uint32 }

func (i ReportSize) Bytes() []byte {
	return shortItem(ItemTypeGlobal, tagReportSize, encodeUnsigned(i.Bits))
}

type ReportCount struct{ Count uint32 }

func (i ReportCount) Bytes() []byte {
	return shortItem(ItemTypeGlobal, tagReportCount, encodeUnsigned(i.Count))
}

type ReportID struct{ ID uint8 }

func (i ReportID) Bytes() []byte {
	return shortItem(ItemTypeGlobal, tagReportID, Data{i.ID})
}
