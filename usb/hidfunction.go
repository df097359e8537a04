package usb

import (
	"bytes"
	"encoding/binary"

	"github.com/umap2/umap2go/usb/hid"
)

// HIDSubDescriptor names one class descriptor nested in a HID descriptor
// (almost always exactly one report descriptor, 0x22).
type HIDSubDescriptor struct {
	Type   uint8
	Length uint16
}

// HIDDescriptor is the HID class descriptor (0x21), USB HID 1.11 §6.2.1.
type HIDDescriptor struct {
	BcdHID       uint16
	BCountryCode uint8
	Descriptors  []HIDSubDescriptor
}

// serialize writes the HID descriptor; sub-descriptor lengths are filled
// in from report automatically by HIDFunction.DescriptorBytes.
func (h HIDDescriptor) serialize(reportLen uint16) []byte {
	var b bytes.Buffer
	b.WriteByte(uint8(6 + 3*len(h.Descriptors)))
	b.WriteByte(DescHID)
	_ = binary.Write(&b, binary.LittleEndian, h.BcdHID)
	b.WriteByte(h.BCountryCode)
	b.WriteByte(uint8(len(h.Descriptors)))
	for _, sub := range h.Descriptors {
		length := sub.Length
		if sub.Type == DescReport && length == 0 {
			length = reportLen
		}
		b.WriteByte(sub.Type)
		_ = binary.Write(&b, binary.LittleEndian, length)
	}
	return b.Bytes()
}

// HIDFunction pairs a HID class descriptor with its report descriptor,
// built with the package hid item DSL.
type HIDFunction struct {
	Descriptor HIDDescriptor
	Report     hid.Report
}

// DescriptorBytes serializes the HID class descriptor (0x21).
func (h *HIDFunction) DescriptorBytes() []byte {
	return h.Descriptor.serialize(uint16(len(h.Report.Bytes())))
}

// ReportBytes serializes the report descriptor (0x22).
func (h *HIDFunction) ReportBytes() []byte {
	return h.Report.Bytes()
}

