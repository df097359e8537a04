// Package keyboard is an exemplar HID keyboard device: full N-key rollover
// input reports on an interrupt IN endpoint, LED state on an interrupt OUT
// endpoint, and the HID class GET_REPORT/SET_REPORT requests on EP0.
package keyboard

import (
	"sync"

	"github.com/umap2/umap2go/mutation"
	"github.com/umap2/umap2go/request"
	"github.com/umap2/umap2go/usb"
	"github.com/umap2/umap2go/usb/hid"
)

// LED bits of the single-byte output report, USB HID usage page 0x08.
const (
	LEDNumLock    uint8 = 1 << 0
	LEDCapsLock   uint8 = 1 << 1
	LEDScrollLock uint8 = 1 << 2
	LEDCompose    uint8 = 1 << 3
	LEDKana       uint8 = 1 << 4
)

const (
	hidGetReport uint8 = 0x01
	hidSetReport uint8 = 0x09
	hidGetIdle   uint8 = 0x02
	hidSetIdle   uint8 = 0x0A
)

// Keyboard is a full NKRO HID keyboard: a 256-bit pressed-key bitmap plus an
// 8-bit modifier byte, reported on every poll of the interrupt IN endpoint.
type Keyboard struct {
	mu       sync.Mutex
	modifier uint8
	keys     [32]byte // bit i set -> usage code i held
	ledState uint8

	LEDCallback func(state uint8)
}

// New builds a Keyboard and its usb.Device, wired with a mutation broker
// (nil falls back to a passthrough).
func New(broker *mutation.Broker, vendorID, productID uint16) (*Keyboard, *usb.Device) {
	k := &Keyboard{}
	d := usb.NewDevice(0x00, 0x00, 0x00, 0x40, vendorID, productID, 0x0100, "umap2go", "HID Keyboard", "1337")
	if broker != nil {
		d.Broker = broker
	}

	classHandlers := usb.HandlerSet{
		hidGetReport: k.handleGetReport,
		hidSetReport: k.handleSetReport,
		hidGetIdle:   request.Ack,
		hidSetIdle:   request.Ack,
	}

	iface := usb.InterfaceDescriptor{
		Number:   0,
		Class:    0x03, // HID
		SubClass: 0x00,
		Protocol: 0x00,
		HID: &usb.HIDFunction{
			Descriptor: usb.HIDDescriptor{
				BcdHID:       0x0111,
				BCountryCode: 0x00,
				Descriptors:  []usb.HIDSubDescriptor{{Type: usb.DescReport}},
			},
			Report: reportDescriptor,
		},
		Endpoints: []usb.EndpointDescriptor{
			{
				Number:        1,
				Direction:     usb.DirectionIn,
				TransferType:  usb.TransferInterrupt,
				MaxPacketSize: 64,
				Interval:      5,
				InHandler:     k.buildReport,
			},
			{
				Number:        1,
				Direction:     usb.DirectionOut,
				TransferType:  usb.TransferInterrupt,
				MaxPacketSize: 8,
				Interval:      5,
				OutHandler:    k.handleLEDReport,
			},
		},
	}
	d.Configurations = []usb.ConfigurationDescriptor{
		{
			Index:      1,
			Attributes: 0x80,
			MaxPower:   50,
			Interfaces: []usb.InterfaceDescriptor{iface},
		},
	}
	// The interface carries no class handler set of its own, so class
	// requests fall through to the device's (see
	// control.Engine.resolveHandlers).
	d.ClassHandlers = classHandlers
	return k, d
}

// SetKey sets or clears usage code code as held.
func (k *Keyboard) SetKey(code uint8, held bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if held {
		k.keys[code/8] |= 1 << (code % 8)
	} else {
		k.keys[code/8] &^= 1 << (code % 8)
	}
}

// SetModifier sets the 8-bit modifier byte (ctrl/shift/alt/gui, left/right).
func (k *Keyboard) SetModifier(mod uint8) {
	k.mu.Lock()
	k.modifier = mod
	k.mu.Unlock()
}

// LEDState returns the last LED byte reported by the host.
func (k *Keyboard) LEDState() uint8 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.ledState
}

func (k *Keyboard) buildReport() []byte {
	k.mu.Lock()
	defer k.mu.Unlock()
	report := make([]byte, 0, 34)
	report = append(report, k.modifier, 0x00)
	report = append(report, k.keys[:]...)
	return report
}

func (k *Keyboard) handleLEDReport(data []byte) {
	if len(data) < 1 {
		return
	}
	k.mu.Lock()
	k.ledState = data[0]
	cb := k.LEDCallback
	k.mu.Unlock()
	if cb != nil {
		cb(data[0])
	}
}

func (k *Keyboard) handleGetReport(usb.SetupPacket, []byte) ([]byte, bool) {
	return k.buildReport(), true
}

func (k *Keyboard) handleSetReport(_ usb.SetupPacket, data []byte) ([]byte, bool) {
	k.handleLEDReport(data)
	return nil, true
}

// reportDescriptor mirrors a full-size keyboard: 8 modifier bits, 1
// reserved byte, a 256-bit key-pressed bitmap, and a 5-bit LED output byte.
var reportDescriptor = hid.Report{
	Items: []hid.Item{
		hid.UsagePage{Page: hid.UsagePageGenericDesktop},
		hid.Usage{Usage: hid.UsageKeyboard},
		hid.Collection{
			Kind: hid.CollectionApplication,
			Items: []hid.Item{
				hid.UsagePage{Page: hid.UsagePageKeyboard},
				hid.UsageMinimum{Min: 0xE0},
				hid.UsageMaximum{Max: 0xE7},
				hid.LogicalMinimum{Min: 0},
				hid.LogicalMaximum{Max: 1},
				hid.ReportSize{Bits: 1},
				hid.ReportCount{Count: 8},
				hid.Input{Flags: hid.MainData | hid.MainVar | hid.MainAbs},

				hid.ReportSize{Bits: 8},
				hid.ReportCount{Count: 1},
				hid.Input{Flags: hid.MainConst},

				hid.UsagePage{Page: hid.UsagePageKeyboard},
				hid.UsageMinimum{Min: 0x00},
				hid.UsageMaximum{Max: 0xFF},
				hid.LogicalMinimum{Min: 0},
				hid.LogicalMaximum{Max: 1},
				hid.ReportSize{Bits: 1},
				hid.ReportCount{Count: 256},
				hid.Input{Flags: hid.MainData | hid.MainVar | hid.MainAbs},

				hid.UsagePage{Page: hid.UsagePageLEDs},
				hid.UsageMinimum{Min: 0x01},
				hid.UsageMaximum{Max: 0x05},
				hid.LogicalMinimum{Min: 0},
				hid.LogicalMaximum{Max: 1},
				hid.ReportSize{Bits: 1},
				hid.ReportCount{Count: 5},
				hid.Output{Flags: hid.MainData | hid.MainVar | hid.MainAbs},
				hid.ReportSize{Bits: 3},
				hid.ReportCount{Count: 1},
				hid.Output{Flags: hid.MainConst},
			},
		},
	},
}
