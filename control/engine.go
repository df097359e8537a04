// Package control is the control-transfer state machine on endpoint 0: it
// decodes setup packets, routes them through the recipient/type/request
// dispatch matrix, and drives device state.
package control

import (
	"log/slog"

	"github.com/umap2/umap2go/request"
	"github.com/umap2/umap2go/usb"
)

// PHY is the subset of the physical-layer interface the engine drives
// directly, kept narrow to avoid importing package phy (which depends on
// control for nothing, but keeps the dependency direction clean: app wires
// phy.PHY -> control.Engine -> usb.Device).
type PHY interface {
	SendOnEndpoint(ep uint8, data []byte) error
	StallEP0() error
	AckStatusStage() error
}

// Engine dispatches setup packets against a Device, calling back into its
// PHY to emit responses, stalls, and status-stage acks.
type Engine struct {
	Device *usb.Device
	PHY    PHY
	// Speed controls endpoint max-packet size when serializing
	// descriptors; set by the owning PHY backend. Defaults to FullSpeed.
	Speed usb.Speed

	// standardDeviceHandlers services type=standard, recipient=device.
	standardDeviceHandlers request.HandlerSet
}

// NewEngine builds an Engine with the eleven standard device requests wired.
func NewEngine(device *usb.Device, phy PHY) *Engine {
	e := &Engine{Device: device, PHY: phy}
	e.standardDeviceHandlers = request.HandlerSet{
		usb.ReqGetStatus:        e.handleGetStatus,
		usb.ReqClearFeature:     e.handleClearFeature,
		usb.ReqSetFeature:       e.handleSetFeature,
		usb.ReqSetAddress:       e.handleSetAddress,
		usb.ReqGetDescriptor:    e.handleGetDescriptor,
		usb.ReqSetDescriptor:    e.handleSetDescriptor,
		usb.ReqGetConfiguration: e.handleGetConfiguration,
		usb.ReqSetConfiguration: e.handleSetConfiguration,
		usb.ReqGetInterface:     e.handleGetInterface,
		usb.ReqSetInterface:     e.handleSetInterface,
		usb.ReqSynchFrame:       e.handleSynchFrame,
	}
	return e
}

// HandleSetup decodes one setup packet, resolves the dispatch matrix, and
// emits a response, ack, or stall through the PHY.
func (e *Engine) HandleSetup(setup usb.SetupPacket) {
	handlers := e.resolveHandlers(setup)
	if handlers == nil {
		slog.Warn("no handler entity for request, stalling", "bmRequestType", setup.BMRequestType, "bRequest", setup.BRequest)
		_ = e.PHY.StallEP0()
		return
	}

	h, ok := handlers[setup.BRequest]
	if !ok {
		slog.Error("request not handled, stalling", "bRequest", setup.BRequest, "wValue", setup.WValue, "wIndex", setup.WIndex)
		_ = e.PHY.StallEP0()
		return
	}

	resp, ack := h(setup, setup.Data)
	switch {
	case resp != nil:
		n := int(setup.WLength)
		if n > len(resp) {
			n = len(resp)
		}
		_ = e.PHY.SendOnEndpoint(0, resp[:n])
	case ack:
		_ = e.PHY.AckStatusStage()
	default:
		_ = e.PHY.StallEP0()
	}
}

// resolveHandlers implements the type x recipient dispatch matrix from the
// control-transfer engine's design: standard requests resolve the
// recipient object by index; class requests addressed to an interface of
// the active configuration go to that interface's class handler set when
// it has one, and otherwise (and for every other recipient) to the
// device's; vendor requests always go to the device's vendor handler set.
func (e *Engine) resolveHandlers(setup usb.SetupPacket) request.HandlerSet {
	switch setup.Type() {
	case usb.ClassType:
		if setup.Recipient() == usb.InterfaceRecipient {
			if cfg := e.Device.ActiveConfiguration(); cfg != nil {
				idx := int(setup.InterfaceIndex())
				if idx < len(cfg.Interfaces) && cfg.Interfaces[idx].ClassHandlers != nil {
					return cfg.Interfaces[idx].ClassHandlers
				}
			}
		}
		return e.Device.ClassHandlers
	case usb.VendorType:
		return e.Device.VendorHandlers
	case usb.StandardType:
		return e.resolveStandardHandlers(setup)
	default:
		return nil
	}
}

func (e *Engine) resolveStandardHandlers(setup usb.SetupPacket) request.HandlerSet {
	switch setup.Recipient() {
	case usb.DeviceRecipient:
		return e.standardDeviceHandlers
	case usb.InterfaceRecipient:
		cfg := e.Device.ActiveConfiguration()
		if cfg == nil {
			return nil
		}
		idx := int(setup.InterfaceIndex())
		if idx >= len(cfg.Interfaces) {
			slog.Warn("interface recipient index out of range", "index", idx)
			return nil
		}
		if setup.BRequest == usb.ReqGetDescriptor || setup.BRequest == usb.ReqGetStatus ||
			setup.BRequest == usb.ReqClearFeature || setup.BRequest == usb.ReqSetFeature {
			return interfaceStandardHandlers(&cfg.Interfaces[idx])
		}
		return cfg.Interfaces[idx].ClassHandlers
	case usb.EndpointRecipient:
		ep, ok := e.Device.EndpointMap[uint8(setup.WIndex&0xff)]
		if !ok {
			slog.Warn("endpoint recipient not found", "endpoint", setup.EndpointNumber())
			return nil
		}
		return endpointStandardHandlers(ep)
	case usb.OtherRecipient:
		// HACK: hub-class quirk, first interface of the active
		// configuration stands in for "other" recipients.
		cfg := e.Device.ActiveConfiguration()
		if cfg == nil || len(cfg.Interfaces) == 0 {
			return nil
		}
		return cfg.Interfaces[0].ClassHandlers
	default:
		return nil
	}
}

func (e *Engine) handleGetStatus(usb.SetupPacket, []byte) ([]byte, bool) {
	return []byte{0x01, 0x00}, true
}

func (e *Engine) handleClearFeature(usb.SetupPacket, []byte) ([]byte, bool) {
	return nil, true
}

func (e *Engine) handleSetFeature(usb.SetupPacket, []byte) ([]byte, bool) {
	return nil, true
}

func (e *Engine) handleSetAddress(setup usb.SetupPacket, _ []byte) ([]byte, bool) {
	e.Device.Address = uint8(setup.WValue)
	e.Device.State = usb.StateAddress
	return nil, true
}

func (e *Engine) handleGetDescriptor(setup usb.SetupPacket, _ []byte) ([]byte, bool) {
	dtype := setup.DescriptorType()
	serializer, ok := e.Device.Serializers[dtype]
	if !ok {
		slog.Warn("unknown descriptor type, stalling", "type", dtype)
		return nil, false
	}
	resp := serializer(e.Speed, setup.DescriptorIndex(), false)
	if resp == nil {
		return nil, false
	}
	return resp, true
}

func (e *Engine) handleSetDescriptor(usb.SetupPacket, []byte) ([]byte, bool) {
	slog.Debug("SET_DESCRIPTOR received, not supported")
	return nil, true
}

func (e *Engine) handleGetConfiguration(usb.SetupPacket, []byte) ([]byte, bool) {
	return []byte{0x01}, true
}

func (e *Engine) handleSetConfiguration(setup usb.SetupPacket, _ []byte) ([]byte, bool) {
	index := int(setup.WValue) - 1
	if index < 0 || index >= len(e.Device.Configurations) {
		slog.Error("host requested invalid configuration, falling back to index 0", "wValue", setup.WValue)
		index = 0
	}
	e.Device.SelectConfiguration(index)
	return nil, true
}

func (e *Engine) handleGetInterface(setup usb.SetupPacket, _ []byte) ([]byte, bool) {
	if setup.WIndex == 0 {
		return []byte{0x00}, true
	}
	return nil, false
}

func (e *Engine) handleSetInterface(usb.SetupPacket, []byte) ([]byte, bool) {
	return nil, true
}

func (e *Engine) handleSynchFrame(usb.SetupPacket, []byte) ([]byte, bool) {
	return nil, true
}

// interfaceStandardHandlers services type=standard, recipient=interface:
// GET_STATUS/CLEAR_FEATURE/SET_FEATURE, plus GET_DESCRIPTOR for the HID
// report descriptor (USB HID 1.11 §7.1.1), the one standard descriptor
// fetch that targets an interface rather than the device.
func interfaceStandardHandlers(iface *usb.InterfaceDescriptor) request.HandlerSet {
	return request.HandlerSet{
		usb.ReqGetStatus:    func(usb.SetupPacket, []byte) ([]byte, bool) { return []byte{0x00, 0x00}, true },
		usb.ReqClearFeature: request.Ack,
		usb.ReqSetFeature:   request.Ack,
		usb.ReqGetDescriptor: func(setup usb.SetupPacket, _ []byte) ([]byte, bool) {
			if iface.HID == nil || setup.DescriptorType() != usb.DescReport {
				return nil, false
			}
			return iface.HID.ReportBytes(), true
		},
	}
}

// endpointStandardHandlers services type=standard, recipient=endpoint:
// GET_STATUS/CLEAR_FEATURE on an individual endpoint.
func endpointStandardHandlers(ep *usb.EndpointDescriptor) request.HandlerSet {
	return request.HandlerSet{
		usb.ReqGetStatus:    func(usb.SetupPacket, []byte) ([]byte, bool) { return []byte{0x00, 0x00}, true },
		usb.ReqClearFeature: request.Ack,
		usb.ReqSetFeature:   request.Ack,
	}
}
