// Package vendorserial is an exemplar FTDI-style vendor-request device: a
// bulk IN/OUT pair moving opaque serial data, controlled by a handful of
// vendor requests on EP0 (baud rate, line properties, modem control) in
// the shape of the real FT232's SIO_* request set.
package vendorserial

import (
	"sync"

	"github.com/umap2/umap2go/mutation"
	"github.com/umap2/umap2go/request"
	"github.com/umap2/umap2go/usb"
)

// SIO_* vendor bRequest codes, FTDI FT232R datasheet AN232B-04.
const (
	sioReset          uint8 = 0x00
	sioSetModemCtrl   uint8 = 0x01
	sioSetFlowCtrl    uint8 = 0x02
	sioSetBaudRate    uint8 = 0x03
	sioSetData        uint8 = 0x04
	sioGetModemStatus uint8 = 0x05
	sioSetEventChar   uint8 = 0x06
	sioSetErrorChar   uint8 = 0x07
	sioSetLatency     uint8 = 0x09
	sioGetLatency     uint8 = 0x0A
)

// Serial is an emulated USB-to-serial adapter: vendor requests configure
// line properties, the bulk pair carries the serial byte stream.
type Serial struct {
	mu            sync.Mutex
	baudDivisor   uint16
	lineProps     uint16
	latencyTimer  uint8
	modemStatus   uint8
	rxQueue       []byte

	// OnTXData is invoked with every chunk written by the host to the bulk
	// OUT endpoint (the bytes the emulated peripheral would "transmit" to
	// its attached serial line).
	OnTXData func(data []byte)
}

// New builds a Serial and its usb.Device.
func New(broker *mutation.Broker, vendorID, productID uint16) (*Serial, *usb.Device) {
	s := &Serial{latencyTimer: 16}
	d := usb.NewDevice(0x00, 0x00, 0x00, 0x08, vendorID, productID, 0x0600, "umap2go", "Vendor Serial Adapter", "")
	if broker != nil {
		d.Broker = broker
	}

	vendorHandlers := usb.HandlerSet{
		sioReset:          request.Ack,
		sioSetModemCtrl:   s.handleSetModemCtrl,
		sioSetFlowCtrl:    request.Ack,
		sioSetBaudRate:    s.handleSetBaudRate,
		sioSetData:        s.handleSetData,
		sioGetModemStatus: s.handleGetModemStatus,
		sioSetEventChar:   request.Ack,
		sioSetErrorChar:   request.Ack,
		sioSetLatency:     s.handleSetLatency,
		sioGetLatency:     s.handleGetLatency,
	}

	iface := usb.InterfaceDescriptor{
		Number:   0,
		Class:    0xFF, // vendor-specific
		SubClass: 0xFF,
		Protocol: 0xFF,
		Endpoints: []usb.EndpointDescriptor{
			{
				Number:        2,
				Direction:     usb.DirectionIn,
				TransferType:  usb.TransferBulk,
				MaxPacketSize: 64,
				InHandler:     s.drainTX,
			},
			{
				Number:        2,
				Direction:     usb.DirectionOut,
				TransferType:  usb.TransferBulk,
				MaxPacketSize: 64,
				OutHandler:    s.handleRX,
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
	// Vendor requests route through the device's vendor handler set
	// regardless of recipient (see control.Engine.resolveHandlers), not the
	// interface's.
	d.VendorHandlers = vendorHandlers
	return s, d
}

// Inject queues data to be delivered to the host on the next poll of the
// bulk IN endpoint (simulating bytes arriving on the emulated serial line).
func (s *Serial) Inject(data []byte) {
	s.mu.Lock()
	s.rxQueue = append(s.rxQueue, data...)
	s.mu.Unlock()
}

func (s *Serial) drainTX() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.rxQueue) == 0 {
		return nil
	}
	n := len(s.rxQueue)
	if n > 64 {
		n = 64
	}
	out := s.rxQueue[:n]
	s.rxQueue = s.rxQueue[n:]
	return out
}

func (s *Serial) handleRX(data []byte) {
	cb := s.OnTXData
	if cb != nil {
		cb(data)
	}
}

func (s *Serial) handleSetBaudRate(setup usb.SetupPacket, _ []byte) ([]byte, bool) {
	s.mu.Lock()
	s.baudDivisor = setup.WValue
	s.mu.Unlock()
	return nil, true
}

func (s *Serial) handleSetData(setup usb.SetupPacket, _ []byte) ([]byte, bool) {
	s.mu.Lock()
	s.lineProps = setup.WValue
	s.mu.Unlock()
	return nil, true
}

func (s *Serial) handleSetModemCtrl(setup usb.SetupPacket, _ []byte) ([]byte, bool) {
	s.mu.Lock()
	s.modemStatus = uint8(setup.WValue & 0xff)
	s.mu.Unlock()
	return nil, true
}

func (s *Serial) handleGetModemStatus(usb.SetupPacket, []byte) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return []byte{s.modemStatus, 0x00}, true
}

func (s *Serial) handleSetLatency(setup usb.SetupPacket, _ []byte) ([]byte, bool) {
	s.mu.Lock()
	s.latencyTimer = uint8(setup.WValue & 0xff)
	s.mu.Unlock()
	return nil, true
}

func (s *Serial) handleGetLatency(usb.SetupPacket, []byte) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return []byte{s.latencyTimer}, true
}

// BaudRate decodes the FTDI divisor encoding into an approximate rate,
// used only for diagnostics (the emulated device never actually clocks
// a UART).
func (s *Serial) BaudRate() uint32 {
	s.mu.Lock()
	divisor := s.baudDivisor
	s.mu.Unlock()
	if divisor == 0 {
		return 0
	}
	return 3000000 / uint32(divisor&0x3fff)
}
