package serial

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"time"

	"github.com/umap2/umap2go/control"
	"github.com/umap2/umap2go/phy"
	"github.com/umap2/umap2go/usb"
)

const appNum uint8 = 0x40

// Phy is the Max342x-family register-poll PHY back-end.
type Phy struct {
	Engine *control.Engine

	link   *link
	device *usb.Device
}

// Open dials device (a serial port path, e.g. "/dev/ttyUSB0"), resets the
// chip, enables its application, and reads back the chip revision.
func Open(device string) (*Phy, error) {
	l, err := openLink(device)
	if err != nil {
		return nil, err
	}
	p := &Phy{link: l}
	if err := p.reset(); err != nil {
		_ = l.close()
		return nil, err
	}
	if err := p.enable(); err != nil {
		_ = l.close()
		return nil, err
	}
	rev, err := p.readRegister(regRevision, false)
	if err != nil {
		_ = l.close()
		return nil, err
	}
	slog.Info("facedancer revision", "revision", rev)
	if err := p.writeRegister(regPinControl, pinControlFullDuplex|pinControlInterruptLevel, false); err != nil {
		_ = l.close()
		return nil, err
	}
	return p, nil
}

// reset halts the chip via RTS/DTR and waits for the "no buffer any more"
// (verb 0x7f) reply, retrying up to 10 times.
func (p *Phy) reset() error {
	for i := 0; i < 10; i++ {
		if err := p.link.setRTS(true); err != nil {
			return err
		}
		if err := p.link.setDTR(true); err != nil {
			return err
		}
		if err := p.link.setDTR(false); err != nil {
			return err
		}
		cmd, err := p.link.read()
		if err != nil {
			continue
		}
		if cmd.Verb == 0x7f {
			slog.Info("facedancer reset")
			return nil
		}
	}
	return fmt.Errorf("facedancer reset fault")
}

func (p *Phy) enable() error {
	for i := 0; i < 3; i++ {
		if err := p.link.write(command{App: appNum, Verb: 0x10}); err != nil {
			return err
		}
		if _, err := p.link.read(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Phy) readRegister(reg uint8, ack bool) (uint8, error) {
	mask := uint8(0)
	if ack {
		mask = 1
	}
	if err := p.link.write(command{App: appNum, Verb: 0x00, Data: []byte{(reg << 3) | mask, 0}}); err != nil {
		return 0, err
	}
	resp, err := p.link.read()
	if err != nil {
		return 0, err
	}
	if len(resp.Data) < 1 {
		return 0, fmt.Errorf("short register read response")
	}
	return resp.Data[0], nil
}

func (p *Phy) writeRegister(reg, value uint8, ack bool) error {
	mask := uint8(2)
	if ack {
		mask = 3
	}
	if err := p.link.write(command{App: appNum, Verb: 0x00, Data: []byte{(reg << 3) | mask, value}}); err != nil {
		return err
	}
	_, err := p.link.read()
	return err
}

func (p *Phy) readBytes(reg uint8, n int) ([]byte, error) {
	if err := p.link.write(command{App: appNum, Verb: 0x00, Data: append([]byte{reg << 3}, make([]byte, n)...)}); err != nil {
		return nil, err
	}
	resp, err := p.link.read()
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (p *Phy) writeBytes(reg uint8, data []byte) error {
	buf := append([]byte{(reg << 3) | 3}, data...)
	if err := p.link.write(command{App: appNum, Verb: 0x00, Data: buf}); err != nil {
		return err
	}
	_, err := p.link.read()
	return err
}

// Connect vbus-gates and connects the chip to the bus.
func (p *Phy) Connect(device *usb.Device) error {
	p.device = device
	return p.writeRegister(regUSBControl, usbControlVBusGate|usbControlConnect, false)
}

// Disconnect drops the connect bit but keeps vbus gated.
func (p *Phy) Disconnect() (*usb.Device, error) {
	err := p.writeRegister(regUSBControl, usbControlVBusGate, false)
	dev := p.device
	p.device = nil
	return dev, err
}

// SendOnEndpoint writes data to one of the three hardware FIFOs (EP0,
// EP2 IN, EP3 IN), chunked to the chip's 64-byte FIFO.
func (p *Phy) SendOnEndpoint(ep uint8, data []byte) error {
	var fifoReg, countReg uint8
	switch ep {
	case 0:
		fifoReg, countReg = regEP0Fifo, regEP0ByteCount
	case 2:
		fifoReg, countReg = regEP2InFifo, regEP2InByteCount
	case 3:
		fifoReg, countReg = regEP3InFifo, regEP3InByteCount
	default:
		return fmt.Errorf("endpoint %d not supported by this PHY", ep)
	}

	for len(data) > 64 {
		if err := p.writeBytes(fifoReg, data[:64]); err != nil {
			return err
		}
		if err := p.writeRegister(countReg, 64, true); err != nil {
			return err
		}
		data = data[64:]
	}
	if err := p.writeBytes(fifoReg, data); err != nil {
		return err
	}
	return p.writeRegister(countReg, uint8(len(data)), true)
}

func (p *Phy) readFromEndpoint(ep uint8) ([]byte, error) {
	if ep != 1 {
		return nil, nil
	}
	count, err := p.readRegister(regEP1OutByteCount, false)
	if err != nil || count == 0 {
		return nil, err
	}
	return p.readBytes(regEP1OutFifo, int(count))
}

// StallEP0 sets the stall bits on the ep_stalls register.
func (p *Phy) StallEP0() error {
	return p.writeRegister(regEPStalls, epStallValue, false)
}

// AckStatusStage acknowledges a handled setup request with no data stage.
func (p *Phy) AckStatusStage() error {
	return p.link.write(command{App: appNum, Verb: 0x00, Data: []byte{0x01}})
}

func (p *Phy) clearIRQBit(reg uint8, bit uint8) error {
	return p.writeRegister(reg, bit, false)
}

// Run polls endpoint_irq, dispatching setup packets, OUT data, and
// IN-buffer-available callbacks until ctx is cancelled or stop reports
// true.
func (p *Phy) Run(ctx context.Context, stop phy.StopFunc) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		irq, err := p.readRegister(regEndpointIRQ, false)
		if err != nil {
			return err
		}

		if irq&irqSetupDataAvail != 0 {
			if err := p.clearIRQBit(regEndpointIRQ, irqSetupDataAvail); err != nil {
				return err
			}
			setupBytes, err := p.readBytes(regSetupDataFifo, 8)
			if err != nil {
				return err
			}
			if irq&irqOut0DataAvail != 0 && setupBytes[0]&0x80 == 0 {
				n := binary.LittleEndian.Uint16(setupBytes[6:8])
				data, err := p.readBytes(regEP0Fifo, int(n))
				if err != nil {
					return err
				}
				setupBytes = append(setupBytes, data...)
			}
			p.Engine.HandleSetup(usb.ParseSetupPacket(setupBytes))
		}

		if irq&irqOut1DataAvail != 0 {
			data, err := p.readFromEndpoint(1)
			if err != nil {
				return err
			}
			if len(data) > 0 && p.device != nil {
				if ep, ok := p.device.EndpointMap[1]; ok && ep.OutHandler != nil {
					ep.OutHandler(data)
				}
			}
			if err := p.clearIRQBit(regEndpointIRQ, irqOut1DataAvail); err != nil {
				return err
			}
		}

		if irq&irqIn2BufferAvail != 0 {
			p.signalBufferAvailable(2)
		}
		if irq&irqIn3BufferAvail != 0 {
			p.signalBufferAvailable(3)
		}

		if stop != nil && stop() {
			return nil
		}
		time.Sleep(time.Millisecond)
	}
}

func (p *Phy) signalBufferAvailable(ep uint8) {
	if p.device == nil {
		return
	}
	addr := ep | 0x80
	if e, ok := p.device.EndpointMap[addr]; ok && e.InHandler != nil {
		if data := e.InHandler(); len(data) > 0 {
			_ = p.SendOnEndpoint(ep, data)
		}
	}
}
