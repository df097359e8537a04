// Package gadgetfs is the file-per-endpoint PHY back-end: it talks to the
// Linux gadgetfs kernel driver, which exposes one control file (EP0) plus
// one file per configured endpoint under a fixed directory.
package gadgetfs

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/umap2/umap2go/control"
	"github.com/umap2/umap2go/phy"
	"github.com/umap2/umap2go/usb"
)

// controlFilenames is the fixed allow-list of UDC driver names gadgetfs
// exposes a control file for; the first match (alphabetical directory
// listing order) is used.
var controlFilenames = map[string]bool{
	"net2280":         true,
	"gfs_udc":         true,
	"pxa2xx_udc":      true,
	"goku_udc":        true,
	"sh_udc":          true,
	"omap_udc":        true,
	"musb-hdrc":       true,
	"at91_udc":        true,
	"lh740x_udc":      true,
	"atmel_usba_udc":  true,
}

// Programming-block tags, written as a little-endian uint32 prefix.
const (
	tagInitDevice uint32 = 0
	tagInitEP     uint32 = 1
)

// gadgetfs kernel event types, the 12-byte event record's type field
// (bytes 8-11, little-endian).
const (
	eventNOP        uint32 = 0
	eventConnect    uint32 = 1
	eventDisconnect uint32 = 2
	eventSetup      uint32 = 3
	eventSuspend    uint32 = 4
)

const eventSize = 12

// Phy is the gadgetfs PHY. Engine must be set (see control.NewEngine)
// before Connect is called; it is the callback target for setup events.
type Phy struct {
	Dir    string
	Engine *control.Engine

	controlFile *os.File
	epFiles     map[uint8]*os.File // endpoint address (with direction bit) -> open file
	device      *usb.Device
	configured  bool

	outStop map[uint8]chan struct{}
	outWG   sync.WaitGroup
}

// New builds a Phy rooted at dir (typically "/dev/gadget").
func New(dir string) *Phy {
	if dir == "" {
		dir = "/dev/gadget"
	}
	return &Phy{Dir: dir, epFiles: map[uint8]*os.File{}, outStop: map[uint8]chan struct{}{}}
}

func (p *Phy) findControlFile() (string, error) {
	entries, err := os.ReadDir(p.Dir)
	if err != nil {
		return "", fmt.Errorf("list %s: %w", p.Dir, err)
	}
	for _, e := range entries {
		if controlFilenames[e.Name()] {
			return filepath.Join(p.Dir, e.Name()), nil
		}
	}
	return "", fmt.Errorf("no known control file found in %s; is gadgetfs loaded?", p.Dir)
}

// Connect opens the control file and pushes the INIT_DEVICE programming
// block: fullspeed and highspeed configuration descriptors followed by the
// device descriptor, all with valid=true (canonical serialization).
func (p *Phy) Connect(device *usb.Device) error {
	path, err := p.findControlFile()
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("open control file %s: %w", path, err)
	}
	p.controlFile = f
	p.device = device
	p.epFiles[0] = f

	var buf []byte
	buf = binary.LittleEndian.AppendUint32(buf, tagInitDevice)
	for _, cfg := range device.Configurations {
		buf = append(buf, cfg.Serialize(usb.FullSpeed)...)
		buf = append(buf, cfg.Serialize(usb.HighSpeed)...)
	}
	buf = append(buf, device.Serializers[usb.DescDevice](usb.HighSpeed, 0, true)...)

	slog.Debug("writing gadgetfs init_device block", "bytes", len(buf))
	if _, err := f.Write(buf); err != nil {
		_ = f.Close()
		return fmt.Errorf("write init_device: %w", err)
	}
	return nil
}

// Disconnect stops every OUT endpoint thread and closes every open file.
func (p *Phy) Disconnect() (*usb.Device, error) {
	for num, stop := range p.outStop {
		close(stop)
		delete(p.outStop, num)
	}
	p.outWG.Wait()
	for addr, f := range p.epFiles {
		_ = f.Close()
		delete(p.epFiles, addr)
	}
	p.configured = false
	dev := p.device
	p.device = nil
	return dev, nil
}

// SendOnEndpoint writes to the endpoint file; an empty write to EP0 stalls.
func (p *Phy) SendOnEndpoint(ep uint8, data []byte) error {
	if len(data) == 0 {
		if ep == 0 {
			return p.StallEP0()
		}
		return nil
	}
	f, ok := p.epFiles[ep]
	if !ok {
		return fmt.Errorf("no open file for endpoint %#x", ep)
	}
	_, err := f.Write(data)
	return err
}

// StallEP0 issues a zero-length read, which gadgetfs interprets as a
// protocol stall; errno 51 (EL2HLT "Level 2 halted") is the expected,
// swallowed response.
func (p *Phy) StallEP0() error {
	_, err := p.controlFile.Read(nil)
	if err == nil {
		return nil
	}
	var errno syscall.Errno
	if errors.As(err, &errno) && errno == 51 {
		return nil
	}
	return err
}

// AckStatusStage sets up per-endpoint files for the newly active
// configuration (if any) and issues the zero-length read gadgetfs expects
// after a setup stage completes without a data stage.
func (p *Phy) AckStatusStage() error {
	p.setupEndpoints()
	_, err := p.controlFile.Read(nil)
	return err
}

func (p *Phy) setupEndpoints() {
	cfg := p.device.ActiveConfiguration()
	if cfg == nil {
		return
	}
	for i := range cfg.Interfaces {
		for j := range cfg.Interfaces[i].Endpoints {
			p.setupEndpoint(&cfg.Interfaces[i].Endpoints[j])
		}
	}
}

func (p *Phy) setupEndpoint(ep *usb.EndpointDescriptor) {
	addr := ep.Address()
	if _, already := p.epFiles[addr]; already {
		return
	}
	dirName := "out"
	if ep.Direction == usb.DirectionIn {
		dirName = "in"
	}
	path := filepath.Join(p.Dir, fmt.Sprintf("ep%d%s", ep.Number, dirName))
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		slog.Error("failed to open endpoint file", "path", path, "error", err)
		return
	}
	p.epFiles[addr] = f

	var buf []byte
	buf = binary.LittleEndian.AppendUint32(buf, tagInitEP)
	buf = append(buf, filterDescriptorType(ep.Serialize(usb.FullSpeed), usb.DescEndpoint)...)
	buf = append(buf, filterDescriptorType(ep.Serialize(usb.HighSpeed), usb.DescEndpoint)...)
	if _, err := f.Write(buf); err != nil {
		slog.Error("failed to program endpoint", "path", path, "error", err)
		return
	}

	if ep.Direction == usb.DirectionOut {
		stop := make(chan struct{})
		p.outStop[ep.Number] = stop
		p.outWG.Add(1)
		go p.runOutEndpoint(ep, f, stop)
	}
}

// filterDescriptorType keeps only the sub-descriptors of type dt within a
// serialized descriptor block, mirroring the programming block gadgetfs
// expects for INIT_EP (endpoint descriptors only, no class-specific ones).
func filterDescriptorType(data []byte, dt uint8) []byte {
	var out []byte
	for i := 0; i+1 < len(data); {
		l := int(data[i])
		if l == 0 || i+l > len(data) {
			break
		}
		if data[i+1] == dt {
			out = append(out, data[i:i+l]...)
		}
		i += l
	}
	return out
}

func (p *Phy) runOutEndpoint(ep *usb.EndpointDescriptor, f *os.File, stop chan struct{}) {
	defer p.outWG.Done()
	readSize := int(ep.MaxPacketSize)
	if ep.TransferType == usb.TransferBulk {
		readSize = 512
	}
	buf := make([]byte, readSize)
	for {
		select {
		case <-stop:
			return
		default:
		}
		n, err := f.Read(buf)
		if err != nil {
			slog.Error("out endpoint read failed", "endpoint", ep.Number, "error", err)
			return
		}
		if ep.OutHandler != nil {
			data := make([]byte, n)
			copy(data, buf[:n])
			ep.OutHandler(data)
		}
	}
}

// Run drains control-file events (SETUP dispatch to the engine) and polls
// IN endpoints for buffer-available, until ctx is cancelled or stop
// reports true.
func (p *Phy) Run(ctx context.Context, stop phy.StopFunc) error {
	events := make(chan [eventSize]byte)
	errs := make(chan error, 1)
	go func() {
		for {
			var ev [eventSize]byte
			if _, err := p.controlFile.Read(ev[:]); err != nil {
				if ctx.Err() != nil {
					return
				}
				errs <- err
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errs:
			return err
		case ev := <-events:
			p.handleEvent(ev)
			if stop != nil && stop() {
				return nil
			}
		case <-ticker.C:
			p.pollInEndpoints()
		}
	}
}

func (p *Phy) handleEvent(ev [eventSize]byte) {
	eventType := binary.LittleEndian.Uint32(ev[8:12])
	switch eventType {
	case eventSetup:
		setup := usb.ParseSetupPacket(ev[0:8])
		wasConfigured := p.configured
		p.Engine.HandleSetup(setup)
		p.configured = p.device.ActiveConfiguration() != nil
		if !wasConfigured && p.configured {
			p.setupEndpoints()
		}
	case eventNOP, eventConnect, eventDisconnect, eventSuspend:
		slog.Debug("gadgetfs ep0 event", "type", eventType)
	default:
		slog.Warn("unknown gadgetfs ep0 event type", "type", eventType)
	}
}

func (p *Phy) pollInEndpoints() {
	cfg := p.device.ActiveConfiguration()
	if cfg == nil {
		return
	}
	for addr := range p.epFiles {
		if addr == 0 || addr&0x80 == 0 {
			continue
		}
		ep := cfg.EndpointMap()[addr]
		if ep == nil || ep.InHandler == nil {
			continue
		}
		if data := ep.InHandler(); len(data) > 0 {
			_ = p.SendOnEndpoint(addr, data)
		}
	}
}
