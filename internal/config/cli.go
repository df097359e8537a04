// Package config is the Kong CLI surface: the top-level command struct and
// its subcommands (emulate, fuzz, list-classes, scan, vsscan, makestages,
// detect-os). emulate, fuzz, scan and vsscan drive an app.Application;
// list-classes, makestages and detect-os do not.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/umap2/umap2go/app"
	"github.com/umap2/umap2go/control"
	"github.com/umap2/umap2go/device/keyboard"
	"github.com/umap2/umap2go/device/vendorserial"
	"github.com/umap2/umap2go/internal/rawlog"
	"github.com/umap2/umap2go/mutation"
	"github.com/umap2/umap2go/phy"
	"github.com/umap2/umap2go/phy/gadgetfs"
	"github.com/umap2/umap2go/phy/serial"
	"github.com/umap2/umap2go/usb"
)

// CLI is the Kong root command.
type CLI struct {
	Log Log `embed:"" prefix:"log."`

	Emulate     EmulateCmd     `cmd:"" help:"Emulate a USB device until interrupted."`
	Fuzz        FuzzCmd        `cmd:"" help:"Emulate a USB device with descriptors and class responses subject to mutation."`
	ListClasses ListClassesCmd `cmd:"" help:"List available exemplar device classes."`
	Scan        ScanCmd        `cmd:"" help:"Start a new VID/PID scan session (with an empty candidate list) and persist it."`
	Vsscan      VsscanCmd      `cmd:"" help:"Resume a persisted VID/PID scan session."`
	Makestages  MakestagesCmd  `cmd:"" help:"Print the stage names a device definition would emit."`
	DetectOS    DetectOSCmd    `cmd:"" help:"Detect the connected host's operating system."`
}

// Log configures the process-wide structured and raw-transport loggers.
type Log struct {
	Level   string `help:"Log level." enum:"trace,debug,info,warn,error" default:"info" env:"UMAP2GO_LOG_LEVEL"`
	File    string `help:"Also write structured logs to this file; console output then goes to stderr only."`
	RawFile string `help:"Open this file as the raw-transport log (no subcommand writes to it)."`
}

// deviceFlags are shared by every subcommand that brings up a PHY and a
// device.
type deviceFlags struct {
	PHY   string `short:"P" name:"phy" help:"PHY backend." enum:"gadgetfs,serial" default:"gadgetfs"`
	Class string `short:"C" name:"class" help:"Exemplar device class." enum:"keyboard,vendorserial" default:"keyboard"`

	Quiet   bool `short:"q" name:"quiet" help:"Accepted for compatibility; does not change logging (use --log.level)."`
	Verbose bool `short:"v" name:"verbose" help:"Accepted for compatibility; does not change logging (use --log.level)."`

	VID uint16 `name:"vid" help:"Override the device's vendor ID."`
	PID uint16 `name:"pid" help:"Override the device's product ID."`

	GadgetFSDir  string `name:"gadgetfs-dir" default:"/dev/gadget" help:"GadgetFS control directory (gadgetfs PHY only)."`
	SerialDevice string `name:"serial-device" default:"/dev/ttyUSB0" help:"Serial TTY path (serial PHY only)."`
}

// buildDevice constructs the named exemplar device's usb.Device, applying
// any VID/PID override.
func (f deviceFlags) buildDevice(broker *mutation.Broker) (*usb.Device, error) {
	var d *usb.Device
	switch f.Class {
	case "keyboard":
		_, d = keyboard.New(broker, orDefault(f.VID, 0x2E8A), orDefault(f.PID, 0x0010))
	case "vendorserial":
		_, d = vendorserial.New(broker, orDefault(f.VID, 0x0403), orDefault(f.PID, 0x6001))
	default:
		return nil, fmt.Errorf("unknown device class %q", f.Class)
	}
	return d, nil
}

func orDefault(v, def uint16) uint16 {
	if v == 0 {
		return def
	}
	return v
}

// buildPHY constructs the named PHY backend.
func (f deviceFlags) buildPHY() (phy.PHY, error) {
	switch f.PHY {
	case "gadgetfs":
		return gadgetfs.New(f.GadgetFSDir), nil
	case "serial":
		return serial.Open(f.SerialDevice)
	default:
		return nil, fmt.Errorf("unknown PHY backend %q", f.PHY)
	}
}

// attachEngine assigns engine to backend's exported Engine field: both PHY
// back-ends dispatch SETUP events through it, but neither can take it as a
// constructor argument since the engine itself is built from the backend
// (as its control.PHY).
func attachEngine(backend phy.PHY, engine *control.Engine) {
	switch p := backend.(type) {
	case *gadgetfs.Phy:
		p.Engine = engine
	case *serial.Phy:
		p.Engine = engine
	}
}

func runUntilInterrupted(ctx context.Context, a *app.Application, when app.StopFunc) error {
	sigCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := a.Connect(); err != nil {
		return err
	}
	defer func() { _, _ = a.Disconnect() }()
	return a.Run(sigCtx, when)
}

// EmulateCmd brings up one exemplar device on the chosen PHY, without
// mutation (NopFuzzer).
type EmulateCmd struct {
	deviceFlags
}

func (c *EmulateCmd) Run(logger *slog.Logger, _ rawlog.RawLogger) error {
	device, err := c.buildDevice(nil)
	if err != nil {
		return err
	}
	backend, err := c.buildPHY()
	if err != nil {
		return err
	}
	engine := control.NewEngine(device, backend)
	attachEngine(backend, engine)
	a := app.New(device, backend, engine)
	logger.Info("emulating device", "class", c.Class, "phy", c.PHY, "vid", device.VendorID, "pid", device.ProductID)
	return runUntilInterrupted(context.Background(), a, app.SupportedStop(a))
}

// FuzzCmd brings up one exemplar device with its descriptors and class
// responses subject to mutation via the external fuzzer RPC.
type FuzzCmd struct {
	deviceFlags
	FuzzerIP   string `name:"fuzzer-ip" default:"127.0.0.1" help:"Mutation fuzzer RPC host."`
	FuzzerPort int    `name:"fuzzer-port" default:"9001" help:"Mutation fuzzer RPC port."`
	StageFile  string `name:"stage-file" help:"Append every stage name emitted to this file."`
}

func (c *FuzzCmd) Run(logger *slog.Logger, rl rawlog.RawLogger) error {
	broker := mutation.NewBroker()
	broker.Fuzzer = mutation.NewRPCFuzzer(fmt.Sprintf("%s:%d", c.FuzzerIP, c.FuzzerPort))
	if c.StageFile != "" {
		sl, err := mutation.NewFileStageLogger(c.StageFile)
		if err != nil {
			return err
		}
		broker.Logger = sl
	}

	device, err := c.buildDevice(broker)
	if err != nil {
		return err
	}
	backend, err := c.buildPHY()
	if err != nil {
		return err
	}
	engine := control.NewEngine(device, backend)
	attachEngine(backend, engine)
	a := app.New(device, backend, engine)
	logger.Info("fuzzing device", "class", c.Class, "phy", c.PHY)
	_ = rl
	return runUntilInterrupted(context.Background(), a, app.SupportedStop(a))
}

// ListClassesCmd prints the exemplar device classes buildDevice accepts.
type ListClassesCmd struct{}

func (c *ListClassesCmd) Run(logger *slog.Logger, _ rawlog.RawLogger) error {
	for _, name := range []string{"keyboard", "vendorserial"} {
		fmt.Println(name)
	}
	return nil
}

// ScanCmd starts a fresh scan session and runs it with runScan. The session
// is built with an empty VID/PID candidate list, so it probes nothing and
// saves the empty session to Out straight away.
type ScanCmd struct {
	deviceFlags
	Out string `name:"out" default:"scan.json" help:"Path to persist scan progress."`
}

func (c *ScanCmd) Run(logger *slog.Logger, _ rawlog.RawLogger) error {
	session := app.NewScanSession(nil)
	return runScan(logger, c.deviceFlags, session, c.Out)
}

// VsscanCmd resumes a previously persisted scan session.
type VsscanCmd struct {
	deviceFlags
	SessionFile string `arg:"" help:"Path to a scan session persisted by the scan command."`
}

func (c *VsscanCmd) Run(logger *slog.Logger, _ rawlog.RawLogger) error {
	session, err := app.LoadScanSession(c.SessionFile)
	if err != nil {
		return err
	}
	return runScan(logger, c.deviceFlags, session, c.SessionFile)
}

func runScan(logger *slog.Logger, flags deviceFlags, session *app.ScanSession, out string) error {
	for {
		remaining := session.Remaining()
		if len(remaining) == 0 {
			logger.Info("scan complete", "supported", len(session.Supported), "unsupported", len(session.Unsupported))
			return session.Save(out)
		}
		vp := remaining[0]
		session.Current = vp
		flags.VID, flags.PID = vp.VID, vp.PID

		device, err := flags.buildDevice(nil)
		if err != nil {
			return err
		}
		backend, err := flags.buildPHY()
		if err != nil {
			return err
		}
		engine := control.NewEngine(device, backend)
		attachEngine(backend, engine)
		a := app.New(device, backend, engine)

		logger.Info("probing", "vid", vp.VID, "pid", vp.PID)
		if err := runUntilInterrupted(context.Background(), a, app.ScanStop(a, app.DefaultScanPacketCap, session.Timeout)); err != nil {
			logger.Warn("probe failed", "vid", vp.VID, "pid", vp.PID, "error", err)
		}
		supported, _ := a.Supported()
		session.RecordResult(vp, supported)
		if err := session.Save(out); err != nil {
			logger.Warn("failed to persist scan session", "error", err)
		}
	}
}

// MakestagesCmd prints the stage names a device definition would emit,
// without attaching any PHY (descriptor serialization only).
type MakestagesCmd struct {
	deviceFlags
}

func (c *MakestagesCmd) Run(logger *slog.Logger, _ rawlog.RawLogger) error {
	memLogger := &mutation.MemoryStageLogger{}
	broker := mutation.NewBroker()
	broker.Logger = memLogger

	device, err := c.buildDevice(broker)
	if err != nil {
		return err
	}
	for _, serializer := range device.Serializers {
		_ = serializer(usb.FullSpeed, 0, false)
	}
	for _, stage := range memLogger.Stages {
		fmt.Println(stage)
	}
	return nil
}

// DetectOSCmd is left unimplemented, matching the original's scoping.
type DetectOSCmd struct{}

func (c *DetectOSCmd) Run(*slog.Logger, rawlog.RawLogger) error {
	return errors.New("not implemented")
}
