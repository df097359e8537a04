package app

import "time"

// PacketCountStop stops once NumProcessed reaches max, the default scan
// policy cap (3000 packets in the original vsscan tool).
func PacketCountStop(a *Application, max int) StopFunc {
	return func() bool {
		return a.NumProcessed >= max
	}
}

// WallClockStop stops once wall-clock time since a.StartTime exceeds d
// (5 seconds in the original vsscan tool).
func WallClockStop(a *Application, d time.Duration) StopFunc {
	return func() bool {
		return time.Since(a.StartTime) > d
	}
}

// ScanStop combines the packet-count and wall-clock bounds: whichever
// fires first stops the scan.
func ScanStop(a *Application, maxPackets int, wallClock time.Duration) StopFunc {
	packets := PacketCountStop(a, maxPackets)
	clock := WallClockStop(a, wallClock)
	return func() bool {
		return packets() || clock()
	}
}

// SupportedStop stops as soon as the host signals the emulated function is
// supported, used by emulate/fuzz runs that should persist until the
// driver binds or the caller cancels the context.
func SupportedStop(a *Application) StopFunc {
	return func() bool {
		supported, _ := a.Supported()
		return supported
	}
}

const (
	// DefaultScanPacketCap is vsscan's default packet-count bound.
	DefaultScanPacketCap = 3000
	// DefaultScanWallClock is vsscan's default wall-clock bound.
	DefaultScanWallClock = 5 * time.Second
)
