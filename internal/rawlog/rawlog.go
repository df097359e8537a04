// Package rawlog is the process-wide raw-transport logger: hex-dumped wire
// traffic with a timestamp and direction, doubling as the mutation
// broker's stage-log substrate so a capture can be replayed as a fuzz
// corpus later.
package rawlog

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"
)

// RawLogger hex-dumps raw transport traffic and mutation stage emissions.
type RawLogger interface {
	Log(in bool, data []byte)
	LogStage(stage string)
}

type rawLogger struct {
	w  io.Writer
	mu sync.Mutex
}

// New creates a RawLogger writing to w. A nil w is a valid no-op logger.
func New(w io.Writer) RawLogger {
	return &rawLogger{w: w}
}

// Log emits a single-line hex dump with timestamp and direction. in=true
// means host->device, in=false means device->host.
func (r *rawLogger) Log(in bool, data []byte) {
	if len(data) == 0 || r.w == nil {
		return
	}

	dir := "D->H"
	if in {
		dir = "H->D"
	}

	line := fmt.Sprintf("%s %s chunk: %d bytes, hex: %s\n",
		time.Now().Format("2006/01/02 15:04:05"),
		dir,
		len(data),
		hexdump(data))

	r.mu.Lock()
	_, _ = r.w.Write([]byte(line))
	r.mu.Unlock()
}

// LogStage satisfies mutation.StageLogger: it records the stage name a
// descriptor or class response passed through, newline-delimited, so a
// captured session can later be replayed stage-by-stage against a fuzzer.
func (r *rawLogger) LogStage(stage string) {
	if r.w == nil {
		return
	}
	line := fmt.Sprintf("%s stage: %s\n", time.Now().Format("2006/01/02 15:04:05"), stage)
	r.mu.Lock()
	_, _ = r.w.Write([]byte(line))
	r.mu.Unlock()
}

func hexdump(data []byte) string {
	var b bytes.Buffer
	const hexdigits = "0123456789abcdef"
	for i, c := range data {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte(hexdigits[c>>4])
		b.WriteByte(hexdigits[c&0x0f])
	}
	return b.String()
}
