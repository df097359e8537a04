// Package serial is the register-poll PHY back-end for a Max342x-family
// Facedancer-style chip talking framed commands over a serial line.
package serial

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sys/unix"
)

// command is one framed {app, verb, length, payload} exchange.
type command struct {
	App  uint8
	Verb uint8
	Data []byte
}

func (c command) bytes() []byte {
	b := make([]byte, 4+len(c.Data))
	b[0] = c.App
	b[1] = c.Verb
	binary.LittleEndian.PutUint16(b[2:4], uint16(len(c.Data)))
	copy(b[4:], c.Data)
	return b
}

// link is the framed-command transport over a raw serial file descriptor,
// grounded on the Facedancer protocol's app/verb/length framing.
type link struct {
	f *os.File
}

func openLink(device string) (*link, error) {
	f, err := os.OpenFile(device, os.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", device, err)
	}
	if err := setRawMode(int(f.Fd())); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("set raw mode: %w", err)
	}
	return &link{f: f}, nil
}

func (l *link) write(c command) error {
	slog.Debug("facedancer tx", "app", c.App, "verb", c.Verb, "len", len(c.Data))
	_, err := l.f.Write(c.bytes())
	return err
}

func (l *link) read() (command, error) {
	header := make([]byte, 4)
	if _, err := readFull(l.f, header); err != nil {
		return command{}, err
	}
	n := binary.LittleEndian.Uint16(header[2:4])
	data := make([]byte, n)
	if n > 0 {
		if _, err := readFull(l.f, data); err != nil {
			return command{}, err
		}
	}
	cmd := command{App: header[0], Verb: header[1], Data: data}
	slog.Debug("facedancer rx", "app", cmd.App, "verb", cmd.Verb, "len", len(data))
	return cmd, nil
}

func readFull(f *os.File, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := f.Read(buf[total:])
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// setRTS toggles the RTS modem control line.
func (l *link) setRTS(on bool) error {
	return setModemBit(int(l.f.Fd()), unix.TIOCM_RTS, on)
}

// setDTR toggles the DTR modem control line.
func (l *link) setDTR(on bool) error {
	return setModemBit(int(l.f.Fd()), unix.TIOCM_DTR, on)
}

func setModemBit(fd, bit int, on bool) error {
	req := unix.TIOCMBIC
	if on {
		req = unix.TIOCMBIS
	}
	return unix.IoctlSetPointerInt(fd, uint(req), bit)
}

// setRawMode disables canonical mode, echo, and signal generation, per the
// raw tty mode a register-poll serial link requires.
func setRawMode(fd int) error {
	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return err
	}
	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB
	t.Cflag |= unix.CS8
	t.Cc[unix.VMIN] = 1
	t.Cc[unix.VTIME] = 0
	return unix.IoctlSetTermios(fd, unix.TCSETS, t)
}

func (l *link) close() error {
	return l.f.Close()
}
