package app

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// VidPid is one vendor/product id pair under test.
type VidPid struct {
	VID uint16 `json:"vid"`
	PID uint16 `json:"pid"`
}

// ScanSession is the persisted state of a vsscan run, letting a long scan
// resume after an interruption instead of restarting from the first
// VID/PID pair.
type ScanSession struct {
	Timeout     time.Duration `json:"timeout"`
	DB          []VidPid      `json:"db"`
	Supported   []VidPid      `json:"supported"`
	Unsupported []VidPid      `json:"unsupported"`
	Current     VidPid        `json:"current"`
}

// NewScanSession builds a fresh session over db with the default scan
// wall-clock timeout.
func NewScanSession(db []VidPid) *ScanSession {
	return &ScanSession{Timeout: DefaultScanWallClock, DB: db}
}

// Remaining returns the DB entries not yet recorded as supported or
// unsupported, in DB order; Current is not consulted.
func (s *ScanSession) Remaining() []VidPid {
	done := make(map[VidPid]bool, len(s.Supported)+len(s.Unsupported))
	for _, v := range s.Supported {
		done[v] = true
	}
	for _, v := range s.Unsupported {
		done[v] = true
	}
	var rem []VidPid
	for _, v := range s.DB {
		if !done[v] {
			rem = append(rem, v)
		}
	}
	return rem
}

// RecordResult appends vp to Supported or Unsupported depending on ok.
func (s *ScanSession) RecordResult(vp VidPid, ok bool) {
	if ok {
		s.Supported = append(s.Supported, vp)
	} else {
		s.Unsupported = append(s.Unsupported, vp)
	}
}

// Save writes the session as JSON to path.
func (s *ScanSession) Save(path string) error {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal scan session: %w", err)
	}
	return os.WriteFile(path, b, 0o644)
}

// LoadScanSession reads a previously saved session from path.
func LoadScanSession(path string) (*ScanSession, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scan session: %w", err)
	}
	var s ScanSession
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("unmarshal scan session: %w", err)
	}
	return &s, nil
}
