package rawlog_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/umap2/umap2go/internal/rawlog"
)

func TestLogWritesHexDumpWithDirection(t *testing.T) {
	var buf bytes.Buffer
	l := rawlog.New(&buf)

	l.Log(true, []byte{0xde, 0xad})

	out := buf.String()
	assert.Contains(t, out, "H->D")
	assert.Contains(t, out, "chunk: 2 bytes")
	assert.Contains(t, out, "hex: de ad")
}

func TestLogDeviceToHostDirection(t *testing.T) {
	var buf bytes.Buffer
	l := rawlog.New(&buf)

	l.Log(false, []byte{0x01})

	assert.Contains(t, buf.String(), "D->H")
}

func TestLogIgnoresEmptyData(t *testing.T) {
	var buf bytes.Buffer
	l := rawlog.New(&buf)

	l.Log(true, nil)

	assert.Empty(t, buf.String())
}

func TestLogStageWritesStageName(t *testing.T) {
	var buf bytes.Buffer
	l := rawlog.New(&buf)

	l.LogStage("device.descriptor")

	assert.True(t, strings.Contains(buf.String(), "stage: device.descriptor"))
}

func TestNilWriterIsANoOp(t *testing.T) {
	l := rawlog.New(nil)
	assert.NotPanics(t, func() {
		l.Log(true, []byte{0x01})
		l.LogStage("anything")
	})
}
