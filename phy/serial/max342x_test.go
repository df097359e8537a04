package serial

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSendOnEndpointRejectsUnsupportedEndpoint(t *testing.T) {
	p := &Phy{}
	err := p.SendOnEndpoint(1, []byte{0x01})
	assert.Error(t, err)
}

func TestSignalBufferAvailableNoOpWithoutDevice(t *testing.T) {
	p := &Phy{}
	assert.NotPanics(t, func() { p.signalBufferAvailable(2) })
}

func TestReadFromEndpointOnlySupportsEndpointOne(t *testing.T) {
	p := &Phy{}
	data, err := p.readFromEndpoint(2)
	assert.NoError(t, err)
	assert.Nil(t, data)
}
