// Package request is the class/vendor handler registry: a mapping from
// bRequest codes to per-class functions, with a default acknowledgement
// convention and a hook to wrap individual handlers with the mutation
// broker.
package request

import (
	"github.com/umap2/umap2go/mutation"
	"github.com/umap2/umap2go/usb"
)

// Handler answers one class or vendor request. ack == false with a nil
// resp means stall; ack == true with a nil resp means an empty-data ACK;
// a non-nil resp is sent verbatim (truncated to wLength by the control
// engine).
type Handler = func(req usb.SetupPacket, data []byte) (resp []byte, ack bool)

// HandlerSet maps bRequest to its Handler. A missing entry is a stall.
type HandlerSet map[uint8]Handler

// Stall answers with no response and no ack — the "no entry for bRequest"
// and "unsupported recipient" convention.
func Stall(usb.SetupPacket, []byte) ([]byte, bool) { return nil, false }

// Ack answers with an empty-data acknowledgement.
func Ack(usb.SetupPacket, []byte) ([]byte, bool) { return nil, true }

// Mutable wraps h so its response is subject to the mutation broker under
// stage, matching the "every class-response method is tagged with a
// stable stage name" rule.
func (hs HandlerSet) Mutable(stage string, broker *mutation.Broker, h Handler) Handler {
	return func(req usb.SetupPacket, data []byte) ([]byte, bool) {
		var ack bool
		resp := broker.Stage(stage, map[string][]byte{"data": data}, func() []byte {
			r, a := h(req, data)
			ack = a
			return r
		})
		if resp == nil && !ack {
			return nil, false
		}
		return resp, true
	}
}
