package serial

// Max342x register numbers.
const (
	regEP0Fifo          = 0x00
	regEP1OutFifo       = 0x01
	regEP2InFifo        = 0x02
	regEP3InFifo        = 0x03
	regSetupDataFifo    = 0x04
	regEP0ByteCount     = 0x05
	regEP1OutByteCount  = 0x06
	regEP2InByteCount   = 0x07
	regEP3InByteCount   = 0x08
	regEPStalls         = 0x09
	regClrTogs          = 0x0a
	regEndpointIRQ      = 0x0b
	regEndpointIRQEnable = 0x0c
	regUSBIRQ           = 0x0d
	regUSBIRQEnable     = 0x0e
	regUSBControl       = 0x0f
	regCPUControl       = 0x10
	regPinControl       = 0x11
	regRevision         = 0x12
	regFunctionAddress  = 0x13
)

// Endpoint IRQ bitmask values (register 0x0b).
const (
	irqSetupDataAvail  = 0x20
	irqIn3BufferAvail  = 0x10
	irqIn2BufferAvail  = 0x08
	irqOut1DataAvail   = 0x04
	irqOut0DataAvail   = 0x02
	irqIn0BufferAvail  = 0x01
)

// USB control bits (register 0x0f).
const (
	usbControlVBusGate = 0x40
	usbControlConnect  = 0x08
)

// Pin control bits (register 0x11).
const (
	pinControlInterruptLevel = 0x08
	pinControlFullDuplex     = 0x10
)

// ep_stalls value that stalls EP0.
const epStallValue = 0x23
