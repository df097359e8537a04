package usb

import "unicode/utf16"

// EncodeStringDescriptor converts a UTF-8 string to a USB string descriptor:
// {bLength, 0x03, UTF-16LE bytes...}.
func EncodeStringDescriptor(s string) []byte {
	units := utf16.Encode([]rune(s))
	buf := make([]byte, 2+len(units)*2)
	buf[0] = uint8(len(buf))
	buf[1] = DescString
	for i, u := range units {
		buf[2+i*2] = uint8(u)
		buf[2+i*2+1] = uint8(u >> 8)
	}
	return buf
}

// LangIDZero is the canonical index-0 string descriptor: US-English language id.
func LangIDZero() []byte {
	return []byte{0x04, DescString, 0x09, 0x04}
}
