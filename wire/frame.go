// Package wire implements the binary framing shared by the discovery and
// connect protocols, plus the newline-delimited JSON session codec.
package wire

import (
	"encoding/binary"
	"errors"
)

// Signature identifies the start of a framed discovery or connect message.
var Signature = [2]byte{0x40, 0x40}

// MsgType tags the payload that follows the 5-byte header.
type MsgType byte

const (
	MsgDiscovery MsgType = 1
	MsgConnect   MsgType = 2
)

// HeaderSize is the fixed 5-byte header: 2-byte signature, 2-byte
// big-endian total length (including the header), 1-byte type tag.
const HeaderSize = 5

// ErrNeedMore indicates the buffer holds fewer bytes than the frame's
// declared length; the caller should wait for more data.
var ErrNeedMore = errors.New("wire: need more bytes")

// ErrBadSignature indicates the first two bytes are not the frame signature.
var ErrBadSignature = errors.New("wire: bad signature")

// ErrShortFrame indicates a declared length shorter than the header, or a
// connect/discovery payload whose size does not match its fields.
var ErrShortFrame = errors.New("wire: short frame")

// Header describes a decoded frame header.
type Header struct {
	Length uint16
	Type   MsgType
}

// PeekHeader inspects the first HeaderSize bytes of buf without consuming
// anything. It returns ErrNeedMore if buf is shorter than HeaderSize.
func PeekHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, ErrNeedMore
	}
	if buf[0] != Signature[0] || buf[1] != Signature[1] {
		return Header{}, ErrBadSignature
	}
	length := binary.BigEndian.Uint16(buf[2:4])
	if int(length) < HeaderSize {
		return Header{}, ErrShortFrame
	}
	return Header{Length: length, Type: MsgType(buf[4])}, nil
}

// Decode splits the next complete frame off the front of buf. It returns
// the frame's payload (the bytes after the header), the number of bytes
// consumed from buf (== header.Length), and an error. ErrNeedMore means
// the caller should read more bytes and retry; any other error means the
// datagram/stream is malformed and buf should be discarded up to the
// caller's framing boundary (for UDP, the whole datagram is dropped).
func Decode(buf []byte) (msgType MsgType, payload []byte, consumed int, err error) {
	hdr, err := PeekHeader(buf)
	if err != nil {
		return 0, nil, 0, err
	}
	if len(buf) < int(hdr.Length) {
		return 0, nil, 0, ErrNeedMore
	}
	return hdr.Type, buf[HeaderSize:hdr.Length], int(hdr.Length), nil
}

// Encode writes the 5-byte header followed by payload into a freshly
// allocated buffer and returns it.
func Encode(msgType MsgType, payload []byte) ([]byte, error) {
	total := HeaderSize + len(payload)
	if total > 0xFFFF {
		return nil, errors.New("wire: payload too large")
	}
	buf := make([]byte, total)
	buf[0], buf[1] = Signature[0], Signature[1]
	binary.BigEndian.PutUint16(buf[2:4], uint16(total))
	buf[4] = byte(msgType)
	copy(buf[HeaderSize:], payload)
	return buf, nil
}
