package wire

import (
	"encoding/binary"
	"errors"
)

// ConnectTag distinguishes the five connect-message shapes.
type ConnectTag byte

const (
	TagRequest          ConnectTag = 0
	TagResponse         ConnectTag = 1
	TagCompleteRequest  ConnectTag = 2
	TagCompleteResponse ConnectTag = 3
	TagFailure          ConnectTag = 4
)

// HmacTagSize is the fixed size of an HMAC-SHA-256 tag on the wire.
const HmacTagSize = 32

// ErrBadConnectTag is returned for an unrecognised leading tag byte.
var ErrBadConnectTag = errors.New("wire: unknown connect tag")

// ConnectMessage is one of the five handshake messages.
type ConnectMessage struct {
	Tag ConnectTag

	// Request
	Id  PeerId
	Tag32 [HmacTagSize]byte // HMAC tag, valid for Request and Response

	// Failure
	Code uint32
}

// EncodeConnect encodes a connect payload (the bytes following the shared
// 5-byte header).
func EncodeConnect(m ConnectMessage) ([]byte, error) {
	switch m.Tag {
	case TagRequest:
		if len(m.Id) != PeerIdLen {
			return nil, ErrBadPeerId
		}
		buf := make([]byte, 1+PeerIdLen+HmacTagSize)
		buf[0] = byte(TagRequest)
		copy(buf[1:1+PeerIdLen], m.Id)
		copy(buf[1+PeerIdLen:], m.Tag32[:])
		return buf, nil
	case TagResponse:
		buf := make([]byte, 1+HmacTagSize)
		buf[0] = byte(TagResponse)
		copy(buf[1:], m.Tag32[:])
		return buf, nil
	case TagCompleteRequest:
		return []byte{byte(TagCompleteRequest)}, nil
	case TagCompleteResponse:
		return []byte{byte(TagCompleteResponse)}, nil
	case TagFailure:
		buf := make([]byte, 1+4)
		buf[0] = byte(TagFailure)
		binary.BigEndian.PutUint32(buf[1:], m.Code)
		return buf, nil
	default:
		return nil, ErrBadConnectTag
	}
}

// DecodeConnect parses a connect payload (the bytes after the 5-byte
// header).
func DecodeConnect(payload []byte) (ConnectMessage, error) {
	if len(payload) < 1 {
		return ConnectMessage{}, errors.New("wire: empty connect payload")
	}
	switch ConnectTag(payload[0]) {
	case TagRequest:
		b := payload[1:]
		if len(b) != PeerIdLen+HmacTagSize {
			return ConnectMessage{}, ErrShortFrame
		}
		id, err := NewPeerId(string(b[:PeerIdLen]))
		if err != nil {
			return ConnectMessage{}, err
		}
		var tag [HmacTagSize]byte
		copy(tag[:], b[PeerIdLen:])
		return ConnectMessage{Tag: TagRequest, Id: id, Tag32: tag}, nil
	case TagResponse:
		b := payload[1:]
		if len(b) != HmacTagSize {
			return ConnectMessage{}, ErrShortFrame
		}
		var tag [HmacTagSize]byte
		copy(tag[:], b)
		return ConnectMessage{Tag: TagResponse, Tag32: tag}, nil
	case TagCompleteRequest:
		if len(payload) != 1 {
			return ConnectMessage{}, ErrShortFrame
		}
		return ConnectMessage{Tag: TagCompleteRequest}, nil
	case TagCompleteResponse:
		if len(payload) != 1 {
			return ConnectMessage{}, ErrShortFrame
		}
		return ConnectMessage{Tag: TagCompleteResponse}, nil
	case TagFailure:
		b := payload[1:]
		if len(b) != 4 {
			return ConnectMessage{}, ErrShortFrame
		}
		return ConnectMessage{Tag: TagFailure, Code: binary.BigEndian.Uint32(b)}, nil
	default:
		return ConnectMessage{}, ErrBadConnectTag
	}
}
