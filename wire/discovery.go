package wire

import (
	"encoding/binary"
	"errors"
	"unicode/utf8"
)

// DiscoveryTag distinguishes the two discovery payload shapes.
type DiscoveryTag byte

const (
	TagPresenceRequest  DiscoveryTag = 0
	TagPresenceResponse DiscoveryTag = 1
)

// ErrBadDiscoveryTag is returned for an unrecognised leading tag byte.
var ErrBadDiscoveryTag = errors.New("wire: unknown discovery tag")

// DiscoveryEvent is either a PresenceRequest or a PresenceResponse.
type DiscoveryEvent struct {
	Tag      DiscoveryTag
	Response PresenceResponse // valid iff Tag == TagPresenceResponse
}

// PresenceResponse is the metadata a peer broadcasts about itself.
type PresenceResponse struct {
	Meta PeerMetadata
}

// EncodeDiscovery encodes a discovery payload (the bytes that follow the
// shared 5-byte header) for a PresenceRequest or PresenceResponse.
func EncodeDiscovery(ev DiscoveryEvent) ([]byte, error) {
	switch ev.Tag {
	case TagPresenceRequest:
		return []byte{byte(TagPresenceRequest)}, nil
	case TagPresenceResponse:
		return encodePresenceResponse(ev.Response)
	default:
		return nil, ErrBadDiscoveryTag
	}
}

func encodePresenceResponse(r PresenceResponse) ([]byte, error) {
	if len(r.Meta.Id) != PeerIdLen {
		return nil, ErrBadPeerId
	}
	nameBytes := []byte(r.Meta.Name)
	if len(nameBytes) > 0xFFFF {
		return nil, errors.New("wire: name too long")
	}
	addrBytes := []byte(r.Meta.Addr.String())
	if len(addrBytes) > 0xFFFF {
		return nil, errors.New("wire: address too long")
	}

	buf := make([]byte, 0, 1+2+2+len(nameBytes)+PeerIdLen+2+len(addrBytes))
	buf = append(buf, byte(TagPresenceResponse))

	var typeBuf [2]byte
	binary.BigEndian.PutUint16(typeBuf[:], uint16(r.Meta.Type))
	buf = append(buf, typeBuf[:]...)

	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(nameBytes)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, nameBytes...)

	buf = append(buf, []byte(r.Meta.Id)...)

	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(addrBytes)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, addrBytes...)

	return buf, nil
}

// DecodeDiscovery parses a discovery payload (the bytes after the 5-byte
// header). Any malformed field is a parse error; callers drop the datagram.
func DecodeDiscovery(payload []byte) (DiscoveryEvent, error) {
	if len(payload) < 1 {
		return DiscoveryEvent{}, errors.New("wire: empty discovery payload")
	}
	switch DiscoveryTag(payload[0]) {
	case TagPresenceRequest:
		return DiscoveryEvent{Tag: TagPresenceRequest}, nil
	case TagPresenceResponse:
		resp, err := decodePresenceResponse(payload[1:])
		if err != nil {
			return DiscoveryEvent{}, err
		}
		return DiscoveryEvent{Tag: TagPresenceResponse, Response: resp}, nil
	default:
		return DiscoveryEvent{}, ErrBadDiscoveryTag
	}
}

func decodePresenceResponse(b []byte) (PresenceResponse, error) {
	if len(b) < 2 {
		return PresenceResponse{}, ErrShortFrame
	}
	devType, err := ParseDeviceType(binary.BigEndian.Uint16(b[0:2]))
	if err != nil {
		return PresenceResponse{}, err
	}
	b = b[2:]

	if len(b) < 2 {
		return PresenceResponse{}, ErrShortFrame
	}
	nameLen := int(binary.BigEndian.Uint16(b[0:2]))
	b = b[2:]
	if len(b) < nameLen {
		return PresenceResponse{}, ErrShortFrame
	}
	nameBytes := b[:nameLen]
	if !utf8.Valid(nameBytes) {
		return PresenceResponse{}, errors.New("wire: name not valid utf-8")
	}
	name := string(nameBytes)
	b = b[nameLen:]

	if len(b) < PeerIdLen {
		return PresenceResponse{}, ErrShortFrame
	}
	id, err := NewPeerId(string(b[:PeerIdLen]))
	if err != nil {
		return PresenceResponse{}, err
	}
	b = b[PeerIdLen:]

	if len(b) < 2 {
		return PresenceResponse{}, ErrShortFrame
	}
	addrLen := int(binary.BigEndian.Uint16(b[0:2]))
	b = b[2:]
	if len(b) != addrLen {
		return PresenceResponse{}, ErrShortFrame
	}
	if !utf8.Valid(b) {
		return PresenceResponse{}, errors.New("wire: address not valid utf-8")
	}
	addr, err := ParseAddr(string(b))
	if err != nil {
		return PresenceResponse{}, err
	}

	return PresenceResponse{Meta: PeerMetadata{
		Name: name,
		Type: devType,
		Id:   id,
		Addr: addr,
	}}, nil
}
