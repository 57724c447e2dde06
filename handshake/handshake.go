// Package handshake implements the three-message mutually-authenticated
// handshake run over a freshly accepted or dialed TCP connection:
// request, response, and a completion round that confirms both sides
// agree before data flows.
package handshake

import (
	"net"
	"time"

	"github.com/lanpair/core/auth"
	"github.com/lanpair/core/wire"
)

// MessageTimeout bounds every individual message exchange.
const MessageTimeout = 1 * time.Second

// ConnType records which side of the TCP connection a Peer originated
// from.
type ConnType int

const (
	ConnTypeClient ConnType = iota
	ConnTypeServer
)

// Result is what a successful handshake produces: an authenticated
// identity bound to the live TCP connection.
type Result struct {
	Id       wire.PeerId
	ConnType ConnType
	Metadata wire.PeerMetadata
	Conn     net.Conn
}

// CandidateLookup resolves a PeerId to the Authenticator that should
// verify its handshake tag, mirroring p2p.Manager.get_peer_candidate:
// discovered first, then known, else not found.
type CandidateLookup func(id wire.PeerId) (*auth.Authenticator, wire.PeerMetadata, bool)

func writeFrame(conn net.Conn, msgType wire.MsgType, payload []byte) error {
	frame, err := wire.Encode(msgType, payload)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(MessageTimeout))
	_, err = conn.Write(frame)
	return err
}

func writeConnect(conn net.Conn, msg wire.ConnectMessage) error {
	payload, err := wire.EncodeConnect(msg)
	if err != nil {
		return err
	}
	return writeFrame(conn, wire.MsgConnect, payload)
}

func writeFailure(conn net.Conn, code uint32) {
	// Best-effort: a failure notice is a courtesy, not part of the
	// contract the caller's error return depends on.
	_ = writeConnect(conn, wire.ConnectMessage{Tag: wire.TagFailure, Code: code})
}

// readConnect reads exactly one framed connect message within
// MessageTimeout. Header and body (up to 5+1+PeerIdLen+32 bytes) are
// read in a single deadline-bounded pass since every connect message fits
// comfortably in one TCP segment.
func readConnect(conn net.Conn) (wire.ConnectMessage, error) {
	conn.SetReadDeadline(time.Now().Add(MessageTimeout))

	var header [wire.HeaderSize]byte
	if _, err := readFull(conn, header[:]); err != nil {
		return wire.ConnectMessage{}, err
	}
	hdr, err := wire.PeekHeader(header[:])
	if err != nil {
		return wire.ConnectMessage{}, err
	}
	rest := make([]byte, int(hdr.Length)-wire.HeaderSize)
	if len(rest) > 0 {
		if _, err := readFull(conn, rest); err != nil {
			return wire.ConnectMessage{}, err
		}
	}
	if hdr.Type != wire.MsgConnect {
		return wire.ConnectMessage{}, fail(KindMsg)
	}
	return wire.DecodeConnect(rest)
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			if isTimeout(err) {
				return total, fail(KindTimeout)
			}
			return total, fail(KindDisconnect)
		}
	}
	return total, nil
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}
