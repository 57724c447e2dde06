package handshake

import (
	"net"

	"github.com/lanpair/core/wire"
)

// Host runs the acceptor side of the handshake over conn, a freshly
// accepted TCP connection. lookup resolves the claimed peer id to the
// Authenticator and metadata the host already knows about it (discovered
// peers take priority over known peers).
func Host(conn net.Conn, localId wire.PeerId, lookup CandidateLookup) (Result, error) {
	result, err := hostRun(conn, localId, lookup)
	if err != nil {
		if e, ok := err.(*Error); ok && e.Kind == KindTimeout {
			writeFailure(conn, ErrCodeTimeout)
		}
	}
	return result, err
}

func hostRun(conn net.Conn, localId wire.PeerId, lookup CandidateLookup) (Result, error) {
	// AWAIT_REQ
	msg, err := readConnect(conn)
	if err != nil {
		return Result{}, asHandshakeError(err)
	}
	if msg.Tag != wire.TagRequest {
		return Result{}, fail(KindMsg)
	}

	remoteId := msg.Id
	authenticator, metadata, ok := lookup(remoteId)
	if !ok {
		writeFailure(conn, ErrCodeNotFound)
		return Result{}, fail(KindNotFound)
	}

	verified, err := authenticator.Verify(remoteId, msg.Tag32)
	if err != nil {
		return Result{}, failWith(KindAuth, err)
	}
	if !verified {
		writeFailure(conn, ErrCodeAuth)
		return Result{}, fail(KindAuth)
	}

	tag, err := authenticator.Sign(localId)
	if err != nil {
		return Result{}, failWith(KindAuth, err)
	}
	if err := writeConnect(conn, wire.ConnectMessage{Tag: wire.TagResponse, Tag32: tag}); err != nil {
		return Result{}, asHandshakeError(err)
	}

	// AWAIT_COMPLETE
	msg, err = readConnect(conn)
	if err != nil {
		return Result{}, asHandshakeError(err)
	}
	if msg.Tag != wire.TagCompleteRequest {
		return Result{}, fail(KindMsg)
	}
	if err := writeConnect(conn, wire.ConnectMessage{Tag: wire.TagCompleteResponse}); err != nil {
		return Result{}, asHandshakeError(err)
	}

	return Result{
		Id:       remoteId,
		ConnType: ConnTypeServer,
		Metadata: metadata,
		Conn:     conn,
	}, nil
}
