package handshake

import (
	"net"

	"github.com/lanpair/core/auth"
	"github.com/lanpair/core/wire"
)

// Client runs the initiator side of the handshake over conn, which must
// already be an established TCP connection to remoteId. authenticator is
// keyed on the pairing secret shared with remoteId.
func Client(conn net.Conn, localId, remoteId wire.PeerId, remoteMetadata wire.PeerMetadata, authenticator *auth.Authenticator) (Result, error) {
	result, err := clientRun(conn, localId, remoteId, remoteMetadata, authenticator)
	if err != nil {
		if e, ok := err.(*Error); ok && e.Kind == KindTimeout {
			writeFailure(conn, ErrCodeTimeout)
		}
	}
	return result, err
}

func clientRun(conn net.Conn, localId, remoteId wire.PeerId, remoteMetadata wire.PeerMetadata, authenticator *auth.Authenticator) (Result, error) {
	// START
	tag, err := authenticator.Sign(localId)
	if err != nil {
		return Result{}, failWith(KindAuth, err)
	}
	if err := writeConnect(conn, wire.ConnectMessage{Tag: wire.TagRequest, Id: localId, Tag32: tag}); err != nil {
		return Result{}, asHandshakeError(err)
	}

	// AWAIT_RESP
	msg, err := readConnect(conn)
	if err != nil {
		return Result{}, asHandshakeError(err)
	}
	switch msg.Tag {
	case wire.TagResponse:
		ok, err := authenticator.Verify(remoteId, msg.Tag32)
		if err != nil {
			return Result{}, failWith(KindAuth, err)
		}
		if !ok {
			writeFailure(conn, ErrCodeAuth)
			return Result{}, fail(KindAuth)
		}
	case wire.TagFailure:
		return Result{}, failRemote(msg.Code)
	default:
		return Result{}, fail(KindMsg)
	}

	if err := writeConnect(conn, wire.ConnectMessage{Tag: wire.TagCompleteRequest}); err != nil {
		return Result{}, asHandshakeError(err)
	}

	// AWAIT_COMPLETE
	msg, err = readConnect(conn)
	if err != nil {
		return Result{}, asHandshakeError(err)
	}
	if msg.Tag != wire.TagCompleteResponse {
		return Result{}, fail(KindMsg)
	}

	return Result{
		Id:       remoteId,
		ConnType: ConnTypeClient,
		Metadata: remoteMetadata,
		Conn:     conn,
	}, nil
}

func asHandshakeError(err error) error {
	if _, ok := err.(*Error); ok {
		return err
	}
	return failWith(KindDisconnect, err)
}
