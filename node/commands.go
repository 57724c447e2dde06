package node

import (
	"encoding/base32"

	"github.com/lanpair/core/identity"
	"github.com/lanpair/core/wire"
)

// do schedules fn on the node's event loop and waits for its result.
func (n *Node) do(fn func(*state) error) error {
	reply := make(chan error, 1)
	select {
	case n.cmdCh <- func(st *state) { reply <- fn(st) }:
	case <-n.done:
		return ErrNodeClosed
	}
	select {
	case err := <-reply:
		return err
	case <-n.done:
		return ErrNodeClosed
	}
}

// SetConf updates the node's display name and auto-accept policy,
// persists the change, and refreshes the metadata the manager advertises.
func (n *Node) SetConf(name string, autoAccept bool) error {
	return n.do(func(st *state) error {
		n.cfgMu.Lock()
		n.cfg.Name = name
		n.cfg.AutoAccept = autoAccept
		cfg := n.cfg
		n.cfgMu.Unlock()

		if err := n.confs.Save(cfg); err != nil {
			return err
		}
		meta := n.manager.GetMetadata()
		meta.Name = name
		n.manager.SetMetadata(meta)
		return nil
	})
}

// Pair admits a scanned QrPayload as a known peer: it stores the
// pairing secret and adds the peer to NodeConfig.known_peers.
func (n *Node) Pair(payload QrPayload) error {
	return n.do(func(st *state) error {
		secret, err := decodeBase32Secret(payload.Secret)
		if err != nil {
			return ErrPairing
		}
		if err := identity.SetTotp(n.secrets, payload.Peer.Id, secret); err != nil {
			return err
		}

		candidates, err := identity.ToKnown(n.secrets, []wire.PeerMetadata{payload.Peer})
		if err != nil {
			return err
		}
		for _, c := range candidates {
			n.manager.AddKnownPeer(c)
		}

		n.cfgMu.Lock()
		n.cfg.KnownPeers = append(n.cfg.KnownPeers, payload.Peer)
		cfg := n.cfg
		n.cfgMu.Unlock()
		return n.confs.Save(cfg)
	})
}

// SendPeer originates a LaunchUri session toward peerId. It returns
// once the request is queued; the terminal outcome arrives later as a
// PeerCtlSuccess, PeerCtlCancel, or PeerCtlFailed CoreEvent (a
// PeerCtlWaiting may arrive first if the remote user hasn't decided).
func (n *Node) SendPeer(peerId wire.PeerId, uri string) error {
	return n.do(func(st *state) error {
		codec, ok := st.peerConns[peerId]
		if !ok {
			return ErrNotConnected
		}
		id := st.newSessionId()
		if err := codec.SendRequest(id, wire.CtlRequest{Kind: wire.CtlLaunchUri, Payload: uri}); err != nil {
			delete(st.peerConns, peerId)
			return err
		}
		st.sessions[id] = peerId
		return nil
	})
}

// Ack answers an inbound AskLaunchUri event with the user's decision.
func (n *Node) Ack(peerId wire.PeerId, sessionId uint64, status wire.CtlStatus, code uint32) error {
	return n.do(func(st *state) error {
		codec, ok := st.peerConns[peerId]
		if !ok {
			return ErrNotConnected
		}
		return codec.SendResponse(sessionId, wire.CtlResponse{Status: status, Code: code})
	})
}

// ConnectToPeer originates a TCP connection and handshake to a
// discovered peer, spawned off the event loop so the loop is never
// blocked on dial/handshake latency.
func (n *Node) ConnectToPeer(id wire.PeerId) {
	go func() {
		if _, err := n.manager.ConnectToPeer(n.ctx, id); err != nil {
			n.log.Debugf("node: connect to %s failed: %v", id, err)
		}
	}()
}

func decodeBase32Secret(s string) ([]byte, error) {
	return base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(s)
}
