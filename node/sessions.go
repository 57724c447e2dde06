package node

import (
	"github.com/lanpair/core/peer"
	"github.com/lanpair/core/session"
	"github.com/lanpair/core/wire"
)

// spawnInboundHandler registers p's session codec and starts its read
// loop. Called from the node loop on every PeerConnected event,
// regardless of which side initiated the handshake: App Control
// requests flow in both directions over a connected Peer.
func (n *Node) spawnInboundHandler(st *state, p *peer.Peer) {
	codec := session.New(p)
	st.peerConns[p.Id] = codec

	handler := &session.Handler{
		OnRequest: func(c *session.Codec, id uint64, req wire.CtlRequest) {
			n.postToLoop(func(st *state) {
				n.handleInboundRequest(st, c, p.Id, id, req)
			})
		},
		OnResponse: func(c *session.Codec, id uint64, resp wire.CtlResponse) {
			n.postToLoop(func(st *state) {
				n.handleInboundResponse(st, id, resp)
			})
		},
		OnClose: func(c *session.Codec, err error) {
			if err != nil {
				n.log.Debugf("node: session stream for %s ended: %v", p.Id, err)
			}
		},
	}
	go handler.Run(codec)
}

// postToLoop schedules fn to run on the node's own goroutine, the only
// goroutine allowed to touch state. It is used by session handler
// goroutines, which run outside the loop.
func (n *Node) postToLoop(fn func(*state)) {
	select {
	case n.cmdCh <- fn:
	case <-n.done:
	}
}

// handleInboundRequest answers an inbound LaunchUri request immediately:
// Success and an app-facing LaunchUri event when auto-accept is on,
// otherwise Waiting and an AskLaunchUri event while the user decides.
// The user's eventual decision arrives as a second, terminal response
// written by Ack over the same session id.
func (n *Node) handleInboundRequest(st *state, codec *session.Codec, peerId wire.PeerId, sessionId uint64, req wire.CtlRequest) {
	switch req.Kind {
	case wire.CtlLaunchUri:
		payload := LaunchUriRequest{PeerId: peerId, SessionId: sessionId, Uri: req.Payload}

		n.cfgMu.Lock()
		autoAccept := n.cfg.AutoAccept
		n.cfgMu.Unlock()

		if autoAccept {
			n.emit(CoreEvent{Kind: EvLaunchUri, LaunchUri: payload})
			if err := codec.SendResponse(sessionId, wire.CtlResponse{Status: wire.StatusSuccess}); err != nil {
				n.log.Debugf("node: auto-accept response to %s: %v", peerId, err)
			}
		} else {
			n.emit(CoreEvent{Kind: EvAskLaunchUri, AskLaunchUri: payload})
			if err := codec.SendResponse(sessionId, wire.CtlResponse{Status: wire.StatusWaiting}); err != nil {
				n.log.Debugf("node: waiting response to %s: %v", peerId, err)
			}
		}
	default:
		n.log.Debugf("node: unhandled control request kind %q from %s", req.Kind, peerId)
	}
}

func (n *Node) handleInboundResponse(st *state, sessionId uint64, resp wire.CtlResponse) {
	peerId, ok := st.sessions[sessionId]
	if !ok {
		n.log.Debugf("node: response for unknown session %d", sessionId)
		return
	}
	if resp.Status == wire.StatusWaiting {
		n.emit(CoreEvent{Kind: EvPeerCtlWaiting, PeerCtlWaiting: peerId})
		return // not terminal; the session stays open until a later terminal response arrives
	}
	delete(st.sessions, sessionId)

	switch resp.Status {
	case wire.StatusSuccess:
		n.emit(CoreEvent{Kind: EvPeerCtlSuccess, PeerCtlSuccess: peerId})
	case wire.StatusCancel:
		n.emit(CoreEvent{Kind: EvPeerCtlCancel, PeerCtlCancel: peerId})
	default:
		n.emit(CoreEvent{Kind: EvPeerCtlFailed, PeerCtlFailed: peerId})
	}
}
