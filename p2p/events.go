package p2p

import (
	"github.com/lanpair/core/peer"
	"github.com/lanpair/core/wire"
)

// EventKind tags a p2p event delivered up to the node event loop.
type EventKind int

const (
	EventPeerDiscovered EventKind = iota
	EventPeerConnected
	EventPeerDisconnected
)

// Event is the manager's half of the app-facing event stream, consumed
// by the node event loop and translated into CoreEvents.
type Event struct {
	Kind     EventKind
	Metadata wire.PeerMetadata // EventPeerDiscovered
	Peer     *peer.Peer        // EventPeerConnected
	Id       wire.PeerId       // EventPeerDisconnected
}
