package node

import (
	"encoding/json"

	"github.com/lanpair/core/wire"
)

// EventKind tags a CoreEvent's variant for its tagged-union JSON form.
type EventKind string

const (
	EvDiscovered     EventKind = "Discovered"
	EvAskLaunchUri   EventKind = "AskLaunchUri"
	EvLaunchUri      EventKind = "LaunchUri"
	EvPeerCtlWaiting EventKind = "PeerCtlWaiting"
	EvPeerCtlSuccess EventKind = "PeerCtlSuccess"
	EvPeerCtlCancel  EventKind = "PeerCtlCancel"
	EvPeerCtlFailed  EventKind = "PeerCtlFailed"
	EvPeerGone       EventKind = "PeerGone"
)

// LaunchUriRequest is the payload of an inbound LaunchUri request: who
// sent it, which in-flight session it belongs to, and the uri itself.
// AskLaunchUri surfaces it for user confirmation; LaunchUri surfaces it
// after auto-accept has already approved it. Both encode as the same
// 3-tuple on the wire.
type LaunchUriRequest struct {
	PeerId    wire.PeerId
	SessionId uint64
	Uri       string
}

// CoreEvent is the tagged union pushed to on_event at the foreign
// boundary.
type CoreEvent struct {
	Kind EventKind

	Discovered     wire.PeerMetadata
	AskLaunchUri   LaunchUriRequest
	LaunchUri      LaunchUriRequest
	PeerCtlWaiting wire.PeerId
	PeerCtlSuccess wire.PeerId
	PeerCtlCancel  wire.PeerId
	PeerCtlFailed  wire.PeerId
	PeerGone       wire.PeerId
}

// MarshalJSON renders the single-active-field tagged-union shape, e.g.
// {"Discovered": {...}} or {"AskLaunchUri": [id, sid, uri]}.
func (e CoreEvent) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case EvDiscovered:
		return json.Marshal(map[string]wire.PeerMetadata{string(e.Kind): e.Discovered})
	case EvAskLaunchUri:
		tuple := [3]interface{}{e.AskLaunchUri.PeerId, e.AskLaunchUri.SessionId, e.AskLaunchUri.Uri}
		return json.Marshal(map[string]interface{}{string(e.Kind): tuple})
	case EvLaunchUri:
		tuple := [3]interface{}{e.LaunchUri.PeerId, e.LaunchUri.SessionId, e.LaunchUri.Uri}
		return json.Marshal(map[string]interface{}{string(e.Kind): tuple})
	case EvPeerCtlWaiting:
		return json.Marshal(map[string]wire.PeerId{string(e.Kind): e.PeerCtlWaiting})
	case EvPeerCtlSuccess:
		return json.Marshal(map[string]wire.PeerId{string(e.Kind): e.PeerCtlSuccess})
	case EvPeerCtlCancel:
		return json.Marshal(map[string]wire.PeerId{string(e.Kind): e.PeerCtlCancel})
	case EvPeerCtlFailed:
		return json.Marshal(map[string]wire.PeerId{string(e.Kind): e.PeerCtlFailed})
	case EvPeerGone:
		return json.Marshal(map[string]wire.PeerId{string(e.Kind): e.PeerGone})
	default:
		return json.Marshal(map[string]interface{}{string(e.Kind): nil})
	}
}
