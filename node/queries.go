package node

import (
	"github.com/lanpair/core/identity/confstore"
	"github.com/lanpair/core/wire"
)

// GetConf returns a snapshot of the current persisted configuration.
func (n *Node) GetConf() confstore.NodeConfig {
	n.cfgMu.Lock()
	defer n.cfgMu.Unlock()
	return n.cfg
}

// GetDiscoveredPeers lists the metadata of every currently discovered
// peer. It reads the manager's concurrent map directly; no loop
// round-trip is needed since NodeState holds no view of it.
func (n *Node) GetDiscoveredPeers() []wire.PeerMetadata {
	return n.manager.GetDiscoveredPeers()
}
