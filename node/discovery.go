package node

import (
	"context"
	"time"
)

// StartDiscovery begins periodically requesting presence over the
// discovery transport until StopDiscovery is called or the node closes.
// Calling it while already running is a no-op.
func (n *Node) StartDiscovery() {
	n.discoveryMu.Lock()
	defer n.discoveryMu.Unlock()
	if n.discoveryCancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	n.discoveryCancel = cancel

	go func() {
		ticker := time.NewTicker(discoveryTick)
		defer ticker.Stop()
		n.manager.RequestPresence()
		for {
			select {
			case <-ticker.C:
				n.manager.RequestPresence()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// StopDiscovery cancels the discovery ticker; the goroutine exits on
// its next tick or immediately if it's already blocked on ctx.Done.
func (n *Node) StopDiscovery() {
	n.discoveryMu.Lock()
	defer n.discoveryMu.Unlock()
	n.stopDiscoveryLocked()
}

func (n *Node) stopDiscoveryLocked() {
	if n.discoveryCancel != nil {
		n.discoveryCancel()
		n.discoveryCancel = nil
	}
}
