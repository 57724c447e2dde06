// Package node runs the single-threaded event loop that owns NodeConfig
// and NodeState, serialising API queries, API commands, and P2P events
// into state mutations and outbound CoreEvents. It plays the role
// device.Device's single packet-handling goroutine plays for WireGuard,
// narrowed to control-plane decisions instead of crypto routing.
package node

import (
	"context"
	"sync"
	"time"

	"github.com/lanpair/core/identity"
	"github.com/lanpair/core/identity/confstore"
	"github.com/lanpair/core/logging"
	"github.com/lanpair/core/p2p"
	"github.com/lanpair/core/session"
	"github.com/lanpair/core/wire"
)

const discoveryTick = 2 * time.Second

// state is the node's mutable runtime state, owned exclusively by the
// event loop goroutine. sessions maps an in-flight originated session
// id to the peer it targets; the entry is removed when a terminal
// response arrives.
type state struct {
	sessions      map[uint64]wire.PeerId
	nextSessionId uint64
	peerConns     map[wire.PeerId]*session.Codec
}

func (st *state) newSessionId() uint64 {
	id := st.nextSessionId
	st.nextSessionId++
	return id
}

// Node is the long-lived control-plane actor for one device identity.
type Node struct {
	id      wire.PeerId
	ident   *identity.Identity
	manager *p2p.Manager
	secrets identity.SecretStore
	confs   *confstore.Store
	log     logging.Logger

	cfgMu sync.Mutex
	cfg   confstore.NodeConfig

	events chan CoreEvent

	cmdCh chan func(*state)

	discoveryMu     sync.Mutex
	discoveryCancel context.CancelFunc

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// Deps bundles the collaborators a Node is built from.
type Deps struct {
	Identity    *identity.Identity
	Manager     *p2p.Manager
	SecretStore identity.SecretStore
	ConfigStore *confstore.Store
	Log         logging.Logger
}

// New constructs a Node, loading its persisted NodeConfig. Call Run to
// start its event loop and the manager's loop together.
func New(deps Deps) (*Node, error) {
	cfg, err := deps.ConfigStore.Load(deps.Identity.Id)
	if err != nil {
		return nil, err
	}
	meta := deps.Manager.GetMetadata()
	meta.Name = cfg.Name
	meta.Id = deps.Identity.Id
	deps.Manager.SetMetadata(meta)

	return &Node{
		id:      deps.Identity.Id,
		ident:   deps.Identity,
		manager: deps.Manager,
		secrets: deps.SecretStore,
		confs:   deps.ConfigStore,
		log:     deps.Log,
		cfg:     cfg,
		events:  make(chan CoreEvent, 64),
		cmdCh:   make(chan func(*state), 16),
		done:    make(chan struct{}),
	}, nil
}

// Events returns the stream of CoreEvents for the UI/embedder to consume.
func (n *Node) Events() <-chan CoreEvent { return n.events }

// Run starts the manager's accept/discovery loop and the node's own
// event loop, blocking until ctx is cancelled. onReady is invoked once
// both loops are servicing requests.
func (n *Node) Run(ctx context.Context, onReady func()) {
	ctx, cancel := context.WithCancel(ctx)
	n.ctx = ctx
	n.cancel = cancel

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		n.manager.Run(ctx)
	}()

	st := &state{
		sessions:  make(map[uint64]wire.PeerId),
		peerConns: make(map[wire.PeerId]*session.Codec),
	}

	if onReady != nil {
		onReady()
	}

	ctxDone := ctx.Done()
	for {
		select {
		case fn, ok := <-n.cmdCh:
			if !ok {
				wg.Wait()
				close(n.done)
				return
			}
			fn(st)

		case ev, ok := <-n.manager.Events():
			if !ok {
				continue
			}
			n.handleP2PEvent(st, ev)

		case <-ctxDone:
			ctxDone = nil // close cmdCh only once
			n.stopDiscoveryLocked()
			close(n.cmdCh)
		}
	}
}

// Close cancels the node's context and waits for its loop to exit.
func (n *Node) Close() error {
	if n.cancel != nil {
		n.cancel()
	}
	<-n.done
	return nil
}

func (n *Node) emit(ev CoreEvent) {
	select {
	case n.events <- ev:
	default:
		n.log.Debugf("node: dropped event %s, subscriber too slow", ev.Kind)
	}
}

func (n *Node) handleP2PEvent(st *state, ev p2p.Event) {
	switch ev.Kind {
	case p2p.EventPeerDiscovered:
		n.emit(CoreEvent{Kind: EvDiscovered, Discovered: ev.Metadata})

	case p2p.EventPeerConnected:
		n.spawnInboundHandler(st, ev.Peer)

	case p2p.EventPeerDisconnected:
		delete(st.peerConns, ev.Id)
		n.emit(CoreEvent{Kind: EvPeerGone, PeerGone: ev.Id})
	}
}
