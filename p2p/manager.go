// Package p2p implements the peer manager: the known/discovered/connected
// peer maps and the accept/discovery event loop that mediates between the
// app (node) and the transport layers, the same role device.Device plays
// for WireGuard's peer map and BindUpdate-driven receive routines.
package p2p

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/lanpair/core/auth"
	"github.com/lanpair/core/discovery"
	"github.com/lanpair/core/handshake"
	"github.com/lanpair/core/logging"
	"github.com/lanpair/core/peer"
	"github.com/lanpair/core/wire"
)

// Manager holds the authoritative peer maps and runs the accept/discovery
// loop. Its maps are protected by per-field mutexes rather than a single
// lock, since they are touched from many handshake goroutines as well as
// the manager's own loop.
type Manager struct {
	id       wire.PeerId
	metaMu   sync.RWMutex
	metadata wire.PeerMetadata

	knownMu     sync.RWMutex
	known       map[wire.PeerId]*Candidate
	discoveredMu sync.RWMutex
	discovered  map[wire.PeerId]*Candidate
	connectedMu sync.RWMutex
	connected   map[wire.PeerId]*peer.Peer

	listener  net.Listener
	transport *discovery.Transport
	limiter   *handshake.Limiter
	log       logging.Logger

	events   chan Event
	internal chan func()
	acceptCh chan net.Conn
	stop     chan struct{}
	wg       sync.WaitGroup
}

// New constructs a Manager for the local identity (id, metadata), bound
// to listener for inbound handshakes and transport for discovery.
func New(id wire.PeerId, metadata wire.PeerMetadata, listener net.Listener, transport *discovery.Transport, log logging.Logger) *Manager {
	return &Manager{
		id:         id,
		metadata:   metadata,
		known:      make(map[wire.PeerId]*Candidate),
		discovered: make(map[wire.PeerId]*Candidate),
		connected:  make(map[wire.PeerId]*peer.Peer),
		listener:   listener,
		transport:  transport,
		limiter:    handshake.NewLimiter(),
		log:        log,
		events:     make(chan Event, 64),
		internal:   make(chan func(), 16),
		acceptCh:   make(chan net.Conn, 16),
		stop:       make(chan struct{}),
	}
}

// Events returns the channel of PeerDiscovered/PeerConnected/PeerDisconnected
// events the node event loop consumes.
func (m *Manager) Events() <-chan Event { return m.events }

func (m *Manager) emit(ev Event) {
	select {
	case m.events <- ev:
	case <-m.stop:
	}
}

// Run starts the accept fan-out goroutine and services the manager's
// event loop until ctx is cancelled or a primary channel closes.
func (m *Manager) Run(ctx context.Context) {
	m.wg.Add(1)
	go m.acceptLoop()

	for {
		select {
		case conn, ok := <-m.acceptCh:
			if !ok {
				return
			}
			m.wg.Add(1)
			go m.runHostHandshake(conn)

		case in, ok := <-m.transport.Inbound():
			if !ok {
				return
			}
			m.handleInboundDiscovery(in)

		case fn, ok := <-m.internal:
			if !ok {
				return
			}
			fn()

		case <-ctx.Done():
			close(m.stop)
			m.listener.Close()
			m.wg.Wait()
			return
		}
	}
}

func (m *Manager) acceptLoop() {
	defer m.wg.Done()
	for {
		conn, err := m.listener.Accept()
		if err != nil {
			close(m.acceptCh)
			return
		}
		select {
		case m.acceptCh <- conn:
		case <-m.stop:
			conn.Close()
			return
		}
	}
}

func (m *Manager) runHostHandshake(conn net.Conn) {
	defer m.wg.Done()
	remoteAddr, _ := conn.RemoteAddr().(*net.TCPAddr)
	if remoteAddr != nil && !m.limiter.Allow(remoteAddr.IP) {
		m.log.Debugf("p2p: rejecting handshake from %v, rate limited", remoteAddr)
		conn.Close()
		return
	}

	result, err := handshake.Host(conn, m.id, m.GetPeerCandidateLookup())
	if err != nil {
		m.log.Debugf("p2p: host handshake failed: %v", err)
		conn.Close()
		return
	}
	m.handleNewConnection(peer.New(result, m.log, m.peerDisconnected))
}

// GetPeerCandidateLookup adapts get_peer_candidate to the
// handshake.CandidateLookup shape.
func (m *Manager) GetPeerCandidateLookup() handshake.CandidateLookup {
	return func(id wire.PeerId) (*auth.Authenticator, wire.PeerMetadata, bool) {
		c, ok := m.GetPeerCandidate(id)
		if !ok {
			return nil, wire.PeerMetadata{}, false
		}
		return c.Auth, c.Metadata, true
	}
}

// GetMetadata returns the local node's own advertised metadata.
func (m *Manager) GetMetadata() wire.PeerMetadata {
	m.metaMu.RLock()
	defer m.metaMu.RUnlock()
	return m.metadata
}

// SetMetadata updates the local node's own advertised metadata, called
// when NodeConfig changes (SetConf).
func (m *Manager) SetMetadata(meta wire.PeerMetadata) {
	m.metaMu.Lock()
	m.metadata = meta
	m.metaMu.Unlock()
}

// AddKnownPeer idempotently inserts candidate into the known-peers map.
func (m *Manager) AddKnownPeer(c *Candidate) {
	m.knownMu.Lock()
	defer m.knownMu.Unlock()
	if _, exists := m.known[c.Id]; !exists {
		m.known[c.Id] = c
	}
}

// RequestPresence pushes a PresenceRequest onto the discovery transport.
// It is non-blocking best-effort: a full outbound channel silently drops
// the request.
func (m *Manager) RequestPresence() {
	select {
	case m.internal <- func() {
		select {
		case m.transport.Outbound() <- wire.DiscoveryEvent{Tag: wire.TagPresenceRequest}:
		default:
			m.log.Debugf("p2p: dropped outbound presence request, channel full")
		}
	}:
	default:
		m.log.Debugf("p2p: dropped request_presence, internal queue full")
	}
}

// IsDiscovered reports whether id is currently in the discovered map.
func (m *Manager) IsDiscovered(id wire.PeerId) bool {
	m.discoveredMu.RLock()
	defer m.discoveredMu.RUnlock()
	_, ok := m.discovered[id]
	return ok
}

// IsConnected reports whether id is currently connected.
func (m *Manager) IsConnected(id wire.PeerId) bool {
	m.connectedMu.RLock()
	defer m.connectedMu.RUnlock()
	_, ok := m.connected[id]
	return ok
}

// GetDiscoveredPeers snapshots the metadata of every discovered peer.
func (m *Manager) GetDiscoveredPeers() []wire.PeerMetadata {
	m.discoveredMu.RLock()
	defer m.discoveredMu.RUnlock()
	out := make([]wire.PeerMetadata, 0, len(m.discovered))
	for _, c := range m.discovered {
		out = append(out, c.Metadata)
	}
	return out
}

// GetPeerCandidate resolves id to a Candidate, discovered first, then
// known.
func (m *Manager) GetPeerCandidate(id wire.PeerId) (*Candidate, bool) {
	m.discoveredMu.RLock()
	c, ok := m.discovered[id]
	m.discoveredMu.RUnlock()
	if ok {
		return c, true
	}
	m.knownMu.RLock()
	c, ok = m.known[id]
	m.knownMu.RUnlock()
	return c, ok
}

// GetPeer returns the live Peer for a connected id.
func (m *Manager) GetPeer(id wire.PeerId) (*peer.Peer, bool) {
	m.connectedMu.RLock()
	defer m.connectedMu.RUnlock()
	p, ok := m.connected[id]
	return p, ok
}

// ConnectToPeer dials each of a discovered candidate's addresses in
// insertion order, running the client handshake on the first successful
// TCP connect. It is safe to call concurrently from any goroutine; the
// node event loop delegates it to a spawned task rather than awaiting it
// inline.
func (m *Manager) ConnectToPeer(ctx context.Context, id wire.PeerId) (*peer.Peer, error) {
	if m.IsConnected(id) {
		return nil, ErrAlreadyConnected
	}
	m.discoveredMu.RLock()
	candidate, ok := m.discovered[id]
	m.discoveredMu.RUnlock()
	if !ok {
		return nil, ErrNotDiscovered
	}

	var lastErr error
	for _, addr := range candidate.Addrs {
		dialer := net.Dialer{Timeout: handshake.MessageTimeout * 2}
		conn, err := dialer.DialContext(ctx, "tcp", addr.String())
		if err != nil {
			lastErr = err
			continue
		}
		result, err := handshake.Client(conn, m.id, id, candidate.Metadata, candidate.Auth)
		if err != nil {
			lastErr = err
			conn.Close()
			continue
		}
		p := peer.New(result, m.log, m.peerDisconnected)
		m.handleNewConnection(p)
		return p, nil
	}
	if lastErr == nil {
		lastErr = ErrNoAddress
	}
	return nil, fmt.Errorf("%w: %v", ErrNoAddress, lastErr)
}

// handleInboundDiscovery implements handle_peer_discovered and
// handle_presence_request for a datagram off the wire. Self-loop
// suppression drops anything whose claimed id is the local node's own.
func (m *Manager) handleInboundDiscovery(in discovery.Inbound) {
	switch in.Event.Tag {
	case wire.TagPresenceRequest:
		m.handlePresenceRequest()
	case wire.TagPresenceResponse:
		m.handlePeerDiscovered(in.Event.Response.Meta)
	}
}

func (m *Manager) handlePresenceRequest() {
	resp := wire.DiscoveryEvent{Tag: wire.TagPresenceResponse, Response: wire.PresenceResponse{Meta: m.GetMetadata()}}
	select {
	case m.transport.Outbound() <- resp:
	default:
		m.log.Debugf("p2p: dropped presence response, channel full")
	}
}

func (m *Manager) handlePeerDiscovered(meta wire.PeerMetadata) {
	if meta.Id == m.id {
		return
	}
	if m.IsConnected(meta.Id) {
		return
	}
	if m.IsDiscovered(meta.Id) {
		m.discoveredMu.Lock()
		m.discovered[meta.Id].AddAddr(meta.Addr)
		m.discoveredMu.Unlock()
		return
	}

	m.knownMu.RLock()
	known, ok := m.known[meta.Id]
	m.knownMu.RUnlock()
	if !ok {
		return // unknown-id discoveries are silently ignored
	}

	candidate := &Candidate{
		Id:       meta.Id,
		Metadata: meta,
		Auth:     known.Auth,
	}
	candidate.AddAddr(meta.Addr)

	m.discoveredMu.Lock()
	m.discovered[meta.Id] = candidate
	m.discoveredMu.Unlock()

	m.knownMu.Lock()
	m.known[meta.Id].Metadata = meta
	m.knownMu.Unlock()

	m.emit(Event{Kind: EventPeerDiscovered, Metadata: meta})
}

func (m *Manager) handleNewConnection(p *peer.Peer) {
	m.connectedMu.Lock()
	m.connected[p.Id] = p
	m.connectedMu.Unlock()
	m.emit(Event{Kind: EventPeerConnected, Peer: p})
}

func (m *Manager) peerDisconnected(id wire.PeerId) {
	m.connectedMu.Lock()
	_, existed := m.connected[id]
	delete(m.connected, id)
	m.connectedMu.Unlock()
	if existed {
		m.emit(Event{Kind: EventPeerDisconnected, Id: id})
	}
}

// Stats reports byte counters for every currently connected peer.
func (m *Manager) Stats() map[wire.PeerId]PeerStats {
	m.connectedMu.RLock()
	defer m.connectedMu.RUnlock()
	out := make(map[wire.PeerId]PeerStats, len(m.connected))
	for id, p := range m.connected {
		rx, tx := p.Stats()
		out[id] = PeerStats{RxBytes: rx, TxBytes: tx, ObservedAt: time.Now()}
	}
	return out
}

// PeerStats are connection statistics for a given connected peer,
// mirroring device.PeerStats.
type PeerStats struct {
	RxBytes    uint64
	TxBytes    uint64
	ObservedAt time.Time
}
