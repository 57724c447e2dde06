// Package peer owns a single connected peer's TCP socket and exposes an
// in-memory duplex byte stream upward. The post-handshake stream is
// left plaintext; this is a plain byte shuttle, not an encrypted
// transport queue.
package peer

import (
	"io"
	"net"
	"sync"

	"github.com/lanpair/core/handshake"
	"github.com/lanpair/core/logging"
	"github.com/lanpair/core/wire"
)

const duplexBufSize = 64

// DisconnectFunc notifies the owner that a peer's connection ended. It is
// called at most once per Peer, and the Peer holds no other reference
// back to its owner once this fires.
type DisconnectFunc func(id wire.PeerId)

// Peer owns one connected peer's TCP socket. Stream is the duplex byte
// pipe a session codec attaches to.
type Peer struct {
	Id       wire.PeerId
	ConnType handshake.ConnType
	Metadata wire.PeerMetadata

	conn   net.Conn
	Stream io.ReadWriteCloser // upward-facing half of the duplex pipe

	upWriter   *io.PipeWriter // written by the socket->up copy loop
	downReader *io.PipeReader // read by the up->socket copy loop

	stats struct {
		mu      sync.Mutex
		rxBytes uint64
		txBytes uint64
	}

	once sync.Once
}

type duplexStream struct {
	io.Reader
	io.Writer
	closers []io.Closer
}

func (d *duplexStream) Close() error {
	var first error
	for _, c := range d.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// New wraps an already-authenticated connection (a handshake.Result) as a
// live Peer and starts its two copy loops. onDisconnect fires exactly
// once, after both loops have ended, with the manager already dropped
// from further reference by the Peer itself.
func New(result handshake.Result, log logging.Logger, onDisconnect DisconnectFunc) *Peer {
	upReader, upWriter := io.Pipe()     // socket -> up: written by recv loop, read by caller
	downReader, downWriter := io.Pipe() // up -> socket: written by caller, read by send loop

	p := &Peer{
		Id:         result.Id,
		ConnType:   result.ConnType,
		Metadata:   result.Metadata,
		conn:       result.Conn,
		upWriter:   upWriter,
		downReader: downReader,
		Stream: &duplexStream{
			Reader:  upReader,
			Writer:  downWriter,
			closers: []io.Closer{upReader, downWriter},
		},
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		p.shuttleFromSocket(log)
	}()
	go func() {
		defer wg.Done()
		p.shuttleToSocket(log)
	}()

	go func() {
		wg.Wait()
		p.conn.Close()
		p.once.Do(func() {
			if onDisconnect != nil {
				onDisconnect(p.Id)
			}
		})
	}()

	return p
}

func (p *Peer) shuttleFromSocket(log logging.Logger) {
	buf := make([]byte, duplexBufSize)
	for {
		n, err := p.conn.Read(buf)
		if n > 0 {
			p.addRx(uint64(n))
			if _, werr := p.upWriter.Write(buf[:n]); werr != nil {
				log.Debugf("peer %s: upward write stopped: %v", p.Id, werr)
				p.upWriter.CloseWithError(werr)
				return
			}
		}
		if err != nil {
			if err != io.EOF {
				log.Debugf("peer %s: socket read ended: %v", p.Id, err)
			}
			p.upWriter.CloseWithError(err)
			p.downReader.CloseWithError(err)
			return
		}
	}
}

func (p *Peer) shuttleToSocket(log logging.Logger) {
	buf := make([]byte, duplexBufSize)
	for {
		n, err := p.downReader.Read(buf)
		if n > 0 {
			if _, werr := p.conn.Write(buf[:n]); werr != nil {
				log.Debugf("peer %s: socket write stopped: %v", p.Id, werr)
				p.downReader.CloseWithError(werr)
				return
			}
			p.addTx(uint64(n))
		}
		if err != nil {
			if err != io.EOF {
				log.Debugf("peer %s: upward pipe read ended: %v", p.Id, err)
			}
			p.downReader.CloseWithError(err)
			return
		}
	}
}

func (p *Peer) addRx(n uint64) {
	p.stats.mu.Lock()
	p.stats.rxBytes += n
	p.stats.mu.Unlock()
}

func (p *Peer) addTx(n uint64) {
	p.stats.mu.Lock()
	p.stats.txBytes += n
	p.stats.mu.Unlock()
}

// Stats returns the peer's lifetime byte counters.
func (p *Peer) Stats() (rx, tx uint64) {
	p.stats.mu.Lock()
	defer p.stats.mu.Unlock()
	return p.stats.rxBytes, p.stats.txBytes
}

// Close tears down the socket and both pipe halves.
func (p *Peer) Close() error {
	err := p.conn.Close()
	p.upWriter.Close()
	p.downReader.Close()
	return err
}
