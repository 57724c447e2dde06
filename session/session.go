// Package session attaches the newline-delimited JSON control codec to a
// connected peer's duplex stream, the same layering device/uapi puts a
// line-oriented config protocol over a UNIX socket's plain byte stream.
// One Codec multiplexes every in-flight session for a given peer over
// that peer's single stream, tagged by the numeric session id each
// wire.Session line carries.
package session

import (
	"io"
	"sync"

	"github.com/lanpair/core/peer"
	"github.com/lanpair/core/wire"
)

// Codec frames App Control request/response lines over one peer's
// duplex stream. Multiple session ids share the same underlying Peer.
type Codec struct {
	Peer *peer.Peer

	encMu sync.Mutex
	enc   *wire.SessionEncoder
	dec   *wire.SessionDecoder
}

// New wraps p's Stream with the session line codec.
func New(p *peer.Peer) *Codec {
	return &Codec{
		Peer: p,
		enc:  wire.NewSessionEncoder(p.Stream),
		dec:  wire.NewSessionDecoder(p.Stream),
	}
}

// SendRequest writes a control request line under session id.
func (c *Codec) SendRequest(id uint64, req wire.CtlRequest) error {
	c.encMu.Lock()
	defer c.encMu.Unlock()
	return c.enc.Encode(wire.Session{Id: id, Ctl: wire.Ctl{IsRequest: true, Request: req}})
}

// SendResponse writes a control response line under session id, e.g. in
// answer to an inbound LaunchUri request.
func (c *Codec) SendResponse(id uint64, resp wire.CtlResponse) error {
	c.encMu.Lock()
	defer c.encMu.Unlock()
	return c.enc.Encode(wire.Session{Id: id, Ctl: wire.Ctl{IsRequest: false, Response: resp}})
}

// ReadNext blocks for the next line on the stream. It returns io.EOF
// when the peer's stream has closed.
func (c *Codec) ReadNext() (wire.Session, error) {
	return c.dec.Decode()
}

// Close tears down the underlying peer connection.
func (c *Codec) Close() error {
	return c.Peer.Close()
}

// Handler reacts to inbound session messages for as long as the
// underlying stream stays open. OnRequest is called for inbound control
// requests (e.g. to launch a URI locally); OnResponse for responses to
// requests this side originated.
type Handler struct {
	OnRequest  func(c *Codec, id uint64, req wire.CtlRequest)
	OnResponse func(c *Codec, id uint64, resp wire.CtlResponse)
	OnClose    func(c *Codec, err error)
}

// Run reads from c until the stream closes or errors, dispatching each
// decoded line to the appropriate Handler callback. Callers typically
// invoke it in its own goroutine, one per connected Peer.
func (h *Handler) Run(c *Codec) {
	for {
		msg, err := c.ReadNext()
		if err != nil {
			if h.OnClose != nil {
				if err == io.EOF {
					err = nil
				}
				h.OnClose(c, err)
			}
			return
		}
		if msg.Ctl.IsRequest {
			if h.OnRequest != nil {
				h.OnRequest(c, msg.Id, msg.Ctl.Request)
			}
		} else {
			if h.OnResponse != nil {
				h.OnResponse(c, msg.Id, msg.Ctl.Response)
			}
		}
	}
}
