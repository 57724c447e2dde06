package p2p

import (
	"github.com/lanpair/core/auth"
	"github.com/lanpair/core/wire"
)

// Candidate is a peer we might connect to: its metadata, the set of
// addresses we have observed it at (via discovery), in observation
// order, and the TOTP authenticator for its pairing secret.
type Candidate struct {
	Id       wire.PeerId
	Metadata wire.PeerMetadata
	Addrs    []wire.Addr
	Auth     *auth.Authenticator
}

// AddAddr appends addr to the candidate's address list if it is not
// already present, preserving observation order so dial attempts try
// the earliest-seen address first.
func (c *Candidate) AddAddr(addr wire.Addr) {
	for _, existing := range c.Addrs {
		if existing.String() == addr.String() {
			return
		}
	}
	c.Addrs = append(c.Addrs, addr)
}
