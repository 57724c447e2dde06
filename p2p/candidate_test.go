package p2p

import (
	"net"
	"strings"
	"testing"

	"github.com/lanpair/core/wire"
)

func TestCandidateAddAddrDeduplicates(t *testing.T) {
	id, err := wire.NewPeerId(strings.Repeat("e", 40))
	if err != nil {
		t.Fatal(err)
	}
	c := &Candidate{Id: id}
	a1 := wire.Addr{IP: net.ParseIP("192.168.1.5"), Port: 50700}
	a2 := wire.Addr{IP: net.ParseIP("192.168.1.6"), Port: 50700}

	c.AddAddr(a1)
	c.AddAddr(a1)
	c.AddAddr(a2)
	c.AddAddr(a1)

	if len(c.Addrs) != 2 {
		t.Fatalf("len(Addrs) = %d, want 2: %+v", len(c.Addrs), c.Addrs)
	}
	if c.Addrs[0].String() != a1.String() || c.Addrs[1].String() != a2.String() {
		t.Errorf("Addrs = %+v, want insertion order [a1, a2]", c.Addrs)
	}
}
