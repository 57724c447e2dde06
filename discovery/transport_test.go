package discovery

import (
	"strings"
	"testing"
	"time"

	"github.com/lanpair/core/logging"
	"github.com/lanpair/core/wire"
)

func testId(t *testing.T, fill string) wire.PeerId {
	t.Helper()
	id, err := wire.NewPeerId(strings.Repeat(fill, 40))
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func TestTransportSendReceiveRoundTrip(t *testing.T) {
	log := logging.New(logging.LevelSilent, "")

	a, err := Open("0.0.0.0:0", DefaultGroup, nil, log)
	if err != nil {
		t.Skipf("multicast unavailable in this environment: %v", err)
	}
	defer a.Close()

	b, err := Open("0.0.0.0:0", DefaultGroup, nil, log)
	if err != nil {
		t.Skipf("multicast unavailable in this environment: %v", err)
	}
	defer b.Close()

	id := testId(t, "a")
	ev := wire.DiscoveryEvent{
		Tag: wire.TagPresenceResponse,
		Response: wire.PresenceResponse{
			Meta: wire.PeerMetadata{Id: id, Name: "sender"},
		},
	}

	select {
	case a.Outbound() <- ev:
	case <-time.After(time.Second):
		t.Fatal("timed out queueing outbound event")
	}

	select {
	case in := <-b.Inbound():
		if in.Event.Tag != wire.TagPresenceResponse || in.Event.Response.Meta.Id != id {
			t.Errorf("got %+v", in.Event)
		}
		if in.From == nil {
			t.Error("expected a non-nil source address")
		}
	case <-time.After(5 * time.Second):
		t.Skip("no multicast datagram observed; likely no multicast route in this environment")
	}
}

func TestOpenRejectsNonMulticastGroup(t *testing.T) {
	log := logging.New(logging.LevelSilent, "")
	if _, err := Open("0.0.0.0:0", "10.0.0.1:50692", nil, log); err == nil {
		t.Error("expected an error for a non-multicast group address")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	log := logging.New(logging.LevelSilent, "")
	tr, err := Open("0.0.0.0:0", DefaultGroup, nil, log)
	if err != nil {
		t.Skipf("multicast unavailable in this environment: %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
}
