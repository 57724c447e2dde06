package wire

import (
	"net"
	"strings"
	"testing"
)

func testPeerId(t *testing.T) PeerId {
	t.Helper()
	id, err := NewPeerId(strings.Repeat("a", 40))
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func TestDiscoveryRoundTrip(t *testing.T) {
	id := testPeerId(t)
	tests := []struct {
		name string
		ev   DiscoveryEvent
	}{
		{"presence request", DiscoveryEvent{Tag: TagPresenceRequest}},
		{"presence response", DiscoveryEvent{
			Tag: TagPresenceResponse,
			Response: PresenceResponse{Meta: PeerMetadata{
				Name: "kitchen-tablet",
				Type: AndroidDevice,
				Id:   id,
				Addr: Addr{IP: net.ParseIP("192.168.1.20"), Port: 50700},
			}},
		}},
		{"empty name", DiscoveryEvent{
			Tag: TagPresenceResponse,
			Response: PresenceResponse{Meta: PeerMetadata{
				Name: "",
				Type: LinuxDevice,
				Id:   id,
				Addr: Addr{IP: net.ParseIP("::1"), Port: 1},
			}},
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			payload, err := EncodeDiscovery(tc.ev)
			if err != nil {
				t.Fatalf("EncodeDiscovery: %v", err)
			}
			got, err := DecodeDiscovery(payload)
			if err != nil {
				t.Fatalf("DecodeDiscovery: %v", err)
			}
			if got.Tag != tc.ev.Tag {
				t.Errorf("Tag = %v, want %v", got.Tag, tc.ev.Tag)
			}
			if got.Tag == TagPresenceResponse {
				if got.Response.Meta.Name != tc.ev.Response.Meta.Name ||
					got.Response.Meta.Type != tc.ev.Response.Meta.Type ||
					got.Response.Meta.Id != tc.ev.Response.Meta.Id ||
					got.Response.Meta.Addr.String() != tc.ev.Response.Meta.Addr.String() {
					t.Errorf("got %+v, want %+v", got.Response.Meta, tc.ev.Response.Meta)
				}
			}
		})
	}
}

func TestDecodeDiscoveryRejectsMalformed(t *testing.T) {
	id := testPeerId(t)
	good, err := EncodeDiscovery(DiscoveryEvent{
		Tag: TagPresenceResponse,
		Response: PresenceResponse{Meta: PeerMetadata{
			Name: "phone", Type: AppleiPhone, Id: id,
			Addr: Addr{IP: net.ParseIP("10.0.0.1"), Port: 80},
		}},
	})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		payload []byte
	}{
		{"empty", nil},
		{"unknown tag", []byte{9}},
		{"truncated device type", []byte{byte(TagPresenceResponse), 0}},
		{"truncated mid-message", good[:len(good)-5]},
		{"trailing garbage", append(append([]byte{}, good...), 0xFF)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeDiscovery(tc.payload); err == nil {
				t.Errorf("DecodeDiscovery(%v) succeeded, want error", tc.payload)
			}
		})
	}
}

func TestEncodeDiscoveryRejectsBadPeerId(t *testing.T) {
	_, err := EncodeDiscovery(DiscoveryEvent{
		Tag: TagPresenceResponse,
		Response: PresenceResponse{Meta: PeerMetadata{
			Id: PeerId("too-short"),
		}},
	})
	if err != ErrBadPeerId {
		t.Errorf("err = %v, want ErrBadPeerId", err)
	}
}
