package wire

import (
	"encoding/json"
	"net"
	"strings"
	"testing"
)

func TestNewPeerId(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"valid", strings.Repeat("a", 40), false},
		{"mixed case and digits", strings.Repeat("a1B2", 10), false},
		{"too short", strings.Repeat("a", 39), true},
		{"too long", strings.Repeat("a", 41), true},
		{"bad character", strings.Repeat("a", 39) + "-", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewPeerId(tc.in)
			if (err != nil) != tc.wantErr {
				t.Errorf("NewPeerId(%q) err = %v, wantErr %v", tc.in, err, tc.wantErr)
			}
		})
	}
}

func TestParseDeviceType(t *testing.T) {
	for _, tag := range []uint16{6, 7, 8, 9, 12, 15} {
		if _, err := ParseDeviceType(tag); err != nil {
			t.Errorf("ParseDeviceType(%d): %v", tag, err)
		}
	}
	if _, err := ParseDeviceType(0); err != ErrUnknownDeviceType {
		t.Errorf("ParseDeviceType(0) err = %v, want ErrUnknownDeviceType", err)
	}
}

func TestAddrRoundTrip(t *testing.T) {
	tests := []struct {
		ip   string
		port uint16
	}{
		{"192.168.1.5", 50692},
		{"::1", 1234},
	}
	for _, tc := range tests {
		addr := Addr{IP: net.ParseIP(tc.ip), Port: tc.port}
		parsed, err := ParseAddr(addr.String())
		if err != nil {
			t.Fatalf("ParseAddr(%q): %v", addr.String(), err)
		}
		if !parsed.IP.Equal(addr.IP) || parsed.Port != addr.Port {
			t.Errorf("round trip mismatch: got %+v, want %+v", parsed, addr)
		}
	}
}

func TestAddrJSON(t *testing.T) {
	addr := Addr{IP: net.ParseIP("10.0.0.1"), Port: 9000}
	data, err := json.Marshal(addr)
	if err != nil {
		t.Fatal(err)
	}
	var out Addr
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if !out.IP.Equal(addr.IP) || out.Port != addr.Port {
		t.Errorf("got %+v, want %+v", out, addr)
	}
}

func TestParseAddrRejectsGarbage(t *testing.T) {
	for _, s := range []string{"not-an-addr", "1.2.3.4", "1.2.3.4:notaport"} {
		if _, err := ParseAddr(s); err != ErrBadAddress {
			t.Errorf("ParseAddr(%q) err = %v, want ErrBadAddress", s, err)
		}
	}
}
