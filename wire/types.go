package wire

import (
	"encoding/json"
	"errors"
	"net"
	"regexp"
	"strconv"
)

// PeerIdLen is the fixed length of a PeerId's ASCII encoding.
const PeerIdLen = 40

var peerIdPattern = regexp.MustCompile(`^[a-zA-Z0-9]{40}$`)

// PeerId is a stable, 40-character alphanumeric device identifier derived
// from the peer's long-lived certificate. The zero value is not a valid id.
type PeerId string

// ErrBadPeerId is returned when a candidate string fails validation.
var ErrBadPeerId = errors.New("wire: invalid peer id")

// NewPeerId validates s and returns it as a PeerId.
func NewPeerId(s string) (PeerId, error) {
	if !peerIdPattern.MatchString(s) {
		return "", ErrBadPeerId
	}
	return PeerId(s), nil
}

// String implements fmt.Stringer.
func (p PeerId) String() string { return string(p) }

// DeviceType enumerates the known device kinds, persisted as a 16-bit tag.
type DeviceType uint16

const (
	AppleiPhone       DeviceType = 6
	AppleiPad         DeviceType = 7
	AndroidDevice     DeviceType = 8
	Windows10Desktop  DeviceType = 9
	LinuxDevice       DeviceType = 12
	WindowsLaptop     DeviceType = 15
)

// ErrUnknownDeviceType is returned when parsing an unrecognised tag.
var ErrUnknownDeviceType = errors.New("wire: unknown device type")

// ParseDeviceType validates a raw 16-bit tag against the known set.
func ParseDeviceType(tag uint16) (DeviceType, error) {
	switch DeviceType(tag) {
	case AppleiPhone, AppleiPad, AndroidDevice, Windows10Desktop, LinuxDevice, WindowsLaptop:
		return DeviceType(tag), nil
	default:
		return 0, ErrUnknownDeviceType
	}
}

// Addr is an ip:port pair formatted the way the wire format expects:
// IPv4 dotted, or [v6]:port for IPv6.
type Addr struct {
	IP   net.IP
	Port uint16
}

// String renders the address in `host:port` wire form.
func (a Addr) String() string {
	return net.JoinHostPort(a.IP.String(), strconv.Itoa(int(a.Port)))
}

// ErrBadAddress is returned when parsing a malformed address string.
var ErrBadAddress = errors.New("wire: invalid address")

// ParseAddr parses the wire `ip:port` textual form back into an Addr.
func ParseAddr(s string) (Addr, error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return Addr{}, ErrBadAddress
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return Addr{}, ErrBadAddress
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return Addr{}, ErrBadAddress
	}
	return Addr{IP: ip, Port: uint16(port)}, nil
}

// MarshalJSON renders the address as its `ip:port` wire string.
func (a Addr) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON parses the `ip:port` wire string back into an Addr.
func (a *Addr) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseAddr(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// PeerMetadata describes a peer as advertised over discovery or stored in
// configuration: its display name, device type, stable id, and the TCP
// address it listens for handshakes on.
type PeerMetadata struct {
	Name string     `json:"name"`
	Type DeviceType `json:"type"`
	Id   PeerId     `json:"id"`
	Addr Addr       `json:"addr"`
}
