// Package discovery joins a UDP multicast group and exchanges presence
// frames with other peers on the LAN.
package discovery

import (
	"errors"
	"net"
	"syscall"

	"golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"

	"github.com/lanpair/core/logging"
	"github.com/lanpair/core/wire"
)

// DefaultGroup is the well-known multicast group address companion
// nodes discover each other on.
const DefaultGroup = "239.255.42.98:50692"

// Inbound pairs a decoded discovery event with the UDP source address it
// arrived from.
type Inbound struct {
	Event wire.DiscoveryEvent
	From  *net.UDPAddr
}

// Transport owns the multicast UDP socket. Outbound carries events the
// caller wants broadcast to the group; Inbound yields events received
// from the group, not yet filtered for self-origin (callers must drop
// events whose PeerId equals their own).
type Transport struct {
	conn      *net.UDPConn
	pconn     *ipv4.PacketConn
	group     *net.UDPAddr
	log       logging.Logger
	outbound  chan wire.DiscoveryEvent
	inbound   chan Inbound
	closeOnce chan struct{}
}

// Open binds localAddr, joins group on iface (nil selects the default
// multicast-capable interface), and starts the receive loop.
func Open(localAddr string, group string, iface *net.Interface, log logging.Logger) (*Transport, error) {
	groupAddr, err := net.ResolveUDPAddr("udp4", group)
	if err != nil {
		return nil, err
	}
	if !groupAddr.IP.IsMulticast() {
		return nil, errors.New("discovery: group address is not multicast")
	}

	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}
	packetConn, err := lc.ListenPacket(nil, "udp4", localAddr)
	if err != nil {
		return nil, err
	}
	udpConn := packetConn.(*net.UDPConn)

	pconn := ipv4.NewPacketConn(udpConn)
	if err := pconn.JoinGroup(iface, groupAddr); err != nil {
		udpConn.Close()
		return nil, err
	}
	if err := pconn.SetMulticastLoopback(true); err != nil {
		udpConn.Close()
		return nil, err
	}

	t := &Transport{
		conn:      udpConn,
		pconn:     pconn,
		group:     groupAddr,
		log:       log,
		outbound:  make(chan wire.DiscoveryEvent, 8),
		inbound:   make(chan Inbound, 32),
		closeOnce: make(chan struct{}),
	}
	go t.sendLoop()
	go t.receiveLoop()
	return t, nil
}

// Outbound returns the channel used to push events for multicast
// broadcast. Sends are non-blocking best-effort from the caller's
// perspective: the channel has capacity, and a full channel means the
// caller should treat request_presence as dropped rather than block.
func (t *Transport) Outbound() chan<- wire.DiscoveryEvent { return t.outbound }

// Inbound returns the channel of decoded events paired with their UDP
// source address.
func (t *Transport) Inbound() <-chan Inbound { return t.inbound }

func (t *Transport) sendLoop() {
	for {
		select {
		case ev, ok := <-t.outbound:
			if !ok {
				return
			}
			payload, err := wire.EncodeDiscovery(ev)
			if err != nil {
				t.log.Errorf("discovery: encode: %v", err)
				continue
			}
			frame, err := wire.Encode(wire.MsgDiscovery, payload)
			if err != nil {
				t.log.Errorf("discovery: frame: %v", err)
				continue
			}
			if _, err := t.conn.WriteToUDP(frame, t.group); err != nil {
				t.log.Errorf("discovery: send: %v", err)
			}
		case <-t.closeOnce:
			return
		}
	}
}

func (t *Transport) receiveLoop() {
	buf := make([]byte, 2048)
	for {
		n, addr, err := t.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-t.closeOnce:
			default:
				t.log.Errorf("discovery: receive: %v", err)
			}
			close(t.inbound)
			return
		}
		msgType, payload, _, err := wire.Decode(buf[:n])
		if err != nil {
			t.log.Debugf("discovery: dropped malformed frame from %v: %v", addr, err)
			continue
		}
		if msgType != wire.MsgDiscovery {
			t.log.Debugf("discovery: dropped frame with wrong type from %v", addr)
			continue
		}
		ev, err := wire.DecodeDiscovery(payload)
		if err != nil {
			t.log.Debugf("discovery: dropped unparsable discovery payload from %v: %v", addr, err)
			continue
		}
		select {
		case t.inbound <- Inbound{Event: ev, From: addr}:
		case <-t.closeOnce:
			return
		}
	}
}

// Close tears down the multicast socket and stops both loops.
func (t *Transport) Close() error {
	select {
	case <-t.closeOnce:
		return nil
	default:
		close(t.closeOnce)
	}
	close(t.outbound)
	return t.conn.Close()
}
