// Command udpm is a small auxiliary CLI for exercising the discovery
// wire format by hand, outside a full node: joining the multicast group
// and printing received frames, or sending a single PresenceRequest or
// PresenceResponse. It is not part of the foreign-boundary API.
package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/lanpair/core/discovery"
	"github.com/lanpair/core/flags"
	"github.com/lanpair/core/logging"
	"github.com/lanpair/core/wire"
)

const udpmVersion = "0.1.0"

func main() {
	opts := flags.NewOptions()
	if err := flags.Parse(opts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if opts.ShowVersion {
		fmt.Printf("udpm v%s\n\nAuxiliary multicast discovery probe for the lanpair wire format.\n", udpmVersion)
		return
	}

	log := logging.New(logging.LevelInfo, "(udpm) ")
	group := net.JoinHostPort(opts.MulticastAddress, fmt.Sprint(opts.Port))

	transport, err := discovery.Open(fmt.Sprintf(":%d", opts.Port), group, nil, log)
	if err != nil {
		log.Errorf("open multicast transport: %v", err)
		os.Exit(1)
	}
	defer transport.Close()

	switch opts.Command {
	case "serve":
		serve(transport, log)
	case "send":
		send(transport, opts, log)
	}
}

func serve(transport *discovery.Transport, log logging.Logger) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	log.Info("listening for discovery frames, press ctrl-c to quit")
	for {
		select {
		case in, ok := <-transport.Inbound():
			if !ok {
				return
			}
			printInbound(in, log)
		case <-sig:
			return
		}
	}
}

func printInbound(in discovery.Inbound, log logging.Logger) {
	switch in.Event.Tag {
	case wire.TagPresenceRequest:
		log.Infof("PresenceRequest from %v", in.From)
	case wire.TagPresenceResponse:
		meta := in.Event.Response.Meta
		log.Infof("PresenceResponse from %v: name=%q type=%d id=%s addr=%s", in.From, meta.Name, meta.Type, meta.Id, meta.Addr)
	}
}

func send(transport *discovery.Transport, opts *flags.Options, log logging.Logger) {
	ev := wire.DiscoveryEvent{Tag: wire.TagPresenceRequest}
	if opts.MsgType == "response" {
		probeId, err := wire.NewPeerId(strings.Repeat("0", wire.PeerIdLen-len("udpmprobe")) + "udpmprobe")
		if err != nil {
			log.Errorf("build probe id: %v", err)
			return
		}
		ev = wire.DiscoveryEvent{
			Tag: wire.TagPresenceResponse,
			Response: wire.PresenceResponse{
				Meta: wire.PeerMetadata{
					Name: "udpm-probe",
					Type: wire.LinuxDevice,
					Id:   probeId,
					Addr: wire.Addr{IP: net.IPv4zero, Port: opts.Port},
				},
			},
		}
	}

	select {
	case transport.Outbound() <- ev:
		log.Infof("sent %s", opts.MsgType)
	default:
		log.Errorf("outbound channel full, message dropped")
	}
}
