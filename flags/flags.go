package flags

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
)

func Parse(opts *Options) error {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <serve|send>\n", os.Args[0])
		pflag.PrintDefaults()
	}

	pflag.StringVar(&opts.MulticastAddress, "multicast-address", opts.MulticastAddress, "Discovery multicast group address")
	port := pflag.Uint16("port", opts.Port, "Discovery multicast group port")
	pflag.StringVar(&opts.MsgType, "msg-type", opts.MsgType, "Message type to send: request or response")
	pflag.BoolVarP(&opts.ShowVersion, "version", "v", false, "Print the version number and exit")

	pflag.Parse()
	opts.Port = *port

	if opts.ShowVersion {
		return nil
	}

	return setCommand(opts)
}

func setCommand(opts *Options) error {
	if pflag.NArg() != 1 {
		return fmt.Errorf("must pass exactly one of \"serve\" or \"send\", but got %d arguments", pflag.NArg())
	}
	cmd := pflag.Arg(0)
	if cmd != "serve" && cmd != "send" {
		return fmt.Errorf("unknown command %q, expected \"serve\" or \"send\"", cmd)
	}
	opts.Command = cmd
	return nil
}
