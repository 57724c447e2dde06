package flags

// Options holds the parsed command-line flags for the udpm auxiliary
// discovery CLI, used for manual testing of the multicast wire format
// outside a full node.
type Options struct {
	MulticastAddress string
	Port             uint16
	MsgType          string // "request" or "response", used by the send subcommand
	ShowVersion      bool

	Command string // "serve" or "send"
}

func NewOptions() *Options {
	return &Options{
		MulticastAddress: "239.255.42.98",
		Port:             50692,
		MsgType:          "request",
	}
}
