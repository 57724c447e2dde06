package node

import "errors"

// Sentinel errors a command/query handler may return; the FFI boundary
// stringifies whatever error comes back into a `{err,res}` wrapper
// rather than distinguishing kinds further.
var (
	ErrUnknownPeer   = errors.New("node: unknown peer")
	ErrNotConnected  = errors.New("node: peer not connected")
	ErrPairing       = errors.New("node: pairing secret construction failed")
	ErrNoSuchSession = errors.New("node: no such in-flight session")
	ErrNodeClosed    = errors.New("node: closed")
)
