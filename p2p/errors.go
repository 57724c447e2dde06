package p2p

import "errors"

// Errors returned by Manager operations.
var (
	ErrAlreadyConnected = errors.New("p2p: already connected")
	ErrNotDiscovered    = errors.New("p2p: peer not discovered")
	ErrNoAddress        = errors.New("p2p: no connectable address")
)
