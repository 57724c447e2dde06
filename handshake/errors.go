package handshake

import "fmt"

// Kind enumerates the ways a handshake attempt can fail.
type Kind int

const (
	KindTimeout Kind = iota
	KindDisconnect
	KindAuth
	KindMsg
	KindNotFound
	KindDup
	KindAddr
	KindRemoteFailure
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindDisconnect:
		return "disconnect"
	case KindAuth:
		return "auth"
	case KindMsg:
		return "unexpected message"
	case KindNotFound:
		return "not found"
	case KindDup:
		return "already connected"
	case KindAddr:
		return "no connectable address"
	case KindRemoteFailure:
		return "remote failure"
	default:
		return "unknown"
	}
}

// Error wraps a Kind with the wire error code, when the failure came from
// a peer's Failure message.
type Error struct {
	Kind Kind
	Code uint32
	Err  error
}

func (e *Error) Error() string {
	if e.Kind == KindRemoteFailure {
		return fmt.Sprintf("handshake: remote failure %d", e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("handshake: %s: %v", e.Kind, e.Err)
	}
	return "handshake: " + e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

func fail(kind Kind) *Error { return &Error{Kind: kind} }

func failWith(kind Kind, err error) *Error { return &Error{Kind: kind, Err: err} }

func failRemote(code uint32) *Error { return &Error{Kind: KindRemoteFailure, Code: code} }

// Wire error codes sent in a Connect.Failure frame.
const (
	ErrCodeTimeout  uint32 = 2001
	ErrCodeNotFound uint32 = 2002
	ErrCodeAuth     uint32 = 2003
)
