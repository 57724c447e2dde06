package wire

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// MaxSessionLineSize bounds a single session JSON line, guarding the line
// splitter against a misbehaving or hostile peer.
const MaxSessionLineSize = 64 * 1024

// CtlKind names an application-control request kind. LaunchUri is the
// only kind defined today; the type exists so a second kind can be added
// without reshaping the wire format.
type CtlKind string

const (
	CtlLaunchUri CtlKind = "LaunchUri"
)

// CtlRequest is the request half of a session's control payload.
type CtlRequest struct {
	Kind    CtlKind
	Payload string // the URI, for LaunchUri
}

// MarshalJSON renders the request as a single-key tagged object, e.g.
// {"LaunchUri":"https://example.com"}.
func (r CtlRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{string(r.Kind): r.Payload})
}

// UnmarshalJSON parses the single-key tagged object back into a CtlRequest.
func (r *CtlRequest) UnmarshalJSON(data []byte) error {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if len(m) != 1 {
		return errors.New("wire: ctl request must have exactly one tag")
	}
	for k, v := range m {
		r.Kind = CtlKind(k)
		r.Payload = v
	}
	return nil
}

// CtlStatus is the outcome tag of a session's control response.
type CtlStatus string

const (
	StatusSuccess CtlStatus = "Success"
	StatusCancel  CtlStatus = "Cancel"
	StatusWaiting CtlStatus = "Waiting"
	StatusError   CtlStatus = "Error"
)

// CtlUnknownErr is the error code for an inbound session that cannot be
// routed to an app handler. The node package does not send it; it only
// logs requests of an unhandled kind.
const CtlUnknownErr uint32 = 1

// CtlResponse is the response half of a session's control payload.
type CtlResponse struct {
	Status CtlStatus
	Code   uint32 // valid iff Status == StatusError
}

// MarshalJSON renders plain statuses as a bare string and StatusError as
// {"Error": <code>}, matching the bridge's tagged-union convention.
func (r CtlResponse) MarshalJSON() ([]byte, error) {
	if r.Status == StatusError {
		return json.Marshal(map[string]uint32{"Error": r.Code})
	}
	return json.Marshal(string(r.Status))
}

// UnmarshalJSON accepts either a bare status string or {"Error": <code>}.
func (r *CtlResponse) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		r.Status = CtlStatus(s)
		return nil
	}
	var m map[string]uint32
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("wire: invalid ctl response: %w", err)
	}
	code, ok := m["Error"]
	if !ok {
		return errors.New("wire: ctl response object must be {\"Error\": code}")
	}
	r.Status = StatusError
	r.Code = code
	return nil
}

// Ctl is the tagged union carried by a Session: exactly one of Request or
// Response is populated, selected by IsRequest.
type Ctl struct {
	IsRequest bool
	Request   CtlRequest
	Response  CtlResponse
}

// MarshalJSON renders {"Request": ...} or {"Response": ...}.
func (c Ctl) MarshalJSON() ([]byte, error) {
	if c.IsRequest {
		return json.Marshal(struct {
			Request CtlRequest `json:"Request"`
		}{c.Request})
	}
	return json.Marshal(struct {
		Response CtlResponse `json:"Response"`
	}{c.Response})
}

// UnmarshalJSON parses whichever of Request/Response is present.
func (c *Ctl) UnmarshalJSON(data []byte) error {
	var shape struct {
		Request  *CtlRequest  `json:"Request"`
		Response *CtlResponse `json:"Response"`
	}
	if err := json.Unmarshal(data, &shape); err != nil {
		return err
	}
	switch {
	case shape.Request != nil:
		c.IsRequest = true
		c.Request = *shape.Request
	case shape.Response != nil:
		c.IsRequest = false
		c.Response = *shape.Response
	default:
		return errors.New("wire: ctl must have Request or Response")
	}
	return nil
}

// Session is one request/response exchange riding a connected peer's byte
// stream, identified by a node-local monotonic id.
type Session struct {
	Id  uint64 `json:"id"`
	Ctl Ctl    `json:"ctl"`
}

// SessionEncoder writes Session values as one JSON object per line.
type SessionEncoder struct {
	w io.Writer
}

// NewSessionEncoder wraps w.
func NewSessionEncoder(w io.Writer) *SessionEncoder {
	return &SessionEncoder{w: w}
}

// Encode marshals s and writes it followed by a newline.
func (e *SessionEncoder) Encode(s Session) error {
	body, err := json.Marshal(s)
	if err != nil {
		return err
	}
	body = append(body, '\n')
	_, err = e.w.Write(body)
	return err
}

// SessionDecoder reads newline-delimited Session JSON from a stream.
type SessionDecoder struct {
	scanner *bufio.Scanner
}

// NewSessionDecoder wraps r, bounding each line to MaxSessionLineSize.
func NewSessionDecoder(r io.Reader) *SessionDecoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 4096), MaxSessionLineSize)
	return &SessionDecoder{scanner: scanner}
}

// Decode reads the next complete line and parses it as a Session. It
// returns io.EOF when the stream is exhausted.
func (d *SessionDecoder) Decode() (Session, error) {
	if !d.scanner.Scan() {
		if err := d.scanner.Err(); err != nil {
			return Session{}, err
		}
		return Session{}, io.EOF
	}
	var s Session
	if err := json.Unmarshal(d.scanner.Bytes(), &s); err != nil {
		return Session{}, fmt.Errorf("wire: session parse error: %w", err)
	}
	return s, nil
}
