// Package wire implements the length-framed JSON protocol spoken between the
// agent on the target host and the bridge on the controller.
//
// Each message on the wire is a 4-byte big-endian length prefix followed by
// that many bytes of UTF-8 JSON. Frames are atomic: a reader must never act
// on a partially received payload, which is why ReadBody only returns once
// the full body has arrived.
//
// Two frame kinds exist:
//
//	{"type": "data", "processes": {"<pid>": {...}}}
//	{"type": "log",  "message": "..."}
package wire

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/soraxas/auto-portforward/internal/model"
)

// Frame kinds as they appear in the JSON "type" field.
const (
	KindData = "data"
	KindLog  = "log"
)

// Frame is one decoded message: either a log line from the agent or a full
// process snapshot. Exactly one of Message/Processes is meaningful,
// discriminated by Kind.
type Frame struct {
	Kind      string
	Message   string
	Processes model.Snapshot
}

// DecodeError marks a malformed frame body. The bridge reader drops the
// frame and keeps the connection open when it sees one of these; any other
// error tears the connection down.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode frame: %s: %v", e.Reason, e.Err)
	}
	return "decode frame: " + e.Reason
}

func (e *DecodeError) Unwrap() error { return e.Err }

// envelope is the wire-level JSON shape shared by both frame kinds.
type envelope struct {
	Type      string         `json:"type"`
	Message   string         `json:"message,omitempty"`
	Processes model.Snapshot `json:"processes,omitempty"`
}

// Encode renders a snapshot as a complete data frame, length prefix
// included. Port lists are canonicalized before serialization so the bytes
// on the wire are already in comparable form.
func Encode(s model.Snapshot) ([]byte, error) {
	s.Canonicalize()
	return marshalFrame(envelope{Type: KindData, Processes: s})
}

// EncodeLog renders a log message as a complete frame, length prefix
// included.
func EncodeLog(message string) ([]byte, error) {
	return marshalFrame(envelope{Type: KindLog, Message: message})
}

func marshalFrame(env envelope) ([]byte, error) {
	body, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal frame: %w", err)
	}
	buf := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(buf, uint32(len(body)))
	copy(buf[4:], body)
	return buf, nil
}

// Decode parses one complete frame body (length prefix already stripped).
// Malformed JSON or an unrecognized type yields a *DecodeError.
func Decode(body []byte) (Frame, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Frame{}, &DecodeError{Reason: "malformed JSON", Err: err}
	}
	switch env.Type {
	case KindLog:
		return Frame{Kind: KindLog, Message: env.Message}, nil
	case KindData:
		snap := env.Processes
		if snap == nil {
			snap = model.Snapshot{}
		}
		snap.Canonicalize()
		return Frame{Kind: KindData, Processes: snap}, nil
	default:
		return Frame{}, &DecodeError{Reason: fmt.Sprintf("unrecognized frame type %q", env.Type)}
	}
}

// ReadBody reads one frame body from r: the 4-byte length prefix followed by
// exactly that many body bytes. io.EOF on the very first prefix byte means
// the peer closed cleanly and is returned as-is; a short read anywhere else
// is an error.
func ReadBody(r io.Reader) ([]byte, error) {
	var prefix [4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint32(prefix[:])
	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("read frame body (%d bytes): %w", length, err)
	}
	return body, nil
}

// WriteFrame writes an already-encoded frame to w in one call.
func WriteFrame(w io.Writer, frame []byte) error {
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}
