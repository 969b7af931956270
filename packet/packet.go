// Package packet implements the typed packet registry: the minimum set of
// packets the proxy must understand by name, each tagged with the
// protocol phase and numeric ID it carries on the wire.
package packet

import (
	"bytes"
	"errors"
	"io"

	"github.com/novastosha/rustyproxy/frame"
)

// Phase is the protocol phase a packet ID is interpreted under. The same
// numeric ID means different packets in different phases; the codec alone
// never resolves this, only the phase known by the caller does.
type Phase int

const (
	PhaseHandshake Phase = iota
	PhaseLogin
	PhaseConfiguration
	PhasePlay
)

func (p Phase) String() string {
	switch p {
	case PhaseHandshake:
		return "Handshake"
	case PhaseLogin:
		return "Login"
	case PhaseConfiguration:
		return "Configuration"
	case PhasePlay:
		return "Play"
	default:
		return "Unknown"
	}
}

// ErrIDMismatch is returned when a RawPacket's ID doesn't match the packet
// type being decoded into. The frame has already been fully consumed by
// the time this is returned -- the caller simply discards it.
var ErrIDMismatch = errors.New("packet: id mismatch")

// expectID validates raw.ID against want, returning ErrIDMismatch if they
// differ. Every typed decoder in this package starts with this check.
func expectID(raw frame.RawPacket, want uint32) error {
	if raw.ID != want {
		return ErrIDMismatch
	}
	return nil
}

// encode runs writeBody against a fresh buffer and returns the result with
// the given id as an (id, payload) pair, ready for frame.WriteTo.
func encode(id uint32, writeBody func(w io.Writer) error) (uint32, []byte, error) {
	buf := new(bytes.Buffer)
	if err := writeBody(buf); err != nil {
		return 0, nil, err
	}
	return id, buf.Bytes(), nil
}
