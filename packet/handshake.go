package packet

import (
	"io"

	"github.com/novastosha/rustyproxy/frame"
	"github.com/novastosha/rustyproxy/wire"
)

// HandshakeID is the numeric ID of the Handshake packet in every phase
// (it is only ever sent in the Handshake phase).
const HandshakeID uint32 = 0x00

// NextState is the value of a Handshake's next-state field.
type NextState uint32

const (
	NextStateStatus NextState = 1
	NextStateLogin  NextState = 2
)

// Handshake is always the first packet on a new connection: it carries the
// protocol version the client wants to speak, the address/port it dialed
// (used for virtual-host routing), and which phase to move to next.
type Handshake struct {
	ProtocolVersion uint32
	ServerAddress   string
	Port            uint16
	NextState       NextState
}

// ProxyHandshakeProtocolVersion is the protocol version the proxy presents
// to backends when it re-handshakes on the player's behalf (1.21.4).
const ProxyHandshakeProtocolVersion uint32 = 769

// WriteTo serializes the Handshake body (without the id/length framing).
func (h Handshake) WriteTo(w io.Writer) error {
	if err := wire.WriteVarInt(w, h.ProtocolVersion); err != nil {
		return err
	}
	if err := wire.WriteString(w, h.ServerAddress); err != nil {
		return err
	}
	if err := wire.WriteUnsignedShort(w, h.Port); err != nil {
		return err
	}
	return wire.WriteVarInt(w, uint32(h.NextState))
}

// Encode turns h into a RawPacket-shaped (id, payload) pair for frame.WriteTo.
func (h Handshake) Encode() (uint32, []byte, error) {
	return encode(HandshakeID, h.WriteTo)
}

// DecodeHandshake parses a Handshake out of a decoded frame.
func DecodeHandshake(raw frame.RawPacket) (Handshake, error) {
	if err := expectID(raw, HandshakeID); err != nil {
		return Handshake{}, err
	}
	r := wire.NewReader(raw.Data)
	protocolVersion, err := wire.ReadVarInt(r)
	if err != nil {
		return Handshake{}, err
	}
	addr, err := wire.ReadString(r)
	if err != nil {
		return Handshake{}, err
	}
	port, err := wire.ReadUnsignedShort(r)
	if err != nil {
		return Handshake{}, err
	}
	nextState, err := wire.ReadVarInt(r)
	if err != nil {
		return Handshake{}, err
	}
	return Handshake{
		ProtocolVersion: protocolVersion,
		ServerAddress:   addr,
		Port:            port,
		NextState:       NextState(nextState),
	}, nil
}
