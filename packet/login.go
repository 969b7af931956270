package packet

import (
	"io"

	"github.com/google/uuid"

	"github.com/novastosha/rustyproxy/frame"
	"github.com/novastosha/rustyproxy/wire"
)

const (
	// LoginStartID is proxy-bound: client -> proxy, Login phase.
	LoginStartID uint32 = 0x00
	// LoginDisconnectID is player-bound: proxy/backend -> client, Login phase.
	LoginDisconnectID uint32 = 0x00
	// LoginSuccessID is player-bound: backend -> proxy, Login phase.
	LoginSuccessID uint32 = 0x02
)

// LoginStart carries the username and UUID a client presents at login.
// PlayerInfo (proxy package) is populated straight from this.
type LoginStart struct {
	Username string
	UUID     uuid.UUID
}

func (l LoginStart) WriteTo(w io.Writer) error {
	if err := wire.WriteString(w, l.Username); err != nil {
		return err
	}
	return wire.WriteUUID(w, l.UUID)
}

func (l LoginStart) Encode() (uint32, []byte, error) {
	return encode(LoginStartID, l.WriteTo)
}

func DecodeLoginStart(raw frame.RawPacket) (LoginStart, error) {
	if err := expectID(raw, LoginStartID); err != nil {
		return LoginStart{}, err
	}
	r := wire.NewReader(raw.Data)
	username, err := wire.ReadString(r)
	if err != nil {
		return LoginStart{}, err
	}
	id, err := wire.ReadUUID(r)
	if err != nil {
		return LoginStart{}, err
	}
	return LoginStart{Username: username, UUID: id}, nil
}

// LoginDisconnect is sent to the player during the Login phase -- either
// because no backend servers are configured, or because a listener vetoed
// the connection before it could reach one.
type LoginDisconnect struct {
	Reason wire.JSONText
}

func NewLoginDisconnect(message string) LoginDisconnect {
	return LoginDisconnect{Reason: wire.PlainJSONText(message)}
}

func (d LoginDisconnect) WriteTo(w io.Writer) error {
	return wire.WriteJSONText(w, d.Reason)
}

func (d LoginDisconnect) Encode() (uint32, []byte, error) {
	return encode(LoginDisconnectID, d.WriteTo)
}

func DecodeLoginDisconnect(raw frame.RawPacket) (LoginDisconnect, error) {
	if err := expectID(raw, LoginDisconnectID); err != nil {
		return LoginDisconnect{}, err
	}
	reason, err := wire.ReadJSONText(wire.NewReader(raw.Data))
	if err != nil {
		return LoginDisconnect{}, err
	}
	return LoginDisconnect{Reason: reason}, nil
}

// LoginSuccess, in this proxy, carries no payload: real LoginSuccess wire
// bytes include UUID + name + properties, but the proxy never needs to
// rebuild or inspect them -- it only needs to recognize the ID to advance
// the backend-side state machine to Configuration.
type LoginSuccess struct{}

func (LoginSuccess) WriteTo(io.Writer) error { return nil }

func (s LoginSuccess) Encode() (uint32, []byte, error) {
	return encode(LoginSuccessID, s.WriteTo)
}

func DecodeLoginSuccess(raw frame.RawPacket) (LoginSuccess, error) {
	if err := expectID(raw, LoginSuccessID); err != nil {
		return LoginSuccess{}, err
	}
	return LoginSuccess{}, nil
}
