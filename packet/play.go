package packet

import (
	"bytes"
	"io"

	"github.com/novastosha/rustyproxy/frame"
	"github.com/novastosha/rustyproxy/wire"
)

// SystemChatMessageID is player-bound, Play phase: used here only to
// inject the kick notice on a server-initiated disconnect.
const SystemChatMessageID uint32 = 0x73

// SystemChatMessage carries a chat/system message. NBTText is the raw
// network-NBT text component bytes; this core treats them as opaque
// except when it is itself the author (see NewSystemChatMessage),
// deferring to an external text codec for anything it didn't write.
type SystemChatMessage struct {
	NBTText []byte
	Overlay bool
}

// NewSystemChatMessage builds a plain-text SystemChatMessage, used by the
// orchestrator to tell the player why they were kicked.
func NewSystemChatMessage(text string, overlay bool) (SystemChatMessage, error) {
	buf := new(bytes.Buffer)
	if err := wire.WriteNBTText(buf, text); err != nil {
		return SystemChatMessage{}, err
	}
	return SystemChatMessage{NBTText: buf.Bytes(), Overlay: overlay}, nil
}

func (m SystemChatMessage) WriteTo(w io.Writer) error {
	if _, err := w.Write(m.NBTText); err != nil {
		return err
	}
	return wire.WriteBool(w, m.Overlay)
}

func (m SystemChatMessage) Encode() (uint32, []byte, error) {
	return encode(SystemChatMessageID, m.WriteTo)
}

// DecodeSystemChatMessage splits a frame's payload into its NBT text
// component and trailing overlay flag without interpreting the NBT bytes:
// the overlay flag is always the payload's final byte.
func DecodeSystemChatMessage(raw frame.RawPacket) (SystemChatMessage, error) {
	if err := expectID(raw, SystemChatMessageID); err != nil {
		return SystemChatMessage{}, err
	}
	if len(raw.Data) < 1 {
		return SystemChatMessage{}, wire.ErrShortBuffer
	}
	overlay := raw.Data[len(raw.Data)-1] != 0
	return SystemChatMessage{
		NBTText: raw.Data[:len(raw.Data)-1],
		Overlay: overlay,
	}, nil
}

// Login and Configuration phase packet IDs the forwarding loop watches for
// on the backend->player direction. These are not typed packets in their
// own right here -- the proxy only needs to recognize
// their ID and phase to drive its own state machine and compression
// threshold, never their full contents.
const (
	// SetCompressionID (Login phase, backend->proxy): carries the new
	// compression threshold as a single VarInt payload.
	SetCompressionID uint32 = 0x03
	// FinishConfigurationID (Configuration phase): acks the end of
	// configuration, moving the phase to Play.
	FinishConfigurationID uint32 = 0x02
	// PlayDisconnectID (Play phase only): a server-initiated kick.
	PlayDisconnectID uint32 = 0x1D
)

// DecodeSetCompressionThreshold reads the VarInt threshold out of a
// SetCompression packet's payload.
func DecodeSetCompressionThreshold(raw frame.RawPacket) (int, error) {
	if err := expectID(raw, SetCompressionID); err != nil {
		return 0, err
	}
	v, err := wire.ReadVarInt(wire.NewReader(raw.Data))
	if err != nil {
		return 0, err
	}
	return int(v), nil
}
