package wire

import (
	"encoding/json"
	"io"

	"github.com/go-mclib/protocol/nbt"
)

// JSONText is a chat/disconnect-reason payload framed as a plain
// length-prefixed JSON string, as used by the Login-phase Disconnect
// packet. The core never interprets the JSON itself -- it is an opaque
// blob owned by whatever text-codec collaborator the embedder supplies.
type JSONText []byte

// WriteJSONText writes the JSON-framed text component: a String whose
// contents are the raw JSON bytes.
func WriteJSONText(w io.Writer, text JSONText) error {
	return WriteString(w, string(text))
}

// ReadJSONText reads a JSON-framed text component.
func ReadJSONText(r *Reader) (JSONText, error) {
	s, err := ReadString(r)
	if err != nil {
		return nil, err
	}
	return JSONText(s), nil
}

// PlainJSONText builds the simplest possible JSON text component,
// {"text": msg}, for callers that don't have a richer text-codec
// collaborator wired in (e.g. the orchestrator's LoginDisconnect reasons).
func PlainJSONText(msg string) JSONText {
	b, _ := json.Marshal(struct {
		Text string `json:"text"`
	}{Text: msg})
	return JSONText(b)
}

// nbtTextComponent is the minimal shape written for network-NBT text
// components: a plain-text chat component with no styling or children.
type nbtTextComponent struct {
	Text string `nbt:"text"`
}

// WriteNBTText appends a network-NBT-encoded text component (unnamed root
// compound) carrying msg as its plain text. This is used to build
// SystemChatMessage payloads (e.g. the kick notice); the core never
// decodes NBT text it merely forwards from a backend -- it is passed
// through as an opaque byte blob instead (see frame.RawPacket).
func WriteNBTText(w io.Writer, msg string) error {
	b, err := nbt.MarshalNetwork(nbtTextComponent{Text: msg})
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}
