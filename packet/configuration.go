package packet

import (
	"bytes"
	"io"

	"github.com/novastosha/rustyproxy/frame"
	"github.com/novastosha/rustyproxy/wire"
)

// ConfigurationPluginMessageID is used in both directions during the
// Configuration phase.
const ConfigurationPluginMessageID uint32 = 0x01

// BrandChannel is the only plugin channel this package gives helpers for:
// the server-brand exchange used to identify the backend software to the
// client.
const BrandChannel = "minecraft:brand"

// BrandTag is the suffix RewriteBrand appends to a brand string. The
// forwarding loop does not rewrite brand messages on its own; a
// ServerSentPacket listener can do so with these helpers.
const BrandTag = " (rustyproxy)"

// ConfigurationPluginMessage carries a channel id and its raw payload. Only
// the BrandChannel payload (a single String) is given semantic meaning;
// any other channel's Payload is passed through untouched as an opaque
// blob, since this core has no business interpreting channels it doesn't
// know about.
type ConfigurationPluginMessage struct {
	Channel string
	Payload []byte
}

func (m ConfigurationPluginMessage) WriteTo(w io.Writer) error {
	if err := wire.WriteString(w, m.Channel); err != nil {
		return err
	}
	_, err := w.Write(m.Payload)
	return err
}

func (m ConfigurationPluginMessage) Encode() (uint32, []byte, error) {
	return encode(ConfigurationPluginMessageID, m.WriteTo)
}

func DecodeConfigurationPluginMessage(raw frame.RawPacket) (ConfigurationPluginMessage, error) {
	if err := expectID(raw, ConfigurationPluginMessageID); err != nil {
		return ConfigurationPluginMessage{}, err
	}
	r := wire.NewReader(raw.Data)
	channel, err := wire.ReadString(r)
	if err != nil {
		return ConfigurationPluginMessage{}, err
	}
	return ConfigurationPluginMessage{Channel: channel, Payload: r.Rest()}, nil
}

// Brand reads the brand-name String out of m.Payload. Only meaningful when
// m.Channel == BrandChannel.
func (m ConfigurationPluginMessage) Brand() (string, error) {
	return wire.ReadString(wire.NewReader(m.Payload))
}

// NewBrandMessage builds a minecraft:brand plugin message carrying brand
// as its single String payload.
func NewBrandMessage(brand string) (ConfigurationPluginMessage, error) {
	buf := new(bytes.Buffer)
	if err := wire.WriteString(buf, brand); err != nil {
		return ConfigurationPluginMessage{}, err
	}
	return ConfigurationPluginMessage{Channel: BrandChannel, Payload: buf.Bytes()}, nil
}

// RewriteBrand appends BrandTag to a brand string, e.g. "vanilla" ->
// "vanilla (rustyproxy)".
func RewriteBrand(brand string) string {
	return brand + BrandTag
}
