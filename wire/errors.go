// Package wire implements the Minecraft Java Edition protocol's primitive
// value encodings: VarInt, unsigned short, length-prefixed UTF-8 string,
// UUID, bool, and the two text-component framings (JSON and network NBT).
package wire

import "errors"

// Sentinel errors for the primitive decoders.
var (
	ErrShortBuffer    = errors.New("wire: buffer ended before value was fully read")
	ErrVarintOverflow = errors.New("wire: varint is longer than 5 bytes")
	ErrBadUTF8        = errors.New("wire: string is not valid utf-8")
)

// MaxVarIntBytes is the maximum number of bytes a VarInt can occupy on the
// wire.
const MaxVarIntBytes = 5
