package frame

// RawPacket is the triple (declared-length, packet-id, payload-bytes) that
// results from decoding one frame. Payload is post-decompression and
// excludes the id VarInt.
type RawPacket struct {
	Length uint32
	ID     uint32
	Data   []byte
}
