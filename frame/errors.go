// Package frame implements the length-prefixed, optionally zlib-compressed
// packet framing layer. It knows nothing about packet semantics: it turns
// a byte stream (or an in-memory slice) into a RawPacket, and turns an
// (id, payload) pair back into wire bytes.
package frame

import "errors"

var (
	// ErrShortFrame is returned when the declared frame length exceeds the
	// bytes actually available (stream starved, or an in-memory slice that
	// doesn't yet hold a whole frame).
	ErrShortFrame = errors.New("frame: declared length exceeds available bytes")
	// ErrZeroLength is returned when a frame declares length 0.
	ErrZeroLength = errors.New("frame: zero-length frame")
	// ErrDecompress wraps a zlib inflate failure.
	ErrDecompress = errors.New("frame: zlib decompression failed")
)
