package wire

import (
	"encoding/binary"
	"io"
	"unicode/utf8"
)

// WriteString appends a VarInt byte-length prefix followed by the UTF-8
// bytes of s.
func WriteString(w io.Writer, s string) error {
	if err := WriteVarInt(w, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// ReadString decodes a length-prefixed UTF-8 string from r.
func ReadString(r *Reader) (string, error) {
	n, err := ReadVarInt(r)
	if err != nil {
		return "", err
	}
	b, err := r.ReadN(int(n))
	if err != nil {
		return "", ErrShortBuffer
	}
	if !utf8.Valid(b) {
		return "", ErrBadUTF8
	}
	return string(b), nil
}

// WriteUnsignedShort appends v as a 2-byte big-endian value.
func WriteUnsignedShort(w io.Writer, v uint16) error {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	_, err := w.Write(b[:])
	return err
}

// ReadUnsignedShort decodes a 2-byte big-endian value from r.
func ReadUnsignedShort(r *Reader) (uint16, error) {
	b, err := r.ReadN(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// WriteBool appends a single byte: 0 for false, 1 for true.
func WriteBool(w io.Writer, v bool) error {
	b := byte(0)
	if v {
		b = 1
	}
	_, err := w.Write([]byte{b})
	return err
}

// ReadBool decodes a single byte from r; any non-zero byte is true.
func ReadBool(r *Reader) (bool, error) {
	b, err := r.ReadN(1)
	if err != nil {
		return false, err
	}
	return b[0] != 0, nil
}
