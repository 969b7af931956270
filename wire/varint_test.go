package wire

import (
	"bytes"
	"testing"
)

func TestVarIntRoundTrip(t *testing.T) {
	cases := []uint32{0, 127, 128, 16383, 16384, 2097151, 2097152, 268435455, 268435456, 4294967295}
	for _, v := range cases {
		buf := new(bytes.Buffer)
		if err := WriteVarInt(buf, v); err != nil {
			t.Fatalf("write %d: %v", v, err)
		}
		if buf.Len() != VarIntSize(v) {
			t.Fatalf("VarIntSize(%d) = %d, wrote %d bytes", v, VarIntSize(v), buf.Len())
		}
		got, err := ReadVarInt(bytes.NewReader(buf.Bytes()))
		if err != nil {
			t.Fatalf("read %d: %v", v, err)
		}
		if got != v {
			t.Fatalf("round trip %d: got %d", v, got)
		}
	}
}

func TestVarIntOverflow(t *testing.T) {
	// Five bytes all with the continuation bit set: a sixth would be needed.
	data := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01}
	_, err := ReadVarInt(bytes.NewReader(data))
	if err != ErrVarintOverflow {
		t.Fatalf("expected ErrVarintOverflow, got %v", err)
	}
}

func TestVarIntShortBuffer(t *testing.T) {
	data := []byte{0x80, 0x80}
	_, err := ReadVarInt(bytes.NewReader(data))
	if err != ErrShortBuffer {
		t.Fatalf("expected ErrShortBuffer, got %v", err)
	}
}

func TestStringRoundTrip(t *testing.T) {
	cases := []string{"", "a", "hello, world", "日本語", string(make([]byte, 1024))}
	for _, s := range cases {
		buf := new(bytes.Buffer)
		if err := WriteString(buf, s); err != nil {
			t.Fatalf("write %q: %v", s, err)
		}
		got, err := ReadString(NewReader(buf.Bytes()))
		if err != nil {
			t.Fatalf("read %q: %v", s, err)
		}
		if got != s {
			t.Fatalf("round trip mismatch: got %q want %q", got, s)
		}
	}
}

func TestStringBadUTF8(t *testing.T) {
	buf := new(bytes.Buffer)
	WriteVarInt(buf, 2)
	buf.Write([]byte{0xFF, 0xFE})
	_, err := ReadString(NewReader(buf.Bytes()))
	if err != ErrBadUTF8 {
		t.Fatalf("expected ErrBadUTF8, got %v", err)
	}
}

func TestBoolRoundTrip(t *testing.T) {
	for _, v := range []bool{true, false} {
		buf := new(bytes.Buffer)
		WriteBool(buf, v)
		got, err := ReadBool(NewReader(buf.Bytes()))
		if err != nil {
			t.Fatal(err)
		}
		if got != v {
			t.Fatalf("got %v want %v", got, v)
		}
	}
}
