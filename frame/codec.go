package frame

import (
	"bytes"
	"compress/zlib"
	"io"

	"github.com/novastosha/rustyproxy/wire"
)

// ReadFrom decodes exactly one frame from a streaming source. br must
// implement io.ByteReader (a *bufio.Reader does) so the leading VarInt
// length can be read one byte at a time without over-reading into the next
// frame. Used for the player socket before forwarding starts (handshake,
// login).
func ReadFrom(br interface {
	io.Reader
	io.ByteReader
}, threshold int) (RawPacket, error) {
	length, err := wire.ReadVarInt(br)
	if err != nil {
		return RawPacket{}, err
	}
	if length == 0 {
		return RawPacket{}, ErrZeroLength
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(br, body); err != nil {
		return RawPacket{}, ErrShortFrame
	}
	id, payload, err := parseBody(body, threshold)
	if err != nil {
		return RawPacket{}, err
	}
	return RawPacket{Length: length, ID: id, Data: payload}, nil
}

// ReadFromBytes decodes the frame found at the start of buf, which may hold
// more than one frame (or a partial one) -- the case the forwarding loop
// hits when it reads opportunistic bytes off the backend socket. It returns
// the number of bytes the frame occupied, so the caller can either advance
// past it or simply note it while still forwarding the whole opportunistic
// read verbatim.
func ReadFromBytes(buf []byte, threshold int) (pkt RawPacket, consumed int, err error) {
	r := wire.NewReader(buf)
	length, err := wire.ReadVarInt(r)
	if err != nil {
		if err == wire.ErrShortBuffer {
			// buf ends inside the length prefix itself.
			return RawPacket{}, 0, ErrShortFrame
		}
		return RawPacket{}, 0, err
	}
	if length == 0 {
		return RawPacket{}, 0, ErrZeroLength
	}
	if r.Len() < int(length) {
		return RawPacket{}, 0, ErrShortFrame
	}
	body, _ := r.ReadN(int(length))
	id, payload, err := parseBody(body, threshold)
	if err != nil {
		return RawPacket{}, 0, err
	}
	return RawPacket{Length: length, ID: id, Data: payload}, r.Pos(), nil
}

// parseBody splits a frame's body (everything after the outer length
// prefix) into an id and payload, applying the compression rules for the
// given threshold.
func parseBody(body []byte, threshold int) (id uint32, payload []byte, err error) {
	if threshold <= 0 {
		r := wire.NewReader(body)
		id, err = wire.ReadVarInt(r)
		if err != nil {
			return 0, nil, err
		}
		return id, r.Rest(), nil
	}

	r := wire.NewReader(body)
	dataLength, err := wire.ReadVarInt(r)
	if err != nil {
		return 0, nil, err
	}
	rest := r.Rest()

	if dataLength == 0 || int(dataLength) < threshold {
		// Uncompressed indicator, or a stack that didn't bother compressing
		// despite a nonzero data-length: tolerate both the same way.
		rr := wire.NewReader(rest)
		id, err = wire.ReadVarInt(rr)
		if err != nil {
			return 0, nil, err
		}
		return id, rr.Rest(), nil
	}

	inflated, err := inflate(rest)
	if err != nil {
		return 0, nil, ErrDecompress
	}
	rr := wire.NewReader(inflated)
	id, err = wire.ReadVarInt(rr)
	if err != nil {
		return 0, nil, err
	}
	return id, rr.Rest(), nil
}

func inflate(compressed []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

// WriteTo serializes (id, payload) as one frame and writes it to w, using
// the compressed or uncompressed layout depending on threshold.
func WriteTo(w io.Writer, id uint32, payload []byte, threshold int) error {
	inner := new(bytes.Buffer)
	if err := wire.WriteVarInt(inner, id); err != nil {
		return err
	}
	inner.Write(payload)

	if threshold <= 0 {
		if err := wire.WriteVarInt(w, uint32(inner.Len())); err != nil {
			return err
		}
		_, err := w.Write(inner.Bytes())
		return err
	}

	u := uint32(inner.Len())
	if int(u) >= threshold {
		compressed, err := deflate(inner.Bytes())
		if err != nil {
			return err
		}
		if err := wire.WriteVarInt(w, uint32(wire.VarIntSize(u))+uint32(len(compressed))); err != nil {
			return err
		}
		if err := wire.WriteVarInt(w, u); err != nil {
			return err
		}
		_, err = w.Write(compressed)
		return err
	}

	if err := wire.WriteVarInt(w, uint32(wire.VarIntSize(0))+u); err != nil {
		return err
	}
	if err := wire.WriteVarInt(w, 0); err != nil {
		return err
	}
	_, err := w.Write(inner.Bytes())
	return err
}

func deflate(data []byte) ([]byte, error) {
	buf := new(bytes.Buffer)
	zw := zlib.NewWriter(buf)
	if _, err := zw.Write(data); err != nil {
		zw.Close()
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
