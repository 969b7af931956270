package wire

import (
	"io"

	"github.com/google/uuid"
)

// WriteUUID appends the 16 raw bytes of id.
func WriteUUID(w io.Writer, id uuid.UUID) error {
	_, err := w.Write(id[:])
	return err
}

// ReadUUID decodes 16 raw bytes into a uuid.UUID.
func ReadUUID(r *Reader) (uuid.UUID, error) {
	b, err := r.ReadN(16)
	if err != nil {
		return uuid.UUID{}, ErrShortBuffer
	}
	var id uuid.UUID
	copy(id[:], b)
	return id, nil
}
