package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/bitrec/bitrec/pkg/schema"
)

// Accessor and I/O errors. All are wrapped with context; match with
// errors.Is.
var (
	ErrFieldNotFound  = errors.New("field not found")
	ErrTypeMismatch   = errors.New("accessor does not match field kind")
	ErrTruncatedInput = errors.New("input shorter than record size")
)

// Record is one mutable packed record bound to a compiled schema. The buffer
// is exactly schema.TotalBytes() long and zero-filled at creation. The schema
// is borrowed, never copied; it must outlive the record. A Record is not safe
// for concurrent use without external locking.
type Record struct {
	schema *schema.Schema
	buf    []byte
}

// NewRecord creates a zero-filled record for the given schema.
func NewRecord(s *schema.Schema) *Record {
	return &Record{
		schema: s,
		buf:    make([]byte, s.TotalBytes()),
	}
}

// Schema returns the schema this record is bound to.
func (r *Record) Schema() *schema.Schema {
	return r.schema
}

// Size returns the packed size of the record in bytes.
func (r *Record) Size() int {
	return len(r.buf)
}

// field resolves a name or reports ErrFieldNotFound.
func (r *Record) field(name string) (schema.Field, error) {
	f, ok := r.schema.Field(name)
	if !ok {
		return schema.Field{}, fmt.Errorf("field %q: %w", name, ErrFieldNotFound)
	}
	return f, nil
}

// GetUint returns the named scalar field as an unsigned 64-bit value.
// Bitfields are extracted from their bit span; fixed-width kinds are read
// little-endian at their byte offset, with FixedI32 sign-extended into the
// returned carrier. Blob fields report ErrTypeMismatch.
func (r *Record) GetUint(name string) (uint64, error) {
	f, err := r.field(name)
	if err != nil {
		return 0, err
	}
	switch f.Kind {
	case schema.Bitfield:
		return readBits(r.buf, f.BitOffset, f.BitWidth), nil
	case schema.FixedU8:
		return uint64(r.buf[f.ByteOffset]), nil
	case schema.FixedU16:
		return uint64(binary.LittleEndian.Uint16(r.buf[f.ByteOffset:])), nil
	case schema.FixedU32:
		return uint64(binary.LittleEndian.Uint32(r.buf[f.ByteOffset:])), nil
	case schema.FixedI32:
		v := int32(binary.LittleEndian.Uint32(r.buf[f.ByteOffset:]))
		return uint64(int64(v)), nil
	default:
		return 0, fmt.Errorf("field %q is %s, not an integer: %w", name, f.Kind, ErrTypeMismatch)
	}
}

// GetInt returns the named scalar field as a signed value. It is GetUint
// reinterpreted, which only differs for FixedI32, the kind whose read is
// sign-extended.
func (r *Record) GetInt(name string) (int64, error) {
	v, err := r.GetUint(name)
	return int64(v), err
}

// SetUint stores value into the named scalar field, silently truncating to
// the field's width: high bits beyond the width are discarded, exactly as
// writeBits masks them. Blob fields report ErrTypeMismatch.
func (r *Record) SetUint(name string, value uint64) error {
	f, err := r.field(name)
	if err != nil {
		return err
	}
	switch f.Kind {
	case schema.Bitfield:
		writeBits(r.buf, f.BitOffset, f.BitWidth, value)
	case schema.FixedU8:
		r.buf[f.ByteOffset] = byte(value)
	case schema.FixedU16:
		binary.LittleEndian.PutUint16(r.buf[f.ByteOffset:], uint16(value))
	case schema.FixedU32, schema.FixedI32:
		binary.LittleEndian.PutUint32(r.buf[f.ByteOffset:], uint32(value))
	default:
		return fmt.Errorf("field %q is %s, not an integer: %w", name, f.Kind, ErrTypeMismatch)
	}
	return nil
}

// SetInt stores a signed value, truncating like SetUint.
func (r *Record) SetInt(name string, value int64) error {
	return r.SetUint(name, uint64(value))
}

// GetBytes returns a copy of the named blob field's bytes. Scalar fields
// report ErrTypeMismatch.
func (r *Record) GetBytes(name string) ([]byte, error) {
	f, err := r.field(name)
	if err != nil {
		return nil, err
	}
	if f.Kind != schema.Blob {
		return nil, fmt.Errorf("field %q is %s, not a blob: %w", name, f.Kind, ErrTypeMismatch)
	}
	out := make([]byte, f.ByteSize)
	copy(out, r.buf[f.ByteOffset:f.ByteOffset+f.ByteSize])
	return out, nil
}

// SetBytes copies data into the named blob field. Data longer than the field
// is truncated to the field's size; shorter data zero-pads the remainder.
func (r *Record) SetBytes(name string, data []byte) error {
	f, err := r.field(name)
	if err != nil {
		return err
	}
	if f.Kind != schema.Blob {
		return fmt.Errorf("field %q is %s, not a blob: %w", name, f.Kind, ErrTypeMismatch)
	}
	span := r.buf[f.ByteOffset : f.ByteOffset+f.ByteSize]
	n := copy(span, data)
	for i := n; i < len(span); i++ {
		span[i] = 0
	}
	return nil
}

// Bytes returns a copy of the record's packed representation.
func (r *Record) Bytes() []byte {
	out := make([]byte, len(r.buf))
	copy(out, r.buf)
	return out
}

// Load fills the record from a packed representation, which must hold at
// least the record's size.
func (r *Record) Load(data []byte) error {
	if len(data) < len(r.buf) {
		return fmt.Errorf("got %d of %d bytes: %w", len(data), len(r.buf), ErrTruncatedInput)
	}
	copy(r.buf, data[:len(r.buf)])
	return nil
}

// WriteTo writes the record's packed bytes to w. It implements io.WriterTo.
func (r *Record) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r.buf)
	return int64(n), err
}

// ReadFrom fills the record's buffer with exactly Size() bytes from rd. A
// short read reports ErrTruncatedInput and leaves the buffer contents
// unspecified; the caller must not treat the record as decoded data. It
// implements io.ReaderFrom.
func (r *Record) ReadFrom(rd io.Reader) (int64, error) {
	n, err := io.ReadFull(rd, r.buf)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return int64(n), fmt.Errorf("got %d of %d bytes: %w", n, len(r.buf), ErrTruncatedInput)
	}
	return int64(n), err
}

// Dump writes the record's bytes to w as space-separated lowercase hex.
func (r *Record) Dump(w io.Writer) error {
	for _, b := range r.buf {
		if _, err := fmt.Fprintf(w, "%02x ", b); err != nil {
			return err
		}
	}
	return nil
}
