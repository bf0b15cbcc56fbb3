// Package schema compiles ordered field declarations into a fixed binary
// record layout: every field gets an absolute bit offset, a byte offset and a
// byte span, packed contiguously in declaration order with no padding.
//
// A compiled Schema is immutable and may be shared by any number of records
// and goroutines; it must outlive every record built against it.
package schema

import (
	"errors"
	"fmt"
)

// FieldKind identifies how a field's bytes are interpreted.
type FieldKind uint8

const (
	// FixedU8 through FixedI32 are byte-aligned scalar kinds with a width
	// fixed by the kind itself.
	FixedU8 FieldKind = iota
	FixedU16
	FixedU32
	FixedI32
	// Blob is an opaque fixed-length byte sequence.
	Blob
	// Bitfield occupies an arbitrary 1-64 bit run, with no alignment.
	Bitfield
)

// String returns the kind name used in schema documents and layout listings.
func (k FieldKind) String() string {
	switch k {
	case FixedU8:
		return "uint8"
	case FixedU16:
		return "uint16"
	case FixedU32:
		return "uint32"
	case FixedI32:
		return "int32"
	case Blob:
		return "blob"
	case Bitfield:
		return "bitfield"
	default:
		return fmt.Sprintf("FieldKind(%d)", uint8(k))
	}
}

// Compilation errors. Each is wrapped with the offending field's name, so
// callers should match with errors.Is.
var (
	ErrInvalidBitWidth  = errors.New("bit width must be between 1 and 64")
	ErrDuplicateField   = errors.New("duplicate field name")
	ErrEmptyFieldName   = errors.New("field name must not be empty")
	ErrInvalidBlobSize  = errors.New("blob size must be at least 1 byte")
	ErrMisalignedField  = errors.New("field must start on a byte boundary")
	ErrUnknownFieldKind = errors.New("unknown field kind")
)

// FieldDecl is one field declaration, in the order it appears in the record.
// BitWidth applies to Bitfield declarations; Size is the byte length of a
// Blob declaration. Fixed scalar kinds carry their width in the kind.
type FieldDecl struct {
	Name     string
	Kind     FieldKind
	BitWidth int
	Size     int
}

// Bits returns a bitfield declaration.
func Bits(name string, width int) FieldDecl {
	return FieldDecl{Name: name, Kind: Bitfield, BitWidth: width}
}

// Bytes returns a blob declaration of size bytes.
func Bytes(name string, size int) FieldDecl {
	return FieldDecl{Name: name, Kind: Blob, Size: size}
}

// Field is one compiled field. Offsets are absolute from the start of the
// record; ByteSize is the number of bytes the field's bit span touches.
type Field struct {
	Name       string
	Kind       FieldKind
	BitWidth   int
	ByteSize   int
	BitOffset  int
	ByteOffset int
}

// Schema is the compiled, immutable layout of one record type.
type Schema struct {
	fields    []Field
	byName    map[string]int
	totalBits int
}

// Compile lays out the declared fields by running a cumulative sum of bit
// widths in declaration order: field i starts exactly where field i-1 ends.
// It rejects bitfield widths outside 1..64, duplicate or empty names, and
// byte-aligned kinds (fixed scalars, blobs) that would start mid-byte.
func Compile(decls []FieldDecl) (*Schema, error) {
	s := &Schema{
		fields: make([]Field, 0, len(decls)),
		byName: make(map[string]int, len(decls)),
	}

	cursor := 0
	for _, d := range decls {
		if d.Name == "" {
			return nil, fmt.Errorf("field %d: %w", len(s.fields), ErrEmptyFieldName)
		}
		if _, ok := s.byName[d.Name]; ok {
			return nil, fmt.Errorf("field %q: %w", d.Name, ErrDuplicateField)
		}

		width, err := declWidth(d)
		if err != nil {
			return nil, err
		}
		if d.Kind != Bitfield && cursor%8 != 0 {
			return nil, fmt.Errorf("field %q (%s at bit %d): %w", d.Name, d.Kind, cursor, ErrMisalignedField)
		}

		f := Field{
			Name:       d.Name,
			Kind:       d.Kind,
			BitWidth:   width,
			ByteSize:   (width + 7) / 8,
			BitOffset:  cursor,
			ByteOffset: cursor / 8,
		}
		s.byName[f.Name] = len(s.fields)
		s.fields = append(s.fields, f)
		cursor += width
	}
	s.totalBits = cursor

	return s, nil
}

// declWidth resolves a declaration's bit width, validating kind-specific
// constraints.
func declWidth(d FieldDecl) (int, error) {
	switch d.Kind {
	case Bitfield:
		if d.BitWidth < 1 || d.BitWidth > 64 {
			return 0, fmt.Errorf("field %q: %w", d.Name, ErrInvalidBitWidth)
		}
		return d.BitWidth, nil
	case FixedU8:
		return 8, nil
	case FixedU16:
		return 16, nil
	case FixedU32, FixedI32:
		return 32, nil
	case Blob:
		if d.Size < 1 {
			return 0, fmt.Errorf("field %q: %w", d.Name, ErrInvalidBlobSize)
		}
		return d.Size * 8, nil
	default:
		return 0, fmt.Errorf("field %q: %w", d.Name, ErrUnknownFieldKind)
	}
}

// Field returns the compiled field with the given name.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// FieldAt returns the i-th field in declaration order.
func (s *Schema) FieldAt(i int) Field {
	return s.fields[i]
}

// NumFields returns the number of fields.
func (s *Schema) NumFields() int {
	return len(s.fields)
}

// Fields returns a copy of the compiled fields in declaration order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// TotalBits returns the packed size of one record in bits.
func (s *Schema) TotalBits() int {
	return s.totalBits
}

// TotalBytes returns the buffer size of one record in bytes.
func (s *Schema) TotalBytes() int {
	return (s.totalBits + 7) / 8
}
