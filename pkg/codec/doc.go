// Package codec packs and unpacks schema-described records. It is the
// bit-level half of bitrec: pkg/schema decides where every field lives,
// codec moves values in and out of the packed buffer.
//
// # Record Format
//
// A record is exactly schema.TotalBytes() bytes. Fields are packed
// bit-contiguously in declaration order starting at bit 0, with no padding
// and no alignment. Bit significance is little-endian: a field's low-order
// bits occupy the low-order bits of the earliest byte its span touches, so
// the schema
//
//	[{a, 3 bits}, {b, 5 bits}, {c, 8 bits}]
//
// packs into two bytes as
//
//	byte 0: bbbbbaaa
//	byte 1: cccccccc
//
// Fixed-width scalar kinds and blobs are byte-aligned within the same
// layout and read/written little-endian at their byte offset.
//
// # Usage
//
//	s, err := schema.Compile([]schema.FieldDecl{
//	    schema.Bits("version", 8),
//	    schema.Bits("flags", 3),
//	    schema.Bits("priority", 5),
//	})
//	if err != nil {
//	    return err
//	}
//
//	rec := codec.NewRecord(s)
//	if err := rec.SetUint("flags", 0b101); err != nil {
//	    return err
//	}
//	if _, err := rec.WriteTo(out); err != nil {
//	    return err
//	}
//
// # Error Handling
//
// Accessors report ErrFieldNotFound for unknown names and ErrTypeMismatch
// when the accessor does not fit the field's kind; both leave the record
// unchanged. ReadFrom reports ErrTruncatedInput when the source ends before
// a full record; the buffer state after a failed read is unspecified.
//
// # Thread Safety
//
// A compiled schema is immutable and freely shared. A Record is not: callers
// that share one across goroutines must synchronize externally.
package codec
