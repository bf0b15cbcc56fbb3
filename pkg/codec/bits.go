package codec

// Bit-span primitives. Fields are packed little-endian: a field's low-order
// bits occupy the low-order bits of the earliest byte its span touches. A
// 64-bit field starting mid-byte touches 9 bytes, one more than a uint64
// carrier holds, so both routines walk the span byte by byte instead of
// loading it as a single chunk. All shift amounts stay strictly below 64.

// widthMask returns a mask covering the low width bits. width is 1..64; the
// 64 case is special-cased because 1<<64 is out of range for uint64.
func widthMask(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return 1<<width - 1
}

// readBits extracts the unsigned value of the width-bit span starting at
// bitOffset. The caller guarantees the span lies inside buf; schema
// compilation establishes that for every field.
func readBits(buf []byte, bitOffset, width int) uint64 {
	i := bitOffset / 8
	shift := bitOffset % 8

	// Low bits of the first byte below shift belong to a preceding field.
	v := uint64(buf[i]) >> shift
	got := 8 - shift
	for got < width {
		i++
		v |= uint64(buf[i]) << got
		got += 8
	}
	return v & widthMask(width)
}

// writeBits stores the low width bits of value into the span starting at
// bitOffset. In every touched byte exactly the bits belonging to this span
// are cleared and rewritten; bits of adjacent fields sharing a byte are
// preserved. High bits of value beyond width are discarded.
func writeBits(buf []byte, bitOffset, width int, value uint64) {
	value &= widthMask(width)
	i := bitOffset / 8
	shift := bitOffset % 8

	// First byte: the span occupies bits [shift, shift+n) within it.
	n := 8 - shift
	if n > width {
		n = width
	}
	m := byte(widthMask(n)) << shift
	buf[i] = buf[i]&^m | byte(value<<shift)&m
	value >>= n
	left := width - n

	// Whole bytes in the middle of the span.
	for left >= 8 {
		i++
		buf[i] = byte(value)
		value >>= 8
		left -= 8
	}

	// Trailing partial byte shares its high bits with the next field.
	if left > 0 {
		i++
		m = byte(widthMask(left))
		buf[i] = buf[i]&^m | byte(value)&m
	}
}
