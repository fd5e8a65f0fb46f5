package cursor

import (
	"bytes"
	"math"
	"strings"
)

// TarCString consumes a fixed-size TAR string field of up to maxLength bytes
// and returns its contents up to the first NUL. It never fails: a short
// buffer yields whatever is left, and invalid UTF-8 is replaced with U+FFFD.
func (c *Cursor) TarCString(maxLength int) string {
	field := c.takeField(maxLength)
	if p := bytes.IndexByte(field, 0); p != -1 {
		field = field[:p]
	}
	return strings.ToValidUTF8(string(field), "\uFFFD")
}

// TarInt consumes a fixed-size TAR numeric field of up to maxLength bytes.
//
// If the high bit of the first byte is set the field is a GNU base-256
// big-endian two's complement number, sign-extended from bit 6. Otherwise it
// is octal ASCII: leading NULs and spaces are skipped and parsing stops at
// the next NUL, space or the end of the field.
//
// The second result is false when the field is empty, holds a non-octal
// digit or overflows int64.
func (c *Cursor) TarInt(maxLength int) (int64, bool) {
	field := c.takeField(maxLength)
	if len(field) == 0 {
		return 0, false
	}
	if field[0]&0x80 != 0 {
		return base256(field)
	}
	return octal(field)
}

func (c *Cursor) takeField(maxLength int) []byte {
	if maxLength <= 0 {
		return nil
	}
	n := min(maxLength, c.Remaining())
	field := c.data[c.offset : c.offset+n]
	c.offset += n
	return field
}

func base256(field []byte) (int64, bool) {
	x := int64(field[0] & 0x7f)
	if field[0]&0x40 != 0 {
		x |= ^int64(0x7f)
	}
	for _, b := range field[1:] {
		if x > math.MaxInt64>>8 || x < math.MinInt64>>8 {
			return 0, false
		}
		x = x<<8 | int64(b)
	}
	return x, true
}

func octal(field []byte) (int64, bool) {
	i := 0
	for i < len(field) && (field[i] == 0 || field[i] == ' ') {
		i++
	}
	var x int64
	digits := 0
	for ; i < len(field); i++ {
		b := field[i]
		if b == 0 || b == ' ' {
			break
		}
		if b < '0' || b > '7' {
			return 0, false
		}
		if x > math.MaxInt64>>3 {
			return 0, false
		}
		x = x<<3 | int64(b-'0')
		digits++
	}
	if digits == 0 {
		return 0, false
	}
	return x, true
}
