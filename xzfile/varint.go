package xzfile

import "garchive/cursor"

const maxMultiByteLen = 9

// readMultiByte reads an XZ variable-length integer: seven bits per byte,
// least significant first, at most nine bytes, no superfluous zero bytes.
func readMultiByte(c *cursor.Cursor) (uint64, error) {
	var x uint64
	for i := 0; i < maxMultiByteLen; i++ {
		b, err := c.Byte()
		if err != nil {
			return 0, err
		}
		if i > 0 && b == 0 {
			return 0, ErrMultiByteInteger
		}
		x |= uint64(b&0x7f) << (7 * i)
		if b&0x80 == 0 {
			return x, nil
		}
	}
	return 0, ErrMultiByteInteger
}

func appendMultiByte(b []byte, x uint64) []byte {
	for x >= 0x80 {
		b = append(b, byte(x)|0x80)
		x >>= 7
	}
	return append(b, byte(x))
}
