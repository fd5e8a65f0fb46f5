package xzfile

import (
	"fmt"

	"garchive/codec"
	"garchive/cursor"
)

const (
	filterDelta = 0x03
	filterLZMA2 = 0x21
)

type filter struct {
	id       uint64
	dictSize uint32 // LZMA2
	distance int    // delta, 1..256
}

func readFilter(c *cursor.Cursor) (filter, error) {
	id, err := readMultiByte(c)
	if err != nil {
		return filter{}, err
	}
	propsSize, err := readMultiByte(c)
	if err != nil {
		return filter{}, err
	}

	f := filter{id: id}
	switch id {
	case filterLZMA2:
		if propsSize != 1 {
			return f, fmt.Errorf("%w: lzma2 properties size %d", ErrWrongField, propsSize)
		}
		prop, err := c.Byte()
		if err != nil {
			return f, err
		}
		if prop&0xc0 != 0 {
			return f, fmt.Errorf("%w: lzma2 property %#02x", ErrReservedFieldValue, prop)
		}
		if f.dictSize, err = codec.LZMA2DictSize(prop); err != nil {
			return f, fmt.Errorf("%w: %v", ErrWrongField, err)
		}
	case filterDelta:
		if propsSize != 1 {
			return f, fmt.Errorf("%w: delta properties size %d", ErrWrongField, propsSize)
		}
		prop, err := c.Byte()
		if err != nil {
			return f, err
		}
		f.distance = int(prop) + 1
	default:
		return f, fmt.Errorf("%w: %#x", ErrWrongFilterID, id)
	}
	return f, nil
}

func appendFilter(b []byte, f filter) []byte {
	b = appendMultiByte(b, f.id)
	b = appendMultiByte(b, 1)
	switch f.id {
	case filterLZMA2:
		return append(b, codec.LZMA2DictProperty(f.dictSize))
	default:
		return append(b, byte(f.distance-1))
	}
}

// validateChain checks that LZMA2 terminates the chain and appears nowhere
// else.
func validateChain(filters []filter) error {
	for i, f := range filters {
		last := i == len(filters)-1
		if (f.id == filterLZMA2) != last {
			return fmt.Errorf("%w: lzma2 must be the last filter", ErrWrongFilterID)
		}
	}
	return nil
}

// decodeChain decodes the block payload at the cursor: LZMA2 first, then the
// remaining filters in reverse order.
func decodeChain(c *cursor.Cursor, filters []filter) ([]byte, error) {
	last := filters[len(filters)-1]
	data, err := codec.DecodeLZMA2(c, last.dictSize)
	if err != nil {
		return nil, err
	}
	for i := len(filters) - 2; i >= 0; i-- {
		deltaDecode(data, filters[i].distance)
	}
	return data, nil
}

func deltaDecode(data []byte, distance int) {
	for i := distance; i < len(data); i++ {
		data[i] += data[i-distance]
	}
}

func deltaEncode(data []byte, distance int) {
	for i := len(data) - 1; i >= distance; i-- {
		data[i] -= data[i-distance]
	}
}
