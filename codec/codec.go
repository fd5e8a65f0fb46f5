// Package codec adapts the DEFLATE and LZMA2 coders to the cursor-based
// parsers. Decoders start at the cursor's offset and leave it on the first
// byte after the compressed stream.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/ulikunitz/xz/lzma"

	"garchive/cursor"
)

// Method identifies a compression method.
type Method uint8

const (
	Deflate Method = iota + 1
	LZMA2
)

// String returns the method name.
func (m Method) String() string {
	switch m {
	case Deflate:
		return "deflate"
	case LZMA2:
		return "lzma2"
	default:
		return "unknown"
	}
}

var (
	// ErrCorrupt is returned when compressed data cannot be decoded.
	ErrCorrupt = errors.New("codec: corrupt compressed data")

	// ErrDictionarySize is returned for an LZMA2 dictionary property above 40.
	ErrDictionarySize = errors.New("codec: invalid lzma2 dictionary size")
)

// Inflate decodes a raw DEFLATE stream.
func Inflate(c *cursor.Cursor) ([]byte, error) {
	// bytes.Reader is an io.ByteReader, so the decoder consumes exactly the
	// stream and no read-ahead is lost.
	r := bytes.NewReader(c.Rest())
	fr := flate.NewReader(r)
	defer fr.Close()

	out, err := io.ReadAll(fr)
	if err != nil {
		return nil, decodeError("deflate", err)
	}
	if err := c.Skip(len(c.Rest()) - r.Len()); err != nil {
		return nil, err
	}
	return out, nil
}

// Compress encodes data as a raw DEFLATE stream at the given level
// (flate.BestCompression is used by the GZip writer).
func Compress(data []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("deflate writer: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return nil, fmt.Errorf("deflate write: %w", err)
	}
	if err := fw.Close(); err != nil {
		return nil, fmt.Errorf("deflate close: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeLZMA2 decodes an LZMA2 stream up to and including its end marker.
func DecodeLZMA2(c *cursor.Cursor, dictSize uint32) ([]byte, error) {
	r := bytes.NewReader(c.Rest())
	cfg := lzma.Reader2Config{DictCap: dictCap(dictSize)}
	lr, err := cfg.NewReader2(r)
	if err != nil {
		return nil, decodeError("lzma2", err)
	}
	out, err := io.ReadAll(lr)
	if err != nil {
		return nil, decodeError("lzma2", err)
	}
	if err := c.Skip(len(c.Rest()) - r.Len()); err != nil {
		return nil, err
	}
	return out, nil
}

// EncodeLZMA2 encodes data as an LZMA2 stream with the given dictionary size.
func EncodeLZMA2(data []byte, dictSize uint32) ([]byte, error) {
	var buf bytes.Buffer
	cfg := lzma.Writer2Config{DictCap: dictCap(dictSize)}
	lw, err := cfg.NewWriter2(&buf)
	if err != nil {
		return nil, fmt.Errorf("lzma2 writer: %w", err)
	}
	if _, err := lw.Write(data); err != nil {
		return nil, fmt.Errorf("lzma2 write: %w", err)
	}
	if err := lw.Close(); err != nil {
		return nil, fmt.Errorf("lzma2 close: %w", err)
	}
	return buf.Bytes(), nil
}

// LZMA2DictSize decodes the one-byte dictionary size property of an XZ
// LZMA2 filter.
func LZMA2DictSize(prop byte) (uint32, error) {
	switch {
	case prop > 40:
		return 0, fmt.Errorf("%w: property %d", ErrDictionarySize, prop)
	case prop == 40:
		return 0xFFFFFFFF, nil
	default:
		return (2 | uint32(prop)&1) << (prop/2 + 11), nil
	}
}

// LZMA2DictProperty returns the smallest dictionary size property whose
// size is at least size.
func LZMA2DictProperty(size uint32) byte {
	for prop := byte(0); prop < 40; prop++ {
		if s, _ := LZMA2DictSize(prop); s >= size {
			return prop
		}
	}
	return 40
}

func dictCap(size uint32) int {
	c := int64(size)
	if c < lzma.MinDictCap {
		c = lzma.MinDictCap
	}
	if c > lzma.MaxDictCap {
		c = lzma.MaxDictCap
	}
	return int(c)
}

func decodeError(method string, err error) error {
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%s: %w", method, cursor.ErrOutOfData)
	}
	return fmt.Errorf("%w: %s: %v", ErrCorrupt, method, err)
}

// BestCompression is the DEFLATE level matching GZip's "slowest" XFL value.
const BestCompression = flate.BestCompression
