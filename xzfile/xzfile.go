// Package xzfile reads and writes XZ archives: one or more streams, each a
// sequence of independently checked blocks followed by an index and footer.
//
// Only the delta and LZMA2 filters are supported; that covers everything
// produced by xz without explicit BCJ options.
package xzfile

import (
	"bytes"
	"errors"
	"fmt"

	"garchive/codec"
	"garchive/cursor"
)

// Unarchive decodes every stream of data and returns the concatenated
// payload. A block check mismatch returns a *CheckError whose single Data
// element holds everything decoded through the failing stream.
func Unarchive(data []byte) ([]byte, error) {
	streams, err := SplitUnarchive(data)
	var checkErr *CheckError
	if errors.As(err, &checkErr) {
		return nil, &CheckError{Data: [][]byte{bytes.Join(checkErr.Data, nil)}}
	}
	if err != nil {
		return nil, err
	}
	return bytes.Join(streams, nil), nil
}

// SplitUnarchive decodes every stream of data and returns one payload per
// stream. A block check mismatch returns a *CheckError with the payloads of
// all streams decoded so far, the failing stream last.
func SplitUnarchive(data []byte) ([][]byte, error) {
	c := cursor.New(data)
	var streams [][]byte
	for {
		out, checkOK, err := readStream(c)
		if err != nil {
			return nil, fmt.Errorf("stream %d: %w", len(streams)+1, err)
		}
		streams = append(streams, out)
		if !checkOK {
			return nil, &CheckError{Data: streams}
		}
		if err := skipStreamPadding(c); err != nil {
			return nil, err
		}
		if c.IsFinished() {
			return streams, nil
		}
	}
}

// DefaultDictSize is the LZMA2 dictionary size Archive uses by default.
const DefaultDictSize = 8 << 20

// Option configures Archive.
type Option func(*writerConfig)

type writerConfig struct {
	check     CheckType
	dictSize  uint32
	blockSize int
	delta     int
}

// WithCheck selects the block integrity check. The default is CheckCRC64.
func WithCheck(t CheckType) Option {
	return func(c *writerConfig) { c.check = t }
}

// WithDictSize sets the LZMA2 dictionary size.
func WithDictSize(size uint32) Option {
	return func(c *writerConfig) { c.dictSize = size }
}

// WithBlockSize splits the input into blocks of at most size bytes. Zero
// keeps everything in one block.
func WithBlockSize(size int) Option {
	return func(c *writerConfig) { c.blockSize = size }
}

// WithDelta prepends a delta filter with the given distance (1..256).
func WithDelta(distance int) Option {
	return func(c *writerConfig) { c.delta = distance }
}

// Archive compresses data into a single-stream XZ archive.
func Archive(data []byte, opts ...Option) ([]byte, error) {
	cfg := writerConfig{check: CheckCRC64, dictSize: DefaultDictSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	if !cfg.check.valid() {
		return nil, fmt.Errorf("%w: check type %#x", ErrReservedFieldValue, uint8(cfg.check))
	}
	if cfg.delta < 0 || cfg.delta > 256 {
		return nil, fmt.Errorf("%w: delta distance %d", ErrWrongField, cfg.delta)
	}

	var filters []filter
	if cfg.delta > 0 {
		filters = append(filters, filter{id: filterDelta, distance: cfg.delta})
	}
	dictSize, _ := codec.LZMA2DictSize(codec.LZMA2DictProperty(cfg.dictSize))
	filters = append(filters, filter{id: filterLZMA2, dictSize: dictSize})

	out := appendStreamHeader(nil, cfg.check)
	var records []record
	for _, chunk := range chunks(data, cfg.blockSize) {
		var rec record
		var err error
		if out, rec, err = appendBlock(out, chunk, filters, cfg.check); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	out, indexSize := appendIndex(out, records)
	return appendStreamFooter(out, cfg.check, indexSize), nil
}

func chunks(data []byte, size int) [][]byte {
	if len(data) == 0 {
		return nil
	}
	if size <= 0 || size >= len(data) {
		return [][]byte{data}
	}
	var out [][]byte
	for len(data) > size {
		out = append(out, data[:size])
		data = data[size:]
	}
	return append(out, data)
}
