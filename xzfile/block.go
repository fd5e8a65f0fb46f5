package xzfile

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"garchive/checksum"
	"garchive/codec"
	"garchive/cursor"
)

const (
	blockFlagFilters  = 0x03
	blockFlagReserved = 0x3c
	blockFlagCompSize = 0x40
	blockFlagSize     = 0x80
)

// record is the index entry of one block.
type record struct {
	unpaddedSize     uint64
	uncompressedSize uint64
}

type block struct {
	data    []byte
	record  record
	checkOK bool
}

// readBlock parses one block. sizeByte is the header size indicator the
// caller already consumed while looking for the index.
func readBlock(c *cursor.Cursor, sizeByte byte, check CheckType) (block, error) {
	var blk block
	start := c.Offset() - 1
	headerSize := (int(sizeByte) + 1) * 4

	flags, err := c.Byte()
	if err != nil {
		return blk, err
	}
	if flags&blockFlagReserved != 0 {
		return blk, fmt.Errorf("%w: block flags %#02x", ErrReservedFieldValue, flags)
	}

	var declaredCompressed, declaredSize uint64
	if flags&blockFlagCompSize != 0 {
		if declaredCompressed, err = readMultiByte(c); err != nil {
			return blk, err
		}
		if declaredCompressed == 0 {
			return blk, fmt.Errorf("%w: zero compressed size", ErrWrongField)
		}
	}
	if flags&blockFlagSize != 0 {
		if declaredSize, err = readMultiByte(c); err != nil {
			return blk, err
		}
	}

	filters := make([]filter, 0, int(flags&blockFlagFilters)+1)
	for range int(flags&blockFlagFilters) + 1 {
		f, err := readFilter(c)
		if err != nil {
			return blk, err
		}
		filters = append(filters, f)
	}
	if err := validateChain(filters); err != nil {
		return blk, err
	}

	if c.Offset()-start > headerSize-4 {
		return blk, fmt.Errorf("%w: block header overruns its size", ErrWrongField)
	}
	for c.Offset()-start < headerSize-4 {
		b, err := c.Byte()
		if err != nil {
			return blk, err
		}
		if b != 0 {
			return blk, fmt.Errorf("%w: block header", ErrWrongPadding)
		}
	}
	want := checksum.CRC32(c.Slice(start, c.Offset()))
	got, err := c.Uint32()
	if err != nil {
		return blk, err
	}
	if got != want {
		return blk, fmt.Errorf("%w: block header", ErrWrongInfoFieldsCRC)
	}

	dataStart := c.Offset()
	if blk.data, err = decodeChain(c, filters); err != nil {
		return blk, err
	}
	compressed := uint64(c.Offset() - dataStart)
	if flags&blockFlagCompSize != 0 && compressed != declaredCompressed {
		return blk, fmt.Errorf("%w: compressed size %d, header says %d", ErrWrongDataSize, compressed, declaredCompressed)
	}
	if flags&blockFlagSize != 0 && uint64(len(blk.data)) != declaredSize {
		return blk, fmt.Errorf("%w: uncompressed size %d, header says %d", ErrWrongDataSize, len(blk.data), declaredSize)
	}

	for n := compressed; n%4 != 0; n++ {
		b, err := c.Byte()
		if err != nil {
			return blk, err
		}
		if b != 0 {
			return blk, fmt.Errorf("%w: block data", ErrWrongPadding)
		}
	}

	stored, err := c.Bytes(check.Size())
	if err != nil {
		return blk, err
	}
	blk.checkOK = bytes.Equal(stored, check.sum(blk.data))
	blk.record = record{
		unpaddedSize:     uint64(headerSize) + compressed + uint64(check.Size()),
		uncompressedSize: uint64(len(blk.data)),
	}
	return blk, nil
}

// appendBlock encodes data as one block with the given filter chain. Both
// sizes are declared in the header.
func appendBlock(out, data []byte, filters []filter, check CheckType) ([]byte, record, error) {
	payload := data
	for i := len(filters) - 2; i >= 0; i-- {
		payload = bytes.Clone(payload)
		deltaEncode(payload, filters[i].distance)
	}
	compressed, err := codec.EncodeLZMA2(payload, filters[len(filters)-1].dictSize)
	if err != nil {
		return out, record{}, err
	}

	header := []byte{0, blockFlagCompSize | blockFlagSize | byte(len(filters)-1)}
	header = appendMultiByte(header, uint64(len(compressed)))
	header = appendMultiByte(header, uint64(len(data)))
	for _, f := range filters {
		header = appendFilter(header, f)
	}
	for len(header)%4 != 0 {
		header = append(header, 0)
	}
	header[0] = byte((len(header)+4)/4 - 1)
	header = binary.LittleEndian.AppendUint32(header, checksum.CRC32(header))

	out = append(out, header...)
	out = append(out, compressed...)
	for n := len(compressed); n%4 != 0; n++ {
		out = append(out, 0)
	}
	out = append(out, check.sum(data)...)

	rec := record{
		unpaddedSize:     uint64(len(header) + len(compressed) + check.Size()),
		uncompressedSize: uint64(len(data)),
	}
	return out, rec, nil
}
