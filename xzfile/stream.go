package xzfile

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"garchive/checksum"
	"garchive/cursor"
)

var (
	headerMagic = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
	footerMagic = []byte{'Y', 'Z'}
)

const (
	streamHeaderSize = 12
	streamFooterSize = 12
)

func readStreamHeader(c *cursor.Cursor) (CheckType, error) {
	magic, err := c.Bytes(len(headerMagic))
	if err != nil {
		return 0, err
	}
	if !bytes.Equal(magic, headerMagic) {
		return 0, fmt.Errorf("%w: stream header", ErrWrongMagic)
	}
	flags, err := c.Bytes(2)
	if err != nil {
		return 0, err
	}
	crc, err := c.Uint32()
	if err != nil {
		return 0, err
	}
	if checksum.CRC32(flags) != crc {
		return 0, fmt.Errorf("%w: stream header", ErrWrongInfoFieldsCRC)
	}
	check := CheckType(flags[1])
	if flags[0] != 0 || flags[1]&0xf0 != 0 || !check.valid() {
		return 0, fmt.Errorf("%w: stream flags %#02x%02x", ErrReservedFieldValue, flags[0], flags[1])
	}
	return check, nil
}

// readIndex validates the index against the blocks just decoded and
// returns its size in bytes, CRC included. The index indicator byte has
// already been consumed.
func readIndex(c *cursor.Cursor, records []record) (int, error) {
	start := c.Offset() - 1

	count, err := readMultiByte(c)
	if err != nil {
		return 0, err
	}
	if count != uint64(len(records)) {
		return 0, fmt.Errorf("%w: index has %d records, stream has %d blocks", ErrWrongField, count, len(records))
	}
	for i, rec := range records {
		unpadded, err := readMultiByte(c)
		if err != nil {
			return 0, err
		}
		if unpadded != rec.unpaddedSize {
			return 0, fmt.Errorf("%w: index record %d unpadded size", ErrWrongField, i)
		}
		size, err := readMultiByte(c)
		if err != nil {
			return 0, err
		}
		if size != rec.uncompressedSize {
			return 0, fmt.Errorf("%w: index record %d uncompressed size", ErrWrongDataSize, i)
		}
	}
	for (c.Offset()-start)%4 != 0 {
		b, err := c.Byte()
		if err != nil {
			return 0, err
		}
		if b != 0 {
			return 0, fmt.Errorf("%w: index", ErrWrongPadding)
		}
	}
	want := checksum.CRC32(c.Slice(start, c.Offset()))
	got, err := c.Uint32()
	if err != nil {
		return 0, err
	}
	if got != want {
		return 0, fmt.Errorf("%w: index", ErrWrongInfoFieldsCRC)
	}
	return c.Offset() - start, nil
}

func readStreamFooter(c *cursor.Cursor, check CheckType, indexSize int) error {
	crc, err := c.Uint32()
	if err != nil {
		return err
	}
	fields, err := c.Bytes(6)
	if err != nil {
		return err
	}
	magic, err := c.Bytes(len(footerMagic))
	if err != nil {
		return err
	}
	if checksum.CRC32(fields) != crc {
		return fmt.Errorf("%w: stream footer", ErrWrongInfoFieldsCRC)
	}
	backward := binary.LittleEndian.Uint32(fields[:4])
	if (uint64(backward)+1)*4 != uint64(indexSize) {
		return fmt.Errorf("%w: backward size %d for index of %d bytes", ErrWrongField, (uint64(backward)+1)*4, indexSize)
	}
	if fields[4] != 0 || fields[5] != byte(check) {
		return fmt.Errorf("%w: footer flags do not match stream header", ErrWrongField)
	}
	if !bytes.Equal(magic, footerMagic) {
		return fmt.Errorf("%w: stream footer", ErrWrongMagic)
	}
	return nil
}

// readStream decodes one stream. A failed block check does not stop
// decoding; it is reported through checkOK once the stream is complete. When
// a later part of the same stream is malformed, the earlier check failure
// wins: the data decoded so far is returned with checkOK false and no error.
func readStream(c *cursor.Cursor) (data []byte, checkOK bool, err error) {
	check, err := readStreamHeader(c)
	if err != nil {
		return nil, false, err
	}

	checkOK = true
	fail := func(err error) ([]byte, bool, error) {
		if !checkOK {
			return data, false, nil
		}
		return nil, false, err
	}

	var records []record
	for {
		indicator, err := c.Byte()
		if err != nil {
			return fail(err)
		}
		if indicator == 0 {
			break
		}
		blk, err := readBlock(c, indicator, check)
		if err != nil {
			return fail(fmt.Errorf("block %d: %w", len(records)+1, err))
		}
		data = append(data, blk.data...)
		records = append(records, blk.record)
		checkOK = checkOK && blk.checkOK
	}

	indexSize, err := readIndex(c, records)
	if err != nil {
		return fail(err)
	}
	if err := readStreamFooter(c, check, indexSize); err != nil {
		return fail(err)
	}
	if data == nil {
		data = []byte{}
	}
	return data, checkOK, nil
}

// skipStreamPadding consumes the NUL run after a stream. Its length must be
// a multiple of four, also when it runs to the end of the input.
func skipStreamPadding(c *cursor.Cursor) error {
	n := 0
	for _, b := range c.Rest() {
		if b != 0 {
			break
		}
		n++
	}
	if n%4 != 0 {
		return fmt.Errorf("%w: %d bytes of stream padding", ErrWrongPadding, n)
	}
	return c.Skip(n)
}

func appendStreamHeader(out []byte, check CheckType) []byte {
	flags := []byte{0, byte(check)}
	out = append(out, headerMagic...)
	out = append(out, flags...)
	return binary.LittleEndian.AppendUint32(out, checksum.CRC32(flags))
}

func appendIndex(out []byte, records []record) ([]byte, int) {
	index := []byte{0}
	index = appendMultiByte(index, uint64(len(records)))
	for _, rec := range records {
		index = appendMultiByte(index, rec.unpaddedSize)
		index = appendMultiByte(index, rec.uncompressedSize)
	}
	for len(index)%4 != 0 {
		index = append(index, 0)
	}
	index = binary.LittleEndian.AppendUint32(index, checksum.CRC32(index))
	return append(out, index...), len(index)
}

func appendStreamFooter(out []byte, check CheckType, indexSize int) []byte {
	fields := binary.LittleEndian.AppendUint32(nil, uint32(indexSize/4-1))
	fields = append(fields, 0, byte(check))
	out = binary.LittleEndian.AppendUint32(out, checksum.CRC32(fields))
	out = append(out, fields...)
	return append(out, footerMagic...)
}
