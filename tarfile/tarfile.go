// Package tarfile reads and writes TAR archives in the pre-POSIX, ustar,
// GNU and PAX dialects. It works on whole in-memory buffers and knows
// nothing about compression; callers decompress first.
package tarfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"garchive/cursor"
)

// state is what earlier special entries left for the next regular entry.
type state struct {
	global   map[string]string
	local    map[string]string
	longName string
	longLink string
	format   Format
}

// Reader returns the entries of an archive one at a time.
type Reader struct {
	c    *cursor.Cursor
	st   state
	done bool
}

// NewReader returns a Reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{c: cursor.New(data)}
}

// Next returns the next regular entry. It returns io.EOF once the end of
// the archive is reached; any other error is final as well.
func (r *Reader) Next() (Entry, error) {
	if r.done {
		return Entry{}, io.EOF
	}
	e, st, err := next(r.c, r.st)
	if err != nil {
		r.done = true
		return Entry{}, err
	}
	r.st = st
	return e, nil
}

// Format returns the most specific dialect seen so far.
func (r *Reader) Format() Format { return r.st.format }

// next reads blocks until it can return a regular entry, accumulating
// extended headers and long names in st on the way.
func next(c *cursor.Cursor, st state) (Entry, state, error) {
	for {
		if atEnd(c) {
			return Entry{}, st, io.EOF
		}
		offset := c.Offset()
		block, err := c.Bytes(blockSize)
		if err != nil {
			return Entry{}, st, &HeaderError{Offset: offset, Err: err}
		}
		h, err := parseHeader(block)
		if err != nil {
			return Entry{}, st, &HeaderError{Offset: offset, Err: err}
		}
		st.format = max(st.format, h.format)

		switch h.typeFlag {
		case typePaxLocal, typePaxGlobal, typeSunExtended:
			body, err := payload(c, h.size)
			if err != nil {
				return Entry{}, st, &HeaderError{Offset: offset, Err: err}
			}
			records, err := parsePax(body)
			if err != nil {
				return Entry{}, st, &HeaderError{Offset: offset, Err: err}
			}
			if h.typeFlag == typePaxGlobal {
				st.global = records
			} else {
				st.local = records
			}
			st.format = PAX
			continue
		case typeGNULongName, typeGNULongLink:
			body, err := payload(c, h.size)
			if err != nil {
				return Entry{}, st, &HeaderError{Offset: offset, Err: err}
			}
			if h.typeFlag == typeGNULongName {
				st.longName = cString(body)
			} else {
				st.longLink = cString(body)
			}
			st.format = max(st.format, GNU)
			continue
		}

		info := h.entryInfo()
		if st.longName != "" {
			info.Name = st.longName
		}
		if st.longLink != "" {
			info.LinkName = st.longLink
		}
		if err := info.applyPax(st.global); err != nil {
			return Entry{}, st, &HeaderError{Offset: offset, Err: err}
		}
		if err := info.applyPax(st.local); err != nil {
			return Entry{}, st, &HeaderError{Offset: offset, Err: err}
		}
		if info.IsDir() {
			info.Name = strings.TrimSuffix(info.Name, "/")
		}
		st.local, st.longName, st.longLink = nil, "", ""

		var data []byte
		if info.Type.hasData() {
			if data, err = payload(c, info.Size); err != nil {
				return Entry{}, st, &HeaderError{Offset: offset, Err: err}
			}
		} else {
			info.Size = 0
		}
		return Entry{Info: info, data: data}, st, nil
	}
}

// atEnd reports whether the archive ends at the cursor: no bytes left, two
// zero blocks, or fewer than two blocks left that are all zeros. A lone zero
// block followed by more data is not an end marker; it is parsed as a header
// and fails there.
func atEnd(c *cursor.Cursor) bool {
	rest := c.Rest()
	if len(rest) < 2*blockSize {
		return isZero(rest)
	}
	if !isZero(rest[:2*blockSize]) {
		return false
	}
	if len(rest) > 2*blockSize && !isZero(rest[2*blockSize:]) {
		slog.Debug("tar: data after end of archive", "offset", c.Offset()+2*blockSize)
	}
	return true
}

func isZero(b []byte) bool {
	for _, x := range b {
		if x != 0 {
			return false
		}
	}
	return true
}

// payload reads size bytes of entry data and skips the padding up to the
// next block. Input ending inside the padding is accepted.
func payload(c *cursor.Cursor, size int64) ([]byte, error) {
	if size > int64(c.Remaining()) {
		return nil, fmt.Errorf("%w: %d bytes of data, %d left", cursor.ErrOutOfData, size, c.Remaining())
	}
	data, err := c.Bytes(int(size))
	if err != nil {
		return nil, err
	}
	return data, c.Skip(min(int(padding(size)), c.Remaining()))
}

// Open returns every entry of a TAR archive together with its data.
func Open(data []byte) ([]Entry, error) {
	var entries []Entry
	r := NewReader(data)
	for {
		e, err := r.Next()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
}

// Info returns the metadata of every entry of a TAR archive.
func Info(data []byte) ([]EntryInfo, error) {
	entries, err := Open(data)
	if err != nil {
		return nil, err
	}
	infos := make([]EntryInfo, len(entries))
	for i, e := range entries {
		infos[i] = e.Info
	}
	return infos, nil
}

// FormatOf walks the whole archive and reports the most specific dialect
// used: PAX if any extended header is present, then GNU, then Ustar.
func FormatOf(data []byte) (Format, error) {
	r := NewReader(data)
	for {
		_, err := r.Next()
		if errors.Is(err, io.EOF) {
			return r.Format(), nil
		}
		if err != nil {
			return PrePosix, err
		}
	}
}

// Create builds a ustar archive from entries, preceding an entry with a
// local PAX header whenever a value does not fit the ustar fields.
func Create(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	for i, e := range entries {
		info := e.Info
		var size int64
		if info.Type.hasData() {
			size = int64(len(e.data))
		}
		records, err := paxRecords(info, size)
		if err != nil {
			return nil, fmt.Errorf("entry %d (%q): %w", i, info.Name, err)
		}
		if records != nil {
			buf.Write(paxBlock(records, typePaxLocal))
		}
		buf.Write(info.toHeader(size))
		if size > 0 {
			buf.Write(e.data)
			buf.Write(make([]byte, padding(size)))
		}
	}
	buf.Write(make([]byte, 2*blockSize))
	return buf.Bytes(), nil
}
