// Package gzipfile reads and writes single- and multi-member GZip archives
// (RFC 1952).
package gzipfile

import (
	"encoding/binary"
	"fmt"
	"time"

	"garchive/checksum"
	"garchive/codec"
	"garchive/cursor"
)

// Member is one decoded GZip member.
type Member struct {
	Header      Header
	Data        []byte
	CRCMismatch bool // the trailer CRC32 did not match Data
}

// Unarchive decodes the first member of data. A checksum mismatch returns a
// *CRCError carrying the decoded member.
func Unarchive(data []byte) ([]byte, error) {
	m, err := readMember(cursor.New(data))
	if err != nil {
		return nil, err
	}
	if m.CRCMismatch {
		return nil, &CRCError{Members: []Member{m}}
	}
	return m.Data, nil
}

// MultiUnarchive decodes every member of data in file order. Parsing stops
// at the first checksum mismatch; the returned *CRCError holds all members
// read so far, the failing one last.
func MultiUnarchive(data []byte) ([]Member, error) {
	c := cursor.New(data)
	var members []Member
	for {
		m, err := readMember(c)
		if err != nil {
			return nil, fmt.Errorf("member %d: %w", len(members)+1, err)
		}
		members = append(members, m)
		if m.CRCMismatch {
			return nil, &CRCError{Members: members}
		}
		if c.IsFinished() {
			return members, nil
		}
	}
}

func readMember(c *cursor.Cursor) (Member, error) {
	var m Member
	h, err := ParseHeader(c)
	if err != nil {
		return m, err
	}
	m.Header = h

	if m.Data, err = codec.Inflate(c); err != nil {
		return m, err
	}

	crc, err := c.Uint32()
	if err != nil {
		return m, err
	}
	isize, err := c.Uint32()
	if err != nil {
		return m, err
	}
	if checksum.CRC32(m.Data) != crc {
		m.CRCMismatch = true
		return m, nil
	}
	if uint32(len(m.Data)) != isize {
		return m, fmt.Errorf("%w: trailer says %d, got %d", ErrWrongISize, isize, uint32(len(m.Data)))
	}
	return m, nil
}

// Option configures Archive.
type Option func(*archiveConfig)

type archiveConfig struct {
	comment   string
	fileName  string
	headerCRC bool
	text      bool
	osType    OSType
	mtime     time.Time
}

// WithComment stores a member comment.
func WithComment(comment string) Option {
	return func(c *archiveConfig) { c.comment = comment }
}

// WithFileName stores the original file name.
func WithFileName(name string) Option {
	return func(c *archiveConfig) { c.fileName = name }
}

// WithHeaderCRC adds a CRC16 of the header.
func WithHeaderCRC(enabled bool) Option {
	return func(c *archiveConfig) { c.headerCRC = enabled }
}

// WithTextFile sets the FTEXT hint.
func WithTextFile(text bool) Option {
	return func(c *archiveConfig) { c.text = text }
}

// WithOSType records the originating file system.
func WithOSType(t OSType) Option {
	return func(c *archiveConfig) { c.osType = t }
}

// WithModificationTime records the modification time. Times outside the
// 32-bit unsigned range are stored as "no time".
func WithModificationTime(t time.Time) Option {
	return func(c *archiveConfig) { c.mtime = t }
}

// Archive compresses data into a single-member GZip archive.
func Archive(data []byte, opts ...Option) ([]byte, error) {
	cfg := archiveConfig{osType: Other}
	for _, opt := range opts {
		opt(&cfg)
	}

	var flags byte
	var name, comment []byte
	var err error
	if cfg.text {
		flags |= flagText
	}
	if cfg.headerCRC {
		flags |= flagHCRC
	}
	if cfg.fileName != "" {
		flags |= flagName
		if name, err = latin1Bytes(cfg.fileName); err != nil {
			return nil, err
		}
	}
	if cfg.comment != "" {
		flags |= flagComment
		if comment, err = latin1Bytes(cfg.comment); err != nil {
			return nil, err
		}
	}

	var mtime uint32
	if !cfg.mtime.IsZero() {
		if sec := cfg.mtime.Unix(); sec > 0 && sec <= 0xFFFFFFFF {
			mtime = uint32(sec)
		}
	}

	out := []byte{magic1, magic2, methodDeflate, flags}
	out = binary.LittleEndian.AppendUint32(out, mtime)
	out = append(out, xflSlowest, byte(cfg.osType))
	out = append(out, name...)
	out = append(out, comment...)
	if cfg.headerCRC {
		out = binary.LittleEndian.AppendUint16(out, uint16(checksum.CRC32(out)))
	}

	deflated, err := codec.Compress(data, codec.BestCompression)
	if err != nil {
		return nil, err
	}
	out = append(out, deflated...)
	out = binary.LittleEndian.AppendUint32(out, checksum.CRC32(data))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(data)))
	return out, nil
}
