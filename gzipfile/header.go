package gzipfile

import (
	"bytes"
	"fmt"
	"time"

	"golang.org/x/text/encoding/charmap"

	"garchive/checksum"
	"garchive/codec"
	"garchive/cursor"
)

const (
	magic1 = 0x1f
	magic2 = 0x8b

	methodDeflate = 8

	flagText     = 1 << 0
	flagHCRC     = 1 << 1
	flagExtra    = 1 << 2
	flagName     = 1 << 3
	flagComment  = 1 << 4
	flagReserved = 0xe0

	xflSlowest = 2
)

// OSType is the file system a member was created on.
type OSType uint8

const (
	FAT       OSType = 0
	Unix      OSType = 3
	Macintosh OSType = 7
	NTFS      OSType = 11
	Other     OSType = 255
)

func osTypeOf(b byte) OSType {
	switch t := OSType(b); t {
	case FAT, Unix, Macintosh, NTFS:
		return t
	default:
		return Other
	}
}

func (t OSType) String() string {
	switch t {
	case FAT:
		return "fat"
	case Unix:
		return "unix"
	case Macintosh:
		return "macintosh"
	case NTFS:
		return "ntfs"
	default:
		return "other"
	}
}

// ParseOSType maps a name as returned by String back to an OSType.
func ParseOSType(name string) (OSType, error) {
	for _, t := range []OSType{FAT, Unix, Macintosh, NTFS, Other} {
		if t.String() == name {
			return t, nil
		}
	}
	return Other, fmt.Errorf("gzip: unknown os type %q", name)
}

// Header is the header of one GZip member.
type Header struct {
	CompressionMethod codec.Method
	ModificationTime  time.Time // zero when the member stores no time
	OSType            OSType
	FileName          string
	Comment           string
	IsTextFile        bool
	HeaderCRC         uint16
	HasHeaderCRC      bool
	Extra             []byte // raw FEXTRA payload, not interpreted
}

// ParseHeader reads a member header starting at the cursor's offset.
func ParseHeader(c *cursor.Cursor) (Header, error) {
	var h Header
	start := c.Offset()

	id, err := c.Bytes(2)
	if err != nil {
		return h, err
	}
	if id[0] != magic1 || id[1] != magic2 {
		return h, ErrWrongMagic
	}

	method, err := c.Byte()
	if err != nil {
		return h, err
	}
	if method != methodDeflate {
		return h, fmt.Errorf("%w: %d", ErrWrongCompressionMethod, method)
	}
	h.CompressionMethod = codec.Deflate

	flags, err := c.Byte()
	if err != nil {
		return h, err
	}
	if flags&flagReserved != 0 {
		return h, fmt.Errorf("%w: %#02x", ErrWrongFlags, flags)
	}
	h.IsTextFile = flags&flagText != 0

	mtime, err := c.Uint32()
	if err != nil {
		return h, err
	}
	if mtime != 0 {
		h.ModificationTime = time.Unix(int64(mtime), 0)
	}

	// XFL carries no information the reader needs.
	if err := c.Skip(1); err != nil {
		return h, err
	}
	osByte, err := c.Byte()
	if err != nil {
		return h, err
	}
	h.OSType = osTypeOf(osByte)

	if flags&flagExtra != 0 {
		xlen, err := c.Uint16()
		if err != nil {
			return h, err
		}
		if h.Extra, err = c.Bytes(int(xlen)); err != nil {
			return h, err
		}
	}
	if flags&flagName != 0 {
		if h.FileName, err = latin1String(c); err != nil {
			return h, err
		}
	}
	if flags&flagComment != 0 {
		if h.Comment, err = latin1String(c); err != nil {
			return h, err
		}
	}
	if flags&flagHCRC != 0 {
		want := uint16(checksum.CRC32(c.Slice(start, c.Offset())))
		if h.HeaderCRC, err = c.Uint16(); err != nil {
			return h, err
		}
		if h.HeaderCRC != want {
			return h, ErrWrongHeaderCRC
		}
		h.HasHeaderCRC = true
	}
	return h, nil
}

// latin1String reads a NUL-terminated ISO-8859-1 string.
func latin1String(c *cursor.Cursor) (string, error) {
	n := bytes.IndexByte(c.Rest(), 0)
	if n == -1 {
		return "", fmt.Errorf("%w: unterminated header string", cursor.ErrOutOfData)
	}
	raw, err := c.Bytes(n + 1)
	if err != nil {
		return "", err
	}
	s, err := charmap.ISO8859_1.NewDecoder().Bytes(raw[:n])
	if err != nil {
		return "", err
	}
	return string(s), nil
}

// latin1Bytes encodes s as ISO-8859-1 and makes sure it ends with a NUL.
func latin1Bytes(s string) ([]byte, error) {
	b, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrCannotEncodeISOLatin1, s)
	}
	if len(b) == 0 || b[len(b)-1] != 0 {
		b = append(b, 0)
	}
	return b, nil
}
