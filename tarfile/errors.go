package tarfile

import (
	"errors"
	"fmt"
)

var (
	// ErrWrongField means a required numeric header field (size, mtime or
	// checksum) is empty, malformed or out of range.
	ErrWrongField = errors.New("tar: wrong header field")

	// ErrWrongHeaderChecksum means the stored header checksum matches neither
	// the unsigned nor the signed byte sum.
	ErrWrongHeaderChecksum = errors.New("tar: wrong header checksum")

	// ErrWrongPaxHeaderEntry means an extended header record is malformed:
	// bad length, missing newline or '=', or an unparsable value.
	ErrWrongPaxHeaderEntry = errors.New("tar: wrong pax header entry")

	// ErrUTF8NonEncodable means a field written to an extended header is not
	// valid UTF-8.
	ErrUTF8NonEncodable = errors.New("tar: field cannot be encoded as UTF-8")

	// ErrUnsafePath means an entry name or hard link target would resolve
	// outside the extraction directory.
	ErrUnsafePath = errors.New("tar: entry path escapes destination")
)

// HeaderError reports a failure while decoding the header block at Offset.
type HeaderError struct {
	Offset int
	Err    error
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("tar: header at offset %#x: %v", e.Offset, e.Err)
}

func (e *HeaderError) Unwrap() error { return e.Err }
