package xzfile

import (
	"errors"
	"fmt"
)

var (
	// ErrWrongMagic is returned for a bad stream header or footer magic.
	ErrWrongMagic = errors.New("xz: wrong magic number")

	// ErrReservedFieldValue is returned when a reserved bit or value is used.
	ErrReservedFieldValue = errors.New("xz: reserved field value")

	// ErrWrongInfoFieldsCRC is returned when a header, index or footer CRC32
	// does not match.
	ErrWrongInfoFieldsCRC = errors.New("xz: metadata checksum mismatch")

	// ErrWrongFilterID is returned for a filter other than delta or LZMA2, or
	// a chain that does not end with LZMA2.
	ErrWrongFilterID = errors.New("xz: unsupported filter")

	// ErrWrongPadding is returned for non-zero or misaligned padding.
	ErrWrongPadding = errors.New("xz: wrong padding")

	// ErrMultiByteInteger is returned for a malformed variable-length integer.
	ErrMultiByteInteger = errors.New("xz: malformed multi-byte integer")

	// ErrWrongDataSize is returned when a declared size differs from the
	// actual one.
	ErrWrongDataSize = errors.New("xz: size mismatch")

	// ErrWrongField is returned for a structurally invalid field.
	ErrWrongField = errors.New("xz: invalid field")

	// ErrWrongCheck is matched by *CheckError.
	ErrWrongCheck = errors.New("xz: block check mismatch")
)

// CheckError reports a block integrity check mismatch. Data holds everything
// decoded up to and including the stream with the failing block: one element
// per stream for SplitUnarchive, a single joined element for Unarchive.
type CheckError struct {
	Data [][]byte
}

func (e *CheckError) Error() string {
	return fmt.Sprintf("xz: block check mismatch in stream %d", len(e.Data))
}

func (e *CheckError) Unwrap() error { return ErrWrongCheck }
