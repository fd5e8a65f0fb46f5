package gzipfile

import (
	"errors"
	"fmt"
)

var (
	// ErrWrongMagic is returned when a member does not start with 1F 8B.
	ErrWrongMagic = errors.New("gzip: wrong magic number")

	// ErrWrongCompressionMethod is returned for any method other than DEFLATE.
	ErrWrongCompressionMethod = errors.New("gzip: unsupported compression method")

	// ErrWrongFlags is returned when a reserved flag bit is set.
	ErrWrongFlags = errors.New("gzip: reserved flag bits set")

	// ErrWrongHeaderCRC is returned when the optional header CRC16 does not match.
	ErrWrongHeaderCRC = errors.New("gzip: header checksum mismatch")

	// ErrWrongCRC is matched by *CRCError.
	ErrWrongCRC = errors.New("gzip: payload checksum mismatch")

	// ErrWrongISize is returned when the trailer size does not match the payload.
	ErrWrongISize = errors.New("gzip: payload size mismatch")

	// ErrCannotEncodeISOLatin1 is returned when a file name or comment has
	// characters outside ISO-8859-1.
	ErrCannotEncodeISOLatin1 = errors.New("gzip: text cannot be encoded as ISO-8859-1")
)

// CRCError reports a payload checksum mismatch. Members holds every member
// decompressed before the failure, followed by the failing member itself.
type CRCError struct {
	Members []Member
}

func (e *CRCError) Error() string {
	return fmt.Sprintf("gzip: payload checksum mismatch in member %d", len(e.Members))
}

func (e *CRCError) Unwrap() error { return ErrWrongCRC }
