package tarfile

import (
	"fmt"
	"io/fs"
)

// putOctal writes n as zero-padded octal followed by a NUL, filling field.
// The caller guarantees n fits.
func putOctal(field []byte, n int64) {
	copy(field, fmt.Sprintf("%0*o\x00", len(field)-1, n))
}

// putString copies s into field, truncating or NUL-padding as needed.
func putString(field []byte, s string) {
	n := copy(field, s)
	clear(field[n:])
}

// checksums returns the unsigned and the historical signed sum of a header
// block, with the checksum field counted as eight spaces.
func checksums(block []byte) (unsigned, signed int64) {
	unsigned, signed = 8*' ', 8*' '
	for i, b := range block {
		if i >= offChecksum && i < offChecksum+8 {
			continue
		}
		unsigned += int64(b)
		signed += int64(int8(b))
	}
	return unsigned, signed
}

// padding returns how many bytes follow size bytes of data to reach the next
// block boundary.
func padding(size int64) int64 {
	if rem := size % blockSize; rem > 0 {
		return blockSize - rem
	}
	return 0
}

const (
	modeSetuid = 0o4000
	modeSetgid = 0o2000
	modeSticky = 0o1000
)

func modeFromTar(mode int64) fs.FileMode {
	m := fs.FileMode(mode) & fs.ModePerm
	if mode&modeSetuid != 0 {
		m |= fs.ModeSetuid
	}
	if mode&modeSetgid != 0 {
		m |= fs.ModeSetgid
	}
	if mode&modeSticky != 0 {
		m |= fs.ModeSticky
	}
	return m
}

func tarMode(m fs.FileMode) int64 {
	mode := int64(m.Perm())
	if m&fs.ModeSetuid != 0 {
		mode |= modeSetuid
	}
	if m&fs.ModeSetgid != 0 {
		mode |= modeSetgid
	}
	if m&fs.ModeSticky != 0 {
		mode |= modeSticky
	}
	return mode
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
