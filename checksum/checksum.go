// Package checksum computes the integrity values used by the GZip, XZ and
// TAR containers.
package checksum

import (
	"crypto/sha256"
	"hash/crc32"
	"hash/crc64"

	"github.com/opencontainers/go-digest"
)

var crc64Table = crc64.MakeTable(crc64.ECMA)

// CRC32 returns the IEEE CRC-32 used by GZip trailers and XZ headers.
func CRC32(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// UpdateCRC32 continues a CRC-32 over more data.
func UpdateCRC32(crc uint32, data []byte) uint32 {
	return crc32.Update(crc, crc32.IEEETable, data)
}

// CRC64 returns the ECMA-182 CRC-64 used by XZ block checks.
func CRC64(data []byte) uint64 {
	return crc64.Checksum(data, crc64Table)
}

// SHA256 returns the SHA-256 sum of data.
func SHA256(data []byte) [sha256.Size]byte {
	return sha256.Sum256(data)
}

// Digest returns the canonical content digest of data, e.g. "sha256:...".
func Digest(data []byte) digest.Digest {
	return digest.FromBytes(data)
}
