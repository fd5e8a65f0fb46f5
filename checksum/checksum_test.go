package checksum

import (
	"encoding/hex"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKnownVectors(t *testing.T) {
	data := []byte("123456789")

	assert.Equal(t, uint32(0xCBF43926), CRC32(data))
	assert.Equal(t, uint64(0x995DC9BBDF1939FA), CRC64(data))

	sum := SHA256(data)
	assert.Equal(t, "15e2b0d3c33891ebb0f1ef609ec419420c20e320ce94c65fbc8c3312448eb225", hex.EncodeToString(sum[:]))
}

func TestUpdateCRC32(t *testing.T) {
	whole := CRC32([]byte("hello world"))
	part := UpdateCRC32(CRC32([]byte("hello ")), []byte("world"))
	assert.Equal(t, whole, part)
}

func TestDigestMatchesSHA256(t *testing.T) {
	data := []byte("hello")
	d := Digest(data)
	require.NoError(t, d.Validate())
	assert.Equal(t, digest.SHA256, d.Algorithm())

	sum := SHA256(data)
	assert.Equal(t, hex.EncodeToString(sum[:]), d.Encoded())
}
