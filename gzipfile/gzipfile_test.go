package gzipfile

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garchive/cursor"
)

func TestArchiveRoundTrip(t *testing.T) {
	payloads := [][]byte{
		{},
		[]byte("a"),
		[]byte("hello"),
		bytes.Repeat([]byte("0123456789abcdef"), 4096),
	}
	for _, p := range payloads {
		archived, err := Archive(p)
		require.NoError(t, err)

		got, err := Unarchive(archived)
		require.NoError(t, err)
		assert.Equal(t, len(p), len(got))
		assert.True(t, bytes.Equal(p, got))
	}
}

func TestArchiveHelloScenario(t *testing.T) {
	archived, err := Archive([]byte("hello"),
		WithFileName("hi.txt"),
		WithHeaderCRC(true),
		WithOSType(Unix),
	)
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(archived), 10)
	assert.Equal(t, []byte{0x1f, 0x8b, 0x08}, archived[:3])
	flags := archived[3]
	assert.NotZero(t, flags&(1<<3), "FNAME must be set")
	assert.NotZero(t, flags&(1<<1), "FHCRC must be set")
	assert.Equal(t, byte(2), archived[8], "XFL must be slowest")
	assert.Equal(t, byte(Unix), archived[9])

	got, err := Unarchive(archived)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)

	h, err := ParseHeader(cursor.New(archived))
	require.NoError(t, err)
	assert.Equal(t, "hi.txt", h.FileName)
	assert.True(t, h.HasHeaderCRC)
	assert.Equal(t, Unix, h.OSType)
}

func TestHeaderFields(t *testing.T) {
	mtime := time.Unix(1700000000, 0)
	archived, err := Archive([]byte("text"),
		WithFileName("café.txt"),
		WithComment("a comment"),
		WithTextFile(true),
		WithOSType(NTFS),
		WithModificationTime(mtime),
	)
	require.NoError(t, err)

	members, err := MultiUnarchive(archived)
	require.NoError(t, err)
	require.Len(t, members, 1)

	h := members[0].Header
	assert.Equal(t, "café.txt", h.FileName)
	assert.Equal(t, "a comment", h.Comment)
	assert.True(t, h.IsTextFile)
	assert.Equal(t, NTFS, h.OSType)
	assert.True(t, mtime.Equal(h.ModificationTime))
	assert.False(t, h.HasHeaderCRC)
	assert.False(t, members[0].CRCMismatch)
}

func TestArchiveDefaults(t *testing.T) {
	archived, err := Archive([]byte("x"))
	require.NoError(t, err)
	assert.Equal(t, byte(0), archived[3], "no optional fields")
	assert.Equal(t, []byte{0, 0, 0, 0}, archived[4:8])
	assert.Equal(t, byte(Other), archived[9])

	h, err := ParseHeader(cursor.New(archived))
	require.NoError(t, err)
	assert.True(t, h.ModificationTime.IsZero())
	assert.Empty(t, h.FileName)
}

func TestTrailingNULNotDoubled(t *testing.T) {
	archived, err := Archive([]byte("x"), WithFileName("a\x00"))
	require.NoError(t, err)
	assert.Equal(t, []byte{'a', 0}, archived[10:12])

	h, err := ParseHeader(cursor.New(archived))
	require.NoError(t, err)
	assert.Equal(t, "a", h.FileName)
}

func TestCannotEncodeISOLatin1(t *testing.T) {
	_, err := Archive([]byte("x"), WithFileName("日本.txt"))
	require.ErrorIs(t, err, ErrCannotEncodeISOLatin1)

	_, err = Archive([]byte("x"), WithComment("snow ☃"))
	require.ErrorIs(t, err, ErrCannotEncodeISOLatin1)
}

func TestCorruptTrailerCRC(t *testing.T) {
	payload := []byte("some payload that compresses")
	archived, err := Archive(payload)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		corrupt := bytes.Clone(archived)
		corrupt[len(corrupt)-8+i] ^= 0xff

		_, err := Unarchive(corrupt)
		require.ErrorIs(t, err, ErrWrongCRC)

		var crcErr *CRCError
		require.True(t, errors.As(err, &crcErr))
		require.Len(t, crcErr.Members, 1)
		assert.Equal(t, payload, crcErr.Members[0].Data)
		assert.True(t, crcErr.Members[0].CRCMismatch)
	}
}

func TestWrongISize(t *testing.T) {
	archived, err := Archive([]byte("hello"))
	require.NoError(t, err)
	archived[len(archived)-1] ^= 0x01

	_, err = Unarchive(archived)
	require.ErrorIs(t, err, ErrWrongISize)
}

func TestMultiUnarchive(t *testing.T) {
	var stream []byte
	want := [][]byte{[]byte("first"), []byte("second member"), {}}
	for i, p := range want {
		a, err := Archive(p, WithFileName(string(rune('a'+i))))
		require.NoError(t, err)
		stream = append(stream, a...)
	}

	members, err := MultiUnarchive(stream)
	require.NoError(t, err)
	require.Len(t, members, 3)
	for i, m := range members {
		assert.True(t, bytes.Equal(want[i], m.Data))
		assert.Equal(t, string(rune('a'+i)), m.Header.FileName)
	}

	// Unarchive reads only the first member.
	first, err := Unarchive(stream)
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), first)
}

func TestMultiUnarchivePartialResult(t *testing.T) {
	one, err := Archive([]byte("one"))
	require.NoError(t, err)
	two, err := Archive([]byte("two"))
	require.NoError(t, err)
	three, err := Archive([]byte("three"))
	require.NoError(t, err)

	two[len(two)-5] ^= 0x10 // CRC32 byte
	stream := append(append(append([]byte{}, one...), two...), three...)

	_, err = MultiUnarchive(stream)
	var crcErr *CRCError
	require.ErrorAs(t, err, &crcErr)
	require.Len(t, crcErr.Members, 2)
	assert.Equal(t, []byte("one"), crcErr.Members[0].Data)
	assert.False(t, crcErr.Members[0].CRCMismatch)
	assert.Equal(t, []byte("two"), crcErr.Members[1].Data)
	assert.True(t, crcErr.Members[1].CRCMismatch)
}

func TestHeaderErrors(t *testing.T) {
	valid, err := Archive([]byte("hello"), WithFileName("f"), WithHeaderCRC(true))
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func([]byte)
		want   error
	}{
		{"wrong magic", func(b []byte) { b[1] = 0x8c }, ErrWrongMagic},
		{"wrong method", func(b []byte) { b[2] = 7 }, ErrWrongCompressionMethod},
		{"reserved flag", func(b []byte) { b[3] |= 0x20 }, ErrWrongFlags},
		{"header crc", func(b []byte) { b[4] ^= 0x01 }, ErrWrongHeaderCRC},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := bytes.Clone(valid)
			tt.mutate(data)
			_, err := Unarchive(data)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestTruncated(t *testing.T) {
	archived, err := Archive(bytes.Repeat([]byte("abc"), 100))
	require.NoError(t, err)

	for _, n := range []int{0, 5, 12, len(archived) - 3} {
		_, err := Unarchive(archived[:n])
		require.ErrorIs(t, err, cursor.ErrOutOfData, "length %d", n)
	}
}

func TestExtraFieldKeptRaw(t *testing.T) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestSpeed)
	require.NoError(t, err)
	zw.Extra = []byte{'A', 'B', 2, 0, 'x', 'y'}
	zw.Name = "extra.bin"
	_, err = zw.Write([]byte("payload"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	members, err := MultiUnarchive(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, []byte{'A', 'B', 2, 0, 'x', 'y'}, members[0].Header.Extra)
	assert.Equal(t, "extra.bin", members[0].Header.FileName)
	assert.Equal(t, []byte("payload"), members[0].Data)
}

func TestReadsMultiMemberFromGzipWriter(t *testing.T) {
	var buf bytes.Buffer
	for _, s := range []string{"alpha", "beta", "gamma"} {
		zw := gzip.NewWriter(&buf)
		zw.Comment = s
		_, err := zw.Write([]byte(s))
		require.NoError(t, err)
		require.NoError(t, zw.Close())
	}

	members, err := MultiUnarchive(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, members, 3)
	for i, s := range []string{"alpha", "beta", "gamma"} {
		assert.Equal(t, s, string(members[i].Data))
		assert.Equal(t, s, members[i].Header.Comment)
	}
}

func TestGzipReaderAcceptsArchive(t *testing.T) {
	payload := bytes.Repeat([]byte("interop "), 300)
	archived, err := Archive(payload,
		WithFileName("interop.txt"),
		WithComment("made here"),
		WithHeaderCRC(true),
		WithModificationTime(time.Unix(1234567890, 0)),
	)
	require.NoError(t, err)

	zr, err := gzip.NewReader(bytes.NewReader(archived))
	require.NoError(t, err)
	got, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.Equal(t, "interop.txt", zr.Name)
	assert.Equal(t, "made here", zr.Comment)
	assert.Equal(t, int64(1234567890), zr.ModTime.Unix())
}

func TestParseOSType(t *testing.T) {
	for _, ot := range []OSType{FAT, Unix, Macintosh, NTFS, Other} {
		got, err := ParseOSType(ot.String())
		require.NoError(t, err)
		assert.Equal(t, ot, got)
	}
	_, err := ParseOSType("amiga")
	require.Error(t, err)
	assert.Equal(t, Other, osTypeOf(1))
}
