package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garchive/config"
	"garchive/gzipfile"
	"garchive/tarfile"
	"garchive/xzfile"
)

func sampleTar(t *testing.T) []byte {
	t.Helper()
	out, err := tarfile.Create([]tarfile.Entry{
		tarfile.NewEntry(tarfile.EntryInfo{Name: "dir", Type: tarfile.Directory, Permissions: 0o755}, nil),
		tarfile.NewEntry(tarfile.EntryInfo{Name: "dir/hello.txt", Type: tarfile.Regular, Permissions: 0o644}, []byte("hello\n")),
	})
	require.NoError(t, err)
	return out
}

func TestWrapUnwrap(t *testing.T) {
	payload := sampleTar(t)
	for _, w := range []wrapping{plain, gzipped, xzipped} {
		t.Run(w.String(), func(t *testing.T) {
			wrapped, err := wrap(payload, w)
			require.NoError(t, err)
			assert.Equal(t, w, detect(wrapped))

			raw, got, err := unwrap(wrapped)
			require.NoError(t, err)
			assert.Equal(t, w, got)
			assert.Equal(t, payload, raw)
		})
	}
}

func TestUnwrapJoinsGzipMembers(t *testing.T) {
	a, err := gzipfile.Archive([]byte("first "))
	require.NoError(t, err)
	b, err := gzipfile.Archive([]byte("second"))
	require.NoError(t, err)

	raw, w, err := unwrap(append(a, b...))
	require.NoError(t, err)
	assert.Equal(t, gzipped, w)
	assert.Equal(t, "first second", string(raw))
}

func TestUnwrapCorrupt(t *testing.T) {
	gz, err := gzipfile.Archive([]byte("payload"))
	require.NoError(t, err)
	gz[len(gz)-8] ^= 0xff
	_, _, err = unwrap(gz)
	require.ErrorIs(t, err, gzipfile.ErrWrongCRC)

	xz, err := xzfile.Archive([]byte("payload"), xzfile.WithCheck(xzfile.CheckCRC32))
	require.NoError(t, err)
	_, _, err = unwrap(xz[:len(xz)-1])
	require.Error(t, err)
}

func TestWrapUsesConfig(t *testing.T) {
	saved := cfg
	t.Cleanup(func() { cfg = saved })
	check := "sha256"
	cfg = config.Config{XZ: config.XZConfig{Check: &check}}

	out, err := wrap([]byte("data"), xzipped)
	require.NoError(t, err)
	// Stream flags follow the 6-byte magic; the check type is the low nibble
	// of the second flag byte.
	assert.Equal(t, byte(xzfile.CheckSHA256), out[7]&0x0f)

	bad := "md5"
	cfg = config.Config{XZ: config.XZConfig{Check: &bad}}
	_, err = wrap([]byte("data"), xzipped)
	require.Error(t, err)
}

func TestParseWrapping(t *testing.T) {
	tests := []struct {
		in      string
		want    wrapping
		wantErr bool
	}{
		{"", plain, false},
		{"none", plain, false},
		{"gz", gzipped, false},
		{"GZIP", gzipped, false},
		{"xz", xzipped, false},
		{"bz2", plain, true},
	}
	for _, tt := range tests {
		got, err := parseWrapping(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestWrappingForName(t *testing.T) {
	assert.Equal(t, gzipped, wrappingForName("out.tar.gz"))
	assert.Equal(t, gzipped, wrappingForName("out.tgz"))
	assert.Equal(t, xzipped, wrappingForName("out.tar.xz"))
	assert.Equal(t, xzipped, wrappingForName("out.txz"))
	assert.Equal(t, plain, wrappingForName("out.tar"))
	assert.Equal(t, plain, wrappingForName("-"))
}

func TestOutputNames(t *testing.T) {
	name, err := decompressedName("dir/file.txt.gz", ".gz")
	require.NoError(t, err)
	assert.Equal(t, "dir/file.txt", name)

	_, err = decompressedName("file.txt", ".gz")
	require.Error(t, err)
	_, err = decompressedName(".xz", ".xz")
	require.Error(t, err)

	name, err = decompressedName("-", ".xz")
	require.NoError(t, err)
	assert.Equal(t, "-", name)

	assert.Equal(t, "file.txt.xz", compressedName("file.txt", ".xz"))
	assert.Equal(t, "-", compressedName("-", ".gz"))
}

func TestGzipSettings(t *testing.T) {
	osType := "ntfs"
	crc := true
	s := gzipSettingsFrom(config.GzipConfig{OSType: &osType, HeaderCRC: &crc})
	assert.Equal(t, "ntfs", s.osType)
	assert.True(t, s.headerCRC)

	opts, err := s.options()
	require.NoError(t, err)
	out, err := gzipfile.Archive([]byte("x"), opts...)
	require.NoError(t, err)
	members, err := gzipfile.MultiUnarchive(out)
	require.NoError(t, err)
	assert.Equal(t, gzipfile.NTFS, members[0].Header.OSType)
	assert.True(t, members[0].Header.HasHeaderCRC)

	s.osType = "amiga"
	_, err = s.options()
	require.Error(t, err)
}

func TestXZSettings(t *testing.T) {
	s := xzSettingsFrom(config.XZConfig{})
	assert.Equal(t, uint32(xzfile.DefaultDictSize), s.dictSize)

	dict := uint32(1 << 16)
	block := 1024
	s = xzSettingsFrom(config.XZConfig{DictSize: &dict, BlockSize: &block})
	assert.Equal(t, dict, s.dictSize)
	assert.Equal(t, block, s.blockSize)

	s.delta = 4
	opts, err := s.options()
	require.NoError(t, err)
	data := []byte(strings.Repeat("abcd", 1000))
	out, err := xzfile.Archive(data, opts...)
	require.NoError(t, err)
	got, err := xzfile.Unarchive(out)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestListLine(t *testing.T) {
	mtime := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	st := newStyles()

	file := tarfile.NewEntry(tarfile.EntryInfo{
		Name: "a.txt", Type: tarfile.Regular, Permissions: 0o644,
		OwnerUserName: "alice", GroupID: 20, ModificationTime: mtime,
	}, []byte("hello\n"))
	line := listLine(file, st, false)
	assert.True(t, strings.HasPrefix(line, "-rw-r--r-- alice/20"), line)
	assert.Contains(t, line, "2024-03-01 12:30")
	// sha256("hello\n") begins with 5891b5b522d5.
	assert.Contains(t, line, "sha256:5891b5b522d5")
	assert.NotContains(t, line, "5891b5b522d5df08")
	assert.True(t, strings.HasSuffix(line, "a.txt"), line)

	full := listLine(file, st, true)
	assert.Contains(t, full, "sha256:5891b5b522d5df086d0ff0b110fbd9d21bb4fc7163af34d08286a2e846f6be03")

	link := tarfile.NewEntry(tarfile.EntryInfo{Name: "l", Type: tarfile.SymbolicLink, LinkName: "a.txt", Permissions: 0o777}, nil)
	line = listLine(link, st, false)
	assert.True(t, strings.HasPrefix(line, "lrwxrwxrwx"), line)
	assert.Contains(t, line, " -> a.txt")

	dev := tarfile.NewEntry(tarfile.EntryInfo{Name: "null", Type: tarfile.CharacterSpecial, DeviceMajor: 1, DeviceMinor: 3}, nil)
	assert.Contains(t, listLine(dev, st, false), "1,3")
}

func TestTypeChar(t *testing.T) {
	tests := map[tarfile.EntryType]byte{
		tarfile.Regular:          '-',
		tarfile.Contiguous:       '-',
		tarfile.Directory:        'd',
		tarfile.SymbolicLink:     'l',
		tarfile.HardLink:         'h',
		tarfile.CharacterSpecial: 'c',
		tarfile.BlockSpecial:     'b',
		tarfile.FIFO:             'p',
		tarfile.Socket:           's',
		tarfile.Unknown:          '?',
	}
	for typ, want := range tests {
		assert.Equal(t, want, typeChar(typ), typ.String())
	}
}

func TestCollectEntries(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "f.txt"), []byte("contents"), 0o644))
	require.NoError(t, os.Symlink("f.txt", filepath.Join(dir, "sub", "link")))
	t.Chdir(dir)

	entries, err := collectEntries([]string{"sub"})
	require.NoError(t, err)
	require.Len(t, entries, 3)

	byName := map[string]tarfile.Entry{}
	for _, e := range entries {
		byName[e.Info.Name] = e
	}
	assert.Equal(t, "sub", entries[0].Info.Name, "directories come first")
	assert.Equal(t, tarfile.Directory, byName["sub"].Info.Type)
	assert.Equal(t, "contents", string(byName["sub/f.txt"].Data()))
	assert.Equal(t, tarfile.SymbolicLink, byName["sub/link"].Info.Type)
	assert.Equal(t, "f.txt", byName["sub/link"].Info.LinkName)

	// Round trip through create and extract.
	out, err := tarfile.Create(entries)
	require.NoError(t, err)
	packed, err := wrap(out, xzipped)
	require.NoError(t, err)
	archive := filepath.Join(dir, "out.tar.xz")
	require.NoError(t, writeOutput(archive, packed))

	got, err := openArchive(archive)
	require.NoError(t, err)
	dest := t.TempDir()
	require.NoError(t, tarfile.Extract(got, dest))
	data, err := os.ReadFile(filepath.Join(dest, "sub", "f.txt"))
	require.NoError(t, err)
	assert.Equal(t, "contents", string(data))
}

func TestCollectEntriesMissingPath(t *testing.T) {
	_, err := collectEntries([]string{filepath.Join(t.TempDir(), "missing")})
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestVerify(t *testing.T) {
	tarData := sampleTar(t)
	gzTar, err := gzipfile.Archive(tarData)
	require.NoError(t, err)
	xzText, err := xzfile.Archive([]byte("just text"))
	require.NoError(t, err)

	summary, err := verify(gzTar)
	require.NoError(t, err)
	assert.Equal(t, "gzip, 2560 bytes, ustar tar, 2 entries", summary)

	summary, err = verify(xzText)
	require.NoError(t, err)
	assert.Equal(t, "xz, 9 bytes", summary)

	summary, err = verify(tarData)
	require.NoError(t, err)
	assert.Equal(t, "none, 2560 bytes, ustar tar, 2 entries", summary)

	bad := append([]byte(nil), tarData...)
	bad[0] ^= 0xff
	_, err = verify(bad)
	require.ErrorIs(t, err, tarfile.ErrWrongHeaderChecksum)
}

func TestVerifyReportsFormat(t *testing.T) {
	long := strings.Repeat("n", 150)
	paxTar, err := tarfile.Create([]tarfile.Entry{
		tarfile.NewEntry(tarfile.EntryInfo{Name: "short", Type: tarfile.Regular}, []byte("1")),
		tarfile.NewEntry(tarfile.EntryInfo{Name: long, Type: tarfile.Regular}, []byte("2")),
	})
	require.NoError(t, err)

	summary, err := verify(paxTar)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(summary, ", pax tar, 2 entries"), summary)

	// An error after valid entries fails the whole file.
	broken := append(bytes.Clone(paxTar[:2*512]), make([]byte, 512)...)
	broken = append(broken, paxTar[2*512:]...)
	_, err = verify(broken)
	require.ErrorIs(t, err, tarfile.ErrWrongField)
}

func TestVerifyAll(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.gz")
	gz, err := gzipfile.Archive([]byte("fine"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(good, gz, 0o644))

	corrupt := filepath.Join(dir, "corrupt.gz")
	broken := append([]byte(nil), gz...)
	broken[len(broken)-8] ^= 0xff
	require.NoError(t, os.WriteFile(corrupt, broken, 0o644))

	missing := filepath.Join(dir, "missing")

	results := verifyAll([]string{good, corrupt, missing}, 2)
	require.Len(t, results, 3)
	assert.Equal(t, good, results[0].path)
	require.NoError(t, results[0].err)
	assert.Equal(t, "gzip, 4 bytes", results[0].summary)
	assert.ErrorIs(t, results[1].err, gzipfile.ErrWrongCRC)
	assert.ErrorIs(t, results[2].err, os.ErrNotExist)
}

func TestExitError(t *testing.T) {
	err := &exitError{code: 3}
	assert.Equal(t, "exit code 3", err.Error())
}
