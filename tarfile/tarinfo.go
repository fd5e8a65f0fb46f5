package tarfile

import (
	"bytes"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"garchive/cursor"
)

// EntryType classifies a TAR entry.
type EntryType int

const (
	Unknown EntryType = iota
	Regular
	Directory
	SymbolicLink
	HardLink
	CharacterSpecial
	BlockSpecial
	FIFO
	Contiguous
	Socket
)

func (t EntryType) String() string {
	switch t {
	case Regular:
		return "regular"
	case Directory:
		return "directory"
	case SymbolicLink:
		return "symlink"
	case HardLink:
		return "hardlink"
	case CharacterSpecial:
		return "char"
	case BlockSpecial:
		return "block"
	case FIFO:
		return "fifo"
	case Contiguous:
		return "contiguous"
	case Socket:
		return "socket"
	default:
		return "unknown"
	}
}

func entryTypeOf(flag byte) EntryType {
	switch flag {
	case typeRegular, typeRegularOld:
		return Regular
	case typeHardLink:
		return HardLink
	case typeSymlink:
		return SymbolicLink
	case typeChar:
		return CharacterSpecial
	case typeBlock:
		return BlockSpecial
	case typeDirectory:
		return Directory
	case typeFIFO:
		return FIFO
	case typeContiguous:
		return Contiguous
	default:
		return Unknown
	}
}

// typeFlag is the header byte written for t. Sockets have no TAR
// representation and are stored as regular files, like unknown entries.
func (t EntryType) typeFlag() byte {
	switch t {
	case HardLink:
		return typeHardLink
	case SymbolicLink:
		return typeSymlink
	case CharacterSpecial:
		return typeChar
	case BlockSpecial:
		return typeBlock
	case Directory:
		return typeDirectory
	case FIFO:
		return typeFIFO
	case Contiguous:
		return typeContiguous
	case Regular, Socket, Unknown:
		return typeRegular
	default:
		return typeRegular
	}
}

// hasData reports whether entries of type t carry a payload after their
// header. Links, devices, directories and FIFOs are header-only.
func (t EntryType) hasData() bool {
	switch t {
	case HardLink, SymbolicLink, CharacterSpecial, BlockSpecial, Directory, FIFO:
		return false
	default:
		return true
	}
}

// EntryInfo is the metadata of a single archive member.
type EntryInfo struct {
	Name             string
	Type             EntryType
	LinkName         string
	OwnerID          int
	GroupID          int
	OwnerUserName    string
	OwnerGroupName   string
	Permissions      fs.FileMode
	Size             int64
	ModificationTime time.Time
	AccessTime       time.Time // zero when absent
	CreationTime     time.Time // zero when absent
	DeviceMajor      int
	DeviceMinor      int
	Charset          string
	Comment          string

	// UnknownExtendedHeaderRecords holds PAX records with keys this package
	// does not interpret.
	UnknownExtendedHeaderRecords map[string]string
}

// IsDir reports whether the entry is a directory.
func (info EntryInfo) IsDir() bool { return info.Type == Directory }

// IsRegular reports whether the entry holds file contents.
func (info EntryInfo) IsRegular() bool {
	return info.Type == Regular || info.Type == Contiguous
}

// IsDev reports whether the entry is a device node.
func (info EntryInfo) IsDev() bool {
	return info.Type == CharacterSpecial || info.Type == BlockSpecial
}

func (info EntryInfo) String() string {
	return fmt.Sprintf("<%s %q %d bytes>", info.Type, info.Name, info.Size)
}

// Entry is an archive member: its metadata plus contents.
type Entry struct {
	Info EntryInfo
	data []byte
}

// NewEntry returns an entry holding data; info.Size is set to len(data).
func NewEntry(info EntryInfo, data []byte) Entry {
	e := Entry{Info: info}
	e.SetData(data)
	return e
}

// Data returns the entry contents.
func (e Entry) Data() []byte { return e.data }

// SetData replaces the entry contents and updates Info.Size to match.
func (e *Entry) SetData(data []byte) {
	e.data = data
	e.Info.Size = int64(len(data))
}

// header is one decoded header block before any extended header or long
// name is applied.
type header struct {
	name     string
	mode     int64
	uid      int64
	gid      int64
	size     int64
	mtime    int64
	typeFlag byte
	linkName string
	uname    string
	gname    string
	devMajor int64
	devMinor int64
	atime    int64 // GNU only
	ctime    int64 // GNU only
	format   Format
}

// parseHeader decodes a 512-byte header block.
func parseHeader(block []byte) (header, error) {
	var h header
	c := cursor.New(block)

	h.name = c.TarCString(nameLength)
	h.mode, _ = c.TarInt(8)
	h.uid, _ = c.TarInt(8)
	h.gid, _ = c.TarInt(8)

	var ok bool
	if h.size, ok = c.TarInt(12); !ok || h.size < 0 {
		return h, fmt.Errorf("%w: size", ErrWrongField)
	}
	if h.mtime, ok = c.TarInt(12); !ok {
		return h, fmt.Errorf("%w: mtime", ErrWrongField)
	}
	stored, ok := c.TarInt(8)
	if !ok {
		return h, fmt.Errorf("%w: checksum", ErrWrongField)
	}
	if unsigned, signed := checksums(block); stored != unsigned && stored != signed {
		return h, fmt.Errorf("%w: stored %o, computed %o", ErrWrongHeaderChecksum, stored, unsigned)
	}

	h.typeFlag = block[offType]
	if err := c.SetOffset(offLinkName); err != nil {
		return h, err
	}
	h.linkName = c.TarCString(nameLength)

	magic := block[offMagic : offMagic+8]
	switch {
	case string(magic) == gnuMagic:
		h.format = GNU
	case string(magic[:6]) == ustarMagic:
		h.format = Ustar
	default:
		h.format = PrePosix
	}
	if h.format == PrePosix {
		return h, nil
	}

	if err := c.SetOffset(offUname); err != nil {
		return h, err
	}
	h.uname = c.TarCString(ownerNameLength)
	h.gname = c.TarCString(ownerNameLength)
	h.devMajor, _ = c.TarInt(8)
	h.devMinor, _ = c.TarInt(8)

	if h.format == GNU {
		h.atime, _ = c.TarInt(12)
		h.ctime, _ = c.TarInt(12)
		return h, nil
	}
	if prefix := c.TarCString(prefixLength); prefix != "" {
		h.name = prefix + "/" + h.name
	}
	return h, nil
}

// entryInfo converts a decoded header into entry metadata.
func (h header) entryInfo() EntryInfo {
	info := EntryInfo{
		Name:             h.name,
		Type:             entryTypeOf(h.typeFlag),
		LinkName:         h.linkName,
		OwnerID:          int(h.uid),
		GroupID:          int(h.gid),
		OwnerUserName:    h.uname,
		OwnerGroupName:   h.gname,
		Permissions:      modeFromTar(h.mode),
		Size:             h.size,
		ModificationTime: time.Unix(h.mtime, 0),
		DeviceMajor:      int(h.devMajor),
		DeviceMinor:      int(h.devMinor),
	}
	if h.atime != 0 {
		info.AccessTime = time.Unix(h.atime, 0)
	}
	if h.ctime != 0 {
		info.CreationTime = time.Unix(h.ctime, 0)
	}
	if h.typeFlag == typeRegularOld && strings.HasSuffix(h.name, "/") {
		info.Type = Directory
	}
	if info.Type == Unknown {
		slog.Debug("tar: unknown type flag", "flag", string(h.typeFlag), "name", h.name)
	}
	return info
}

// toHeader encodes info as a ustar header block. Values that do not fit
// their field are written as zero or truncated; the caller puts the exact
// value into a PAX record.
func (info EntryInfo) toHeader(size int64) []byte {
	b := make([]byte, blockSize)

	putString(b[offName:offName+nameLength], info.Name)
	putOctal(b[offMode:offMode+8], tarMode(info.Permissions))
	putOctal(b[offUID:offUID+8], fitOctal(int64(info.OwnerID), maxOctal7))
	putOctal(b[offGID:offGID+8], fitOctal(int64(info.GroupID), maxOctal7))
	putOctal(b[offSize:offSize+12], fitOctal(size, maxOctal11))

	var mtime int64
	if !info.ModificationTime.IsZero() {
		mtime = info.ModificationTime.Unix()
	}
	putOctal(b[offMtime:offMtime+12], fitOctal(mtime, maxOctal11))

	b[offType] = info.Type.typeFlag()
	putString(b[offLinkName:offLinkName+nameLength], info.LinkName)
	copy(b[offMagic:], ustarMagic)
	copy(b[offVersion:], ustarVersion)
	putString(b[offUname:offUname+ownerNameLength], info.OwnerUserName)
	putString(b[offGname:offGname+ownerNameLength], info.OwnerGroupName)
	if info.IsDev() {
		putOctal(b[offDevMajor:offDevMajor+8], fitOctal(int64(info.DeviceMajor), maxOctal7))
		putOctal(b[offDevMinor:offDevMinor+8], fitOctal(int64(info.DeviceMinor), maxOctal7))
	}

	setChecksum(b)
	return b
}

// setChecksum fills the checksum field as six octal digits, NUL, space.
func setChecksum(b []byte) {
	sum, _ := checksums(b)
	copy(b[offChecksum:], fmt.Sprintf("%06o\x00 ", sum))
}

func fitOctal(n, limit int64) int64 {
	if n < 0 || n > limit {
		return 0
	}
	return n
}

// cString returns the contents of a GNU long name payload.
func cString(payload []byte) string {
	if p := bytes.IndexByte(payload, 0); p != -1 {
		payload = payload[:p]
	}
	return strings.ToValidUTF8(string(payload), "\uFFFD")
}
