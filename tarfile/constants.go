package tarfile

const (
	blockSize       = 512 // Length of processing blocks
	nameLength      = 100 // Max length of name and link name
	ownerNameLength = 32  // Max length of uname and gname
	prefixLength    = 155 // Max length of ustar prefix field

	ustarMagic   = "ustar\x00"
	ustarVersion = "00"
	gnuMagic     = "ustar  \x00" // magic and version together

	maxOctal7  = 1<<21 - 1 // 07777777, uid, gid, device numbers
	maxOctal11 = 1<<33 - 1 // 077777777777, size and mtime
)

// Header field offsets.
const (
	offName     = 0
	offMode     = 100
	offUID      = 108
	offGID      = 116
	offSize     = 124
	offMtime    = 136
	offChecksum = 148
	offType     = 156
	offLinkName = 157
	offMagic    = 257
	offVersion  = 263
	offUname    = 265
	offGname    = 297
	offDevMajor = 329
	offDevMinor = 337
	offPrefix   = 345
	offAtime    = 345 // GNU
	offCtime    = 357 // GNU
)

const (
	typeRegular      = '0'    // Regular file
	typeRegularOld   = '\x00' // Regular file (old format)
	typeHardLink     = '1'    // Hard link
	typeSymlink      = '2'    // Symbolic link
	typeChar         = '3'    // Character device
	typeBlock        = '4'    // Block device
	typeDirectory    = '5'    // Directory
	typeFIFO         = '6'    // FIFO
	typeContiguous   = '7'    // Contiguous file
	typeGNULongName  = 'L'    // GNU long name
	typeGNULongLink  = 'K'    // GNU long link
	typePaxLocal     = 'x'    // POSIX.1-2001 extended header
	typePaxGlobal    = 'g'    // POSIX.1-2001 global header
	typeSunExtended  = 'X'    // Solaris extended header
)

const paxHeaderName = "././@PaxHeader"

// Format is the TAR dialect an archive is written in.
type Format int

const (
	PrePosix Format = iota // V7, no magic
	Ustar                  // POSIX.1-1988
	GNU                    // GNU tar extensions
	PAX                    // POSIX.1-2001 extended headers
)

func (f Format) String() string {
	switch f {
	case PrePosix:
		return "pre-posix"
	case Ustar:
		return "ustar"
	case GNU:
		return "gnu"
	case PAX:
		return "pax"
	default:
		return "unknown"
	}
}
