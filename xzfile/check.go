package xzfile

import (
	"encoding/binary"
	"fmt"

	"garchive/checksum"
)

// CheckType is the integrity check a stream stores after every block.
type CheckType uint8

const (
	CheckNone   CheckType = 0x00
	CheckCRC32  CheckType = 0x01
	CheckCRC64  CheckType = 0x04
	CheckSHA256 CheckType = 0x0a
)

func (t CheckType) String() string {
	switch t {
	case CheckNone:
		return "none"
	case CheckCRC32:
		return "crc32"
	case CheckCRC64:
		return "crc64"
	case CheckSHA256:
		return "sha256"
	default:
		return fmt.Sprintf("check(%#x)", uint8(t))
	}
}

// ParseCheckType maps a name as returned by String back to a CheckType.
func ParseCheckType(name string) (CheckType, error) {
	for _, t := range []CheckType{CheckNone, CheckCRC32, CheckCRC64, CheckSHA256} {
		if t.String() == name {
			return t, nil
		}
	}
	return CheckNone, fmt.Errorf("xz: unknown check type %q", name)
}

// Size returns the length of the stored check value.
func (t CheckType) Size() int {
	switch t {
	case CheckCRC32:
		return 4
	case CheckCRC64:
		return 8
	case CheckSHA256:
		return 32
	default:
		return 0
	}
}

func (t CheckType) valid() bool {
	switch t {
	case CheckNone, CheckCRC32, CheckCRC64, CheckSHA256:
		return true
	default:
		return false
	}
}

// sum returns the check value of data in its stored byte order.
func (t CheckType) sum(data []byte) []byte {
	switch t {
	case CheckCRC32:
		return binary.LittleEndian.AppendUint32(nil, checksum.CRC32(data))
	case CheckCRC64:
		return binary.LittleEndian.AppendUint64(nil, checksum.CRC64(data))
	case CheckSHA256:
		s := checksum.SHA256(data)
		return s[:]
	default:
		return nil
	}
}
