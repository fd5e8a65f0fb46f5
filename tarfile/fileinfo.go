package tarfile

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// EntryInfoFromFile builds entry metadata for the file at path, whose
// Lstat result is fi. The archive name is path with forward slashes and no
// leading slash. Owner names, access times and device numbers are filled in
// where the platform provides them.
func EntryInfoFromFile(path string, fi fs.FileInfo) (EntryInfo, error) {
	info := EntryInfo{
		Name:             strings.TrimLeft(filepath.ToSlash(path), "/"),
		Permissions:      fi.Mode() & (fs.ModePerm | fs.ModeSetuid | fs.ModeSetgid | fs.ModeSticky),
		ModificationTime: fi.ModTime(),
	}

	mode := fi.Mode()
	switch {
	case mode.IsRegular():
		info.Type = Regular
		info.Size = fi.Size()
	case mode.IsDir():
		info.Type = Directory
	case mode&fs.ModeSymlink != 0:
		info.Type = SymbolicLink
		target, err := os.Readlink(path)
		if err != nil {
			return info, err
		}
		info.LinkName = target
	case mode&fs.ModeNamedPipe != 0:
		info.Type = FIFO
	case mode&fs.ModeCharDevice != 0:
		info.Type = CharacterSpecial
	case mode&fs.ModeDevice != 0:
		info.Type = BlockSpecial
	case mode&fs.ModeSocket != 0:
		info.Type = Socket
	default:
		info.Type = Unknown
	}

	statInfo(&info, fi)
	return info, nil
}
