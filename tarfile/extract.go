package tarfile

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
)

const (
	defaultFileMode = 0o644
	defaultDirMode  = 0o755
)

// Extract writes entries below dir. Regular files, directories, symbolic
// and hard links are created; device nodes, FIFOs and sockets are skipped.
// Names that would resolve outside dir are refused with ErrUnsafePath, and
// all filesystem access goes through an os.Root so that extracted symlinks
// cannot redirect later entries.
func Extract(entries []Entry, dir string) error {
	if err := os.MkdirAll(dir, defaultDirMode); err != nil {
		return err
	}
	root, err := os.OpenRoot(dir)
	if err != nil {
		return err
	}
	defer root.Close()

	for _, e := range entries {
		if err := extractEntry(root, e); err != nil {
			return fmt.Errorf("extract %q: %w", e.Info.Name, err)
		}
	}
	return nil
}

func extractEntry(root *os.Root, e Entry) error {
	info := e.Info
	name, err := localName(info.Name)
	if err != nil {
		return err
	}
	if name == "." {
		return nil
	}
	if parent := filepath.Dir(name); parent != "." {
		if err := root.MkdirAll(parent, defaultDirMode); err != nil {
			return err
		}
	}

	switch info.Type {
	case Directory:
		if err := root.MkdirAll(name, permOr(info.Permissions, defaultDirMode)); err != nil {
			return err
		}
	case SymbolicLink:
		if err := root.Symlink(info.LinkName, name); err != nil {
			return err
		}
		return nil
	case HardLink:
		target, err := localName(info.LinkName)
		if err != nil {
			return err
		}
		return root.Link(target, name)
	case CharacterSpecial, BlockSpecial, FIFO, Socket:
		slog.Debug("tar: skipping special file", "name", info.Name, "type", info.Type)
		return nil
	case Regular, Contiguous, Unknown:
		if err := root.WriteFile(name, e.data, permOr(info.Permissions, defaultFileMode)); err != nil {
			return err
		}
	}

	if !info.ModificationTime.IsZero() {
		atime := info.AccessTime
		if atime.IsZero() {
			atime = info.ModificationTime
		}
		return root.Chtimes(name, atime, info.ModificationTime)
	}
	return nil
}

// localName converts an archive path to a relative host path that stays
// inside the extraction directory.
func localName(name string) (string, error) {
	clean := path.Clean(name)
	if path.IsAbs(clean) || !filepath.IsLocal(filepath.FromSlash(clean)) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}
	return filepath.FromSlash(clean), nil
}

func permOr(m fs.FileMode, def fs.FileMode) fs.FileMode {
	if m.Perm() == 0 {
		return def
	}
	return m.Perm()
}
