package main

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"garchive/checksum"
	"garchive/tarfile"
)

var tarCmd = &cobra.Command{
	Use:   "tar",
	Short: "List, create and extract tar archives, optionally gzip or xz compressed",
}

var tarListCmd = &cobra.Command{
	Use:   "list FILE",
	Short: "List the entries of an archive",
	Args:  cobra.ExactArgs(1),
	RunE:  runTarList,
}

var tarCreateCmd = &cobra.Command{
	Use:   "create -o OUT PATH...",
	Short: "Create an archive from files and directories",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTarCreate,
}

var tarExtractCmd = &cobra.Command{
	Use:   "extract FILE",
	Short: "Extract an archive into a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runTarExtract,
}

func init() {
	tarListCmd.Flags().Bool("full-digest", false, "print the whole sha256 digest of each file")

	tarCreateCmd.Flags().StringP("output", "o", "", "output archive (- for stdout)")
	tarCreateCmd.Flags().String("compress", "", "compress with gz or xz (default: from the output suffix)")
	_ = tarCreateCmd.MarkFlagRequired("output")

	tarExtractCmd.Flags().StringP("directory", "C", ".", "extract into DIR")

	tarCmd.AddCommand(tarListCmd)
	tarCmd.AddCommand(tarCreateCmd)
	tarCmd.AddCommand(tarExtractCmd)
}

// openArchive reads path and returns its entries, stripping any gzip or xz
// container first.
func openArchive(path string) ([]tarfile.Entry, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, err
	}
	raw, w, err := unwrap(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	slog.Debug("opened archive", "path", path, "compression", w, "size", len(raw))
	entries, err := tarfile.Open(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

func runTarList(cmd *cobra.Command, args []string) error {
	full, _ := cmd.Flags().GetBool("full-digest") //nolint:errcheck // flag name is hardcoded
	entries, err := openArchive(args[0])
	if err != nil {
		return err
	}
	writeListing(cmd.OutOrStdout(), entries, newStyles(), full)
	return nil
}

func writeListing(w io.Writer, entries []tarfile.Entry, st styles, full bool) {
	for _, e := range entries {
		fmt.Fprintln(w, listLine(e, st, full))
	}
}

// listLine renders one entry as "mode owner size mtime digest name".
func listLine(e tarfile.Entry, st styles, full bool) string {
	info := e.Info
	owner := info.OwnerUserName
	if owner == "" {
		owner = fmt.Sprint(info.OwnerID)
	}
	group := info.OwnerGroupName
	if group == "" {
		group = fmt.Sprint(info.GroupID)
	}

	sum := "-"
	if info.IsRegular() {
		d := checksum.Digest(e.Data())
		sum = d.String()
		if !full {
			sum = d.Algorithm().String() + ":" + d.Encoded()[:12]
		}
	}

	name := info.Name
	switch info.Type {
	case tarfile.Directory:
		name = st.dir.Render(name + "/")
	case tarfile.SymbolicLink:
		name = st.link.Render(name) + " -> " + info.LinkName
	case tarfile.HardLink:
		name = st.link.Render(name) + " link to " + info.LinkName
	case tarfile.Regular, tarfile.Contiguous:
	default:
		name = st.other.Render(name)
	}

	size := fmt.Sprint(info.Size)
	if info.IsDev() {
		size = fmt.Sprintf("%d,%d", info.DeviceMajor, info.DeviceMinor)
	}

	return fmt.Sprintf("%c%s %s/%s %10s %s %s %s",
		typeChar(info.Type),
		info.Permissions.Perm().String()[1:],
		owner, group,
		size,
		info.ModificationTime.UTC().Format("2006-01-02 15:04"),
		st.digest.Render(sum),
		name,
	)
}

func typeChar(t tarfile.EntryType) byte {
	switch t {
	case tarfile.Directory:
		return 'd'
	case tarfile.SymbolicLink:
		return 'l'
	case tarfile.HardLink:
		return 'h'
	case tarfile.CharacterSpecial:
		return 'c'
	case tarfile.BlockSpecial:
		return 'b'
	case tarfile.FIFO:
		return 'p'
	case tarfile.Socket:
		return 's'
	case tarfile.Regular, tarfile.Contiguous:
		return '-'
	default:
		return '?'
	}
}

func runTarCreate(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")     //nolint:errcheck // flag name is hardcoded
	compress, _ := cmd.Flags().GetString("compress") //nolint:errcheck // flag name is hardcoded

	w := wrappingForName(output)
	if cmd.Flags().Changed("compress") {
		var err error
		if w, err = parseWrapping(compress); err != nil {
			return err
		}
	}

	entries, err := collectEntries(args)
	if err != nil {
		return err
	}
	out, err := tarfile.Create(entries)
	if err != nil {
		return err
	}
	if out, err = wrap(out, w); err != nil {
		return err
	}
	slog.Debug("created archive", "output", output, "entries", len(entries), "compression", w)
	return writeOutput(output, out)
}

// wrappingForName guesses the compression from an archive file name.
func wrappingForName(name string) wrapping {
	switch {
	case strings.HasSuffix(name, ".gz"), strings.HasSuffix(name, ".tgz"):
		return gzipped
	case strings.HasSuffix(name, ".xz"), strings.HasSuffix(name, ".txz"):
		return xzipped
	default:
		return plain
	}
}

// collectEntries walks every path and returns one entry per file,
// directories before their contents. Symbolic links are stored, not
// followed.
func collectEntries(paths []string) ([]tarfile.Entry, error) {
	var entries []tarfile.Entry
	for _, root := range paths {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if filepath.Clean(path) == "." {
				return nil
			}
			fi, err := d.Info()
			if err != nil {
				return err
			}
			info, err := tarfile.EntryInfoFromFile(path, fi)
			if err != nil {
				return err
			}
			var data []byte
			if info.Type == tarfile.Regular {
				if data, err = os.ReadFile(path); err != nil {
					return err
				}
			}
			slog.Debug("adding", "name", info.Name, "type", info.Type)
			entries = append(entries, tarfile.NewEntry(info, data))
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func runTarExtract(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("directory") //nolint:errcheck // flag name is hardcoded
	entries, err := openArchive(args[0])
	if err != nil {
		return err
	}
	if err := tarfile.Extract(entries, dir); err != nil {
		return err
	}
	slog.Debug("extracted", "archive", args[0], "directory", dir, "entries", len(entries))
	return nil
}
