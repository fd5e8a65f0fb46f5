package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"garchive/config"
	"garchive/gzipfile"
)

var gzCmd = &cobra.Command{
	Use:   "gz",
	Short: "Compress and decompress gzip files",
}

var gzCompressCmd = &cobra.Command{
	Use:   "compress FILE",
	Short: "Compress FILE into a single gzip member",
	Args:  cobra.ExactArgs(1),
	RunE:  runGzCompress,
}

var gzDecompressCmd = &cobra.Command{
	Use:   "decompress FILE",
	Short: "Decompress every member of a gzip file",
	Args:  cobra.ExactArgs(1),
	RunE:  runGzDecompress,
}

func init() {
	gzCompressCmd.Flags().StringP("output", "o", "", "output file (default: FILE.gz, - for stdout)")
	gzCompressCmd.Flags().String("name", "", "original file name to store (default: base name of FILE)")
	gzCompressCmd.Flags().String("comment", "", "member comment")
	gzCompressCmd.Flags().Bool("header-crc", false, "store a CRC16 of the header")
	gzCompressCmd.Flags().Bool("text", false, "mark the payload as text")
	gzCompressCmd.Flags().String("os", "", "originating file system (fat, unix, macintosh, ntfs, other)")

	gzDecompressCmd.Flags().StringP("output", "o", "", "output file (default: FILE without .gz, - for stdout)")
	gzDecompressCmd.Flags().Bool("keep-corrupt", false, "write the output even when a checksum does not match")

	gzCmd.AddCommand(gzCompressCmd)
	gzCmd.AddCommand(gzDecompressCmd)
}

// gzipSettings collects the Archive options from config and flags.
type gzipSettings struct {
	name      string
	comment   string
	headerCRC bool
	text      bool
	osType    string
}

func gzipSettingsFrom(c config.GzipConfig) gzipSettings {
	var s gzipSettings
	if c.OSType != nil {
		s.osType = *c.OSType
	}
	if c.HeaderCRC != nil {
		s.headerCRC = *c.HeaderCRC
	}
	return s
}

func (s gzipSettings) options() ([]gzipfile.Option, error) {
	opts := []gzipfile.Option{
		gzipfile.WithFileName(s.name),
		gzipfile.WithComment(s.comment),
		gzipfile.WithHeaderCRC(s.headerCRC),
		gzipfile.WithTextFile(s.text),
	}
	if s.osType != "" {
		t, err := gzipfile.ParseOSType(s.osType)
		if err != nil {
			return nil, err
		}
		opts = append(opts, gzipfile.WithOSType(t))
	}
	return opts, nil
}

func runGzCompress(cmd *cobra.Command, args []string) error {
	input := args[0]
	s := gzipSettingsFrom(cfg.Gzip)
	flags := cmd.Flags()
	output, _ := flags.GetString("output") //nolint:errcheck // flag name is hardcoded
	s.name, _ = flags.GetString("name")    //nolint:errcheck // flag name is hardcoded
	s.comment, _ = flags.GetString("comment")
	s.text, _ = flags.GetBool("text")
	if flags.Changed("header-crc") {
		s.headerCRC, _ = flags.GetBool("header-crc")
	}
	if flags.Changed("os") {
		s.osType, _ = flags.GetString("os")
	}
	if !flags.Changed("name") && input != "-" {
		s.name = filepath.Base(input)
	}
	if output == "" {
		output = compressedName(input, ".gz")
	}

	data, err := readInput(input)
	if err != nil {
		return err
	}
	opts, err := s.options()
	if err != nil {
		return err
	}
	if input != "-" {
		if st, err := os.Stat(input); err == nil {
			opts = append(opts, gzipfile.WithModificationTime(st.ModTime()))
		}
	}
	out, err := gzipfile.Archive(data, opts...)
	if err != nil {
		return fmt.Errorf("compress %s: %w", input, err)
	}
	slog.Debug("compressed", "input", input, "output", output, "in", len(data), "out", len(out))
	return writeOutput(output, out)
}

func runGzDecompress(cmd *cobra.Command, args []string) error {
	input := args[0]
	output, _ := cmd.Flags().GetString("output")          //nolint:errcheck // flag name is hardcoded
	keepCorrupt, _ := cmd.Flags().GetBool("keep-corrupt") //nolint:errcheck // flag name is hardcoded

	data, err := readInput(input)
	if err != nil {
		return err
	}
	if output == "" {
		if output, err = decompressedName(input, ".gz"); err != nil {
			return err
		}
	}

	members, err := gzipfile.MultiUnarchive(data)
	var crcErr *gzipfile.CRCError
	switch {
	case errors.As(err, &crcErr):
		if !keepCorrupt {
			return fmt.Errorf("%s: %w", input, err)
		}
		slog.Warn("writing corrupt output", "input", input, "error", err)
		if err := writeOutput(output, joinMembers(crcErr.Members)); err != nil {
			return err
		}
		return &exitError{code: 1}
	case err != nil:
		return fmt.Errorf("%s: %w", input, err)
	}

	for i, m := range members {
		slog.Debug("member", "index", i+1, "name", m.Header.FileName, "os", m.Header.OSType, "size", len(m.Data))
	}
	return writeOutput(output, joinMembers(members))
}
