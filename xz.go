package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"garchive/config"
	"garchive/xzfile"
)

var xzCmd = &cobra.Command{
	Use:   "xz",
	Short: "Compress and decompress xz files",
}

var xzCompressCmd = &cobra.Command{
	Use:   "compress FILE",
	Short: "Compress FILE into a single xz stream",
	Args:  cobra.ExactArgs(1),
	RunE:  runXZCompress,
}

var xzDecompressCmd = &cobra.Command{
	Use:   "decompress FILE",
	Short: "Decompress every stream of an xz file",
	Args:  cobra.ExactArgs(1),
	RunE:  runXZDecompress,
}

func init() {
	xzCompressCmd.Flags().StringP("output", "o", "", "output file (default: FILE.xz, - for stdout)")
	xzCompressCmd.Flags().String("check", "", "block check: none, crc32, crc64 or sha256 (default crc64)")
	xzCompressCmd.Flags().Int("block-size", 0, "split input into blocks of at most N bytes (0: one block)")
	xzCompressCmd.Flags().Uint32("dict-size", xzfile.DefaultDictSize, "LZMA2 dictionary size in bytes")
	xzCompressCmd.Flags().Int("delta", 0, "prepend a delta filter with this distance (1-256)")

	xzDecompressCmd.Flags().StringP("output", "o", "", "output file (default: FILE without .xz, - for stdout)")
	xzDecompressCmd.Flags().Bool("keep-corrupt", false, "write the output even when a block check does not match")

	xzCmd.AddCommand(xzCompressCmd)
	xzCmd.AddCommand(xzDecompressCmd)
}

// xzSettings collects the Archive options from config and flags.
type xzSettings struct {
	check     string
	dictSize  uint32
	blockSize int
	delta     int
}

func xzSettingsFrom(c config.XZConfig) xzSettings {
	s := xzSettings{dictSize: xzfile.DefaultDictSize}
	if c.Check != nil {
		s.check = *c.Check
	}
	if c.DictSize != nil {
		s.dictSize = *c.DictSize
	}
	if c.BlockSize != nil {
		s.blockSize = *c.BlockSize
	}
	return s
}

func (s xzSettings) options() ([]xzfile.Option, error) {
	opts := []xzfile.Option{
		xzfile.WithDictSize(s.dictSize),
		xzfile.WithBlockSize(s.blockSize),
	}
	if s.check != "" {
		t, err := xzfile.ParseCheckType(s.check)
		if err != nil {
			return nil, err
		}
		opts = append(opts, xzfile.WithCheck(t))
	}
	if s.delta != 0 {
		opts = append(opts, xzfile.WithDelta(s.delta))
	}
	return opts, nil
}

func runXZCompress(cmd *cobra.Command, args []string) error {
	input := args[0]
	s := xzSettingsFrom(cfg.XZ)
	flags := cmd.Flags()
	output, _ := flags.GetString("output") //nolint:errcheck // flag name is hardcoded
	if flags.Changed("check") {
		s.check, _ = flags.GetString("check")
	}
	if flags.Changed("block-size") {
		s.blockSize, _ = flags.GetInt("block-size")
	}
	if flags.Changed("dict-size") {
		s.dictSize, _ = flags.GetUint32("dict-size")
	}
	s.delta, _ = flags.GetInt("delta")
	if output == "" {
		output = compressedName(input, ".xz")
	}

	data, err := readInput(input)
	if err != nil {
		return err
	}
	opts, err := s.options()
	if err != nil {
		return err
	}
	out, err := xzfile.Archive(data, opts...)
	if err != nil {
		return fmt.Errorf("compress %s: %w", input, err)
	}
	slog.Debug("compressed", "input", input, "output", output, "in", len(data), "out", len(out))
	return writeOutput(output, out)
}

func runXZDecompress(cmd *cobra.Command, args []string) error {
	input := args[0]
	output, _ := cmd.Flags().GetString("output")          //nolint:errcheck // flag name is hardcoded
	keepCorrupt, _ := cmd.Flags().GetBool("keep-corrupt") //nolint:errcheck // flag name is hardcoded

	data, err := readInput(input)
	if err != nil {
		return err
	}
	if output == "" {
		if output, err = decompressedName(input, ".xz"); err != nil {
			return err
		}
	}

	out, err := xzfile.Unarchive(data)
	var checkErr *xzfile.CheckError
	switch {
	case errors.As(err, &checkErr):
		if !keepCorrupt {
			return fmt.Errorf("%s: %w", input, err)
		}
		slog.Warn("writing corrupt output", "input", input, "error", err)
		if err := writeOutput(output, checkErr.Data[0]); err != nil {
			return err
		}
		return &exitError{code: 1}
	case err != nil:
		return fmt.Errorf("%s: %w", input, err)
	}
	return writeOutput(output, out)
}
