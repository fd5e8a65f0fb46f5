package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"garchive/gzipfile"
	"garchive/xzfile"
)

// wrapping is the compression container around a tar stream.
type wrapping int

const (
	plain wrapping = iota
	gzipped
	xzipped
)

func (w wrapping) String() string {
	switch w {
	case gzipped:
		return "gzip"
	case xzipped:
		return "xz"
	default:
		return "none"
	}
}

var xzMagic = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}

// detect looks at the leading magic bytes only.
func detect(data []byte) wrapping {
	switch {
	case len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b:
		return gzipped
	case bytes.HasPrefix(data, xzMagic):
		return xzipped
	default:
		return plain
	}
}

// parseWrapping maps the --compress flag value.
func parseWrapping(name string) (wrapping, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return plain, nil
	case "gz", "gzip":
		return gzipped, nil
	case "xz":
		return xzipped, nil
	default:
		return plain, fmt.Errorf("unknown compression %q (use gz or xz)", name)
	}
}

// unwrap strips any gzip or xz container from data. Every gzip member is
// decoded and joined; checksum failures are errors.
func unwrap(data []byte) ([]byte, wrapping, error) {
	w := detect(data)
	switch w {
	case gzipped:
		members, err := gzipfile.MultiUnarchive(data)
		if err != nil {
			return nil, w, err
		}
		return joinMembers(members), w, nil
	case xzipped:
		out, err := xzfile.Unarchive(data)
		return out, w, err
	default:
		return data, w, nil
	}
}

// wrap applies the compression container named by w.
func wrap(data []byte, w wrapping) ([]byte, error) {
	switch w {
	case gzipped:
		opts, err := gzipSettingsFrom(cfg.Gzip).options()
		if err != nil {
			return nil, err
		}
		return gzipfile.Archive(data, opts...)
	case xzipped:
		opts, err := xzSettingsFrom(cfg.XZ).options()
		if err != nil {
			return nil, err
		}
		return xzfile.Archive(data, opts...)
	default:
		return data, nil
	}
}

func joinMembers(members []gzipfile.Member) []byte {
	parts := make([][]byte, len(members))
	for i, m := range members {
		parts[i] = m.Data
	}
	return bytes.Join(parts, nil)
}

// readInput reads a whole file, or stdin for "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// writeOutput writes data to path, or to stdout for "-".
func writeOutput(path string, data []byte) error {
	if path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// decompressedName derives an output name by dropping ext from input. It
// fails when input does not carry ext, so the input is never overwritten.
func decompressedName(input, ext string) (string, error) {
	if input == "-" {
		return "-", nil
	}
	name, ok := strings.CutSuffix(input, ext)
	if !ok || name == "" {
		return "", fmt.Errorf("%s: no %s suffix, use -o to name the output", input, ext)
	}
	return name, nil
}

func compressedName(input, ext string) string {
	if input == "-" {
		return "-"
	}
	return input + ext
}
