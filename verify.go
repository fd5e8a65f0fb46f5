package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"garchive/tarfile"
)

var testCmd = &cobra.Command{
	Use:   "test FILE...",
	Short: "Verify archives without writing anything",
	Long: `Decode every FILE completely and check all stored checksums.

gzip and xz files are decompressed; plain files and compressed payloads
that look like tar archives are parsed entry by entry. Files are checked
concurrently; the exit code is 1 if any of them fails.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTest,
}

func init() {
	testCmd.Flags().IntP("workers", "j", 0, "files verified in parallel (default: number of CPUs)")
}

type testResult struct {
	path    string
	summary string
	err     error
}

func runTest(cmd *cobra.Command, args []string) error {
	workers, _ := cmd.Flags().GetInt("workers") //nolint:errcheck // flag name is hardcoded
	if !cmd.Flags().Changed("workers") && cfg.Test.Workers != nil {
		workers = *cfg.Test.Workers
	}

	results := verifyAll(args, workers)

	st := newStyles()
	out := cmd.OutOrStdout()
	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			fmt.Fprintf(out, "%s %s: %v\n", st.err.Render("FAIL"), r.path, r.err)
			continue
		}
		fmt.Fprintf(out, "%s %s: %s\n", st.ok.Render(" OK "), r.path, r.summary)
	}
	if failed > 0 {
		return &exitError{code: 1}
	}
	return nil
}

// verifyAll checks every path with at most workers running at once. The
// results keep the order of paths; one failure does not stop the others.
func verifyAll(paths []string, workers int) []testResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	results := make([]testResult, len(paths))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			results[i] = testResult{path: path}
			data, err := readInput(path)
			if err != nil {
				results[i].err = err
				return nil
			}
			results[i].summary, results[i].err = verify(data)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// verify decodes data fully and describes what it found.
func verify(data []byte) (string, error) {
	raw, w, err := unwrap(data)
	if err != nil {
		return "", err
	}
	summary := fmt.Sprintf("%s, %d bytes", w, len(raw))
	if w != plain && !looksLikeTar(raw) {
		return summary, nil
	}
	r := tarfile.NewReader(raw)
	n := 0
	for {
		_, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		n++
	}
	return fmt.Sprintf("%s, %s tar, %d entries", summary, r.Format(), n), nil
}

// looksLikeTar reports whether the first header block carries a ustar or
// GNU magic.
func looksLikeTar(data []byte) bool {
	const magicOffset = 257
	return len(data) >= 512 && bytes.HasPrefix(data[magicOffset:], []byte("ustar"))
}
