package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// transcribeProgress returns a pipeline progress callback writing status
// lines to w.
func transcribeProgress(w io.Writer) func(phase string, current, total int) {
	return func(phase string, current, total int) {
		switch phase {
		case "decode":
			if current == 0 {
				_, _ = fmt.Fprintln(w, "Decoding audio...")
			}
		case "plan":
			_, _ = fmt.Fprintf(w, "Chunking audio... %d chunks\n", total)
		case "transcribe":
			_, _ = fmt.Fprintf(w, "  Transcribed %d/%d...\n", current, total)
		}
	}
}

// writeFileExclusive writes content to path, failing if the file already
// exists (O_EXCL) to prevent accidental overwrites. On write failure the
// partial file is removed.
func writeFileExclusive(path, content string) error {
	// #nosec G302 G304 -- user-specified output file with standard permissions
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("output file already exists: %s: %w", path, ErrOutputExists)
		}
		return fmt.Errorf("cannot create output file: %w", err)
	}

	writeErr := func() error {
		defer func() { _ = f.Close() }()
		if _, err := f.WriteString(content); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}()

	if writeErr != nil {
		_ = os.Remove(path)
		return writeErr
	}

	return nil
}
