package corpus

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Submission lines are small; 1MB leaves generous headroom while still
// refusing pathological input.
const maxLineSize = 1 << 20

// EachLine reads a file line by line and calls fn with the 1-based line
// number and the trimmed content. Blank lines are skipped. A line longer
// than maxLineSize is not an I/O failure: it is drained and delivered with
// tooLong set and a nil line, so callers can treat it as one bad line and
// keep going. fn returning an error aborts the scan.
func EachLine(path string, fn func(n int, line []byte, tooLong bool) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, 64*1024)
	n := 0
	for {
		line, tooLong, err := readLine(r)
		if err != nil && err != io.EOF {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		atEOF := err == io.EOF

		if tooLong {
			n++
			if cbErr := fn(n, nil, true); cbErr != nil {
				return cbErr
			}
		} else {
			trimmed := bytes.TrimSpace(line)
			if atEOF && len(line) == 0 {
				return nil
			}
			n++
			if len(trimmed) > 0 {
				if cbErr := fn(n, trimmed, false); cbErr != nil {
					return cbErr
				}
			}
		}
		if atEOF {
			return nil
		}
	}
}

// readLine reads up to the next newline, accumulating across buffer refills.
// Once the accumulated length passes maxLineSize the rest of the line is
// drained and only the tooLong flag is reported.
func readLine(r *bufio.Reader) ([]byte, bool, error) {
	var buf []byte
	tooLong := false
	for {
		chunk, err := r.ReadSlice('\n')
		if !tooLong {
			buf = append(buf, chunk...)
			// +1 allows the trailing newline of a limit-sized line.
			if len(buf) > maxLineSize+1 {
				tooLong = true
				buf = nil
			}
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		if err != nil && err != io.EOF {
			return nil, false, err
		}
		if tooLong {
			return nil, true, err
		}
		line := bytes.TrimSuffix(buf, []byte{'\n'})
		if len(line) > maxLineSize {
			return nil, true, err
		}
		return line, false, err
	}
}

// Fingerprint hashes the corpus content: relative path plus file bytes, in
// Walk order. Two trees with identical submissions produce the same digest,
// which lets generated artifacts identify their input without a wall-clock
// timestamp.
func Fingerprint(files []File) (string, error) {
	h := sha256.New()
	for _, f := range files {
		fmt.Fprintf(h, "%s\n", f.RelPath)
		r, err := os.Open(f.Path)
		if err != nil {
			return "", fmt.Errorf("opening %s: %w", f.Path, err)
		}
		if _, err := io.Copy(h, r); err != nil {
			r.Close()
			return "", fmt.Errorf("hashing %s: %w", f.Path, err)
		}
		r.Close()
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
