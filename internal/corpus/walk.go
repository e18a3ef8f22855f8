// Package corpus locates submission files under a results tree and exposes
// the metadata their paths encode.
//
// Submissions live at <handle>/<date>/<model>.jsonl relative to the root:
// handle is the contributor identity, date is the submission day, model is
// the label the records inside claim to describe.
package corpus

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// File is a discovered submission file plus the metadata parsed from its
// path. When the path does not follow the expected layout, LayoutErr holds
// the reason and the metadata fields are empty.
type File struct {
	Path      string // filesystem path, root-joined
	RelPath   string // slash-separated, relative to the walked root
	Handle    string
	Date      string // YYYY-MM-DD
	Model     string // label derived from the filename
	LayoutErr string
}

var labelRE = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Walk discovers every .jsonl file under root, sorted by relative path so
// downstream reports and artifacts are stable across runs. A missing or
// unreadable root is an error; an empty tree is not.
func Walk(root string) ([]File, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("results root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("results root %s is not a directory", root)
	}

	var files []File
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".jsonl") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, newFile(path, filepath.ToSlash(rel)))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking results root %s: %w", root, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

func newFile(path, rel string) File {
	f := File{Path: path, RelPath: rel}

	parts := strings.Split(rel, "/")
	if len(parts) != 3 {
		f.LayoutErr = fmt.Sprintf("expected <handle>/<date>/<model>.jsonl, got %q", rel)
		return f
	}

	handle, date := parts[0], parts[1]
	model := strings.TrimSuffix(parts[2], ".jsonl")

	if !labelRE.MatchString(handle) {
		f.LayoutErr = fmt.Sprintf("handle %q is not path-safe", handle)
		return f
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		f.LayoutErr = fmt.Sprintf("date %q is not a valid YYYY-MM-DD date", date)
		return f
	}
	if !labelRE.MatchString(model) {
		f.LayoutErr = fmt.Sprintf("model label %q is not path-safe", model)
		return f
	}

	f.Handle, f.Date, f.Model = handle, date, model
	return f
}
