// Package intake turns command-line paths into the list of files offered
// to a batch, each with the MIME type it declares.
package intake

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/AnyUserName/pixbatch/internal/encoder"
)

// Source is one selected file.
type Source struct {
	// Path is the file location on disk.
	Path string
	// Name is the base name the output is derived from.
	Name string
	// MIMEType is the declared type: from the extension when known,
	// otherwise sniffed from the content.
	MIMEType string
	// Size is the file size in bytes.
	Size int64
}

// Read loads the file contents.
func (s Source) Read() ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Name, err)
	}
	return data, nil
}

// Selection is the outcome of a scan.
type Selection struct {
	Sources []Source
	// Discarded lists paths whose type is not image/*.
	Discarded []string
}

// Scan expands files and directories into image sources. Directories are
// walked recursively in lexical order, skipping hidden ones. A path given
// twice is kept once.
func Scan(paths []string) (*Selection, error) {
	sel := &Selection{}
	seen := map[string]bool{}

	add := func(path string, size int64) error {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", path, err)
		}
		if seen[abs] {
			return nil
		}
		seen[abs] = true

		mime, err := DeclaredMIME(abs)
		if err != nil {
			return err
		}
		if !IsImage(mime) {
			sel.Discarded = append(sel.Discarded, abs)
			return nil
		}
		sel.Sources = append(sel.Sources, Source{
			Path:     abs,
			Name:     filepath.Base(abs),
			MIMEType: mime,
			Size:     size,
		})
		return nil
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if !info.IsDir() {
			if err := add(p, info.Size()); err != nil {
				return nil, err
			}
			continue
		}

		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				// Skip hidden directories.
				if path != p && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			fi, err := d.Info()
			if err != nil {
				return err
			}
			return add(path, fi.Size())
		})
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", p, err)
		}
	}
	return sel, nil
}

// DeclaredMIME returns the MIME type a file declares. Known image
// extensions map directly; anything else is sniffed from the content.
func DeclaredMIME(path string) (string, error) {
	if ext := filepath.Ext(path); ext != "" {
		if f, err := encoder.ParseFormat(ext); err == nil {
			return f.MIMEType(), nil
		}
	}
	m, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("detect type of %s: %w", filepath.Base(path), err)
	}
	mime := m.String()
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return mime, nil
}

// IsImage reports whether a MIME type is in the image/* family.
func IsImage(mime string) bool {
	return strings.HasPrefix(strings.ToLower(mime), "image/")
}
