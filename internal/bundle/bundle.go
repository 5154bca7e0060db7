// Package bundle packages several output files into one zip archive.
package bundle

import (
	"bytes"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
)

// ArchiveMIME is the MIME type of a produced archive.
const ArchiveMIME = "application/zip"

var ErrNoFiles = errors.New("no files to bundle")

// File is a finished output ready for download.
type File struct {
	Name     string
	MIMEType string
	Data     []byte
}

// BundleError reports a failure while writing the archive.
type BundleError struct {
	Archive string
	Entry   string
	Err     error
}

func (e *BundleError) Error() string {
	if e.Entry != "" {
		return fmt.Sprintf("bundle %s: entry %s: %v", e.Archive, e.Entry, e.Err)
	}
	return fmt.Sprintf("bundle %s: %v", e.Archive, e.Err)
}

func (e *BundleError) Unwrap() error {
	return e.Err
}

// Bundle returns a single downloadable file for files. One file is
// returned unchanged; two or more become a zip archive named archiveName
// with one entry per file. Calling it with no files is a caller error.
func Bundle(files []File, archiveName string) (File, error) {
	switch len(files) {
	case 0:
		return File{}, ErrNoFiles
	case 1:
		return files[0], nil
	}

	if archiveName == "" {
		archiveName = "images.zip"
	}
	if !strings.HasSuffix(strings.ToLower(archiveName), ".zip") {
		archiveName += ".zip"
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	names := UniqueNames(files)
	modified := time.Now()

	for i, f := range files {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     names[i],
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return File{}, &BundleError{Archive: archiveName, Entry: names[i], Err: err}
		}
		if _, err := w.Write(f.Data); err != nil {
			return File{}, &BundleError{Archive: archiveName, Entry: names[i], Err: err}
		}
	}
	if err := zw.Close(); err != nil {
		return File{}, &BundleError{Archive: archiveName, Err: err}
	}

	return File{Name: archiveName, MIMEType: ArchiveMIME, Data: buf.Bytes()}, nil
}

// UniqueNames returns one entry name per file. Repeated names get a
// " (n)" suffix before the extension; empty names become image-<i>.
func UniqueNames(files []File) []string {
	used := make(map[string]bool, len(files))
	out := make([]string, len(files))
	for i, f := range files {
		name := path.Base(strings.ReplaceAll(f.Name, "\\", "/"))
		if name == "" || name == "." || name == "/" {
			name = fmt.Sprintf("image-%d", i+1)
		}
		candidate := name
		ext := path.Ext(name)
		stem := strings.TrimSuffix(name, ext)
		for n := 1; used[strings.ToLower(candidate)]; n++ {
			candidate = fmt.Sprintf("%s (%d)%s", stem, n, ext)
		}
		used[strings.ToLower(candidate)] = true
		out[i] = candidate
	}
	return out
}
