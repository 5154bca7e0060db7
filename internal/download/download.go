// Package download is the host capability that turns finished bytes into
// something the user can take away.
package download

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Host creates a downloadable handle for bytes under a suggested name and
// returns where the user can find it.
type Host interface {
	CreateHandle(data []byte, name string) (string, error)
}

// DirHost writes downloads into a directory. Existing files are never
// overwritten: a " (n)" suffix is added instead.
type DirHost struct {
	Dir string
}

// NewDirHost creates dir if needed.
func NewDirHost(dir string) (*DirHost, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &DirHost{Dir: dir}, nil
}

func (h *DirHost) CreateHandle(data []byte, name string) (string, error) {
	name = filepath.Base(name)
	if name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("invalid download name %q", name)
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	candidate := name
	for n := 1; ; n++ {
		path := filepath.Join(h.Dir, candidate)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			candidate = fmt.Sprintf("%s (%d)%s", stem, n, ext)
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create %s: %w", candidate, err)
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			os.Remove(path)
			return "", fmt.Errorf("write %s: %w", candidate, err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("close %s: %w", candidate, err)
		}
		return path, nil
	}
}

// MemoryHost keeps downloads in memory, keyed by name in creation order.
type MemoryHost struct {
	Names []string
	Files map[string][]byte
}

func (h *MemoryHost) CreateHandle(data []byte, name string) (string, error) {
	if h.Files == nil {
		h.Files = make(map[string][]byte)
	}
	h.Names = append(h.Names, name)
	h.Files[name] = data
	return "mem://" + name, nil
}
