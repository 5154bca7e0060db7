package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/AnyUserName/pixbatch/internal/batch"
	"github.com/AnyUserName/pixbatch/internal/hasher"
)

// Validate checks the report for internal consistency and, for outputs
// and archives it references, that the files exist under baseDir with the
// recorded size and hash. It returns one message per problem.
func Validate(r *Report, baseDir string) []string {
	var errs []string

	if r.Version != SupportedVersion {
		errs = append(errs, fmt.Sprintf("unsupported report version: %d", r.Version))
	}

	seenIDs := map[string]bool{}
	seenPaths := map[string]bool{}
	for i, e := range r.Entries {
		label := fmt.Sprintf("entry[%d] %q", i, e.Name)

		if e.ID == "" {
			errs = append(errs, fmt.Sprintf("%s: missing id", label))
		} else if seenIDs[e.ID] {
			errs = append(errs, fmt.Sprintf("%s: duplicate id %s", label, e.ID))
		}
		seenIDs[e.ID] = true

		var st batch.Status
		if err := st.UnmarshalText([]byte(e.Status)); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", label, err))
			continue
		}

		// Sources that never decoded have no dimensions.
		if st != batch.StatusFailed && (e.Original.Width <= 0 || e.Original.Height <= 0) {
			errs = append(errs, fmt.Sprintf("%s: invalid original dimensions %dx%d",
				label, e.Original.Width, e.Original.Height))
		}

		switch st {
		case batch.StatusCompleted:
			if e.Output == nil {
				errs = append(errs, fmt.Sprintf("%s: completed without output", label))
				continue
			}
		case batch.StatusFailed:
			if e.Output != nil {
				errs = append(errs, fmt.Sprintf("%s: failed but has output", label))
			}
			if e.Error == "" {
				errs = append(errs, fmt.Sprintf("%s: failed without error message", label))
			}
			continue
		default:
			continue
		}

		o := e.Output
		if o.Width <= 0 || o.Height <= 0 {
			errs = append(errs, fmt.Sprintf("%s: invalid output dimensions %dx%d", label, o.Width, o.Height))
		}
		if len(o.Hash) != hasher.FingerprintLen {
			errs = append(errs, fmt.Sprintf("%s: bad output hash %q", label, o.Hash))
		}
		if o.Path == "" {
			continue
		}

		if seenPaths[o.Path] {
			errs = append(errs, fmt.Sprintf("%s: duplicate path %q", label, o.Path))
		}
		seenPaths[o.Path] = true

		if msg := checkFile(baseDir, o.Path, o.Size, o.Hash); msg != "" {
			errs = append(errs, fmt.Sprintf("%s: %s", label, msg))
		}
	}

	if d := r.Download; d != nil && d.Archive != "" {
		info, err := os.Stat(filepath.Join(baseDir, d.Archive))
		if err != nil {
			errs = append(errs, fmt.Sprintf("archive not found: %s", d.Archive))
		} else if d.Size > 0 && info.Size() != d.Size {
			errs = append(errs, fmt.Sprintf("archive size mismatch: report=%d, disk=%d", d.Size, info.Size()))
		}
	}

	// Verify stats consistency.
	want := *r
	want.ComputeStats()
	if r.Stats.TotalRecords != want.Stats.TotalRecords {
		errs = append(errs, fmt.Sprintf("stats.total_records mismatch: %d != %d", r.Stats.TotalRecords, want.Stats.TotalRecords))
	}
	if r.Stats.Completed != want.Stats.Completed {
		errs = append(errs, fmt.Sprintf("stats.completed mismatch: %d != %d", r.Stats.Completed, want.Stats.Completed))
	}
	if r.Stats.Failed != want.Stats.Failed {
		errs = append(errs, fmt.Sprintf("stats.failed mismatch: %d != %d", r.Stats.Failed, want.Stats.Failed))
	}
	if r.Stats.TotalOutputBytes != want.Stats.TotalOutputBytes {
		errs = append(errs, fmt.Sprintf("stats.total_output_bytes mismatch: %d != %d",
			r.Stats.TotalOutputBytes, want.Stats.TotalOutputBytes))
	}

	return errs
}

// checkFile compares a file on disk with its recorded size and hash. The
// file is streamed through the hasher rather than read whole.
func checkFile(baseDir, rel string, size int64, hash string) string {
	f, err := os.Open(filepath.Join(baseDir, rel))
	if err != nil {
		return "file not found: " + rel
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Sprintf("stat: %v", err)
	}
	if info.Size() != size {
		return fmt.Sprintf("size mismatch: report=%d, disk=%d", size, info.Size())
	}
	h, err := hasher.FingerprintReader(f)
	if err != nil {
		return fmt.Sprintf("read: %v", err)
	}
	if h != hash {
		return fmt.Sprintf("hash mismatch: report=%s, disk=%s", hash, h)
	}
	return ""
}
