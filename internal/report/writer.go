// Package report records the outcome of a batch run as JSON and checks a
// written report against the files on disk.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/AnyUserName/pixbatch/internal/batch"
	"github.com/AnyUserName/pixbatch/internal/hasher"
	"github.com/AnyUserName/pixbatch/internal/profile"
)

// New creates an empty report with defaults.
func New(operation string, p profile.Profile) *Report {
	return &Report{
		Version:     SupportedVersion,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Operation:   operation,
		Profile: ProfileInfo{
			Name:         p.Name,
			TargetSizeKB: p.TargetSizeKB,
			Quality:      p.Quality,
			Format:       p.Format.String(),
			Lossless:     p.Lossless,
			Width:        p.Width,
			Height:       p.Height,
			LockAspect:   p.LockAspect,
		},
	}
}

// FromBatch builds the report of a run from record snapshots in batch
// order and the run summary.
func FromBatch(operation string, p profile.Profile, records []batch.Snapshot, s batch.Summary) *Report {
	r := New(operation, p)
	for _, rec := range records {
		r.Add(rec)
	}
	r.ComputeStats()
	r.Stats.ElapsedMS = s.Elapsed.Milliseconds()
	return r
}

// Add appends one record.
func (r *Report) Add(rec batch.Snapshot) {
	e := Entry{
		ID:     rec.ID,
		Name:   rec.Original.Name,
		Status: rec.Status.String(),
		Original: OriginalInfo{
			Format:   rec.Original.Format.String(),
			MIMEType: rec.Original.MIMEType,
			Width:    rec.Original.Width,
			Height:   rec.Original.Height,
			Size:     rec.Original.Size,
			HasAlpha: rec.Original.HasAlpha,
		},
	}
	if rec.Err != nil {
		e.Error = rec.Err.Error()
	}
	if o := rec.Output; o != nil {
		e.Output = &OutputInfo{
			Name:           o.Name,
			Format:         o.Format.String(),
			MIMEType:       o.MIMEType,
			Width:          o.Width,
			Height:         o.Height,
			Size:           o.Size,
			SizeKB:         o.SizeKB,
			Quality:        o.Quality,
			RatioPercent:   o.RatioPercent,
			Attempts:       o.Attempts,
			TargetMet:      o.TargetMet,
			PreservesAlpha: o.PreservesAlpha,
			Hash:           hasher.Fingerprint(o.Data),
		}
	}
	r.Entries = append(r.Entries, e)
}

// SetPaths records where each output was written. paths follow the order
// of completed entries; extra entries keep an empty path.
func (r *Report) SetPaths(paths []string) {
	i := 0
	for _, e := range r.Entries {
		if e.Output == nil || e.Status != batch.StatusCompleted.String() {
			continue
		}
		if i >= len(paths) {
			return
		}
		e.Output.Path = paths[i]
		i++
	}
}

// ComputeStats recalculates aggregate statistics from entries.
func (r *Report) ComputeStats() {
	elapsed := r.Stats.ElapsedMS
	var s Stats
	s.TotalRecords = len(r.Entries)
	for _, e := range r.Entries {
		switch e.Status {
		case batch.StatusCompleted.String():
			s.Completed++
			s.TotalInputBytes += e.Original.Size
			if e.Output != nil {
				s.TotalOutputBytes += e.Output.Size
			}
		case batch.StatusFailed.String():
			s.Failed++
		default:
			s.Pending++
		}
	}
	s.ElapsedMS = elapsed
	r.Stats = s
}

// WriteJSON serializes the report to a JSON file.
func WriteJSON(r *Report, path string) error {
	r.ComputeStats()

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

// Load reads a report file.
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	return &r, nil
}
