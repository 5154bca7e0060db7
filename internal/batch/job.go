// Package batch owns the queue of uploaded assets and drives every
// operation on them, one asset at a time.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AnyUserName/pixbatch/internal/bundle"
	"github.com/AnyUserName/pixbatch/internal/compress"
	"github.com/AnyUserName/pixbatch/internal/convert"
	"github.com/AnyUserName/pixbatch/internal/decoder"
	"github.com/AnyUserName/pixbatch/internal/download"
	"github.com/AnyUserName/pixbatch/internal/encoder"
	"github.com/AnyUserName/pixbatch/internal/metrics"
	"github.com/AnyUserName/pixbatch/internal/profile"
	"github.com/AnyUserName/pixbatch/internal/resize"
)

// Options configures a Job. Zero values get sensible defaults.
type Options struct {
	Profile  profile.Profile
	Registry *encoder.Registry
	Cache    *encoder.Cache
	Logger   *slog.Logger
	Metrics  *metrics.Collector

	// NewID generates record IDs. Defaults to time-ordered UUIDv7.
	NewID func() string

	// Listener is called after every status transition, outside the job
	// lock, in the order transitions happen.
	Listener func(Event)
}

type record struct {
	id       string
	original Original
	asset    *decoder.Asset
	status   Status
	output   *Output
	err      error
	removed  bool
}

// Job is an ordered batch of records plus the settings operations run
// with. All methods are safe for concurrent use, but a record is only
// ever processed by one operation at a time.
type Job struct {
	mu       sync.Mutex
	records  []*record
	byID     map[string]*record
	settings profile.Profile

	cache      *encoder.Cache
	compressor *compress.Compressor
	converter  *convert.Converter
	resizer    *resize.Resizer

	newID    func() string
	listener func(Event)
	logger   *slog.Logger
	metrics  *metrics.Collector
}

// New creates an empty job.
func New(opts Options) *Job {
	if opts.Registry == nil {
		opts.Registry = encoder.NewRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.NewID == nil {
		opts.NewID = newUUID
	}
	if opts.Profile.Name == "" {
		opts.Profile = profile.Get("default")
	}
	return &Job{
		byID:       make(map[string]*record),
		settings:   opts.Profile,
		cache:      opts.Cache,
		compressor: compress.New(opts.Registry, opts.Cache, opts.Logger),
		converter:  convert.New(opts.Registry, opts.Cache, opts.Logger),
		resizer:    resize.New(opts.Registry, opts.Cache, opts.Logger),
		newID:      opts.NewID,
		listener:   opts.Listener,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
	}
}

func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Settings returns the current operation parameters.
func (j *Job) Settings() profile.Profile {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.settings
}

// Configure replaces the operation parameters used by operations built
// afterwards.
func (j *Job) Configure(p profile.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	j.mu.Lock()
	j.settings = p
	j.mu.Unlock()
	return nil
}

// Add decodes an uploaded file and appends it as a ready record. Files
// whose declared MIME type is not image/* are rejected with ErrNotImage
// and add nothing. Undecodable bytes still add a record, already in the
// error state with the *decoder.DecodeError; that error is also returned.
func (j *Job) Add(name, declaredMIME string, data []byte) (Snapshot, error) {
	if !strings.HasPrefix(strings.ToLower(declaredMIME), "image/") {
		return Snapshot{}, fmt.Errorf("%w: %s (%s)", ErrNotImage, name, declaredMIME)
	}

	asset, err := decoder.Decode(name, data)
	if err != nil {
		return j.addFailed(name, declaredMIME, data, err)
	}

	rec := &record{
		original: Original{
			Name:     asset.Name,
			MIMEType: asset.MIMEType,
			Format:   asset.Format,
			Size:     asset.ByteSize,
			Width:    asset.Width,
			Height:   asset.Height,
			HasAlpha: asset.HasAlpha,
		},
		asset:  asset,
		status: StatusReady,
	}
	snap, n := j.insert(rec)

	j.metrics.Records(n)
	j.logger.Info("asset added",
		"id", snap.ID, "name", name, "type", asset.MIMEType,
		"size", asset.ByteSize, "width", asset.Width, "height", asset.Height)
	return snap, nil
}

// addFailed records an upload that could not be decoded. Only what was
// declared is known about it.
func (j *Job) addFailed(name, declaredMIME string, data []byte, err error) (Snapshot, error) {
	format, _ := encoder.ParseFormat(declaredMIME)
	rec := &record{
		original: Original{
			Name:     name,
			MIMEType: declaredMIME,
			Format:   format,
			Size:     int64(len(data)),
		},
		status: StatusFailed,
		err:    err,
	}
	snap, n := j.insert(rec)

	j.metrics.Records(n)
	j.metrics.Operation(OpDecode, StatusFailed.String())
	j.logger.Warn("decode failed", "id", snap.ID, "name", name, "type", declaredMIME, "error", err)
	j.emit(Event{RecordID: snap.ID, Name: name, Operation: OpDecode, From: StatusReady, To: StatusFailed, Err: err})
	return snap, err
}

// insert assigns rec a fresh ID and appends it.
func (j *Job) insert(rec *record) (Snapshot, int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	id := j.newID()
	for j.byID[id] != nil {
		id = j.newID()
	}
	rec.id = id
	j.records = append(j.records, rec)
	j.byID[id] = rec
	return rec.snapshot(), len(j.records)
}

// Len returns the number of records.
func (j *Job) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.records)
}

// Records returns snapshots in insertion order.
func (j *Job) Records() []Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Snapshot, len(j.records))
	for i, r := range j.records {
		out[i] = r.snapshot()
	}
	return out
}

// Get returns the snapshot of one record.
func (j *Job) Get(id string) (Snapshot, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	r := j.byID[id]
	if r == nil {
		return Snapshot{}, false
	}
	return r.snapshot(), true
}

// Run applies op to one record. The record moves to processing, then to
// completed with the new output or to error with no output. The
// operation error is recorded on the record and also returned.
func (j *Job) Run(ctx context.Context, id string, op Operation) error {
	j.mu.Lock()
	rec := j.byID[id]
	if rec == nil {
		j.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if rec.status == StatusProcessing {
		j.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrBusy, id)
	}
	if rec.asset == nil {
		// Never decoded: nothing to operate on, the decode error stands.
		err := rec.err
		name := rec.original.Name
		j.mu.Unlock()
		j.metrics.Operation(op.Name(), StatusFailed.String())
		j.logger.Warn("operation failed", "id", id, "name", name, "operation", op.Name(), "error", err)
		j.emit(Event{RecordID: id, Name: name, Operation: op.Name(), From: StatusFailed, To: StatusFailed, Err: err})
		return err
	}
	from := rec.status
	rec.status = StatusProcessing
	rec.output = nil
	rec.err = nil
	asset := rec.asset
	name := rec.original.Name
	j.mu.Unlock()

	j.emit(Event{RecordID: id, Name: name, Operation: op.Name(), From: from, To: StatusProcessing})

	start := time.Now()
	out, err := op.Apply(ctx, asset)

	j.mu.Lock()
	if rec.removed {
		asset.Release()
		j.mu.Unlock()
		j.logger.Debug("result dropped, record removed", "id", id, "operation", op.Name())
		return fmt.Errorf("%w: %s", ErrRemoved, id)
	}
	if err == nil && out == nil {
		err = fmt.Errorf("%s returned no output", op.Name())
	}
	to := StatusCompleted
	if err != nil {
		to = StatusFailed
		rec.output = nil
		rec.err = err
	} else {
		rec.output = out
	}
	rec.status = to
	j.mu.Unlock()

	j.metrics.Operation(op.Name(), to.String())
	if err != nil {
		j.logger.Warn("operation failed",
			"id", id, "name", name, "operation", op.Name(), "error", err)
	} else {
		j.metrics.Bytes(asset.ByteSize, out.Size)
		if out.Attempts > 0 {
			j.metrics.Attempts(out.Attempts)
		}
		j.logger.Info("operation completed",
			"id", id, "name", name, "operation", op.Name(),
			"output", out.Name, "size_kb", out.SizeKB, "ratio", out.RatioPercent,
			"elapsed", time.Since(start).Round(time.Millisecond))
	}

	j.emit(Event{RecordID: id, Name: name, Operation: op.Name(), From: StatusProcessing, To: to, Err: err})
	return err
}

// RunAll applies op to every record that is ready when the call starts,
// strictly one after another in insertion order. A failing record does
// not stop the run. Cancelling ctx stops before the next record.
func (j *Job) RunAll(ctx context.Context, op Operation) Summary {
	start := time.Now()

	j.mu.Lock()
	var ids []string
	for _, r := range j.records {
		if r.status == StatusReady {
			ids = append(ids, r.id)
		}
	}
	j.mu.Unlock()

	s := Summary{Operation: op.Name(), Selected: len(ids), Errors: map[string]error{}}
	j.logger.Info("bulk run started", "operation", op.Name(), "records", len(ids))

	for _, id := range ids {
		if ctx.Err() != nil {
			s.Canceled = true
			break
		}
		err := j.Run(ctx, id, op)
		switch {
		case err == nil:
			s.Completed++
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrRemoved), errors.Is(err, ErrBusy):
			s.Skipped++
		default:
			s.Failed++
			s.Errors[id] = err
		}
	}

	s.Elapsed = time.Since(start)
	j.logger.Info("bulk run finished",
		"operation", op.Name(), "completed", s.Completed, "failed", s.Failed,
		"skipped", s.Skipped, "canceled", s.Canceled, "elapsed", s.Elapsed.Round(time.Millisecond))
	return s
}

// Remove deletes a record immediately, whatever its status, and releases
// its bitmap and output.
func (j *Job) Remove(id string) bool {
	j.mu.Lock()
	rec := j.byID[id]
	if rec == nil {
		j.mu.Unlock()
		return false
	}
	delete(j.byID, id)
	for i, r := range j.records {
		if r == rec {
			j.records = append(j.records[:i], j.records[i+1:]...)
			break
		}
	}
	rec.release()
	n := len(j.records)
	j.mu.Unlock()

	j.metrics.Records(n)
	j.logger.Info("asset removed", "id", id, "name", rec.original.Name)
	return true
}

// Clear removes every record and drops cached encodes. It returns the
// number of records removed.
func (j *Job) Clear() int {
	j.mu.Lock()
	n := len(j.records)
	for _, r := range j.records {
		r.release()
	}
	j.records = nil
	j.byID = make(map[string]*record)
	j.mu.Unlock()

	j.cache.Purge()
	j.metrics.Records(0)
	j.logger.Info("batch cleared", "records", n)
	return n
}

// Outputs returns the outputs of completed records in insertion order.
func (j *Job) Outputs() []bundle.File {
	j.mu.Lock()
	defer j.mu.Unlock()
	var files []bundle.File
	for _, r := range j.records {
		if r.status == StatusCompleted && r.output != nil {
			files = append(files, bundle.File{
				Name:     r.output.Name,
				MIMEType: r.output.MIMEType,
				Data:     r.output.Data,
			})
		}
	}
	return files
}

// Download hands every completed output to host: one output as itself,
// several as a single archive. Records without output are left out.
func (j *Job) Download(host download.Host, archiveName string) (string, error) {
	files := j.Outputs()
	if len(files) == 0 {
		return "", ErrNothingToDownload
	}
	f, err := bundle.Bundle(files, archiveName)
	if err != nil {
		j.logger.Error("bundle failed", "archive", archiveName, "files", len(files), "error", err)
		return "", err
	}
	handle, err := host.CreateHandle(f.Data, f.Name)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", f.Name, err)
	}
	j.logger.Info("download ready", "handle", handle, "files", len(files), "bytes", len(f.Data))
	return handle, nil
}

// DownloadEach hands every completed output to host separately.
func (j *Job) DownloadEach(host download.Host) ([]string, error) {
	files := j.Outputs()
	if len(files) == 0 {
		return nil, ErrNothingToDownload
	}
	handles := make([]string, 0, len(files))
	for _, f := range files {
		h, err := host.CreateHandle(f.Data, f.Name)
		if err != nil {
			return handles, fmt.Errorf("download %s: %w", f.Name, err)
		}
		handles = append(handles, h)
	}
	return handles, nil
}

// DownloadRecord hands one record's output to host.
func (j *Job) DownloadRecord(host download.Host, id string) (string, error) {
	snap, ok := j.Get(id)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if snap.Status != StatusCompleted || snap.Output == nil {
		return "", fmt.Errorf("%w: %s is %s", ErrNothingToDownload, id, snap.Status)
	}
	h, err := host.CreateHandle(snap.Output.Data, snap.Output.Name)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", snap.Output.Name, err)
	}
	return h, nil
}

func (j *Job) emit(e Event) {
	j.logger.Debug("status", "id", e.RecordID, "operation", e.Operation, "from", e.From, "to", e.To)
	if j.listener != nil {
		j.listener(e)
	}
}

func (r *record) snapshot() Snapshot {
	return Snapshot{
		ID:       r.id,
		Original: r.original,
		Status:   r.status,
		Output:   r.output,
		Err:      r.err,
	}
}

// release marks the record removed. A bitmap still being read by a
// running operation is released by Run once the operation returns.
func (r *record) release() {
	r.removed = true
	r.output = nil
	if r.status != StatusProcessing && r.asset != nil {
		r.asset.Release()
	}
}
