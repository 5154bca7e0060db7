package batch

import (
	"errors"
	"fmt"
	"time"

	"github.com/AnyUserName/pixbatch/internal/encoder"
)

var (
	ErrNotImage          = errors.New("not an image")
	ErrNotFound          = errors.New("record not found")
	ErrBusy              = errors.New("record is already processing")
	ErrRemoved           = errors.New("record removed while processing")
	ErrNothingToDownload = errors.New("no completed outputs to download")
)

// Status is the per-record state machine:
//
//	ready -> processing -> completed | error
//
// completed and error may re-enter processing when the operation is run again.
type Status int

const (
	StatusReady Status = iota
	StatusProcessing
	StatusCompleted
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusProcessing:
		return "processing"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "error"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	for _, c := range []Status{StatusReady, StatusProcessing, StatusCompleted, StatusFailed} {
		if c.String() == string(b) {
			*s = c
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", b)
}

// Original is the immutable metadata of an uploaded file.
type Original struct {
	Name     string
	MIMEType string
	Format   encoder.Format
	Size     int64
	Width    int
	Height   int
	HasAlpha bool
}

// Output is the result of the last successful operation on a record.
type Output struct {
	Operation      string
	Name           string
	MIMEType       string
	Format         encoder.Format
	Data           []byte
	Size           int64
	SizeKB         int64
	Width          int
	Height         int
	Quality        float64 // achieved (compress) or encode quality, 0-1
	RatioPercent   int     // round((1 - size/original) * 100)
	Attempts       int     // compress only
	TargetMet      bool    // compress only
	PreservesAlpha bool
}

// Snapshot is a point-in-time copy of a record, safe to read without
// holding the job lock. Output data is shared and must not be modified.
type Snapshot struct {
	ID       string
	Original Original
	Status   Status
	Output   *Output
	Err      error
}

// Event describes one status transition.
type Event struct {
	RecordID  string
	Name      string
	Operation string
	From      Status
	To        Status
	Err       error
}

// Summary reports a RunAll pass.
type Summary struct {
	Operation string
	Selected  int
	Completed int
	Failed    int
	Skipped   int // removed or busy when their turn came
	Canceled  bool
	Errors    map[string]error // by record ID
	Elapsed   time.Duration
}
