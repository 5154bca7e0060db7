package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/AnyUserName/pixbatch/internal/batch"
	"github.com/AnyUserName/pixbatch/internal/config"
	"github.com/AnyUserName/pixbatch/internal/decoder"
	"github.com/AnyUserName/pixbatch/internal/download"
	"github.com/AnyUserName/pixbatch/internal/encoder"
	"github.com/AnyUserName/pixbatch/internal/intake"
	"github.com/AnyUserName/pixbatch/internal/metrics"
	"github.com/AnyUserName/pixbatch/internal/profile"
	"github.com/AnyUserName/pixbatch/internal/report"
)

// batchFlags are shared by the compress, convert and resize commands.
type batchFlags struct {
	outDir      string
	profile     string
	archive     string
	noZip       bool
	metricsFile string
}

func (f *batchFlags) register(c *cobra.Command) {
	c.Flags().StringVarP(&f.outDir, "out", "o", "", "output directory (default from config)")
	c.Flags().StringVarP(&f.profile, "profile", "p", "",
		"settings profile: "+strings.Join(profile.Names(), ", ")+" (default from config)")
	c.Flags().StringVar(&f.archive, "archive", "", "archive name when several outputs are bundled")
	c.Flags().BoolVar(&f.noZip, "no-zip", false, "write every output separately instead of one archive")
	c.Flags().StringVar(&f.metricsFile, "metrics-file", "", "write prometheus metrics in text format to this file")
}

// resolve returns a copy of f with unset values taken from c. The flags
// themselves are left untouched.
func (f batchFlags) resolve(c config.Config) batchFlags {
	if f.outDir == "" {
		f.outDir = c.OutputDir
	}
	if f.profile == "" {
		f.profile = c.Profile
	}
	if f.archive == "" {
		f.archive = c.ArchiveName
	}
	if f.metricsFile == "" {
		f.metricsFile = c.MetricsFile
	}
	return f
}

// runBatch loads the inputs into a job, applies the named operation to
// every ready record and writes outputs, report and metrics. tune adjusts
// the profile from command-specific flags.
func runBatch(cmd *cobra.Command, args []string, flags *batchFlags, opName string, tune func(*profile.Profile) error) error {
	start := time.Now()
	opts := flags.resolve(cfg)

	prof := profile.Get(opts.profile)
	if err := tune(&prof); err != nil {
		return err
	}

	absOutput, err := filepath.Abs(opts.outDir)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}
	logger.Debug("batch settings", "operation", opName, "profile", prof.Name,
		"target_kb", prof.TargetSizeKB, "quality", prof.Quality, "format", prof.Format,
		"width", prof.Width, "height", prof.Height, "lock_aspect", prof.LockAspect, "out", absOutput)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	var cache *encoder.Cache
	if cfg.CacheEntries > 0 {
		if cache, err = encoder.NewCache(cfg.CacheEntries, m); err != nil {
			return err
		}
	}

	job := batch.New(batch.Options{
		Profile:  prof,
		Cache:    cache,
		Logger:   logger,
		Metrics:  m,
		Listener: printProgress,
	})
	if err := job.Configure(prof); err != nil {
		return err
	}
	defer job.Clear()

	if err := addInputs(job, args); err != nil {
		return err
	}
	if job.Len() == 0 {
		return errors.New("no images in input")
	}

	op, ok := job.Operation(opName)
	if !ok {
		return fmt.Errorf("unknown operation %q", opName)
	}
	summary := job.RunAll(cmd.Context(), op)

	rep := report.FromBatch(opName, prof, job.Records(), summary)
	if summary.Completed > 0 {
		host, err := download.NewDirHost(absOutput)
		if err != nil {
			return err
		}
		if err := deliver(job, host, opts, rep); err != nil {
			return err
		}
	} else if err := os.MkdirAll(absOutput, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	reportPath := filepath.Join(absOutput, report.FileName)
	if err := report.WriteJSON(rep, reportPath); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if opts.metricsFile != "" {
		if err := prometheus.WriteToTextfile(opts.metricsFile, reg); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	printBatchReport(rep, time.Since(start))

	switch {
	case summary.Canceled:
		return fmt.Errorf("%s canceled: %w", opName, cmd.Context().Err())
	case rep.Stats.Failed > 0:
		return fmt.Errorf("%d of %d images failed", rep.Stats.Failed, rep.Stats.TotalRecords)
	}
	return nil
}

// addInputs scans args and adds every image to the job. Files that fail
// to decode stay in the job as error records; the listener reports them.
func addInputs(job *batch.Job, args []string) error {
	sel, err := intake.Scan(args)
	if err != nil {
		return err
	}
	for _, p := range sel.Discarded {
		logger.Debug("skipping non-image", "path", p)
	}

	for _, src := range sel.Sources {
		data, err := src.Read()
		if err != nil {
			return err
		}
		if _, err := job.Add(src.Name, src.MIMEType, data); err != nil {
			var decErr *decoder.DecodeError
			switch {
			case errors.As(err, &decErr):
			case errors.Is(err, batch.ErrNotImage):
				logger.Debug("skipping non-image", "path", src.Path, "type", src.MIMEType)
			default:
				return err
			}
		}
	}
	return nil
}

// deliver writes the completed outputs through host and records where
// they went in rep.
func deliver(job *batch.Job, host *download.DirHost, flags batchFlags, rep *report.Report) error {
	files := job.Outputs()
	if flags.noZip || len(files) == 1 {
		handles, err := job.DownloadEach(host)
		if err != nil {
			return err
		}
		paths := make([]string, len(handles))
		for i, h := range handles {
			paths[i] = relTo(host.Dir, h)
		}
		rep.SetPaths(paths)
		rep.Download = &report.DownloadInfo{Files: len(handles)}
		return nil
	}

	handle, err := job.Download(host, flags.archive)
	if err != nil {
		return err
	}
	info, err := os.Stat(handle)
	if err != nil {
		return fmt.Errorf("stat archive: %w", err)
	}
	rep.Download = &report.DownloadInfo{
		Archive: relTo(host.Dir, handle),
		Size:    info.Size(),
		Files:   len(files),
	}
	return nil
}

func relTo(dir, path string) string {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

// printProgress is the job listener: one line per finished record.
func printProgress(e batch.Event) {
	switch e.To {
	case batch.StatusCompleted:
		fmt.Printf("  ✓ %s\n", e.Name)
	case batch.StatusFailed:
		fmt.Printf("  ✗ %s: %v\n", e.Name, e.Err)
	}
}
