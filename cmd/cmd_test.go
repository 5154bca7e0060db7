package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/AnyUserName/pixbatch/internal/config"
	"github.com/AnyUserName/pixbatch/internal/report"
	"github.com/AnyUserName/pixbatch/internal/testimg"
)

func execute(t *testing.T, args ...string) error {
	t.Helper()
	resetFlags(rootCmd)
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(context.Background())
}

// resetFlags puts every flag set by an earlier execute back to its default.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if !f.Changed {
			return
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(strings.Split(strings.Trim(f.DefValue, "[]"), ","))
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func TestCompressCommand(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "out")
	metricsFile := filepath.Join(t.TempDir(), "pixbatch.prom")

	if err := os.WriteFile(filepath.Join(in, "a.png"), testimg.PNG(testimg.Gradient(64, 48)), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(in, "b.jpg"), testimg.JPEG(testimg.Noise(64, 64, 1), 90), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(in, "readme.txt"), []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := execute(t, "compress", in, "-o", out, "--target-kb", "100", "--archive", "batch", "--metrics-file", metricsFile)
	if err != nil {
		t.Fatal(err)
	}

	r, err := report.Load(filepath.Join(out, report.FileName))
	if err != nil {
		t.Fatal(err)
	}
	if r.Stats.TotalRecords != 2 || r.Stats.Completed != 2 {
		t.Errorf("stats: %+v", r.Stats)
	}
	if r.Download == nil || r.Download.Archive != "batch.zip" || r.Download.Files != 2 {
		t.Errorf("download: %+v", r.Download)
	}
	if errs := report.Validate(r, out); len(errs) != 0 {
		t.Errorf("report invalid: %v", errs)
	}

	prom, err := os.ReadFile(metricsFile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(prom), `pixbatch_operations_total{operation="compress",status="completed"} 2`) {
		t.Errorf("metrics file:\n%s", prom)
	}

	if err := execute(t, "validate", out); err != nil {
		t.Errorf("validate: %v", err)
	}
	if err := execute(t, "stats", out); err != nil {
		t.Errorf("stats: %v", err)
	}
}

func TestResizeCommand_RequiresBox(t *testing.T) {
	in := t.TempDir()
	if err := os.WriteFile(filepath.Join(in, "a.png"), testimg.PNG(testimg.Gradient(8, 8)), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := execute(t, "resize", in, "-o", t.TempDir(), "--profile", "default"); err == nil {
		t.Error("resize without a box should fail")
	}
}

func TestCompressCommand_UndecodableInputIsReported(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "out")
	if err := os.WriteFile(filepath.Join(in, "a.png"), testimg.PNG(testimg.Gradient(32, 32)), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(in, "broken.png"), []byte("definitely not a png"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := execute(t, "compress", in, "-o", out, "--target-kb", "100")
	if err == nil || !strings.Contains(err.Error(), "1 of 2 images failed") {
		t.Fatalf("got %v, want a failed-images error", err)
	}

	r, err := report.Load(filepath.Join(out, report.FileName))
	if err != nil {
		t.Fatal(err)
	}
	if r.Stats.TotalRecords != 2 || r.Stats.Completed != 1 || r.Stats.Failed != 1 {
		t.Errorf("stats: %+v", r.Stats)
	}
	var broken *report.Entry
	for i := range r.Entries {
		if r.Entries[i].Name == "broken.png" {
			broken = &r.Entries[i]
		}
	}
	if broken == nil || broken.Status != "error" || broken.Output != nil || broken.Error == "" {
		t.Fatalf("broken entry: %+v", broken)
	}
	if broken.Original.MIMEType != "image/png" || broken.Original.Size != int64(len("definitely not a png")) {
		t.Errorf("broken original: %+v", broken.Original)
	}
	if errs := report.Validate(r, out); len(errs) != 0 {
		t.Errorf("report invalid: %v", errs)
	}
}

func TestBatchFlags_ResolveKeepsFlags(t *testing.T) {
	c := config.Config{OutputDir: "from-config", Profile: "web", ArchiveName: "bundle", MetricsFile: "m.prom"}

	var f batchFlags
	got := f.resolve(c)
	if got.outDir != "from-config" || got.profile != "web" || got.archive != "bundle" || got.metricsFile != "m.prom" {
		t.Errorf("resolved: %+v", got)
	}
	if f != (batchFlags{}) {
		t.Errorf("flags changed by resolve: %+v", f)
	}

	f = batchFlags{outDir: "explicit"}
	if got := f.resolve(c); got.outDir != "explicit" || got.profile != "web" {
		t.Errorf("explicit flag lost: %+v", got)
	}
}

func TestConvertCommand_SingleOutput(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "out")
	if err := os.WriteFile(filepath.Join(in, "photo.jpg"), testimg.JPEG(testimg.Gradient(40, 30), 85), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := execute(t, "convert", in, "-o", out, "--format", "png"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(out, "photo.png")); err != nil {
		t.Errorf("converted file: %v", err)
	}
	if err := execute(t, "convert", in, "-o", out, "--format", "heic"); err == nil {
		t.Error("unknown target format accepted")
	}
}
