package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/pixbatch/internal/report"
)

var statsCmd = &cobra.Command{
	Use:   "stats <out_dir_or_report>",
	Short: "Display statistics of a finished batch",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(_ *cobra.Command, args []string) error {
	path, err := reportPath(args[0])
	if err != nil {
		return err
	}
	r, err := report.Load(path)
	if err != nil {
		return err
	}
	printStats(r)
	return nil
}

// reportPath accepts a report file or the directory holding one.
func reportPath(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		path = filepath.Join(path, report.FileName)
	}
	return path, nil
}

func printStats(r *report.Report) {
	fmt.Println()
	fmt.Printf("  Report version:   %d\n", r.Version)
	fmt.Printf("  Generated:        %s\n", r.GeneratedAt)
	fmt.Printf("  Operation:        %s\n", r.Operation)
	fmt.Printf("  Profile:          %s\n", r.Profile.Name)
	fmt.Println()

	s := r.Stats
	fmt.Printf("  Records:          %d\n", s.TotalRecords)
	fmt.Printf("  Completed:        %d\n", s.Completed)
	fmt.Printf("  Failed:           %d\n", s.Failed)
	if s.Pending > 0 {
		fmt.Printf("  Not run:          %d\n", s.Pending)
	}
	fmt.Printf("  Input size:       %s\n", formatBytes(s.TotalInputBytes))
	fmt.Printf("  Output size:      %s\n", formatBytes(s.TotalOutputBytes))
	if s.TotalInputBytes > 0 {
		ratio := float64(s.TotalOutputBytes) / float64(s.TotalInputBytes) * 100
		fmt.Printf("  Compression:      %.1f%% of original\n", ratio)
	}
	fmt.Println()

	// Per-format breakdown.
	formatStats := map[string]struct {
		count int
		bytes int64
	}{}
	for _, e := range r.Entries {
		if e.Output == nil {
			continue
		}
		fs := formatStats[e.Output.Format]
		fs.count++
		fs.bytes += e.Output.Size
		formatStats[e.Output.Format] = fs
	}
	if len(formatStats) > 0 {
		var names []string
		for f := range formatStats {
			names = append(names, f)
		}
		sort.Strings(names)
		fmt.Println("  Format breakdown:")
		for _, f := range names {
			fs := formatStats[f]
			fmt.Printf("    %-6s  %4d files  %s\n", f, fs.count, formatBytes(fs.bytes))
		}
		fmt.Println()
	}

	// Compress runs: how many met the target.
	if r.Operation == "compress" && s.Completed > 0 {
		met, attempts := 0, 0
		for _, e := range r.Entries {
			if e.Output == nil {
				continue
			}
			attempts += e.Output.Attempts
			if e.Output.TargetMet {
				met++
			}
		}
		fmt.Printf("  Target %d KB met:  %d / %d\n", r.Profile.TargetSizeKB, met, s.Completed)
		fmt.Printf("  Avg attempts:     %.1f\n", float64(attempts)/float64(s.Completed))
		fmt.Println()
	}

	// Warnings.
	var warnings []string
	for _, e := range r.Entries {
		if e.Error != "" {
			warnings = append(warnings, fmt.Sprintf("%s: %s", e.Name, e.Error))
		}
		if e.Output != nil && e.Output.RatioPercent < 0 {
			warnings = append(warnings, fmt.Sprintf("%s: output is %d%% larger than the original", e.Name, -e.Output.RatioPercent))
		}
	}
	if len(warnings) > 0 {
		fmt.Printf("  Warnings (%d):\n", len(warnings))
		for _, w := range warnings {
			fmt.Printf("    ⚠ %s\n", w)
		}
		fmt.Println()
	}
}
