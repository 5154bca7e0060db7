package cmd

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/AnyUserName/pixbatch/internal/report"
)

func printBatchReport(r *report.Report, elapsed time.Duration) {
	title := fmt.Sprintf("pixbatch %s complete", r.Operation)
	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════════════╗")
	fmt.Printf("║%s║\n", center(title, 50))
	fmt.Println("╚══════════════════════════════════════════════════╝")
	fmt.Println()

	s := r.Stats
	fmt.Printf("  Profile:     %s\n", r.Profile.Name)
	fmt.Printf("  Images:      %d completed, %d failed", s.Completed, s.Failed)
	if s.Pending > 0 {
		fmt.Printf(", %d not run", s.Pending)
	}
	fmt.Println()
	fmt.Printf("  Input size:  %s\n", formatBytes(s.TotalInputBytes))
	fmt.Printf("  Output size: %s\n", formatBytes(s.TotalOutputBytes))
	if s.TotalInputBytes > 0 {
		ratio := float64(s.TotalOutputBytes) / float64(s.TotalInputBytes) * 100
		fmt.Printf("  Ratio:       %.1f%% of original\n", ratio)
	}
	fmt.Printf("  Time:        %s\n", elapsed.Round(time.Millisecond))
	fmt.Println()

	// Top 10 heaviest outputs.
	var done []report.Entry
	for _, e := range r.Entries {
		if e.Output != nil {
			done = append(done, e)
		}
	}
	if len(done) > 0 {
		sort.SliceStable(done, func(i, j int) bool {
			return done[i].Original.Size > done[j].Original.Size
		})
		n := min(len(done), 10)
		fmt.Printf("  Top %d heaviest (original → output):\n", n)
		for _, e := range done[:n] {
			line := fmt.Sprintf("    %-32s %8s → %8s  (%d%% saved)",
				truncKey(e.Name, 32),
				formatBytes(e.Original.Size),
				formatBytes(e.Output.Size),
				e.Output.RatioPercent,
			)
			if r.Operation == "compress" {
				line += fmt.Sprintf("  q=%.2f in %d", e.Output.Quality, e.Output.Attempts)
				if !e.Output.TargetMet {
					line += "  target missed"
				}
			}
			fmt.Println(line)
		}
		fmt.Println()
	}

	if d := r.Download; d != nil {
		if d.Archive != "" {
			fmt.Printf("  Archive:     %s (%d files, %s)\n", d.Archive, d.Files, formatBytes(d.Size))
		} else {
			fmt.Printf("  Files:       %d written\n", d.Files)
		}
	}
	fmt.Printf("  Report:      %s\n", report.FileName)
	fmt.Println()
}

func center(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	left := (width - n) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-n-left)
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

func truncKey(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max+3:]
}
