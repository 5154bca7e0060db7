package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/pixbatch/internal/analyze"
	"github.com/AnyUserName/pixbatch/internal/decoder"
	"github.com/AnyUserName/pixbatch/internal/intake"
)

var (
	infoColors     int
	infoSampleStep int
	infoJSON       bool
)

var infoCmd = &cobra.Command{
	Use:   "info <file_or_dir>...",
	Short: "Show size, geometry and dominant colors of images",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runInfo,
}

func init() {
	infoCmd.Flags().IntVarP(&infoColors, "colors", "c", analyze.DefaultColorLimit, "dominant colors to list (0 = none)")
	infoCmd.Flags().IntVar(&infoSampleStep, "sample", analyze.DefaultSampleStep, "sample every Nth pixel for colors")
	infoCmd.Flags().BoolVar(&infoJSON, "json", false, "print JSON instead of text")
	rootCmd.AddCommand(infoCmd)
}

type infoResult struct {
	analyze.Info
	Colors *analyze.Palette `json:"colors,omitempty"`
}

func runInfo(_ *cobra.Command, args []string) error {
	sel, err := intake.Scan(args)
	if err != nil {
		return err
	}

	var results []infoResult
	for _, src := range sel.Sources {
		data, err := src.Read()
		if err != nil {
			return err
		}
		a, err := decoder.Decode(src.Name, data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  ✗ %v\n", err)
			continue
		}
		res := infoResult{Info: analyze.Describe(a)}
		if infoColors > 0 {
			if res.Colors, err = analyze.DominantColors(a, infoSampleStep, infoColors); err != nil {
				return err
			}
		}
		a.Release()
		results = append(results, res)
	}

	if infoJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	for _, r := range results {
		printInfo(r)
	}
	return nil
}

func printInfo(r infoResult) {
	fmt.Println()
	fmt.Printf("  %s\n", r.Name)
	fmt.Printf("    Type:        %s\n", r.MIMEType)
	fmt.Printf("    Size:        %d KB (%.2f MB)\n", r.SizeKB, r.SizeMB)
	fmt.Printf("    Dimensions:  %dx%d (%.2f MP, ratio %.2f)\n", r.Width, r.Height, r.Megapixels, r.AspectRatio)
	fmt.Printf("    Alpha:       %v\n", r.HasAlpha)
	fmt.Printf("    Avg color:   #%02x%02x%02x\n", r.AvgColor[0], r.AvgColor[1], r.AvgColor[2])
	fmt.Printf("    Hash:        %s\n", r.Fingerprint)
	if r.Colors != nil && len(r.Colors.Colors) > 0 {
		fmt.Printf("    Dominant colors (%d of %d pixels sampled):\n", r.Colors.SampledPixels, r.Colors.TotalPixels)
		for _, c := range r.Colors.Colors {
			fmt.Printf("      %s  %d\n", c.Hex(), c.Count)
		}
	}
}
