package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/pixbatch/internal/decoder"
	"github.com/AnyUserName/pixbatch/internal/download"
	"github.com/AnyUserName/pixbatch/internal/encoder"
	"github.com/AnyUserName/pixbatch/internal/favicon"
	"github.com/AnyUserName/pixbatch/internal/intake"
)

var (
	faviconOut   string
	faviconSizes []int
	faviconNoZip bool
)

var faviconCmd = &cobra.Command{
	Use:   "favicon <image>",
	Short: "Render square PNG favicons from one image",
	Long: `Renders favicon-<n>x<n>.png for every size (default 16, 32, 48, 64)
and bundles them into favicons.zip.`,
	Args: cobra.ExactArgs(1),
	RunE: runFavicon,
}

func init() {
	faviconCmd.Flags().StringVarP(&faviconOut, "out", "o", "", "output directory (default from config)")
	faviconCmd.Flags().IntSliceVar(&faviconSizes, "sizes", favicon.DefaultSizes, "icon edge sizes in pixels")
	faviconCmd.Flags().BoolVar(&faviconNoZip, "no-zip", false, "write every icon separately")
	rootCmd.AddCommand(faviconCmd)
}

func runFavicon(cmd *cobra.Command, args []string) error {
	outDir := faviconOut
	if outDir == "" {
		outDir = cfg.OutputDir
	}

	path := args[0]
	mime, err := intake.DeclaredMIME(path)
	if err != nil {
		return err
	}
	if !intake.IsImage(mime) {
		return fmt.Errorf("%s is not an image (%s)", path, mime)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	a, err := decoder.Decode(filepath.Base(path), data)
	if err != nil {
		return err
	}
	defer a.Release()

	host, err := download.NewDirHost(outDir)
	if err != nil {
		return err
	}
	gen := favicon.New(encoder.NewRegistry(), logger)

	if faviconNoZip {
		files, err := gen.Generate(cmd.Context(), a, faviconSizes)
		if err != nil {
			return err
		}
		for _, f := range files {
			h, err := host.CreateHandle(f.Data, f.Name)
			if err != nil {
				return err
			}
			fmt.Printf("  ✓ %s\n", h)
		}
		return nil
	}

	out, err := gen.Bundle(cmd.Context(), a, faviconSizes, "favicons.zip")
	if err != nil {
		return err
	}
	h, err := host.CreateHandle(out.Data, out.Name)
	if err != nil {
		return err
	}
	fmt.Printf("  ✓ %s (%s)\n", h, formatBytes(int64(len(out.Data))))
	return nil
}
