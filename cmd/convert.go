package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/pixbatch/internal/batch"
	"github.com/AnyUserName/pixbatch/internal/encoder"
	"github.com/AnyUserName/pixbatch/internal/profile"
)

var (
	convertFlags    batchFlags
	convertFormat   string
	convertLossless bool
)

var convertCmd = &cobra.Command{
	Use:   "convert <file_or_dir>...",
	Short: "Convert images to PNG, JPEG, WebP or AVIF",
	Long: `Re-encodes every image in the chosen format at quality 0.92 and
renames it with the format's extension. JPEG has no transparency:
transparent pixels are flattened onto white. AVIF needs avifenc in PATH.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch(cmd, args, &convertFlags, batch.OpConvert, func(p *profile.Profile) error {
			if cmd.Flags().Changed("format") {
				f, err := encoder.ParseFormat(convertFormat)
				if err != nil {
					return err
				}
				p.Format = f
			}
			if cmd.Flags().Changed("lossless") {
				p.Lossless = convertLossless
			}
			reg := encoder.NewRegistry()
			if _, err := reg.Lookup(p.Format.MIMEType()); err != nil {
				return fmt.Errorf("%w (have %v)", err, reg.Available())
			}
			return p.Validate()
		})
	},
}

func init() {
	convertFlags.register(convertCmd)
	convertCmd.Flags().StringVarP(&convertFormat, "format", "f", "", "target format: png, jpeg, webp, avif (default from profile)")
	convertCmd.Flags().BoolVar(&convertLossless, "lossless", false, "lossless WebP")
	rootCmd.AddCommand(convertCmd)
}
