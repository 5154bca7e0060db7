package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/pixbatch/internal/batch"
	"github.com/AnyUserName/pixbatch/internal/profile"
)

var (
	compressFlags    batchFlags
	compressTargetKB int
	compressQuality  float64
)

var compressCmd = &cobra.Command{
	Use:   "compress <file_or_dir>...",
	Short: "Re-encode images as JPEG under a target size",
	Long: fmt.Sprintf(`Searches for a JPEG quality that brings each image under the target
size. Quality starts at --quality and drops by %.1f per attempt, at most
10 attempts per image. When the target cannot be reached the last
attempt is kept.

Target size presets: %v KB (range %d-%d).`,
		profile.QualityStep, profile.TargetSizePresets, profile.MinTargetSizeKB, profile.MaxTargetSizeKB),
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch(cmd, args, &compressFlags, batch.OpCompress, func(p *profile.Profile) error {
			if cmd.Flags().Changed("target-kb") {
				p.TargetSizeKB = compressTargetKB
			}
			if cmd.Flags().Changed("quality") {
				p.Quality = compressQuality
			}
			return p.Validate()
		})
	},
}

func init() {
	compressFlags.register(compressCmd)
	compressCmd.Flags().IntVarP(&compressTargetKB, "target-kb", "t", 0, "target size in KB (default from profile)")
	compressCmd.Flags().Float64VarP(&compressQuality, "quality", "q", 0, "initial quality 0.1-1.0 (default from profile)")
	rootCmd.AddCommand(compressCmd)
}
