package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/pixbatch/internal/batch"
	"github.com/AnyUserName/pixbatch/internal/profile"
)

var (
	resizeFlags  batchFlags
	resizeWidth  int
	resizeHeight int
	resizeNoLock bool
)

var resizeCmd = &cobra.Command{
	Use:   "resize <file_or_dir>...",
	Short: "Resize images, keeping the aspect ratio by default",
	Long: `Scales every image into the requested box and re-encodes it in its
own format. With the aspect lock (default) the binding side keeps its
requested value and the other side follows the original ratio;
--no-lock-aspect uses the box exactly.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch(cmd, args, &resizeFlags, batch.OpResize, func(p *profile.Profile) error {
			if cmd.Flags().Changed("width") {
				p.Width = resizeWidth
			}
			if cmd.Flags().Changed("height") {
				p.Height = resizeHeight
			}
			if cmd.Flags().Changed("no-lock-aspect") {
				p.LockAspect = !resizeNoLock
			}
			if p.Width <= 0 || p.Height <= 0 {
				return errors.New("resize needs --width and --height (or a profile that sets both)")
			}
			return p.Validate()
		})
	},
}

func init() {
	resizeFlags.register(resizeCmd)
	resizeCmd.Flags().IntVarP(&resizeWidth, "width", "W", 0, "target width in pixels")
	resizeCmd.Flags().IntVarP(&resizeHeight, "height", "H", 0, "target height in pixels")
	resizeCmd.Flags().BoolVar(&resizeNoLock, "no-lock-aspect", false, "use the exact box, allowing distortion")
	rootCmd.AddCommand(resizeCmd)
}
