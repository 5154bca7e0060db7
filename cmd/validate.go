package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/pixbatch/internal/report"
)

var validateCmd = &cobra.Command{
	Use:   "validate <out_dir_or_report>",
	Short: "Validate a pixbatch report and check the files it references",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(_ *cobra.Command, args []string) error {
	path, err := reportPath(args[0])
	if err != nil {
		return err
	}
	r, err := report.Load(path)
	if err != nil {
		return err
	}

	errs := report.Validate(r, filepath.Dir(path))
	if len(errs) == 0 {
		fmt.Println("  ✓ Report is valid")
		fmt.Printf("  ✓ %d records, %d outputs, all referenced files present\n", r.Stats.TotalRecords, r.Stats.Completed)
		return nil
	}

	fmt.Printf("  ✗ Report has %d error(s):\n", len(errs))
	for _, e := range errs {
		fmt.Printf("    • %s\n", e)
	}
	return fmt.Errorf("validation failed with %d errors", len(errs))
}
