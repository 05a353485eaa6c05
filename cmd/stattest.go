package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/profilestat-cli/internal/analysis"
	"github.com/KaramelBytes/profilestat-cli/internal/report"
	"github.com/KaramelBytes/profilestat-cli/internal/utils"
)

var testXLSX bool

var testCmd = &cobra.Command{
	Use:   "test [file]",
	Short: "Run the chi-squared, ANCOVA and correlation tests",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, _, err := loadAndClean(inputPath(args))
		if err != nil {
			return err
		}
		res, err := analysis.Run(ds, analysis.Options{Alpha: cfg.Alpha})
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprint(w, res.Markdown())
		if !testXLSX {
			return nil
		}
		if err := utils.EnsureDirs(cfg.ExportDir); err != nil {
			return err
		}
		corr := filepath.Join(cfg.ExportDir, report.CorrelationFile)
		if err := report.WriteCorrelations(corr, res.Correlations); err != nil {
			return err
		}
		tests := filepath.Join(cfg.ExportDir, report.TestsFile)
		if err := report.WriteTests(tests, res); err != nil {
			return err
		}
		fmt.Fprintf(w, "\n✓ Wrote %s and %s\n", corr, tests)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(testCmd)
	testCmd.Flags().BoolVar(&testXLSX, "xlsx", false, "also write the test workbooks to the export directory")
}
