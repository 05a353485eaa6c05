package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/profilestat-cli/internal/cleaning"
	"github.com/KaramelBytes/profilestat-cli/internal/dataset"
	"github.com/KaramelBytes/profilestat-cli/internal/utils"
)

var cleanOutput string

var cleanCmd = &cobra.Command{
	Use:   "clean [file]",
	Short: "Clean a dataset and write it as CSV",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, sum, err := loadAndClean(inputPath(args))
		if err != nil {
			return err
		}
		out := cleanOutput
		if out == "" {
			if err := utils.EnsureDirs(cfg.ExportDir); err != nil {
				return err
			}
			out = filepath.Join(cfg.ExportDir, CleanedCSVFile)
		}
		if err := dataset.WriteCSVFile(out, ds); err != nil {
			return fmt.Errorf("write cleaned csv: %w", err)
		}
		w := cmd.OutOrStdout()
		printCleaning(w, sum, cleaning.NullCounts(ds))
		fmt.Fprintf(w, "\n✓ Wrote cleaned dataset to %s\n", out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().StringVarP(&cleanOutput, "output", "o", "", "path of the cleaned CSV (default <export_dir>/"+CleanedCSVFile+")")
}
