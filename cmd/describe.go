package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/profilestat-cli/internal/dataset"
	"github.com/KaramelBytes/profilestat-cli/internal/describe"
	"github.com/KaramelBytes/profilestat-cli/internal/report"
	"github.com/KaramelBytes/profilestat-cli/internal/utils"
)

var descXLSX bool

var describeCmd = &cobra.Command{
	Use:   "describe [file]",
	Short: "Print descriptive statistics of the cleaned dataset",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, _, err := loadAndClean(inputPath(args))
		if err != nil {
			return err
		}
		md, gs, err := describeMarkdown(ds)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprint(w, md)
		if descXLSX {
			if err := utils.EnsureDirs(cfg.ExportDir); err != nil {
				return err
			}
			out := filepath.Join(cfg.ExportDir, report.DescStatsFile)
			if err := report.WriteDescStats(out, gs); err != nil {
				return err
			}
			fmt.Fprintf(w, "\n✓ Wrote descriptive statistics to %s\n", out)
		}
		return nil
	},
}

// describeMarkdown renders the summary, gender shares, per-gender statistics
// and the duplicated sentiment count.
func describeMarkdown(ds *dataset.Dataset) (string, *describe.GroupStats, error) {
	shares, err := describe.GenderShares(ds)
	if err != nil {
		return "", nil, err
	}
	gs, err := describe.ByGroup(ds, dataset.ColGender, describe.DefaultValueColumns)
	if err != nil {
		return "", nil, err
	}
	md := describe.Summarize(ds).Markdown() + "\n" +
		describe.SharesMarkdown("GENDER VALUE COUNT PERCENTAGE", shares) + "\n" +
		gs.Markdown() +
		fmt.Sprintf("\n[EMPTY TEXT PROFILES]\nDuplicated sentiment scores: %d\n", describe.SentimentDuplicates(ds))
	return md, gs, nil
}

func init() {
	rootCmd.AddCommand(describeCmd)
	describeCmd.Flags().BoolVar(&descXLSX, "xlsx", false, "also write "+report.DescStatsFile+" to the export directory")
}
