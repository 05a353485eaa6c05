package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/profilestat-cli/internal/analysis"
	"github.com/KaramelBytes/profilestat-cli/internal/cleaning"
	"github.com/KaramelBytes/profilestat-cli/internal/dataset"
	"github.com/KaramelBytes/profilestat-cli/internal/describe"
	"github.com/KaramelBytes/profilestat-cli/internal/manifest"
	"github.com/KaramelBytes/profilestat-cli/internal/plots"
	"github.com/KaramelBytes/profilestat-cli/internal/report"
	"github.com/KaramelBytes/profilestat-cli/internal/store"
	"github.com/KaramelBytes/profilestat-cli/internal/utils"
)

var (
	runNoPlots  bool
	runNoSQLite bool
)

var pipelineCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run the whole pipeline and write every export",
	Long: `run cleans the dataset, then writes the cleaned CSV, the Excel workbooks,
the plots and the SQLite table concurrently, and records them in run.json.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := inputPath(args)
		if err := utils.EnsureDirs(cfg.DatasetDir, cfg.ImgDir, cfg.ExportDir); err != nil {
			return err
		}
		m := manifest.New(path, cfg.ExportDir)

		ds, sum, err := loadAndClean(path)
		if err != nil {
			return err
		}
		nulls := cleaning.NullCounts(ds)
		m.Rows, m.Cleaning, m.Nulls = ds.Len(), &sum, nulls

		gs, err := describe.ByGroup(ds, dataset.ColGender, describe.DefaultValueColumns)
		if err != nil {
			return err
		}
		res, err := analysis.Run(ds, analysis.Options{Alpha: cfg.Alpha})
		if err != nil {
			return err
		}
		m.Warnings = res.Warnings
		for _, w := range res.Warnings {
			logger.Warn("test skipped", zap.String("reason", w))
		}

		// ds is read-only from here on.
		g, ctx := errgroup.WithContext(cmd.Context())
		g.Go(func() error {
			out := filepath.Join(cfg.ExportDir, CleanedCSVFile)
			if err := dataset.WriteCSVFile(out, ds); err != nil {
				return fmt.Errorf("write cleaned csv: %w", err)
			}
			m.Add("csv", out)
			return nil
		})
		g.Go(func() error {
			out := filepath.Join(cfg.ExportDir, report.DescStatsFile)
			if err := report.WriteDescStats(out, gs); err != nil {
				return err
			}
			m.Add("xlsx", out)
			return nil
		})
		g.Go(func() error {
			corr := filepath.Join(cfg.ExportDir, report.CorrelationFile)
			if err := report.WriteCorrelations(corr, res.Correlations); err != nil {
				return err
			}
			tests := filepath.Join(cfg.ExportDir, report.TestsFile)
			if err := report.WriteTests(tests, res); err != nil {
				return err
			}
			m.Add("xlsx", corr, tests)
			return nil
		})
		if !runNoPlots {
			g.Go(func() error {
				r := plots.New(cfg.ImgDir, cfg.PlotWidthCM, cfg.PlotHeightCM, logger)
				paths, err := r.All(ds, nulls, res.ChiSquared)
				m.Add("png", paths...)
				return err
			})
		}
		if !runNoSQLite && cfg.SQLitePath != "" {
			g.Go(func() error {
				if err := utils.EnsureDirs(filepath.Dir(cfg.SQLitePath)); err != nil {
					return err
				}
				db, err := store.Open(cfg.SQLitePath)
				if err != nil {
					return err
				}
				s := store.New(db, logger)
				defer s.Close()
				if err := s.ReplaceProfiles(ctx, ds); err != nil {
					return err
				}
				m.Add("sqlite", cfg.SQLitePath)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		if err := m.Save(); err != nil {
			return fmt.Errorf("save manifest: %w", err)
		}

		w := cmd.OutOrStdout()
		printCleaning(w, sum, nulls)
		fmt.Fprintf(w, "\n✓ Run %s: %d artifacts, manifest %s\n", m.ID, len(m.Artifacts), filepath.Join(cfg.ExportDir, manifest.FileName))
		logger.Info("run complete", zap.String("run_id", m.ID), zap.Int("artifacts", len(m.Artifacts)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pipelineCmd)
	pipelineCmd.Flags().BoolVar(&runNoPlots, "no-plots", false, "skip rendering plots")
	pipelineCmd.Flags().BoolVar(&runNoSQLite, "no-sqlite", false, "skip the SQLite export")
}
