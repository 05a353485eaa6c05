package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cfgpkg "github.com/KaramelBytes/profilestat-cli/internal/config"
	"github.com/KaramelBytes/profilestat-cli/internal/logging"
)

var (
	// Global flags
	cfgFile string
	debug   bool

	// Loaded configuration and logger, set before any subcommand runs.
	cfg    *cfgpkg.Global
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "profilestat",
	Short: "Clean and analyse dating-profile datasets",
	Long: `profilestat loads a profile dataset (CSV, TSV or XLSX), applies the cleaning
rules, and produces descriptive statistics, hypothesis tests, plots and exports.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute is the entry point called by main.main()
func Execute() {
	err := rootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.profilestat/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// setup loads configuration and builds the logger.
func setup(cmd *cobra.Command, _ []string) error {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return err
	}
	cfg = c
	l, err := logging.New(cfg.LogLevel, cfg.LogFormat, debug)
	if err != nil {
		return err
	}
	logger = l
	logger.Debug("config loaded", zap.String("command", cmd.Name()), zap.String("input_path", cfg.InputPath))
	return nil
}
