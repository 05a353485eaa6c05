package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/KaramelBytes/profilestat-cli/internal/cleaning"
	"github.com/KaramelBytes/profilestat-cli/internal/dataset"
)

// CleanedCSVFile is the cleaned dataset's name inside the export directory.
const CleanedCSVFile = "table.exportcsv.csv"

// inputPath returns the positional argument, or the configured input.
func inputPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return cfg.InputPath
}

// loadAndClean reads the dataset at path and applies the cleaning rules.
func loadAndClean(path string) (*dataset.Dataset, cleaning.Summary, error) {
	ds, err := dataset.Load(path, dataset.Options{Delimiter: cfg.DelimiterRune(), Sheet: cfg.Sheet})
	if err != nil {
		return nil, cleaning.Summary{}, fmt.Errorf("load %s: %w", filepath.Base(path), err)
	}
	logger.Info("dataset loaded", zap.String("path", path), zap.Int("rows", ds.Len()))
	c := cleaning.New(cleaning.Options{StrictSentiment: cfg.StrictSentiment}, logger)
	return ds, c.Clean(ds), nil
}

// printCleaning writes the cleaning summary and null counts.
func printCleaning(w io.Writer, sum cleaning.Summary, nulls []cleaning.NullCount) {
	fmt.Fprintln(w, "[CLEANING]")
	fmt.Fprintf(w, "Rows: %d\n", sum.Rows)
	for _, rc := range sum.Changed {
		fmt.Fprintf(w, "- %s: %d rows changed\n", rc.Rule, rc.Rows)
	}
	fmt.Fprintln(w, "\n[MISSING VALUES COUNT]")
	for _, n := range nulls {
		fmt.Fprintf(w, "- %s: %d\n", n.Column, n.Nulls)
	}
}
