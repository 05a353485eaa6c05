// Package report writes the tabular results as Excel workbooks.
package report

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/profilestat-cli/internal/analysis"
	"github.com/KaramelBytes/profilestat-cli/internal/describe"
)

// Workbook file and sheet names inside the export directory.
const (
	DescStatsFile  = "table.descstats.exportexcel.xlsx"
	DescStatsSheet = "Desc stats"

	CorrelationFile  = "table.exportexcel.xlsx"
	CorrelationSheet = "TestPearson Score-Matches"

	TestsFile          = "table.tests.exportexcel.xlsx"
	ChiSheet           = "Chi2"
	AncovaSheet        = "ANCOVA"
	HomoscedasticSheet = "Homoscedasticity"
)

// sheet accumulates rows for one worksheet.
type sheet struct {
	name string
	rows [][]interface{}
}

func (s *sheet) add(cells ...interface{}) { s.rows = append(s.rows, cells) }

// save writes sheets, in order, to path. The default sheet is renamed to
// the first one.
func save(path string, sheets ...*sheet) error {
	f := excelize.NewFile()
	defer f.Close()
	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), s.name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return fmt.Errorf("new sheet %s: %w", s.name, err)
		}
		for r, row := range s.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(s.name, cell, &row); err != nil {
				return fmt.Errorf("%s row %d: %w", s.name, r+1, err)
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", filepath.Base(path), err)
	}
	return nil
}

// value maps NaN and infinities to empty cells.
func value(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

// WriteDescStats writes the per-group aggregates as a pivot: one row per
// value column, one column per (aggregate, group) pair.
func WriteDescStats(path string, g *describe.GroupStats) error {
	s := &sheet{name: DescStatsSheet}
	top := []interface{}{""}
	sub := []interface{}{g.GroupColumn}
	for _, agg := range describe.AggregateNames {
		for _, grp := range g.Groups {
			top = append(top, agg)
			sub = append(sub, grp)
		}
	}
	s.add(top...)
	s.add(sub...)
	for _, col := range g.Values {
		row := []interface{}{col}
		for _, agg := range describe.AggregateNames {
			for _, grp := range g.Groups {
				row = append(row, value(g.Cell(col, grp).Get(agg)))
			}
		}
		s.add(row...)
	}
	return save(path, s)
}

// WriteCorrelations writes one row per group's score x matches test.
func WriteCorrelations(path string, cs []analysis.GroupCorrelation) error {
	s := &sheet{name: CorrelationSheet}
	s.add("", "n", "r", "CI95%", "p-val", "r2", "Gender")
	for _, c := range cs {
		ci := ""
		if !math.IsNaN(c.CILow) {
			ci = fmt.Sprintf("[%.2f, %.2f]", c.CILow, c.CIHigh)
		}
		s.add("pearson", c.N, value(c.R), ci, value(c.P), value(c.R2), c.Group)
	}
	return save(path, s)
}

// WriteTests writes the chi-squared, ANCOVA and homoscedasticity results
// to separate sheets of one workbook.
func WriteTests(path string, r *analysis.Results) error {
	chi := &sheet{name: ChiSheet}
	chi.add("variable", "test", "lambda", "chi2", "dof", "pval", "cramer", "yates")
	for _, c := range r.ChiSquared {
		for _, t := range c.Tests {
			chi.add(c.Variable, t.Test, t.Lambda, value(t.Chi2), t.Dof, value(t.P), value(t.CramerV), c.Corrected)
		}
	}

	anc := &sheet{name: AncovaSheet}
	anc.add("dv", "Source", "SS", "DF", "F", "p-unc", "np2")
	lev := &sheet{name: HomoscedasticSheet}
	lev.add("dv", "group", "W", "pval", "equal_var")
	for _, c := range r.Covariance {
		for _, row := range c.Rows {
			anc.add(c.Outcome, row.Source, value(row.SS), row.DF, value(row.F), value(row.P), value(row.PartialEta2))
		}
		for _, l := range c.Levene {
			lev.add(l.Outcome, l.Group, value(l.W), value(l.P), l.EqualVar)
		}
	}
	return save(path, chi, anc, lev)
}
