// Package analysis runs the fixed battery of hypothesis tests over a
// cleaned profile dataset and renders it as a markdown report.
package analysis

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/KaramelBytes/profilestat-cli/internal/dataset"
	"github.com/KaramelBytes/profilestat-cli/internal/stats"
)

// Options controls the battery.
type Options struct {
	// Alpha is the significance level used for homoscedasticity verdicts.
	Alpha float64
}

// DefaultOptions returns the conventional 5% level.
func DefaultOptions() Options { return Options{Alpha: 0.05} }

// ChiVariables are tested for independence against gender.
var ChiVariables = []string{
	dataset.ColTravel,
	dataset.ColLaughter,
	dataset.ColRisquePhoto,
	dataset.ColBeachPhoto,
}

// CovarianceOutcomes are modelled as outcome ~ gender + n.photos.
var CovarianceOutcomes = []string{dataset.ColScore, dataset.ColMatches}

// AllGroups labels the correlation computed over every profile.
const AllGroups = "All"

// ChiSquared is one gender independence test.
type ChiSquared struct {
	Variable string
	*stats.Chi2Result
}

// Homoscedasticity is a Levene test of Outcome across the levels of Group.
type Homoscedasticity struct {
	Outcome string
	Group   string
	*stats.LeveneResult
}

// Covariance is one ANCOVA with its variance checks.
type Covariance struct {
	Outcome string
	Rows    []stats.AnovaRow
	Levene  []Homoscedasticity
}

// GroupCorrelation is score x matches within one gender (or all).
type GroupCorrelation struct {
	Group string
	*stats.Correlation
}

// Results holds every test that could be computed. Tests that lack data
// are skipped and explained in Warnings.
type Results struct {
	Alpha        float64
	ChiSquared   []ChiSquared
	Covariance   []Covariance
	Correlations []GroupCorrelation
	Warnings     []string
}

// Run executes the battery. Only missing columns are fatal.
func Run(ds *dataset.Dataset, opt Options) (*Results, error) {
	if opt.Alpha <= 0 || opt.Alpha >= 1 {
		opt.Alpha = DefaultOptions().Alpha
	}
	res := &Results{Alpha: opt.Alpha}
	gender, err := ds.Labels(dataset.ColGender)
	if err != nil {
		return nil, err
	}

	for _, col := range ChiVariables {
		y, err := ds.Labels(col)
		if err != nil {
			return nil, err
		}
		r, err := stats.Chi2Independence(y, gender)
		if err != nil {
			res.skip("chi2 gender x "+col, err)
			continue
		}
		res.ChiSquared = append(res.ChiSquared, ChiSquared{Variable: col, Chi2Result: r})
	}

	photos, err := ds.Floats(dataset.ColPhotos)
	if err != nil {
		return nil, err
	}
	photoLevels := photoLabels(photos)
	for _, col := range CovarianceOutcomes {
		dv, err := ds.Floats(col)
		if err != nil {
			return nil, err
		}
		cov := Covariance{Outcome: col}
		rows, err := stats.ANCOVA(dv, photos, gender, [2]string{dataset.ColGender, dataset.ColPhotos})
		if err != nil {
			res.skip("ancova "+col, err)
		} else {
			cov.Rows = rows
		}
		for _, g := range []struct {
			name   string
			levels []string
		}{
			{dataset.ColPhotos, photoLevels},
			{dataset.ColGender, gender},
		} {
			lv, err := stats.Levene(dv, g.levels, opt.Alpha)
			if err != nil {
				res.skip(fmt.Sprintf("levene %s by %s", col, g.name), err)
				continue
			}
			cov.Levene = append(cov.Levene, Homoscedasticity{Outcome: col, Group: g.name, LeveneResult: lv})
		}
		if cov.Rows != nil || cov.Levene != nil {
			res.Covariance = append(res.Covariance, cov)
		}
	}

	score, err := ds.Floats(dataset.ColScore)
	if err != nil {
		return nil, err
	}
	matches, err := ds.Floats(dataset.ColMatches)
	if err != nil {
		return nil, err
	}
	for _, g := range append(distinct(gender), AllGroups) {
		x, y := subset(score, matches, gender, g)
		c, err := stats.Pearson(x, y)
		if err != nil {
			res.skip("pearson score x n.matches for "+g, err)
			continue
		}
		res.Correlations = append(res.Correlations, GroupCorrelation{Group: g, Correlation: c})
	}
	return res, nil
}

func (r *Results) skip(test string, err error) {
	if errors.Is(err, stats.ErrTooFewObservations) || errors.Is(err, stats.ErrDegenerate) {
		r.Warnings = append(r.Warnings, fmt.Sprintf("%s skipped: %v", test, err))
		return
	}
	r.Warnings = append(r.Warnings, fmt.Sprintf("%s failed: %v", test, err))
}

// photoLabels turns the photo count into a grouping label.
func photoLabels(photos []float64) []string {
	out := make([]string, len(photos))
	for i, v := range photos {
		if !math.IsNaN(v) {
			out[i] = fmt.Sprintf("%g", v)
		}
	}
	return out
}

// distinct returns non-empty labels in first-seen order.
func distinct(labels []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, l := range labels {
		if l != "" && !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}

func subset(x, y []float64, groups []string, g string) ([]float64, []float64) {
	if g == AllGroups {
		return x, y
	}
	var xs, ys []float64
	for i := range groups {
		if groups[i] == g {
			xs = append(xs, x[i])
			ys = append(ys, y[i])
		}
	}
	return xs, ys
}

// Markdown renders the results in the same bracketed layout as the
// descriptive report.
func (r *Results) Markdown() string {
	var b strings.Builder
	b.WriteString("[CHI-SQUARED INDEPENDENCE]\n")
	for _, c := range r.ChiSquared {
		b.WriteString(fmt.Sprintf("- gender x %s (dof %d", c.Variable, c.Tests[0].Dof))
		if c.Corrected {
			b.WriteString(", Yates")
		}
		b.WriteString(")\n")
		for _, t := range c.Tests {
			b.WriteString(fmt.Sprintf("  • %s: chi2 %.4g, p %.4g, V %.4g\n", t.Test, t.Chi2, t.P, t.CramerV))
		}
	}

	b.WriteString("\n[ANCOVA]\n")
	for _, c := range r.Covariance {
		b.WriteString(fmt.Sprintf("- %s ~ gender + n.photos\n", c.Outcome))
		if len(c.Rows) > 0 {
			b.WriteString("| Source | SS | DF | F | p-unc | np2 |\n|---|---|---|---|---|---|\n")
			for _, row := range c.Rows {
				b.WriteString(fmt.Sprintf("| %s | %.4g | %d | %s | %s | %s |\n",
					row.Source, row.SS, row.DF, num(row.F), num(row.P), num(row.PartialEta2)))
			}
		}
		for _, l := range c.Levene {
			b.WriteString(fmt.Sprintf("  • levene by %s: W %.4g, p %.4g, equal_var %t\n", l.Group, l.W, l.P, l.EqualVar))
		}
	}

	b.WriteString("\n[PEARSON SCORE x N.MATCHES]\n")
	b.WriteString("| Group | n | r | CI95% | p-val | r2 |\n|---|---|---|---|---|---|\n")
	for _, c := range r.Correlations {
		b.WriteString(fmt.Sprintf("| %s | %d | %.4f | [%s, %s] | %.4g | %.4f |\n",
			c.Group, c.N, c.R, num(c.CILow), num(c.CIHigh), c.P, c.R2))
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\n[WARNINGS]\n")
		for _, w := range r.Warnings {
			b.WriteString("- " + w + "\n")
		}
	}
	return b.String()
}

func num(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.4g", v)
}
