// Package stats implements the handful of classical tests run on the
// cleaned profiles: chi-squared independence, one-way ANCOVA, Levene
// homoscedasticity and Pearson correlation.
package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// ErrTooFewObservations is returned when a test has too little data.
var ErrTooFewObservations = errors.New("too few observations")

// ErrDegenerate is returned when the data admit no test statistic, such as
// a covariate collinear with the factor.
var ErrDegenerate = errors.New("degenerate design")

// Contingency is a two-way frequency table.
type Contingency struct {
	RowLabels []string
	ColLabels []string
	// Observed[i][j] counts rows with RowLabels[i] and ColLabels[j].
	Observed [][]float64
	Total    float64
}

// Crosstab counts co-occurrences of rows and cols; pairs with an empty
// label on either side are dropped. Labels are sorted.
func Crosstab(rows, cols []string) (*Contingency, error) {
	if len(rows) != len(cols) {
		return nil, fmt.Errorf("crosstab: length mismatch %d != %d", len(rows), len(cols))
	}
	ri, ci := map[string]int{}, map[string]int{}
	var rl, cl []string
	for i := range rows {
		if rows[i] == "" || cols[i] == "" {
			continue
		}
		if _, ok := ri[rows[i]]; !ok {
			ri[rows[i]] = 0
			rl = append(rl, rows[i])
		}
		if _, ok := ci[cols[i]]; !ok {
			ci[cols[i]] = 0
			cl = append(cl, cols[i])
		}
	}
	sort.Strings(rl)
	sort.Strings(cl)
	for i, l := range rl {
		ri[l] = i
	}
	for j, l := range cl {
		ci[l] = j
	}
	t := &Contingency{RowLabels: rl, ColLabels: cl, Observed: make([][]float64, len(rl))}
	for i := range t.Observed {
		t.Observed[i] = make([]float64, len(cl))
	}
	for i := range rows {
		if rows[i] == "" || cols[i] == "" {
			continue
		}
		t.Observed[ri[rows[i]]][ci[cols[i]]]++
		t.Total++
	}
	return t, nil
}

// Expected returns the expected frequencies under independence.
func (t *Contingency) Expected() [][]float64 {
	rowSum := make([]float64, len(t.RowLabels))
	colSum := make([]float64, len(t.ColLabels))
	for i, row := range t.Observed {
		for j, v := range row {
			rowSum[i] += v
			colSum[j] += v
		}
	}
	exp := make([][]float64, len(rowSum))
	for i := range exp {
		exp[i] = make([]float64, len(colSum))
		for j := range exp[i] {
			exp[i][j] = rowSum[i] * colSum[j] / t.Total
		}
	}
	return exp
}

// Chi2Test is one divergence statistic of an independence test.
type Chi2Test struct {
	Test    string
	Lambda  float64
	Chi2    float64
	Dof     int
	P       float64
	CramerV float64
}

// Chi2Result bundles the table, expected counts and statistics.
type Chi2Result struct {
	Table    *Contingency
	Expected [][]float64
	// Corrected reports whether Yates' continuity correction was applied.
	Corrected bool
	Tests     []Chi2Test
}

// Chi2Independence tests independence of y (table rows) and x (table
// columns). With one degree of freedom Yates' correction is applied.
func Chi2Independence(x, y []string) (*Chi2Result, error) {
	t, err := Crosstab(y, x)
	if err != nil {
		return nil, err
	}
	if len(t.RowLabels) < 2 || len(t.ColLabels) < 2 {
		return nil, fmt.Errorf("chi2: need at least 2 levels per variable, got %dx%d: %w",
			len(t.RowLabels), len(t.ColLabels), ErrTooFewObservations)
	}
	exp := t.Expected()
	dof := (len(t.RowLabels) - 1) * (len(t.ColLabels) - 1)

	obs := make([][]float64, len(t.Observed))
	for i := range t.Observed {
		obs[i] = append([]float64(nil), t.Observed[i]...)
	}
	res := &Chi2Result{Table: t, Expected: exp}
	if dof == 1 {
		res.Corrected = true
		for i := range obs {
			for j := range obs[i] {
				diff := exp[i][j] - obs[i][j]
				obs[i][j] += math.Copysign(math.Min(0.5, math.Abs(diff)), diff)
			}
		}
	}

	minDim := math.Min(float64(len(t.RowLabels)-1), float64(len(t.ColLabels)-1))
	chi := distuv.ChiSquared{K: float64(dof)}
	for _, d := range []struct {
		name   string
		lambda float64
	}{
		{"pearson", 1},
		{"log-likelihood", 0},
	} {
		stat := powerDivergence(obs, exp, d.lambda)
		res.Tests = append(res.Tests, Chi2Test{
			Test:    d.name,
			Lambda:  d.lambda,
			Chi2:    stat,
			Dof:     dof,
			P:       chi.Survival(stat),
			CramerV: math.Sqrt(stat / (t.Total * minDim)),
		})
	}
	return res, nil
}

// powerDivergence is the Cressie-Read statistic; lambda 1 is Pearson's
// chi-squared and lambda 0 the G statistic.
func powerDivergence(obs, exp [][]float64, lambda float64) float64 {
	var s float64
	for i := range obs {
		for j := range obs[i] {
			o, e := obs[i][j], exp[i][j]
			if e == 0 {
				continue
			}
			switch lambda {
			case 1:
				s += (o - e) * (o - e) / e
			case 0:
				if o > 0 {
					s += 2 * o * math.Log(o/e)
				}
			default:
				s += 2 / (lambda * (lambda + 1)) * o * (math.Pow(o/e, lambda) - 1)
			}
		}
	}
	return s
}
