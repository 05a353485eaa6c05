package stats

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// AnovaRow is one source line of an ANCOVA table. F, P and PartialEta2 are
// NaN on the residual line.
type AnovaRow struct {
	Source      string
	SS          float64
	DF          int
	F           float64
	P           float64
	PartialEta2 float64
}

// ANCOVA fits dv ~ between + covar by least squares and returns Type II
// sums of squares for the factor, the covariate and the residual. Rows with
// a NaN or empty value in any variable are dropped.
func ANCOVA(dv, covar []float64, between []string, names [2]string) ([]AnovaRow, error) {
	if len(dv) != len(covar) || len(dv) != len(between) {
		return nil, fmt.Errorf("ancova: length mismatch")
	}
	var (
		y, c []float64
		g    []string
	)
	for i := range dv {
		if math.IsNaN(dv[i]) || math.IsNaN(covar[i]) || between[i] == "" {
			continue
		}
		y = append(y, dv[i])
		c = append(c, covar[i])
		g = append(g, between[i])
	}
	levels := uniqueSorted(g)
	n, k := len(y), len(levels)
	if k < 2 {
		return nil, fmt.Errorf("ancova: need at least 2 groups, got %d: %w", k, ErrTooFewObservations)
	}
	dfRes := n - k - 1
	if dfRes < 1 {
		return nil, fmt.Errorf("ancova: %d observations for %d parameters: %w", n, k+1, ErrTooFewObservations)
	}

	dummies := func(i int) []float64 {
		row := make([]float64, k-1)
		for j, l := range levels[1:] {
			if g[i] == l {
				row[j] = 1
			}
		}
		return row
	}
	design := func(withGroup, withCovar bool) *mat.Dense {
		cols := 1
		if withGroup {
			cols += k - 1
		}
		if withCovar {
			cols++
		}
		x := mat.NewDense(n, cols, nil)
		for i := 0; i < n; i++ {
			x.Set(i, 0, 1)
			j := 1
			if withGroup {
				for _, d := range dummies(i) {
					x.Set(i, j, d)
					j++
				}
			}
			if withCovar {
				x.Set(i, j, c[i])
			}
		}
		return x
	}

	full := design(true, true)
	if !fullRank(full) {
		return nil, fmt.Errorf("ancova: %s is collinear with %s: %w", names[1], names[0], ErrDegenerate)
	}
	yv := mat.NewVecDense(n, y)
	rssFull, err := rss(full, yv)
	if err != nil {
		return nil, err
	}
	rssNoGroup, err := rss(design(false, true), yv)
	if err != nil {
		return nil, err
	}
	rssNoCovar, err := rss(design(true, false), yv)
	if err != nil {
		return nil, err
	}

	if rssFull <= 1e-12*totalSS(y) {
		return nil, fmt.Errorf("ancova: model fits the outcome exactly: %w", ErrDegenerate)
	}

	row := func(source string, ss float64, df int) AnovaRow {
		// rounding can leave a tiny negative difference
		ss = math.Max(0, ss)
		r := AnovaRow{Source: source, SS: ss, DF: df, F: math.NaN(), P: math.NaN(), PartialEta2: ss / (ss + rssFull)}
		f := (ss / float64(df)) / (rssFull / float64(dfRes))
		if !math.IsNaN(f) && !math.IsInf(f, 0) && f >= 0 {
			r.F = f
			r.P = distuv.F{D1: float64(df), D2: float64(dfRes)}.Survival(f)
		}
		return r
	}
	return []AnovaRow{
		row(names[0], rssNoGroup-rssFull, k-1),
		row(names[1], rssNoCovar-rssFull, 1),
		{Source: "Residual", SS: rssFull, DF: dfRes, F: math.NaN(), P: math.NaN(), PartialEta2: math.NaN()},
	}, nil
}

// rss returns the residual sum of squares of the least-squares fit of y on x.
func rss(x *mat.Dense, y *mat.VecDense) (float64, error) {
	var beta mat.VecDense
	if err := beta.SolveVec(x, y); err != nil {
		return 0, fmt.Errorf("ancova: least squares: %w", err)
	}
	var fit mat.VecDense
	fit.MulVec(x, &beta)
	var s float64
	for i := 0; i < y.Len(); i++ {
		r := y.AtVec(i) - fit.AtVec(i)
		s += r * r
	}
	return s, nil
}

// fullRank reports whether the columns of x are linearly independent.
func fullRank(x *mat.Dense) bool {
	var svd mat.SVD
	if !svd.Factorize(x, mat.SVDNone) {
		return false
	}
	_, c := x.Dims()
	return svd.Rank(1e-10) == c
}

func totalSS(y []float64) float64 {
	var mean float64
	for _, v := range y {
		mean += v
	}
	mean /= float64(len(y))
	var s float64
	for _, v := range y {
		s += (v - mean) * (v - mean)
	}
	return s
}

func uniqueSorted(vals []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, v := range vals {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
