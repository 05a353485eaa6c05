package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Correlation is a Pearson correlation test result.
type Correlation struct {
	N      int
	R      float64
	CILow  float64
	CIHigh float64
	P      float64
	R2     float64
}

// Pearson correlates x and y over the pairs where both are present.
// The 95% interval uses Fisher's z; the p-value is two-sided.
func Pearson(x, y []float64) (*Correlation, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("pearson: length mismatch")
	}
	var xs, ys []float64
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	n := len(xs)
	if n < 3 {
		return nil, fmt.Errorf("pearson: %d pairs: %w", n, ErrTooFewObservations)
	}
	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) {
		return nil, fmt.Errorf("pearson: constant input")
	}
	r = math.Max(-1, math.Min(1, r))
	c := &Correlation{N: n, R: r, R2: r * r}

	df := float64(n - 2)
	if math.Abs(r) == 1 {
		c.P = 0
	} else {
		t := r * math.Sqrt(df/(1-r*r))
		c.P = 2 * distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}.Survival(math.Abs(t))
	}
	if n > 3 {
		z := math.Atanh(r)
		se := 1 / math.Sqrt(float64(n-3))
		crit := distuv.UnitNormal.Quantile(0.975)
		c.CILow = math.Tanh(z - crit*se)
		c.CIHigh = math.Tanh(z + crit*se)
	} else {
		c.CILow, c.CIHigh = math.NaN(), math.NaN()
	}
	return c, nil
}
