package stats

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// LeveneResult is a homoscedasticity test outcome.
type LeveneResult struct {
	W        float64
	P        float64
	EqualVar bool
}

// Levene tests equality of variances across groups using deviations from
// the group medians (Brown-Forsythe). EqualVar is set when P > alpha.
func Levene(values []float64, groups []string, alpha float64) (*LeveneResult, error) {
	if len(values) != len(groups) {
		return nil, fmt.Errorf("levene: length mismatch")
	}
	buckets := map[string][]float64{}
	for i, v := range values {
		if math.IsNaN(v) || groups[i] == "" {
			continue
		}
		buckets[groups[i]] = append(buckets[groups[i]], v)
	}
	k := len(buckets)
	var n int
	for _, b := range buckets {
		n += len(b)
	}
	if k < 2 || n <= k {
		return nil, fmt.Errorf("levene: %d observations in %d groups: %w", n, k, ErrTooFewObservations)
	}

	z := map[string][]float64{}
	zMean := map[string]float64{}
	var zAll float64
	for key, b := range buckets {
		sorted := append([]float64(nil), b...)
		sort.Float64s(sorted)
		med := median(sorted)
		dev := make([]float64, len(b))
		var s float64
		for i, v := range b {
			dev[i] = math.Abs(v - med)
			s += dev[i]
		}
		z[key] = dev
		zMean[key] = s / float64(len(b))
		zAll += s
	}
	zAll /= float64(n)

	var between, within float64
	for key, dev := range z {
		d := zMean[key] - zAll
		between += float64(len(dev)) * d * d
		for _, v := range dev {
			e := v - zMean[key]
			within += e * e
		}
	}
	if within == 0 {
		if between == 0 {
			// every group is constant: no spread to compare
			return &LeveneResult{W: math.NaN(), P: math.NaN(), EqualVar: true}, nil
		}
		return &LeveneResult{W: math.Inf(1), P: 0}, nil
	}
	d1, d2 := float64(k-1), float64(n-k)
	w := (d2 / d1) * between / within
	p := distuv.F{D1: d1, D2: d2}.Survival(w)
	return &LeveneResult{W: w, P: p, EqualVar: p > alpha}, nil
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
